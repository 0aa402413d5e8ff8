package sessions

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bookmarkauth/internal/dbx"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/models"
	"github.com/oklog/ulid/v2"
)

type queries struct {
	insert        string
	listByUser    string
	deleteExpired string
}

var postgresQueries = queries{
	insert: `INSERT INTO sessions (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
	listByUser: `SELECT id, user_id, token, expires_at, created_at
		FROM sessions WHERE user_id = $1 ORDER BY id`,
	deleteExpired: `DELETE FROM sessions WHERE expires_at <= $1`,
}

var sqliteQueries = queries{
	insert: `INSERT INTO sessions (id, user_id, token, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
	listByUser: `SELECT id, user_id, token, expires_at, created_at
		FROM sessions WHERE user_id = ? ORDER BY id`,
	deleteExpired: `DELETE FROM sessions WHERE expires_at <= ?`,
}

// SQLRepository implements Repository over dbx.DBTX for one SQL dialect.
type SQLRepository struct {
	db dbx.DBTX
	q  queries
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries}
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries}
}

// Append assigns a ULID when the session has no id yet, so a user's
// sessions sort in creation order.
func (r *SQLRepository) Append(ctx context.Context, s *models.Session) error {
	if s.ID == "" {
		s.ID = ulid.Make().String()
	}

	if _, err := r.db.ExecContext(ctx, r.q.insert, s.ID, s.UserID, s.Token, s.ExpiresAt, s.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, r.q.listByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.q.deleteExpired, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
