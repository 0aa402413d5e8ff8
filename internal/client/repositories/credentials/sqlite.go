package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/dmitrijs2005/bookmarkauth/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, server string) (*Record, error) {
	rec := &Record{Server: server}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, email, access_token, refresh_token, updated_at
		FROM credentials WHERE server = ?`, server).
		Scan(&rec.UserID, &rec.Email, &rec.AccessToken, &rec.RefreshToken, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials for %s: %w", server, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, rec *Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (server, user_id, email, access_token, refresh_token, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(server) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at
	`, rec.Server, rec.UserID, rec.Email, rec.AccessToken, rec.RefreshToken, rec.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save credentials for %s: %w", rec.Server, err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateAccessToken(ctx context.Context, server, token string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credentials SET access_token = ?, updated_at = ? WHERE server = ?`, token, at.UTC(), server)
	if err != nil {
		return fmt.Errorf("failed to update access token for %s: %w", server, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete is idempotent.
func (r *SQLiteRepository) Delete(ctx context.Context, server string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE server = ?`, server); err != nil {
		return fmt.Errorf("failed to delete credentials for %s: %w", server, err)
	}
	return nil
}
