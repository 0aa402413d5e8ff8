package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/dmitrijs2005/bookmarkauth/internal/dbx"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/models"
	"github.com/google/uuid"
)

type queries struct {
	create         string
	getByEmail     string
	getByID        string
	getBySessionID string
}

const userColumns = `u.id, u.email, u.password_hash, u.signup_type, u.username, u.image, u.created_at, u.updated_at`

var postgresQueries = queries{
	create: `INSERT INTO users (id, email, password_hash, signup_type, username, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	getByEmail: `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1`,
	getByID:    `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`,
	getBySessionID: `SELECT ` + userColumns + `, s.id, s.token, s.expires_at, s.created_at
		FROM users u JOIN sessions s ON s.user_id = u.id
		WHERE u.id = $1 AND s.token = $2`,
}

var sqliteQueries = queries{
	create: `INSERT INTO users (id, email, password_hash, signup_type, username, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	getByEmail: `SELECT ` + userColumns + ` FROM users u WHERE u.email = ?`,
	getByID:    `SELECT ` + userColumns + ` FROM users u WHERE u.id = ?`,
	getBySessionID: `SELECT ` + userColumns + `, s.id, s.token, s.expires_at, s.created_at
		FROM users u JOIN sessions s ON s.user_id = u.id
		WHERE u.id = ? AND s.token = ?`,
}

// SQLRepository implements Repository over dbx.DBTX (a *sql.DB or *sql.Tx)
// for one SQL dialect.
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

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.SignupType == "" {
		user.SignupType = models.SignupNormal
	}

	_, err := r.db.ExecContext(ctx, r.q.create,
		user.ID, user.Email, user.PasswordHash, string(user.SignupType),
		user.Username, user.Image, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, r.q.getByEmail, email)
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, r.q.getByID, id)
}

func (r *SQLRepository) GetByIDAndSessionToken(ctx context.Context, id, token string) (*models.User, error) {
	user := &models.User{}
	s := models.Session{}

	dest := append(userDest(user), &s.ID, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if err := r.db.QueryRowContext(ctx, r.q.getBySessionID, id, token).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	s.UserID = user.ID
	user.Sessions = []models.Session{s}
	return user, nil
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(userDest(user)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func userDest(u *models.User) []any {
	return []any{&u.ID, &u.Email, &u.PasswordHash, &u.SignupType, &u.Username, &u.Image, &u.CreatedAt, &u.UpdatedAt}
}
