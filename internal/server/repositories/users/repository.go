// Package users persists user records.
package users

import (
	"context"

	"github.com/dmitrijs2005/bookmarkauth/internal/server/models"
)

type Repository interface {
	// Create stores a new user; a taken email yields common.ErrDuplicateEmail.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByIDAndSessionToken returns the user only when it owns a session
	// with exactly this token; Sessions then holds that one session.
	GetByIDAndSessionToken(ctx context.Context, id, token string) (*models.User, error)
}
