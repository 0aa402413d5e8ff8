// Package sessions persists refresh sessions as rows of a child table of
// users, so adding a session never rewrites the owner's other sessions.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/bookmarkauth/internal/server/models"
)

type Repository interface {
	// Append inserts one session for its owner.
	Append(ctx context.Context, s *models.Session) error
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)
	// DeleteExpired removes sessions whose expiry is at or before now
	// (epoch seconds) and reports how many were removed.
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}
