package rest

import (
	"context"

	"github.com/dmitrijs2005/bookmarkauth/internal/server/models"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	userKey
)

func withUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func withUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(withUserID(ctx, u.ID), userKey, u)
}

// UserIDFromContext returns the id bound by either guard.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// UserFromContext returns the user bound by RefreshGuard.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}
