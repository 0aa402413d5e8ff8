// Package credentials keeps the tokens of the last signup or login on the
// client machine, one row per server URL.
package credentials

import (
	"context"
	"time"
)

// Record is what the CLI remembers between invocations.
type Record struct {
	Server       string
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	UpdatedAt    time.Time
}

type Repository interface {
	// Get returns common.ErrorNotFound when nothing is stored for server.
	Get(ctx context.Context, server string) (*Record, error)
	Save(ctx context.Context, r *Record) error
	UpdateAccessToken(ctx context.Context, server, token string, at time.Time) error
	Delete(ctx context.Context, server string) error
}
