// Package services contains application services for the bookmarkauth
// client. AuthService combines the HTTP API with the local credential
// store so that tokens survive between CLI invocations.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bookmarkauth/internal/client/client"
	"github.com/dmitrijs2005/bookmarkauth/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/dmitrijs2005/bookmarkauth/internal/timex"
)

// ErrNotLoggedIn is returned when no tokens are stored for the server.
var ErrNotLoggedIn = errors.New("not logged in; run signup or login first")

// API is the subset of client.Client the service needs.
type API interface {
	Signup(ctx context.Context, email string, password []byte) (*client.User, *client.Credentials, error)
	Login(ctx context.Context, email string, password []byte) (*client.User, *client.Credentials, error)
	RefreshAccessToken(ctx context.Context, userID, refreshToken string) (string, error)
	Me(ctx context.Context, accessToken string) (*client.User, error)
}

// AuthService defines the authentication operations of the CLI.
type AuthService interface {
	Signup(ctx context.Context, email string, password []byte) (*client.User, error)
	Login(ctx context.Context, email string, password []byte) (*client.User, error)
	Refresh(ctx context.Context) (string, error)
	Me(ctx context.Context) (*client.User, error)
	Logout(ctx context.Context) error
}

type authService struct {
	api    API
	repo   credentials.Repository
	server string
	now    timex.Clock
}

// NewAuthService binds the API client and credential store to one server URL.
func NewAuthService(api API, repo credentials.Repository, server string) AuthService {
	return &authService{api: api, repo: repo, server: server, now: timex.Now}
}

func (a *authService) remember(ctx context.Context, user *client.User, creds *client.Credentials) error {
	return a.repo.Save(ctx, &credentials.Record{
		Server:       a.server,
		UserID:       creds.UserID,
		Email:        user.Email,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		UpdatedAt:    a.now(),
	})
}

func (a *authService) Signup(ctx context.Context, email string, password []byte) (*client.User, error) {
	user, creds, err := a.api.Signup(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := a.remember(ctx, user, creds); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (*client.User, error) {
	user, creds, err := a.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := a.remember(ctx, user, creds); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authService) stored(ctx context.Context) (*credentials.Record, error) {
	rec, err := a.repo.Get(ctx, a.server)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, ErrNotLoggedIn
	}
	return rec, err
}

// Refresh obtains a new access token with the stored refresh session and
// saves it.
func (a *authService) Refresh(ctx context.Context) (string, error) {
	rec, err := a.stored(ctx)
	if err != nil {
		return "", err
	}

	token, err := a.api.RefreshAccessToken(ctx, rec.UserID, rec.RefreshToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return "", fmt.Errorf("refresh session rejected, log in again: %w", err)
		}
		return "", err
	}

	if err := a.repo.UpdateAccessToken(ctx, a.server, token, a.now()); err != nil {
		return "", err
	}
	return token, nil
}

// Me fetches the profile, renewing the access token once if the stored
// one is rejected.
func (a *authService) Me(ctx context.Context) (*client.User, error) {
	rec, err := a.stored(ctx)
	if err != nil {
		return nil, err
	}

	user, err := a.api.Me(ctx, rec.AccessToken)
	if err == nil || !errors.Is(err, client.ErrUnauthorized) {
		return user, err
	}

	token, err := a.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return a.api.Me(ctx, token)
}

// Logout forgets the stored tokens. The server keeps the session row
// until it expires.
func (a *authService) Logout(ctx context.Context) error {
	return a.repo.Delete(ctx, a.server)
}
