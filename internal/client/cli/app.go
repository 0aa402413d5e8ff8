package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/bookmarkauth/internal/client/client"
	"github.com/dmitrijs2005/bookmarkauth/internal/client/config"
	"github.com/dmitrijs2005/bookmarkauth/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/bookmarkauth/internal/client/services"
	"github.com/dmitrijs2005/bookmarkauth/internal/common"
)

type App struct {
	config *config.Config
	auth   services.AuthService
	reader *bufio.Reader
	out    io.Writer
	db     *sql.DB
}

// newAuthService is a test seam; it opens the credential store and builds
// the HTTP-backed AuthService.
var newAuthService = func(ctx context.Context, cfg *config.Config) (services.AuthService, *sql.DB, error) {
	db, err := credentials.OpenSQLite(ctx, cfg.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open credential store: %w", err)
	}
	api := client.New(cfg.ServerURL, cfg.Timeout, nil)
	return services.NewAuthService(api, credentials.NewSQLiteRepository(db), cfg.ServerURL), db, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) email(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return promptLine(a.reader, "Email", a.out)
}

func (a *App) Signup(ctx context.Context, emailFlag string) error {
	email, err := a.email(emailFlag)
	if err != nil {
		return err
	}
	password, err := promptPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.auth.Signup(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed up as %s (id %s)\n", user.Email, user.ID)
	return nil
}

func (a *App) Login(ctx context.Context, emailFlag string) error {
	email, err := a.email(emailFlag)
	if err != nil {
		return err
	}
	password, err := promptPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Email)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if _, err := a.auth.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Access token renewed")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	user, err := a.auth.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "id:          %s\n", user.ID)
	fmt.Fprintf(a.out, "email:       %s\n", user.Email)
	fmt.Fprintf(a.out, "signup type: %s\n", user.SignupType)
	if user.Username != "" {
		fmt.Fprintf(a.out, "username:    %s\n", user.Username)
	}
	fmt.Fprintf(a.out, "created:     %s\n", user.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
