package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/dmitrijs2005/bookmarkauth/internal/client/config"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree. Flags override cfg, which holds
// defaults and environment values on entry.
func NewRootCommand(cfg *config.Config, in io.Reader, out io.Writer) *cobra.Command {
	app := &App{config: cfg, reader: bufio.NewReader(in), out: out}

	cmd := &cobra.Command{
		Use:           "bookmarkauth",
		Short:         "Client for the bookmarkauth credential service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			auth, db, err := newAuthService(commandContext(cmd), cfg)
			if err != nil {
				return err
			}
			app.auth, app.db = auth, db
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cfg.ServerURL, "server", "a", cfg.ServerURL, "Base URL of the bookmarkauth server")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	flags.StringVar(&cfg.StorePath, "store", cfg.StorePath, "SQLite file holding saved tokens")

	cmd.AddCommand(
		newCredentialsCommand("signup", "Create an account and log in", app.Signup),
		newCredentialsCommand("login", "Log in and store the issued tokens", app.Login),
		newSimpleCommand("refresh", "Renew the access token with the stored refresh session", app.Refresh),
		newSimpleCommand("me", "Show the logged-in user's profile", app.Me),
		newSimpleCommand("logout", "Forget the stored tokens", app.Logout),
	)
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newCredentialsCommand(use, short string, run func(ctx context.Context, email string) error) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(commandContext(cmd), email)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email (prompted when empty)")
	return cmd
}

func newSimpleCommand(use, short string, run func(ctx context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(commandContext(cmd))
		},
	}
}
