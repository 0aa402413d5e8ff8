// Package server wires configuration, storage, signing keys, services and
// the HTTP router together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/bookmarkauth/internal/dbx"
	"github.com/dmitrijs2005/bookmarkauth/internal/logging"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/auth"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/config"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/events"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/metrics"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/password"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/rest"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/services"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/telemetry"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	keys      *auth.Keyring
	sessions  *services.SessionManager
	publisher events.Publisher
	handler   http.Handler
	tracing   telemetry.Shutdown
}

// NewApp builds every component from c. Logs go to w (os.Stdout when nil).
// Any failure here is a startup failure; resources acquired so far are
// released before returning.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (_ *App, err error) {
	if w == nil {
		w = os.Stdout
	}
	logger, err := logging.New(c.LogFormat, c.LogLevel, w)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger}
	defer func() {
		if err != nil {
			app.close(ctx)
		}
	}()

	if app.tracing, err = telemetry.Init(ctx, c.OTLPEndpoint); err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}

	if app.db, err = dbx.Open(ctx, c.StorageDriver, c.DatabaseDSN); err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.New(c.StorageDriver, repomanager.WithLogger(logger.With("module", "migrations")))
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	if app.keys, err = auth.NewKeyring(ctx, auth.KeySourceFromConfig(c)); err != nil {
		return nil, fmt.Errorf("signing key error: %w", err)
	}

	hasher, err := password.New(password.Config{
		Algorithm:  c.PasswordAlgorithm,
		BcryptCost: c.BcryptCost,
		Argon2: password.Argon2idParams{
			Iterations:  c.Argon2Iterations,
			MemoryKiB:   c.Argon2MemoryKiB,
			Parallelism: c.Argon2Parallelism,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("password hasher error: %w", err)
	}

	app.publisher = events.NopPublisher{}
	if c.NATSURL != "" {
		nc, err := events.NewNATSPublisher(c.NATSURL, c.EventSubjectPrefix)
		if err != nil {
			return nil, fmt.Errorf("nats connect error: %w", err)
		}
		app.publisher = nc
	}

	reg, m := metrics.NewRegistry()
	deps := services.Deps{
		Logger:  logger.With("module", "services"),
		Metrics: m,
		Events:  app.publisher,
	}

	issuer := auth.NewTokenIssuer(app.keys, c.AccessTokenValidityDuration, nil)
	app.sessions = services.NewSessionManager(app.db, rm, c, deps)
	users, err := services.NewUserService(app.db, rm, hasher, issuer, app.sessions, deps)
	if err != nil {
		return nil, err
	}

	app.handler = telemetry.Middleware(rest.NewRouter(rest.Options{
		Users:              users,
		Sessions:           app.sessions,
		Tokens:             issuer,
		DB:                 app.db,
		Logger:             logger,
		Metrics:            m,
		Gatherer:           reg,
		AllowedOrigins:     c.CORSAllowedOrigins,
		RateLimitPerMinute: c.RateLimitPerMinute,
	}))

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) close(ctx context.Context) {
	if app.publisher != nil {
		app.publisher.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "err", err)
		}
	}
	if app.tracing != nil {
		if err := app.tracing(ctx); err != nil {
			app.logger.Error(ctx, "tracing shutdown error", "err", err)
		}
	}
}

// reloadKeysOnHangup re-reads the signing secret each time SIGHUP arrives.
func (app *App) reloadKeysOnHangup(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := app.keys.Reload(ctx); err != nil {
				app.logger.Error(ctx, "signing key reload failed", "err", err)
				continue
			}
			app.logger.Info(ctx, "signing key reloaded")
		}
	}
}

func (app *App) serveHTTP(ctx context.Context) error {
	listen, err := net.Listen("tcp", app.config.HTTPAddr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "err", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// the server down gracefully and releases all resources.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.serveHTTP(ctx); err != nil {
			app.logger.Error(ctx, "http server error", "err", err)
			runErr = err
			stop()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.reloadKeysOnHangup(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sessions.RunCleanup(ctx, app.config.SessionCleanupInterval)
	}()

	wg.Wait()

	app.close(context.Background())
	app.logger.Info(context.Background(), "App stopped")
	return runErr
}
