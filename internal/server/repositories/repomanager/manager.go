// Package repomanager vends repository implementations for the configured
// storage dialect and runs that dialect's schema migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	"github.com/dmitrijs2005/bookmarkauth/internal/dbx"
	"github.com/dmitrijs2005/bookmarkauth/internal/logging"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}

// New returns the manager for a storage driver name (see dbx.Driver*).
func New(driver string, opts ...Option) (RepositoryManager, error) {
	switch driver {
	case dbx.DriverPostgres:
		return NewPostgresRepositoryManager(opts...), nil
	case dbx.DriverSQLite:
		return NewSQLiteRepositoryManager(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", dbx.ErrUnknownDriver, driver)
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

func runMigrations(ctx context.Context, db *sql.DB, log logging.Logger, fsys fs.FS, dialect, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(gooseLoggerFor(ctx, log))
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, dir)
}
