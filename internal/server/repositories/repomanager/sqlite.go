package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bookmarkauth/internal/dbx"
	"github.com/dmitrijs2005/bookmarkauth/internal/logging"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/migrations"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/repositories/users"
)

// SQLiteRepositoryManager vends SQLite-backed repositories. It is used for
// single-node deployments and for tests with an in-memory database.
type SQLiteRepositoryManager struct {
	log logging.Logger
}

func NewSQLiteRepositoryManager(opts ...Option) *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{log: newOptions(opts).log}
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLiteRepository(db)
}

// RunMigrations applies the embedded SQLite migrations.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, m.log, migrations.SQLite, "sqlite3", "sqlite")
}
