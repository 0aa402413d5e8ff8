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

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct {
	log logging.Logger
}

func NewPostgresRepositoryManager(opts ...Option) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{log: newOptions(opts).log}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

// RunMigrations applies the embedded PostgreSQL migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, m.log, migrations.Postgres, "pgx", "postgres")
}
