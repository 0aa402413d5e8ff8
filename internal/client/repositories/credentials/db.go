package credentials

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bookmarkauth/internal/client/migrations"
	"github.com/dmitrijs2005/bookmarkauth/internal/dbx"
	"github.com/dmitrijs2005/bookmarkauth/internal/filex"
	"github.com/pressly/goose/v3"
)

// OpenSQLite opens (creating if needed) the local credential database at
// path and applies the embedded migrations.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if _, err := filex.EnsureParentDir(path, 0o700); err != nil {
			return nil, err
		}
	}

	db, err := dbx.Open(ctx, dbx.DriverSQLite, path)
	if err != nil {
		return nil, err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
