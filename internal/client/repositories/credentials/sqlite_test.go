package credentials

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sample(server string) *Record {
	return &Record{
		Server:       server,
		UserID:       "u1",
		Email:        "a@b.c",
		AccessToken:  "at",
		RefreshToken: "rt",
		UpdatedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sample("http://localhost:3000")))

	got, err := r.Get(ctx, "http://localhost:3000")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "rt", got.RefreshToken)
	assert.True(t, got.UpdatedAt.Equal(sample("").UpdatedAt))
}

func TestGet_NotExists(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.Get(context.Background(), "http://nowhere")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSave_UpsertsPerServer(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sample("s1")))
	second := sample("s1")
	second.UserID, second.RefreshToken = "u2", "rt2"
	require.NoError(t, r.Save(ctx, second))
	require.NoError(t, r.Save(ctx, sample("s2")))

	got, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u2", got.UserID)
	assert.Equal(t, "rt2", got.RefreshToken)

	other, err := r.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "u1", other.UserID)
}

func TestUpdateAccessToken(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.ErrorIs(t, r.UpdateAccessToken(ctx, "s1", "x", time.Now()), common.ErrorNotFound)

	require.NoError(t, r.Save(ctx, sample("s1")))
	require.NoError(t, r.UpdateAccessToken(ctx, "s1", "at2", time.Now()))

	got, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "at2", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)
}

func TestDelete_Idempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sample("s1")))
	require.NoError(t, r.Delete(ctx, "s1"))
	require.NoError(t, r.Delete(ctx, "s1"))

	_, err := r.Get(ctx, "s1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestOpenSQLite_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.db")
	ctx := context.Background()

	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, NewSQLiteRepository(db).Save(ctx, sample("s1")))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	_, err = NewSQLiteRepository(db).Get(ctx, "s1")
	require.NoError(t, err)
}
