package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/dmitrijs2005/bookmarkauth/internal/dbx"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*sql.DB, *SQLiteRepositoryManager) {
	t.Helper()
	ctx := context.Background()

	db, err := dbx.Open(ctx, dbx.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := NewSQLiteRepositoryManager()
	require.NoError(t, m.RunMigrations(ctx, db))
	return db, m
}

func createUser(t *testing.T, db *sql.DB, m *SQLiteRepositoryManager, email string) *models.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	u, err := m.Users(db).Create(context.Background(), &models.User{
		Email: email, PasswordHash: "hash", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return u
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestSQLite_UserRoundTrip(t *testing.T) {
	db, m := newStore(t)
	ctx := context.Background()

	u := createUser(t, db, m, "alice@example.com")

	byEmail, err := m.Users(db).GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, models.SignupNormal, byEmail.SignupType)
	assert.True(t, u.CreatedAt.Equal(byEmail.CreatedAt))

	byID, err := m.Users(db).GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = m.Users(db).GetByEmail(ctx, "Alice@example.com")
	require.ErrorIs(t, err, common.ErrorNotFound, "email match is case-sensitive")
}

func TestSQLite_DuplicateEmail(t *testing.T) {
	db, m := newStore(t)
	createUser(t, db, m, "dup@example.com")

	_, err := m.Users(db).Create(context.Background(), &models.User{Email: "dup@example.com", PasswordHash: "h"})
	require.ErrorIs(t, err, common.ErrDuplicateEmail)
	assert.Equal(t, 1, countRows(t, db, "users"))
}

func TestSQLite_ConcurrentDuplicateSignups(t *testing.T) {
	db, m := newStore(t)

	const n = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		dups int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Users(db).Create(context.Background(), &models.User{Email: "race@example.com", PasswordHash: "h"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				oks++
			case errors.Is(err, common.ErrDuplicateEmail):
				dups++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, oks)
	assert.Equal(t, n-1, dups)
	assert.Equal(t, 1, countRows(t, db, "users"))
}

func TestSQLite_ConcurrentSessionAppends(t *testing.T) {
	db, m := newStore(t)
	u := createUser(t, db, m, "multi@example.com")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- m.Sessions(db).Append(context.Background(), &models.Session{
				UserID: u.ID, Token: fmt.Sprintf("token-%d", i), ExpiresAt: 2_000_000_000, CreatedAt: time.Now(),
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := m.Sessions(db).ListByUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Len(t, list, n)
}

func TestSQLite_GetByIDAndSessionToken(t *testing.T) {
	db, m := newStore(t)
	ctx := context.Background()
	alice := createUser(t, db, m, "alice@example.com")
	bob := createUser(t, db, m, "bob@example.com")

	require.NoError(t, m.Sessions(db).Append(ctx, &models.Session{UserID: alice.ID, Token: "alice-1", ExpiresAt: 111, CreatedAt: time.Now()}))
	require.NoError(t, m.Sessions(db).Append(ctx, &models.Session{UserID: alice.ID, Token: "alice-2", ExpiresAt: 222, CreatedAt: time.Now()}))

	got, err := m.Users(db).GetByIDAndSessionToken(ctx, alice.ID, "alice-2")
	require.NoError(t, err)
	require.Len(t, got.Sessions, 1)
	assert.Equal(t, "alice-2", got.Sessions[0].Token)
	assert.Equal(t, int64(222), got.Sessions[0].ExpiresAt)

	_, err = m.Users(db).GetByIDAndSessionToken(ctx, bob.ID, "alice-1")
	require.ErrorIs(t, err, common.ErrorNotFound, "token must belong to the user")

	_, err = m.Users(db).GetByIDAndSessionToken(ctx, alice.ID, "alice-")
	require.ErrorIs(t, err, common.ErrorNotFound, "exact match only")
}

func TestSQLite_SessionTokenUnique(t *testing.T) {
	db, m := newStore(t)
	ctx := context.Background()
	alice := createUser(t, db, m, "alice@example.com")

	require.NoError(t, m.Sessions(db).Append(ctx, &models.Session{UserID: alice.ID, Token: "same", ExpiresAt: 1}))
	err := m.Sessions(db).Append(ctx, &models.Session{UserID: alice.ID, Token: "same", ExpiresAt: 1})
	require.Error(t, err)
	assert.True(t, dbx.IsUniqueViolation(err))
}

func TestSQLite_ForeignKeyAndCascade(t *testing.T) {
	db, m := newStore(t)
	ctx := context.Background()

	err := m.Sessions(db).Append(ctx, &models.Session{UserID: "ghost", Token: "t", ExpiresAt: 1})
	require.Error(t, err, "sessions must reference an existing user")

	u := createUser(t, db, m, "gone@example.com")
	require.NoError(t, m.Sessions(db).Append(ctx, &models.Session{UserID: u.ID, Token: "t1", ExpiresAt: 1}))

	_, err = db.Exec(`DELETE FROM users WHERE id = ?`, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, countRows(t, db, "sessions"))
}

func TestSQLite_DeleteExpired(t *testing.T) {
	db, m := newStore(t)
	ctx := context.Background()
	u := createUser(t, db, m, "old@example.com")

	for i, exp := range []int64{100, 200, 300} {
		require.NoError(t, m.Sessions(db).Append(ctx, &models.Session{UserID: u.ID, Token: fmt.Sprint(i), ExpiresAt: exp}))
	}

	n, err := m.Sessions(db).DeleteExpired(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := m.Sessions(db).ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, int64(300), left[0].ExpiresAt)
}

func TestSQLite_TxRollbackLeavesNoUser(t *testing.T) {
	db, m := newStore(t)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := m.Users(tx).Create(ctx, &models.User{Email: "tx@example.com", PasswordHash: "h"})
		if err != nil {
			return err
		}
		return m.Sessions(tx).Append(ctx, &models.Session{UserID: u.ID + "-broken", Token: "t", ExpiresAt: 1})
	})
	require.Error(t, err)
	assert.Equal(t, 0, countRows(t, db, "users"))
}
