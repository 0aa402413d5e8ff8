package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/auth"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/config"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/events"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/metrics"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/models"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/password"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/repositories/repomanager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	svc      *UserService
	sessions *SessionManager
	issuer   *auth.TokenIssuer
	hasher   password.Hasher
	clock    *fakeClock
	events   *fakePublisher
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager) *testEnv {
	t.Helper()

	clock := &fakeClock{now: testEpoch}
	keys, err := auth.NewKeyring(context.Background(), auth.StaticKeySource("test-secret-key"))
	require.NoError(t, err)
	hasher, err := password.New(password.Config{Algorithm: password.AlgorithmBcrypt, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	cfg := &config.Config{
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 240 * time.Hour,
		RefreshTokenBytes:            common.RefreshTokenBytes,
	}
	pub := &fakePublisher{}
	m := metrics.New(prometheus.NewRegistry())
	deps := Deps{Metrics: m, Events: pub, Clock: clock.Now}

	issuer := auth.NewTokenIssuer(keys, cfg.AccessTokenValidityDuration, clock.Now)
	sessions := NewSessionManager(db, rm, cfg, deps)
	svc, err := NewUserService(db, rm, hasher, issuer, sessions, deps)
	require.NoError(t, err)

	return &testEnv{svc: svc, sessions: sessions, issuer: issuer, hasher: hasher, clock: clock, events: pub, metrics: m}
}

func TestSignup_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, s: &fakeSessionsRepo{}}
	env := newTestEnv(t, db, rm)

	user, pair, err := env.svc.Signup(context.Background(), SignupInput{
		Email: "  alice@example.com ", Password: "correct horse", Username: "alice",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.SignupNormal, user.SignupType)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.True(t, env.hasher.Verify("correct horse", rm.u.created[0].PasswordHash))

	require.Len(t, rm.s.appended, 1)
	got := rm.s.appended[0]
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, pair.RefreshToken, got.Token)
	assert.Len(t, pair.RefreshToken, 2*common.RefreshTokenBytes)
	assert.Equal(t, testEpoch.Add(240*time.Hour).Unix(), got.ExpiresAt)

	id, err := env.issuer.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	assert.Equal(t, []string{events.SubjectSessionCreated, events.SubjectUserSignedUp}, env.events.subjects())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Signups.WithLabelValues(metrics.ResultOK)))
}

func TestSignup_DuplicateEmail(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: &fakeUsersRepo{createErr: common.ErrDuplicateEmail}, s: &fakeSessionsRepo{}}
	env := newTestEnv(t, db, rm)

	_, _, err := env.svc.Signup(context.Background(), SignupInput{Email: "a@b.c", Password: "password1"})
	require.ErrorIs(t, err, common.ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, rm.s.appended)
	assert.Empty(t, env.events.subjects())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Signups.WithLabelValues(metrics.ResultDuplicate)))
}

func TestSignup_SessionFailureRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, s: &fakeSessionsRepo{appendErr: errors.New("disk full")}}
	env := newTestEnv(t, db, rm)

	_, _, err := env.svc.Signup(context.Background(), SignupInput{Email: "a@b.c", Password: "password1"})
	require.ErrorIs(t, err, common.ErrorInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignup_TokenFailureAfterCommitCountsAsError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: &fakeUsersRepo{blankID: true}, s: &fakeSessionsRepo{}}
	env := newTestEnv(t, db, rm)

	_, _, err := env.svc.Signup(context.Background(), SignupInput{Email: "a@b.c", Password: "password1"})
	require.ErrorIs(t, err, common.ErrorInternal)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Signups.WithLabelValues(metrics.ResultError)))
	assert.Zero(t, testutil.ToFloat64(env.metrics.Signups.WithLabelValues(metrics.ResultOK)))
	assert.NotContains(t, env.events.subjects(), events.SubjectUserSignedUp)
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   SignupInput
	}{
		{"empty email", SignupInput{Email: "   ", Password: "password1"}},
		{"no at sign", SignupInput{Email: "alice", Password: "password1"}},
		{"short password", SignupInput{Email: "a@b.c", Password: "short"}},
		{"unknown signup type", SignupInput{Email: "a@b.c", Password: "password1", SignupType: "twitter"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newSQLMockDB(t)
			rm := &fakeRepoManager{u: &fakeUsersRepo{}, s: &fakeSessionsRepo{}}
			env := newTestEnv(t, db, rm)

			_, _, err := env.svc.Signup(context.Background(), tt.in)
			require.ErrorIs(t, err, common.ErrorValidation)
			require.NoError(t, mock.ExpectationsWereMet())
			assert.Empty(t, rm.u.created)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, s: &fakeSessionsRepo{}}
	env := newTestEnv(t, db, rm)

	hash, err := env.hasher.Hash("password1")
	require.NoError(t, err)
	stored := &models.User{ID: "11111111-1111-1111-1111-111111111111", Email: "a@b.c", PasswordHash: hash}

	t.Run("correct password", func(t *testing.T) {
		rm.u.getOut, rm.u.getErr = stored, nil
		u, err := env.svc.Authenticate(context.Background(), "a@b.c", "password1")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, u.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		rm.u.getOut, rm.u.getErr = stored, nil
		_, err := env.svc.Authenticate(context.Background(), "a@b.c", "password2")
		require.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		rm.u.getOut, rm.u.getErr = nil, common.ErrorNotFound
		_, err := env.svc.Authenticate(context.Background(), "nobody@b.c", "password1")
		require.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("storage failure", func(t *testing.T) {
		rm.u.getOut, rm.u.getErr = nil, errors.New("db error: conn reset")
		_, err := env.svc.Authenticate(context.Background(), "a@b.c", "password1")
		require.ErrorIs(t, err, common.ErrorInternal)
	})
}

func TestLogin_AppendsSessionAndPublishes(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, s: &fakeSessionsRepo{}}
	env := newTestEnv(t, db, rm)

	hash, err := env.hasher.Hash("password1")
	require.NoError(t, err)
	rm.u.getOut = &models.User{ID: "11111111-1111-1111-1111-111111111111", Email: "a@b.c", PasswordHash: hash}

	_, first, err := env.svc.Login(context.Background(), "a@b.c", "password1")
	require.NoError(t, err)
	_, second, err := env.svc.Login(context.Background(), "a@b.c", "password1")
	require.NoError(t, err)

	require.Len(t, rm.s.appended, 2)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Contains(t, env.events.subjects(), events.SubjectUserLoggedIn)
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.Logins.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.SessionsCreated))
}

func TestLogin_InvalidCredentialsCreatesNoSession(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}, s: &fakeSessionsRepo{}}
	env := newTestEnv(t, db, rm)

	_, _, err := env.svc.Login(context.Background(), "a@b.c", "password1")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Empty(t, rm.s.appended)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Logins.WithLabelValues(metrics.ResultInvalid)))
}

func TestLogin_PublishFailureDoesNotFailLogin(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, s: &fakeSessionsRepo{}}
	env := newTestEnv(t, db, rm)
	env.events.err = errors.New("nats: connection closed")

	hash, err := env.hasher.Hash("password1")
	require.NoError(t, err)
	rm.u.getOut = &models.User{ID: "11111111-1111-1111-1111-111111111111", PasswordHash: hash}

	_, pair, err := env.svc.Login(context.Background(), "a@b.c", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestIssueTokens_AppendError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, s: &fakeSessionsRepo{appendErr: errors.New("boom")}}
	env := newTestEnv(t, db, rm)

	_, err := env.svc.IssueTokens(context.Background(), &models.User{ID: "u1"})
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestRenewAccessToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	env := newTestEnv(t, db, &fakeRepoManager{u: &fakeUsersRepo{}, s: &fakeSessionsRepo{}})

	token, err := env.svc.RenewAccessToken("u1")
	require.NoError(t, err)
	id, err := env.issuer.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = env.svc.RenewAccessToken("")
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestProfile(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := &fakeRepoManager{u: &fakeUsersRepo{getOut: &models.User{ID: "u1", Email: "a@b.c"}}, s: &fakeSessionsRepo{}}
	env := newTestEnv(t, db, rm)

	u, err := env.svc.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", u.Email)

	rm.u.getOut, rm.u.getErr = nil, common.ErrorNotFound
	_, err = env.svc.Profile(context.Background(), "u1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
