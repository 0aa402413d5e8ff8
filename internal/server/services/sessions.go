package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/dmitrijs2005/bookmarkauth/internal/dbx"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/config"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/models"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// SessionManager creates refresh sessions and checks presented ones.
// Refresh tokens are stored as issued and are not rotated on use.
type SessionManager struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	refreshTokenValidityDuration time.Duration
	refreshTokenBytes            int
	deps                         Deps
}

func NewSessionManager(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, deps Deps) *SessionManager {
	tokenBytes := cfg.RefreshTokenBytes
	if tokenBytes == 0 {
		tokenBytes = common.RefreshTokenBytes
	}
	return &SessionManager{
		db:                           db,
		repomanager:                  m,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		refreshTokenBytes:            tokenBytes,
		deps:                         deps.withDefaults(),
	}
}

// CreateSession appends a new session for userID through db, which may be
// a transaction, and returns the raw refresh token.
func (m *SessionManager) CreateSession(ctx context.Context, db dbx.DBTX, userID string) (string, error) {
	s, err := m.newSession(ctx, db, userID)
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

func (m *SessionManager) newSession(ctx context.Context, db dbx.DBTX, userID string) (*models.Session, error) {
	token, err := common.MakeRandHexString(m.refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	now := m.deps.Clock().UTC()
	s := &models.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(m.refreshTokenValidityDuration).Unix(),
		CreatedAt: now,
	}

	if err := m.repomanager.Sessions(db).Append(ctx, s); err != nil {
		return nil, fmt.Errorf("error appending session: %w", err)
	}
	return s, nil
}

// IsExpired reports whether expiresAt (epoch seconds) is at or before now.
func (m *SessionManager) IsExpired(expiresAt int64) bool {
	return expiresAt <= m.deps.Clock().Unix()
}

// Validate returns the user owning a live session with exactly this token.
// An unknown pair yields common.ErrSessionNotFound; a known but expired
// session yields common.ErrSessionExpired.
func (m *SessionManager) Validate(ctx context.Context, userID, token string) (*models.User, error) {
	if userID == "" || token == "" || uuid.Validate(userID) != nil {
		return nil, common.ErrSessionNotFound
	}

	user, err := m.repomanager.Users(m.db).GetByIDAndSessionToken(ctx, userID, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrSessionNotFound
		}
		m.deps.Logger.Error(ctx, "session lookup failed", "user_id", userID, "err", err)
		return nil, common.ErrorInternal
	}

	if len(user.Sessions) != 1 || m.IsExpired(user.Sessions[0].ExpiresAt) {
		return nil, common.ErrSessionExpired
	}
	return user, nil
}

// PruneExpired deletes sessions that can no longer be used.
func (m *SessionManager) PruneExpired(ctx context.Context) (int64, error) {
	n, err := m.repomanager.Sessions(m.db).DeleteExpired(ctx, m.deps.Clock().Unix())
	if err != nil {
		return 0, err
	}
	m.deps.Metrics.Pruned(n)
	return n, nil
}

// RunCleanup prunes expired sessions every interval until ctx is done.
// A non-positive interval disables the loop.
func (m *SessionManager) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.PruneExpired(ctx)
			if err != nil {
				m.deps.Logger.Error(ctx, "session cleanup failed", "err", err)
				continue
			}
			if n > 0 {
				m.deps.Logger.Info(ctx, "expired sessions pruned", "count", n)
			}
		}
	}
}
