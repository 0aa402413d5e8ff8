package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/dmitrijs2005/bookmarkauth/internal/dbx"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/auth"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/events"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/metrics"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/models"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/password"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/repositories/repomanager"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 8

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SignupInput is the data a client submits to create an account.
type SignupInput struct {
	Email      string
	Password   string
	SignupType string
	Username   string
	Image      string
}

// UserService implements the credential entry points: signup, login and
// access-token renewal.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      password.Hasher
	issuer      *auth.TokenIssuer
	sessions    *SessionManager
	deps        Deps

	// dummyHash is compared against when the email is unknown so that both
	// failure paths cost one hash verification.
	dummyHash string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher password.Hasher, issuer *auth.TokenIssuer, sessions *SessionManager, deps Deps) (*UserService, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("error preparing dummy hash: %w", err)
	}
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		issuer:      issuer,
		sessions:    sessions,
		deps:        deps.withDefaults(),
		dummyHash:   dummy,
	}, nil
}

func (in SignupInput) validate() (email string, signupType models.SignupType, err error) {
	email = strings.TrimSpace(in.Email)
	if email == "" {
		return "", "", fmt.Errorf("%w: email is required", common.ErrorValidation)
	}
	if !strings.Contains(email, "@") {
		return "", "", fmt.Errorf("%w: email is malformed", common.ErrorValidation)
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return "", "", fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	signupType, err = models.ParseSignupType(in.SignupType)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return email, signupType, nil
}

// Signup creates the user and its first session in one transaction and
// returns both tokens. A taken email yields common.ErrDuplicateEmail.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, *TokenPair, error) {
	email, signupType, err := in.validate()
	if err != nil {
		s.deps.Metrics.Signup(metrics.ResultInvalid)
		return nil, nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.deps.Logger.Error(ctx, "password hashing failed", "err", err)
		return nil, nil, common.ErrorInternal
	}

	now := s.deps.Clock().UTC()
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		SignupType:   signupType,
		Username:     in.Username,
		Image:        in.Image,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var session *models.Session
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if user, err = s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		session, err = s.sessions.newSession(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			s.deps.Metrics.Signup(metrics.ResultDuplicate)
			return nil, nil, common.ErrDuplicateEmail
		}
		s.deps.Metrics.Signup(metrics.ResultError)
		s.deps.Logger.Error(ctx, "signup failed", "err", err)
		return nil, nil, common.ErrorInternal
	}

	pair, err := s.pairFor(ctx, session)
	if err != nil {
		s.deps.Metrics.Signup(metrics.ResultError)
		return nil, nil, err
	}

	s.deps.Metrics.Signup(metrics.ResultOK)
	s.deps.Logger.Info(ctx, "user signed up", "user_id", user.ID, "signup_type", string(user.SignupType))
	s.deps.publish(ctx, events.SubjectUserSignedUp, events.UserSignedUp{
		UserID: user.ID, Email: user.Email, SignupType: string(user.SignupType), At: now,
	})

	return user, pair, nil
}

// Authenticate checks an email/password pair. An unknown email and a wrong
// password are indistinguishable: both return common.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, plaintext string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(plaintext, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		s.deps.Logger.Error(ctx, "user lookup failed", "err", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and opens a new session. Each login adds a session,
// so a user may stay signed in on several devices.
func (s *UserService) Login(ctx context.Context, email, plaintext string) (*models.User, *TokenPair, error) {
	user, err := s.Authenticate(ctx, email, plaintext)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			s.deps.Metrics.Login(metrics.ResultInvalid)
		} else {
			s.deps.Metrics.Login(metrics.ResultError)
		}
		return nil, nil, err
	}

	pair, err := s.IssueTokens(ctx, user)
	if err != nil {
		s.deps.Metrics.Login(metrics.ResultError)
		return nil, nil, err
	}

	s.deps.Metrics.Login(metrics.ResultOK)
	s.deps.publish(ctx, events.SubjectUserLoggedIn, events.UserLoggedIn{UserID: user.ID, At: s.deps.Clock().UTC()})
	return user, pair, nil
}

// IssueTokens creates a session for an authenticated user and returns it
// together with a fresh access token.
func (s *UserService) IssueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	session, err := s.sessions.newSession(ctx, s.db, user.ID)
	if err != nil {
		s.deps.Logger.Error(ctx, "session creation failed", "user_id", user.ID, "err", err)
		return nil, common.ErrorInternal
	}
	return s.pairFor(ctx, session)
}

func (s *UserService) pairFor(ctx context.Context, session *models.Session) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(session.UserID)
	if err != nil {
		s.deps.Logger.Error(ctx, "access token signing failed", "err", err)
		return nil, common.ErrorInternal
	}

	s.deps.Metrics.SessionCreated()
	s.deps.publish(ctx, events.SubjectSessionCreated, events.SessionCreated{
		UserID: session.UserID, SessionID: session.ID, ExpiresAt: session.ExpiresAt, At: session.CreatedAt,
	})

	return &TokenPair{AccessToken: access, RefreshToken: session.Token}, nil
}

// RenewAccessToken mints a new access token for a user whose refresh
// session has already been validated.
func (s *UserService) RenewAccessToken(userID string) (string, error) {
	token, err := s.issuer.IssueAccessToken(userID)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Profile returns the user record for an authenticated id.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.deps.Logger.Error(ctx, "profile lookup failed", "user_id", userID, "err", err)
		return nil, common.ErrorInternal
	}
	return user, nil
}
