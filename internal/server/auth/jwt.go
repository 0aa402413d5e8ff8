// Package auth issues and verifies access tokens and owns the signing
// secret they are signed with.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/dmitrijs2005/bookmarkauth/internal/timex"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Claims carries the standard claims plus the user id under "_id".
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"_id"`
}

// TokenIssuer mints and checks HS256 access tokens. Verification is pure
// computation and never touches storage.
type TokenIssuer struct {
	keys *Keyring
	ttl  time.Duration
	now  timex.Clock
}

// NewTokenIssuer builds an issuer signing with keys. A nil clock means the
// wall clock.
func NewTokenIssuer(keys *Keyring, ttl time.Duration, now timex.Clock) *TokenIssuer {
	if now == nil {
		now = timex.Now
	}
	return &TokenIssuer{keys: keys, ttl: ttl, now: now}
}

// IssueAccessToken returns a token for userID valid for the issuer's ttl.
// Every token carries its own jti, so two issued in the same second differ.
func (i *TokenIssuer) IssueAccessToken(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID: userID,
	})

	return token.SignedString(i.keys.Secret())
}

// VerifyAccessToken returns the user id carried by a valid token. Any
// failure, including expiry, wraps common.ErrInvalidToken.
func (i *TokenIssuer) VerifyAccessToken(tokenString string) (string, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.keys.Secret(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if claims.UserID == "" {
		return "", fmt.Errorf("%w: no user id", common.ErrInvalidToken)
	}

	return claims.UserID, nil
}
