package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/dmitrijs2005/bookmarkauth/internal/logging"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/models"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/services"
)

// UserService is the business layer behind the user routes.
type UserService interface {
	Signup(ctx context.Context, in services.SignupInput) (*models.User, *services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.User, *services.TokenPair, error)
	RenewAccessToken(userID string) (string, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}

type signupRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	SignupType string `json:"signupType,omitempty"`
	Username   string `json:"username,omitempty"`
	Image      string `json:"image,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// userResponse is a user without its password hash and sessions.
type userResponse struct {
	ID         string    `json:"_id"`
	Email      string    `json:"email"`
	SignupType string    `json:"signupType"`
	Username   string    `json:"username,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Email:      u.Email,
		SignupType: string(u.SignupType),
		Username:   u.Username,
		Image:      u.Image,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

type handlers struct {
	users UserService
	log   logging.Logger
}

func setTokenHeaders(w http.ResponseWriter, pair *services.TokenPair) {
	w.Header().Set(common.RefreshTokenHeaderName, pair.RefreshToken)
	w.Header().Set(common.AccessTokenHeaderName, pair.AccessToken)
}

func (h *handlers) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("malformed request body"))
		return
	}

	user, pair, err := h.users.Signup(r.Context(), services.SignupInput{
		Email:      req.Email,
		Password:   req.Password,
		SignupType: req.SignupType,
		Username:   req.Username,
		Image:      req.Image,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	setTokenHeaders(w, pair)
	respondJSON(w, http.StatusCreated, newUserResponse(user))
}

func (h *handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("malformed request body"))
		return
	}

	user, pair, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	setTokenHeaders(w, pair)
	respondJSON(w, http.StatusOK, newUserResponse(user))
}

// handleAccessToken runs behind RefreshGuard.
func (h *handlers) handleAccessToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, common.ErrSessionNotFound)
		return
	}

	token, err := h.users.RenewAccessToken(userID)
	if err != nil {
		h.log.Error(r.Context(), "access token renewal failed", "user_id", userID, "err", err)
		respondServiceError(w, err)
		return
	}

	w.Header().Set(common.AccessTokenHeaderName, token)
	respondJSON(w, http.StatusOK, accessTokenResponse{AccessToken: token})
}

// handleMe runs behind AccessGuard.
func (h *handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, common.ErrMissingToken)
		return
	}

	user, err := h.users.Profile(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserResponse(user))
}
