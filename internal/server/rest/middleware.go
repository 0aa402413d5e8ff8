package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/dmitrijs2005/bookmarkauth/internal/logging"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/metrics"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Guard names used as metric labels.
const (
	guardAccess  = "access"
	guardRefresh = "refresh"
)

// TokenVerifier checks an access token and returns the user id it carries.
type TokenVerifier interface {
	VerifyAccessToken(token string) (string, error)
}

// SessionValidator resolves a user id and refresh token to a live session owner.
type SessionValidator interface {
	Validate(ctx context.Context, userID, token string) (*models.User, error)
}

// AccessGuard admits requests carrying a valid access-token header and binds
// the token's user id to the request context. It never touches storage.
func AccessGuard(v TokenVerifier, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(common.AccessTokenHeaderName)
			if token == "" {
				m.Guard(guardAccess, metrics.ResultRejected)
				respondError(w, http.StatusUnauthorized, common.ErrMissingToken)
				return
			}

			userID, err := v.VerifyAccessToken(token)
			if err != nil {
				m.Guard(guardAccess, metrics.ResultRejected)
				respondError(w, http.StatusUnauthorized, common.ErrInvalidToken)
				return
			}

			m.Guard(guardAccess, metrics.ResultOK)
			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}

// RefreshGuard admits requests whose refresh-token and _id headers name a
// stored, unexpired session, and binds the owning user to the context.
func RefreshGuard(v SessionValidator, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(common.UserIDHeaderName)
			token := r.Header.Get(common.RefreshTokenHeaderName)

			user, err := v.Validate(r.Context(), userID, token)
			if err != nil {
				switch {
				case errors.Is(err, common.ErrSessionExpired):
					m.Guard(guardRefresh, metrics.ResultExpired)
				case errors.Is(err, common.ErrSessionNotFound):
					m.Guard(guardRefresh, metrics.ResultRejected)
				default:
					m.Guard(guardRefresh, metrics.ResultError)
				}
				respondServiceError(w, err)
				return
			}

			m.Guard(guardRefresh, metrics.ResultOK)
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// requestLogger writes one access log line per request and observes its
// latency under the matched route pattern.
func requestLogger(log logging.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			if m != nil {
				m.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
			}

			log.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration", elapsed,
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
