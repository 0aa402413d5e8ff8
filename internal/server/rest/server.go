// Package rest exposes the credential service over HTTP: signup, login,
// access-token renewal behind the refresh guard and a profile route behind
// the access guard.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/dmitrijs2005/bookmarkauth/internal/logging"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options carries the router's collaborators. Users, Sessions and Tokens
// are required; the rest may be left zero.
type Options struct {
	Users    UserService
	Sessions SessionValidator
	Tokens   TokenVerifier

	DB       Pinger
	Logger   logging.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	AllowedOrigins     []string
	RateLimitPerMinute int
}

// NewRouter builds the HTTP handler tree.
func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	h := &handlers{users: opts.Users, log: log.With("module", "rest")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log, opts.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			common.AccessTokenHeaderName,
			common.RefreshTokenHeaderName,
			common.UserIDHeaderName,
		},
		ExposedHeaders: []string{common.AccessTokenHeaderName, common.RefreshTokenHeaderName},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyHandler(opts.DB))
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/user", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.RateLimitPerMinute > 0 {
				r.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
			}
			r.Post("/signup", h.handleSignup)
			r.Post("/login", h.handleLogin)
		})

		r.With(RefreshGuard(opts.Sessions, opts.Metrics)).Get("/access-token", h.handleAccessToken)
		r.With(AccessGuard(opts.Tokens, opts.Metrics)).Get("/me", h.handleMe)
	})

	return r
}

func readyHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := withTimeout(r.Context())
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
