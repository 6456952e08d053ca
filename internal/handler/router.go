package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/littlequestion/littlequestion/internal/middleware"
)

// RouterConfig carries the handlers and middleware settings for NewRouter.
type RouterConfig struct {
	Logger *slog.Logger

	Journal *JournalHandler
	Auth    *AuthHandler
	Health  *HealthHandler
	// Metrics is optional; nil leaves /metrics unrouted.
	Metrics *MetricsHandler

	Security    middleware.SecurityConfig
	CORS        middleware.CORSConfig
	MaxBodySize int64
	Session     middleware.SessionConfig
	RateLimit   middleware.RateLimitConfig
}

// NewRouter configures the chi router with all routes and middleware.
// Journal and auth routes are served at the root and again under /api.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := New()
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
	}

	// Set before any Route call so sub-routers inherit them.
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	// Probes stay outside session decoding and rate limiting.
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session))
		r.Use(middleware.RateLimitIP(cfg.RateLimit))

		mountAPI(r, cfg)
		r.Route("/api", func(r chi.Router) {
			mountAPI(r, cfg)
		})
	})

	return r
}

func mountAPI(r chi.Router, cfg RouterConfig) {
	r.Get("/phrase", cfg.Journal.Phrase)
	r.Get("/response", cfg.Journal.GetResponse)
	r.With(middleware.RateLimitUser(cfg.RateLimit)).Post("/response", cfg.Journal.SubmitResponse)
	r.Get("/calendar", cfg.Journal.Calendar)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/signin", cfg.Auth.SignIn)
		r.Get("/callback/google", cfg.Auth.Callback)
		r.Post("/signout", cfg.Auth.SignOut)
		r.Get("/session", cfg.Auth.Session)
	})
}
