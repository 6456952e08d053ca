// Package main is the entrypoint for the Little Question API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/littlequestion/littlequestion/internal/auth"
	"github.com/littlequestion/littlequestion/internal/cache"
	"github.com/littlequestion/littlequestion/internal/config"
	"github.com/littlequestion/littlequestion/internal/handler"
	"github.com/littlequestion/littlequestion/internal/metrics"
	"github.com/littlequestion/littlequestion/internal/middleware"
	"github.com/littlequestion/littlequestion/internal/repository"
	"github.com/littlequestion/littlequestion/internal/server"
	"github.com/littlequestion/littlequestion/internal/service"
	"github.com/littlequestion/littlequestion/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	if cfg.AutoMigrate {
		applied, err := migrations.Up(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to apply migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			return errRedacted
		}
		logger.Info("migrations applied", slog.Int("count", len(applied)))
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.DefaultPoolConfig())
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errRedacted
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return errRedacted
	}
	logger.Info("connected to Redis")

	var recorder metrics.Recorder = metrics.NewNoop()
	var metricsHandler *handler.MetricsHandler
	if cfg.MetricsEnabled {
		inMemory := metrics.NewInMemory()
		recorder = inMemory
		metricsHandler = handler.NewMetricsHandler(inMemory)
	}

	sessions, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionMaxAge)
	if err != nil {
		repo.Close()
		_ = cacheClient.Close()
		return err
	}

	google := auth.NewGoogleProvider(auth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.OAuthCallbackURL(),
	}, logger)

	// Initialize services
	journal := service.NewJournalService(repo, service.JournalConfig{
		Location:          loc,
		MaxResponseLength: cfg.MaxResponseLength,
		MaxRangeDays:      cfg.CalendarMaxRangeDays,
	}, recorder)
	signIn := service.NewSignInService(repo, google, sessions, cacheClient, cacheClient, service.SignInConfig{
		BaseURL:  cfg.BaseURL,
		StateTTL: cfg.OAuthStateTTL,
	}, recorder, logger)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := handler.NewRouter(handler.RouterConfig{
		Logger:  logger,
		Journal: handler.NewJournalHandler(journal, logger),
		Auth: handler.NewAuthHandler(signIn, handler.CookieConfig{
			Name:   cfg.SessionCookieName,
			Secure: !cfg.IsDevelopment(),
			MaxAge: cfg.SessionMaxAge,
		}, logger),
		Health:      handler.NewHealthHandler(repo, cacheClient),
		Metrics:     metricsHandler,
		Security:    middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		CORS:        cors,
		MaxBodySize: cfg.MaxRequestBodySize,
		Session: middleware.SessionConfig{
			Logger:      logger,
			Sessions:    sessions,
			Revocations: cacheClient,
			CookieName:  cfg.SessionCookieName,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:         logger,
			Limiter:        cacheClient,
			Metrics:        recorder,
			Enabled:        cfg.RateLimitEnabled,
			IPRPS:          cfg.RateLimitIPRPS,
			IPBurst:        cfg.RateLimitIPBurst,
			WritePerMinute: cfg.RateLimitWritePerMin,
			WriteBurst:     cfg.RateLimitWriteBurst,
		},
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// LIFO: Redis closes before PostgreSQL.
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"timezone", loc.String(),
	)

	return srv.Run(ctx)
}
