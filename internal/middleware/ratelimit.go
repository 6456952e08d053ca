package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/littlequestion/littlequestion/internal/auth"
	"github.com/littlequestion/littlequestion/internal/cache"
	"github.com/littlequestion/littlequestion/internal/metrics"
)

// Rate limit scopes reported to metrics.
const (
	ScopeIP   = "ip"
	ScopeUser = "user"
)

// RateLimiter is the token bucket store backing the rate limit middleware.
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error)
	CheckUserRateLimit(ctx context.Context, userKey string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter
	Metrics metrics.Recorder
	Enabled bool

	// Per client IP, applied to every route.
	IPRPS   int
	IPBurst int

	// Per signed-in user, applied to writes.
	WritePerMinute int
	WriteBurst     int
}

// RateLimitIP returns middleware that rate limits requests per client IP.
// chi's RealIP must run first when the service sits behind a proxy.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.IPRPS <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			result, err := cfg.Limiter.CheckIPRateLimit(r.Context(), ip, cfg.IPRPS, cfg.IPBurst)
			if !cfg.allow(w, r, result, err, ScopeIP, slog.String("ip", ip)) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitUser returns middleware that rate limits a signed-in user's writes.
// Requests without an identity pass through; the handler rejects them.
func RateLimitUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.IdentityFromContext(r.Context())
			if !cfg.Enabled || cfg.WritePerMinute <= 0 || id == nil || id.Email == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Limiter.CheckUserRateLimit(r.Context(), id.Email, cfg.WritePerMinute, cfg.WriteBurst)
			if !cfg.allow(w, r, result, err, ScopeUser, slog.String("user_email", id.Email)) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allow writes the 429 response when the bucket is empty and reports
// whether the request may proceed. Store errors fail open.
func (cfg RateLimitConfig) allow(w http.ResponseWriter, r *http.Request, result *cache.RateLimitResult, err error, scope string, who slog.Attr) bool {
	if err != nil {
		cfg.logger().Error("rate limit check failed",
			slog.String("error", err.Error()),
			slog.String("scope", scope),
			who,
			slog.String("request_id", GetRequestID(r.Context())),
		)
		return true
	}
	if result == nil || result.Allowed {
		return true
	}

	retry := retryAfterSeconds(result.RetryAfter)
	cfg.logger().Warn("rate limit exceeded",
		slog.String("scope", scope),
		who,
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Int("retry_after_seconds", retry),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	if cfg.Metrics != nil {
		cfg.Metrics.IncRateLimited(scope)
	}

	w.Header().Set("Retry-After", strconv.Itoa(retry))
	writeJSONError(w, http.StatusTooManyRequests, "Too many requests")
	return false
}

func (cfg RateLimitConfig) logger() *slog.Logger {
	if cfg.Logger == nil {
		return slog.Default()
	}
	return cfg.Logger
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
