package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/littlequestion/littlequestion/internal/auth"
)

// SessionParser validates a session token.
type SessionParser interface {
	Parse(token string) (*auth.Identity, error)
}

// RevocationChecker reports whether a session was signed out.
type RevocationChecker interface {
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger      *slog.Logger
	Sessions    SessionParser
	Revocations RevocationChecker
	CookieName  string
}

// Session resolves the caller identity from the session cookie or a Bearer
// token. It never rejects a request: handlers decide what an anonymous
// caller may do.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, token := range SessionTokens(r, cfg.CookieName) {
				if id := resolveSession(r, cfg, logger, token); id != nil {
					next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), id)))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// resolveSession returns the identity for token, or nil when the token is
// invalid or revoked.
func resolveSession(r *http.Request, cfg SessionConfig, logger *slog.Logger, token string) *auth.Identity {
	id, err := cfg.Sessions.Parse(token)
	if err != nil {
		logger.Debug("session rejected",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		return nil
	}

	if cfg.Revocations == nil || id.SessionID == "" {
		return id
	}

	revoked, err := cfg.Revocations.IsSessionRevoked(r.Context(), id.SessionID)
	if err != nil {
		// Redis outages must not sign everyone out.
		logger.Error("session revocation check failed",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		return id
	}
	if revoked {
		return nil
	}
	return id
}

// SessionTokens returns the candidate session tokens in the order they are
// tried: the cookie first, then the Authorization bearer token.
func SessionTokens(r *http.Request, cookieName string) []string {
	var tokens []string
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			tokens = append(tokens, c.Value)
		}
	}

	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		if bearer := strings.TrimSpace(header[7:]); bearer != "" {
			tokens = append(tokens, bearer)
		}
	}
	return tokens
}
