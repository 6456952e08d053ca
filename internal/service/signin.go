package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/littlequestion/littlequestion/internal/auth"
	"github.com/littlequestion/littlequestion/internal/metrics"
	"github.com/littlequestion/littlequestion/internal/model"
)

// Sign-in errors.
var (
	ErrInvalidState     = errors.New("invalid oauth state")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrSignInFailed     = errors.New("sign-in failed")
)

// AccountStore persists users created by sign-in.
type AccountStore interface {
	UpsertOAuthUser(ctx context.Context, profile model.OAuthProfile) (*model.User, error)
}

// StateStore holds pending OAuth states.
type StateStore interface {
	SaveOAuthState(ctx context.Context, state, callbackURL string, ttl time.Duration) error
	// ConsumeOAuthState returns and deletes a state in one step.
	ConsumeOAuthState(ctx context.Context, state string) (callbackURL string, found bool, err error)
}

// SessionRevoker records signed-out sessions.
type SessionRevoker interface {
	RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error
}

// SignInConfig configures SignInService.
type SignInConfig struct {
	BaseURL  string
	StateTTL time.Duration
}

// SignInService runs the OAuth sign-in flow and issues sessions.
type SignInService struct {
	accounts AccountStore
	provider auth.Provider
	sessions *auth.SessionManager
	states   StateStore
	revoker  SessionRevoker
	cfg      SignInConfig
	now      func() time.Time
	metrics  metrics.Recorder
	log      *slog.Logger
}

// NewSignInService creates a new SignInService.
func NewSignInService(
	accounts AccountStore,
	provider auth.Provider,
	sessions *auth.SessionManager,
	states StateStore,
	revoker SessionRevoker,
	cfg SignInConfig,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *SignInService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}
	return &SignInService{
		accounts: accounts,
		provider: provider,
		sessions: sessions,
		states:   states,
		revoker:  revoker,
		cfg:      cfg,
		now:      time.Now,
		metrics:  recorder,
		log:      logger,
	}
}

// BeginSignIn stores a fresh state and returns the provider consent URL.
func (s *SignInService) BeginSignIn(ctx context.Context, callbackURL string) (string, error) {
	state := uuid.NewString()
	target := SafeCallbackURL(callbackURL, s.cfg.BaseURL)

	if err := s.states.SaveOAuthState(ctx, state, target, s.cfg.StateTTL); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}

	return s.provider.AuthCodeURL(state), nil
}

// SignInResult is a completed sign-in.
type SignInResult struct {
	Token       string
	Identity    *auth.Identity
	CallbackURL string
}

// CompleteSignIn validates the state, exchanges the code and issues a session.
func (s *SignInService) CompleteSignIn(ctx context.Context, state, code string) (*SignInResult, error) {
	if state == "" || code == "" {
		return nil, ErrInvalidState
	}

	callbackURL, found, err := s.states.ConsumeOAuthState(ctx, state)
	if err != nil {
		s.metrics.IncSignIn(metrics.SignInFailed)
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}
	if !found {
		s.metrics.IncSignIn(metrics.SignInDenied)
		return nil, ErrInvalidState
	}

	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.metrics.IncSignIn(metrics.SignInFailed)
		return nil, fmt.Errorf("%w: %v", ErrSignInFailed, err)
	}
	if !profile.EmailVerified {
		s.metrics.IncSignIn(metrics.SignInDenied)
		return nil, ErrEmailNotVerified
	}

	user, err := s.accounts.UpsertOAuthUser(ctx, *profile)
	if err != nil {
		s.metrics.IncSignIn(metrics.SignInFailed)
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	token, id, err := s.sessions.Issue(user)
	if err != nil {
		s.metrics.IncSignIn(metrics.SignInFailed)
		return nil, fmt.Errorf("issue session: %w", err)
	}

	s.metrics.IncSignIn(metrics.SignInSuccess)
	s.log.InfoContext(ctx, "user signed in",
		slog.String("user_id", user.ID),
		slog.String("provider", profile.Provider),
	)

	return &SignInResult{Token: token, Identity: id, CallbackURL: callbackURL}, nil
}

// SignOut revokes the session until its natural expiry.
// A nil identity is a no-op.
func (s *SignInService) SignOut(ctx context.Context, id *auth.Identity) error {
	if id == nil || id.SessionID == "" {
		return nil
	}

	ttl := id.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.revoker.RevokeSession(ctx, id.SessionID, ttl); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// SafeCallbackURL returns raw when it is a relative path or shares the
// origin of baseURL, and "/" otherwise.
func SafeCallbackURL(raw, baseURL string) string {
	if raw == "" {
		return "/"
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") && !strings.HasPrefix(raw, "/\\") {
		return raw
	}

	target, err := url.Parse(raw)
	if err != nil {
		return "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return "/"
	}
	if target.Scheme == base.Scheme && target.Host != "" && strings.EqualFold(target.Host, base.Host) {
		return raw
	}
	return "/"
}
