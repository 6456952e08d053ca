package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/littlequestion/littlequestion/internal/model"
)

// Google endpoints.
const (
	GoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenURL    = "https://oauth2.googleapis.com/token"
	GoogleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// ErrProviderUnavailable indicates the identity provider could not complete
// the code exchange or profile lookup.
var ErrProviderUnavailable = errors.New("oauth: provider unavailable")

// Provider is an OAuth 2.0 identity provider.
type Provider interface {
	// AuthCodeURL returns the consent page URL carrying state.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the signed-in profile.
	Exchange(ctx context.Context, code string) (*model.OAuthProfile, error)
}

// GoogleConfig configures GoogleProvider. Empty endpoint fields default to Google's.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL     string
	TokenURL    string
	UserinfoURL string
}

// GoogleProvider signs users in with Google.
type GoogleProvider struct {
	oauth       *oauth2.Config
	userinfoURL string
	httpClient  *http.Client
	log         *slog.Logger
}

// NewGoogleProvider creates a Google OAuth provider.
func NewGoogleProvider(cfg GoogleConfig, logger *slog.Logger) *GoogleProvider {
	if cfg.AuthURL == "" {
		cfg.AuthURL = GoogleAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = GoogleTokenURL
	}
	if cfg.UserinfoURL == "" {
		cfg.UserinfoURL = GoogleUserinfoURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userinfoURL: cfg.UserinfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		log:         logger.With("provider", model.ProviderGoogle),
	}
}

// AuthCodeURL returns Google's consent URL.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// userinfoResponse represents the response from Google's userinfo endpoint.
type userinfoResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange trades the code for a token and fetches the user's profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*model.OAuthProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		p.log.ErrorContext(ctx, "token exchange failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: token exchange", ErrProviderUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		p.log.ErrorContext(ctx, "userinfo request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: userinfo", ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.log.ErrorContext(ctx, "userinfo request failed", slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: userinfo status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var info userinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: invalid userinfo response", ErrProviderUnavailable)
	}
	if info.ID == "" || info.Email == "" {
		return nil, fmt.Errorf("%w: userinfo missing id or email", ErrProviderUnavailable)
	}

	return &model.OAuthProfile{
		Provider:          model.ProviderGoogle,
		ProviderAccountID: info.ID,
		Email:             info.Email,
		EmailVerified:     info.VerifiedEmail,
		Name:              info.Name,
		Image:             info.Picture,
	}, nil
}
