package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/littlequestion/littlequestion/internal/auth"
	"github.com/littlequestion/littlequestion/internal/handler/dto"
	"github.com/littlequestion/littlequestion/internal/middleware"
	"github.com/littlequestion/littlequestion/internal/service"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// AuthHandler handles the sign-in flow and session endpoints.
type AuthHandler struct {
	svc    *service.SignInService
	cookie CookieConfig
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.SignInService, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "session_token"
	}
	return &AuthHandler{
		svc:    svc,
		cookie: cookie,
		logger: logger,
	}
}

// SignIn handles GET /auth/signin?callbackUrl=.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	consentURL, err := h.svc.BeginSignIn(r.Context(), r.URL.Query().Get("callbackUrl"))
	if err != nil {
		h.logger.Error("begin_signin_failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "Sign-in failed")
		return
	}

	http.Redirect(w, r, consentURL, http.StatusFound)
}

// Callback handles GET /auth/callback/google.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result, err := h.svc.CompleteSignIn(r.Context(), query.Get("state"), query.Get("code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidState):
			writeError(w, http.StatusBadRequest, "Invalid OAuth state")
		case errors.Is(err, service.ErrEmailNotVerified):
			writeError(w, http.StatusForbidden, "Email not verified")
		case errors.Is(err, service.ErrSignInFailed):
			h.logger.Warn("signin_provider_failed",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetRequestID(r.Context())),
			)
			writeError(w, http.StatusBadGateway, "Sign-in failed")
		default:
			h.logger.Error("signin_failed",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetRequestID(r.Context())),
			)
			writeError(w, http.StatusInternalServerError, "Sign-in failed")
		}
		return
	}

	http.SetCookie(w, h.sessionCookie(result.Token, result.Identity.ExpiresAt))
	http.Redirect(w, r, result.CallbackURL, http.StatusFound)
}

// SignOut handles POST /auth/signout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	http.SetCookie(w, h.clearedCookie())

	if err := h.svc.SignOut(r.Context(), id); err != nil {
		h.logger.Error("signout_failed",
			slog.String("error", err.Error()),
			slog.String("user_email", id.Email),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "Failed to sign out")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ToSessionResponse(auth.IdentityFromContext(r.Context())))
}

func (h *AuthHandler) sessionCookie(token string, expires time.Time) *http.Cookie {
	maxAge := int(h.cookie.MaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int(time.Until(expires).Seconds())
	}
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) clearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
