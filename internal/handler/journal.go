package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/littlequestion/littlequestion/internal/auth"
	"github.com/littlequestion/littlequestion/internal/handler/dto"
	"github.com/littlequestion/littlequestion/internal/middleware"
	"github.com/littlequestion/littlequestion/internal/model"
	"github.com/littlequestion/littlequestion/internal/service"
)

// JournalHandler handles the phrase, response and calendar endpoints.
type JournalHandler struct {
	svc    *service.JournalService
	logger *slog.Logger
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(svc *service.JournalService, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{
		svc:    svc,
		logger: logger,
	}
}

// Phrase handles GET /phrase.
func (h *JournalHandler) Phrase(w http.ResponseWriter, r *http.Request) {
	phrase, err := h.svc.TodayPhrase(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPhraseNotFound):
			writeJSON(w, http.StatusNotFound, dto.MessageResponse{Message: "No phrase found for today"})
		default:
			h.logFailure(r, "fetch_phrase_failed", "", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch phrase")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.PhraseResponse{Phrase: phrase})
}

// SubmitResponse handles POST /response.
func (h *JournalHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	const failure = "Failed to save response"

	user, ok := h.resolveUser(w, r, failure)
	if !ok {
		return
	}

	var req dto.SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Response == nil {
		writeError(w, http.StatusBadRequest, "Invalid response data")
		return
	}

	result, err := h.svc.SubmitResponse(r.Context(), user, *req.Response)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResponse):
			writeError(w, http.StatusBadRequest, "Invalid response data")
		case errors.Is(err, model.ErrPhraseNotFound):
			writeError(w, http.StatusNotFound, "No phrase found for today")
		default:
			h.logFailure(r, "save_response_failed", user.Email, err)
			writeError(w, http.StatusInternalServerError, failure)
		}
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}

	h.logger.Info("response_saved",
		slog.String("user_id", user.ID),
		slog.Int64("phrase_id", result.Response.PhraseID),
		slog.Bool("created", result.Created),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeJSON(w, status, dto.SubmitResponseResponse{
		Success:  true,
		Response: result.Response.ResponseText,
	})
}

// GetResponse handles GET /response?date=YYYY-MM-DD.
func (h *JournalHandler) GetResponse(w http.ResponseWriter, r *http.Request) {
	const failure = "Failed to fetch response"

	user, ok := h.resolveUser(w, r, failure)
	if !ok {
		return
	}

	text, err := h.svc.GetResponse(r.Context(), user, r.URL.Query().Get("date"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDate):
			writeError(w, http.StatusBadRequest, "Invalid date format")
		default:
			h.logFailure(r, "fetch_response_failed", user.Email, err)
			writeError(w, http.StatusInternalServerError, failure)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.GetResponseResponse{Response: text})
}

// Calendar handles GET /calendar?start=&end=.
func (h *JournalHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	const failure = "Failed to fetch calendar data"

	user, ok := h.resolveUser(w, r, failure)
	if !ok {
		return
	}

	query := r.URL.Query()
	cal, err := h.svc.Calendar(r.Context(), user, query.Get("start"), query.Get("end"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingRange):
			writeError(w, http.StatusBadRequest, "Missing start or end date")
		case errors.Is(err, service.ErrInvalidDate):
			writeError(w, http.StatusBadRequest, "Invalid date format")
		case errors.Is(err, service.ErrRangeTooLarge):
			writeError(w, http.StatusBadRequest, "Date range too large")
		default:
			h.logFailure(r, "fetch_calendar_failed", user.Email, err)
			writeError(w, http.StatusInternalServerError, failure)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCalendarResponse(cal))
}

// resolveUser maps the request identity to a stored user, writing the
// 401/404/500 response itself when that fails.
func (h *JournalHandler) resolveUser(w http.ResponseWriter, r *http.Request, failure string) (*model.User, bool) {
	id := auth.IdentityFromContext(r.Context())

	user, err := h.svc.ResolveUser(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "Unauthorized")
		case errors.Is(err, model.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			h.logFailure(r, "resolve_user_failed", id.Email, err)
			writeError(w, http.StatusInternalServerError, failure)
		}
		return nil, false
	}
	return user, true
}

func (h *JournalHandler) logFailure(r *http.Request, event, email string, err error) {
	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	}
	if email != "" {
		attrs = append(attrs, slog.String("user_email", email))
	}
	h.logger.Error(event, attrs...)
}
