// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/littlequestion/littlequestion/internal/auth"
	"github.com/littlequestion/littlequestion/internal/metrics"
	"github.com/littlequestion/littlequestion/internal/model"
)

// Service errors.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidResponse = errors.New("invalid response data")
	ErrInvalidDate     = errors.New("invalid date format")
	ErrMissingRange    = errors.New("missing start or end date")
	ErrRangeTooLarge   = errors.New("date range too large")
)

// Store operations, used as metric labels.
const (
	OpPhrase   = "phrase"
	OpUser     = "user"
	OpResponse = "response"
	OpCalendar = "calendar"
)

// Store is the persistence the journal needs.
// *repository.Repository satisfies it.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetPhraseByDay(ctx context.Context, day time.Time) (*model.Phrase, error)
	ListPhrasesInRange(ctx context.Context, start, end time.Time) ([]*model.Phrase, error)
	GetResponse(ctx context.Context, userID string, phraseID int64) (*model.UserResponse, error)
	UpsertResponse(ctx context.Context, resp *model.UserResponse) (created bool, err error)
	ListResponsesInRange(ctx context.Context, userID string, start, end time.Time) ([]*model.DatedResponse, error)
}

// JournalConfig holds the journal limits.
type JournalConfig struct {
	Location          *time.Location
	MaxResponseLength int
	// MaxRangeDays caps the calendar range; zero means unlimited.
	MaxRangeDays      int
}

// JournalService handles phrases, responses and the calendar.
type JournalService struct {
	store   Store
	cfg     JournalConfig
	now     func() time.Time
	metrics metrics.Recorder
}

// NewJournalService creates a new JournalService.
func NewJournalService(store Store, cfg JournalConfig, recorder metrics.Recorder) *JournalService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &JournalService{
		store:   store,
		cfg:     cfg,
		now:     time.Now,
		metrics: recorder,
	}
}

// SetClock replaces the time source used to compute today.
func (s *JournalService) SetClock(now func() time.Time) {
	s.now = now
}

// Today returns today's day bucket in the configured location.
func (s *JournalService) Today() time.Time {
	return model.DayOf(s.now(), s.cfg.Location)
}

// TodayPhrase returns the phrase scheduled for today.
func (s *JournalService) TodayPhrase(ctx context.Context) (*model.Phrase, error) {
	phrase, err := s.store.GetPhraseByDay(ctx, s.Today())
	if err != nil {
		if errors.Is(err, model.ErrPhraseNotFound) {
			s.metrics.IncPhraseMissing()
			return nil, err
		}
		s.metrics.IncStoreError(OpPhrase)
		return nil, fmt.Errorf("get today's phrase: %w", err)
	}

	s.metrics.IncPhraseServed()
	return phrase, nil
}

// ResolveUser maps a session identity to its stored user.
// A nil identity or one without an email is ErrUnauthorized.
func (s *JournalService) ResolveUser(ctx context.Context, id *auth.Identity) (*model.User, error) {
	if id == nil || id.Email == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.store.GetUserByEmail(ctx, id.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		s.metrics.IncStoreError(OpUser)
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	return user, nil
}

// SubmitResult reports the outcome of SubmitResponse.
type SubmitResult struct {
	Response *model.UserResponse
	Created  bool
}

// SubmitResponse creates or replaces the user's response to today's phrase.
func (s *JournalService) SubmitResponse(ctx context.Context, user *model.User, text string) (*SubmitResult, error) {
	if err := ValidateResponseText(text, s.cfg.MaxResponseLength); err != nil {
		return nil, err
	}

	phrase, err := s.store.GetPhraseByDay(ctx, s.Today())
	if err != nil {
		if errors.Is(err, model.ErrPhraseNotFound) {
			return nil, err
		}
		s.metrics.IncStoreError(OpResponse)
		return nil, fmt.Errorf("get today's phrase: %w", err)
	}

	resp := &model.UserResponse{
		UserID:       user.ID,
		PhraseID:     phrase.ID,
		ResponseText: text,
	}
	created, err := s.store.UpsertResponse(ctx, resp)
	if err != nil {
		// The phrase can vanish between lookup and write.
		if errors.Is(err, model.ErrPhraseNotFound) {
			return nil, model.ErrPhraseNotFound
		}
		s.metrics.IncStoreError(OpResponse)
		return nil, fmt.Errorf("save response: %w", err)
	}

	if created {
		s.metrics.IncResponseCreated()
	} else {
		s.metrics.IncResponseUpdated()
	}

	return &SubmitResult{Response: resp, Created: created}, nil
}

// GetResponse returns the user's response text for a day.
// dateParam is YYYY-MM-DD; empty means today. A day with no phrase or no
// response yields nil text and no error.
func (s *JournalService) GetResponse(ctx context.Context, user *model.User, dateParam string) (*string, error) {
	day := s.Today()
	if dateParam != "" {
		d, err := model.ParseDay(dateParam)
		if err != nil {
			return nil, ErrInvalidDate
		}
		day = d
	}

	phrase, err := s.store.GetPhraseByDay(ctx, day)
	if err != nil {
		if errors.Is(err, model.ErrPhraseNotFound) {
			return nil, nil
		}
		s.metrics.IncStoreError(OpResponse)
		return nil, fmt.Errorf("get phrase for %s: %w", model.FormatDay(day), err)
	}

	resp, err := s.store.GetResponse(ctx, user.ID, phrase.ID)
	if err != nil {
		if errors.Is(err, model.ErrResponseNotFound) {
			return nil, nil
		}
		s.metrics.IncStoreError(OpResponse)
		return nil, fmt.Errorf("get response: %w", err)
	}

	return &resp.ResponseText, nil
}

// Calendar maps YYYY-MM-DD days to phrase and response text.
type Calendar struct {
	Phrases   map[string]string
	Responses map[string]string
}

// Calendar returns phrases and the user's responses for the inclusive range.
// start and end accept YYYY-MM-DD or RFC 3339 timestamps.
func (s *JournalService) Calendar(ctx context.Context, user *model.User, startParam, endParam string) (*Calendar, error) {
	if startParam == "" || endParam == "" {
		return nil, ErrMissingRange
	}

	start, err := model.ParseDayLenient(startParam)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := model.ParseDayLenient(endParam)
	if err != nil {
		return nil, ErrInvalidDate
	}

	cal := &Calendar{
		Phrases:   make(map[string]string),
		Responses: make(map[string]string),
	}
	if end.Before(start) {
		return cal, nil
	}
	if s.cfg.MaxRangeDays > 0 && model.DaysBetween(start, end) >= s.cfg.MaxRangeDays {
		return nil, ErrRangeTooLarge
	}

	phrases, err := s.store.ListPhrasesInRange(ctx, start, end)
	if err != nil {
		s.metrics.IncStoreError(OpCalendar)
		return nil, fmt.Errorf("list phrases: %w", err)
	}
	responses, err := s.store.ListResponsesInRange(ctx, user.ID, start, end)
	if err != nil {
		s.metrics.IncStoreError(OpCalendar)
		return nil, fmt.Errorf("list responses: %w", err)
	}

	for _, p := range phrases {
		cal.Phrases[model.FormatDay(p.Date)] = p.Text
	}
	for _, r := range responses {
		cal.Responses[model.FormatDay(r.PhraseDate)] = r.ResponseText
	}

	s.metrics.IncCalendarFetched()
	return cal, nil
}
