// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/littlequestion/littlequestion/internal/model"
	"github.com/littlequestion/littlequestion/internal/service"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of GET /phrase when no phrase is scheduled.
type MessageResponse struct {
	Message string `json:"message"`
}

// PhraseResponse wraps today's phrase.
type PhraseResponse struct {
	Phrase *model.Phrase `json:"phrase"`
}

// SubmitResponseRequest is the body of POST /response.
// Response is a pointer so a missing or null field is distinguishable
// from an empty string.
type SubmitResponseRequest struct {
	Response *string `json:"response"`
}

// SubmitResponseResponse acknowledges a saved response.
type SubmitResponseResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

// GetResponseResponse carries a day's response text, null when absent.
type GetResponseResponse struct {
	Response *string `json:"response"`
}

// CalendarResponse maps YYYY-MM-DD days to phrase and response text.
type CalendarResponse struct {
	Phrases   map[string]string `json:"phrases"`
	Responses map[string]string `json:"responses"`
}

// ToCalendarResponse converts a service calendar to its wire form.
func ToCalendarResponse(cal *service.Calendar) *CalendarResponse {
	resp := &CalendarResponse{
		Phrases:   map[string]string{},
		Responses: map[string]string{},
	}
	if cal == nil {
		return resp
	}
	if cal.Phrases != nil {
		resp.Phrases = cal.Phrases
	}
	if cal.Responses != nil {
		resp.Responses = cal.Responses
	}
	return resp
}
