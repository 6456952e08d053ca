package model

import "time"

// UserResponse is one user's answer to one phrase.
// At most one exists per (UserID, PhraseID).
type UserResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	PhraseID     int64     `json:"phrase_id"`
	ResponseText string    `json:"response_text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DatedResponse is a UserResponse joined with the day of its phrase.
type DatedResponse struct {
	UserResponse
	PhraseDate time.Time `json:"phrase_date"`
}
