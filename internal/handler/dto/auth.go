package dto

import (
	"time"

	"github.com/littlequestion/littlequestion/internal/auth"
)

// SessionUser is the public view of the signed-in user.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// SessionResponse is the body of GET /auth/session. Both fields are
// omitted for anonymous callers, which yields {}.
type SessionResponse struct {
	User    *SessionUser `json:"user,omitempty"`
	Expires string       `json:"expires,omitempty"`
}

// SuccessResponse is a bare acknowledgement.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ToSessionResponse converts an identity; nil yields an empty session.
func ToSessionResponse(id *auth.Identity) *SessionResponse {
	if id == nil {
		return &SessionResponse{}
	}
	return &SessionResponse{
		User: &SessionUser{
			ID:    id.UserID,
			Email: id.Email,
			Name:  id.Name,
			Image: id.Image,
		},
		Expires: id.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
