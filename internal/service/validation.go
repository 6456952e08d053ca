package service

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxResponseLength is the response cap, in characters, when none is configured.
const DefaultMaxResponseLength = 1000

// ValidateResponseText checks a submitted response body.
// Text must be valid UTF-8, contain a non-space character, and be at most
// max runes long.
func ValidateResponseText(text string, max int) error {
	if max <= 0 {
		max = DefaultMaxResponseLength
	}
	if strings.TrimSpace(text) == "" {
		return ErrInvalidResponse
	}
	if !utf8.ValidString(text) {
		return ErrInvalidResponse
	}
	if utf8.RuneCountInString(text) > max {
		return ErrInvalidResponse
	}
	return nil
}
