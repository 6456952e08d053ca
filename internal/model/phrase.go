package model

import (
	"encoding/json"
	"time"
)

// DefaultLanguage is used when a phrase is imported without a language tag.
const DefaultLanguage = "en"

// Phrase is the writing prompt scheduled for one calendar day.
// Date is a day bucket: midnight UTC of the civil date (see DayOf).
type Phrase struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Date      time.Time `json:"date"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"-"`
}

// MarshalJSON renders Date as YYYY-MM-DD.
func (p Phrase) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       int64  `json:"id"`
		Text     string `json:"text"`
		Date     string `json:"date"`
		Language string `json:"language"`
	}{
		ID:       p.ID,
		Text:     p.Text,
		Date:     FormatDay(p.Date),
		Language: p.Language,
	})
}
