package model

import (
	"fmt"
	"regexp"
	"time"
)

// DayLayout is the wire and storage format of a day bucket.
const DayLayout = "2006-01-02"

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DayOf returns the day bucket of t as seen in loc: midnight UTC of
// the civil date. Day buckets compare and key consistently regardless of
// the zone they were derived in.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a day bucket as YYYY-MM-DD.
func FormatDay(day time.Time) string {
	return day.UTC().Format(DayLayout)
}

// ParseDay strictly parses YYYY-MM-DD into a day bucket.
// The date must exist on the calendar (2024-02-30 is rejected).
func ParseDay(s string) (time.Time, error) {
	if !dayPattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("day %q: want YYYY-MM-DD", s)
	}
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("day %q: %w", s, err)
	}
	return t, nil
}

// ParseDayLenient accepts YYYY-MM-DD or an RFC 3339 timestamp and
// truncates the latter to its own calendar date.
func ParseDayLenient(s string) (time.Time, error) {
	if day, err := ParseDay(s); err == nil {
		return day, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("day %q: unrecognized date", s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// DaysBetween returns the number of whole days from start to end.
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}
