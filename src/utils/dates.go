package utils

import (
	"fmt"
	"strings"
	"time"
)

// TruncateToDay returns the calendar day of t, as seen in t's own location, at 00:00 UTC.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of the UTC day containing t.
func EndOfDay(t time.Time) time.Time {
	return TruncateToDay(t.UTC()).Add(24*time.Hour - time.Nanosecond)
}

// ParseTimestamp accepts "2006-01-02 15:04:05", RFC3339 or "2006-01-02" and returns the instant in UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{TimestampLayout, time.RFC3339, ShortDashDateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q, expected %s, RFC3339 or %s", value, TimestampLayout, ShortDashDateLayout)
}
