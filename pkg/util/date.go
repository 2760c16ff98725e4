package util

import (
	"strconv"
	"time"
)

// ParseActivityDate tries the date shapes brokers actually send: RFC3339,
// RFC3339Nano, plain date, datetime without zone, and unix seconds.
// Returns (t, true) if any worked.
func ParseActivityDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// FormatSince renders a watermark for provider query parameters.
// A nil watermark means full history and renders empty.
func FormatSince(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
