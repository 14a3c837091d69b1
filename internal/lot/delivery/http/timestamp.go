package http

import (
	"fmt"
	"strings"
	"time"
)

// Accepted layouts for request timestamps. Layouts without an offset are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp reads an ISO 8601 date or timestamp. An empty value is the zero time.
func parseTimestamp(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s must be an ISO 8601 date (2006-01-02) or timestamp (2006-01-02T15:04:05Z07:00), got %q", field, raw)
}

func parseOptionalTimestamp(field, raw string) (*time.Time, error) {
	t, err := parseTimestamp(field, raw)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}
