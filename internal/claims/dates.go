package claims

import (
	"strings"
	"time"
)

// dateLayouts are tried in order when parsing reported dates. Extractors see
// everything from ISO timestamps to handwritten US dates, so the list is
// deliberately permissive.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseDate leniently parses a reported date string. The boolean is false
// when the value is empty or matches no known layout; callers treat that as
// an input defect (warning), never an error.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// DaysBetween returns the absolute whole-day span between two instants.
func DaysBetween(a, b time.Time) int {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}
