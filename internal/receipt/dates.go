package receipt

import (
	"strings"
	"time"
)

// CanonicalDateFormat is the form dates are stored and compared in.
const CanonicalDateFormat = "2006-01-02"

// dateLayouts are tried in order; the first successful parse wins. Day-first
// layouts come before month-first, so an ambiguous input like 01/02/2024
// resolves as 1 February. That trial order is inherited behavior, not a
// locale decision.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"01-02-2006",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// isoLayouts are the fallback for timestamped input.
var isoLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// NormalizeDate parses heterogeneous date text and renders it as YYYY-MM-DD.
// It returns the empty string when nothing parses; callers must treat empty
// as a rejected submission.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(CanonicalDateFormat)
		}
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(CanonicalDateFormat)
		}
	}

	return ""
}
