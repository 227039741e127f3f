package scrape

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	datePrefixes  = []string{"written", "reviewed:", "reviewed", "stayed"}
	relativeRegex = regexp.MustCompile(`(?i)^(a|an|\d+)\s+(day|week|month|year)s?\s+ago$`)
)

// parseReviewDate interprets the date strings review platforms render, both
// absolute ("March 5, 2024") and relative ("2 weeks ago"). Unparseable input
// falls back to the scrape time, so a bad date never drops a review.
func parseReviewDate(raw string, now time.Time) time.Time {
	cleaned := strings.TrimSpace(raw)

	lower := strings.ToLower(cleaned)
	for _, prefix := range datePrefixes {
		if strings.HasPrefix(lower, prefix) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])

			break
		}
	}

	if cleaned == "" {
		return now
	}

	if t, ok := parseRelativeDate(cleaned, now); ok {
		return t
	}

	if t, err := dateparse.ParseAny(cleaned); err == nil {
		return t
	}

	return now
}

func parseRelativeDate(s string, now time.Time) (time.Time, bool) {
	m := relativeRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, false
	}

	count := 1
	if m[1] != "a" && m[1] != "an" {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}

		count = n
	}

	switch strings.ToLower(m[2]) {
	case "day":
		return now.AddDate(0, 0, -count), true
	case "week":
		return now.AddDate(0, 0, -7*count), true
	case "month":
		return now.AddDate(0, -count, 0), true
	case "year":
		return now.AddDate(-count, 0, 0), true
	default:
		return time.Time{}, false
	}
}
