// Package dates converts free-text date expressions from model output into
// canonical ISO calendar dates.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	// MinYear and MaxYear bound what counts as a plausible event date for
	// researched subjects. Years outside the range are treated as noise.
	MinYear = 1800
	MaxYear = 2100
)

var (
	isoPattern     = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	bareYear       = regexp.MustCompile(`^\d{4}$`)
	textualPattern = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),?\s+(\d{4})\b`)
	slashPattern   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
)

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

// Normalize converts a free-text date expression to "YYYY-MM-DD". It
// recognizes, in priority order: an explicit ISO date, a bare four-digit
// year (mapped to January 1st), a "Month DD, YYYY" textual form, a
// "MM/DD/YYYY" form, and finally anything dateparse can make sense of.
// On total failure it returns "", which callers must treat as "no date".
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if m := isoPattern.FindStringSubmatch(trimmed); m != nil {
		return canonical(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}

	if bareYear.MatchString(trimmed) {
		return canonical(atoi(trimmed), 1, 1)
	}

	if m := textualPattern.FindStringSubmatch(trimmed); m != nil {
		return canonical(atoi(m[3]), monthNumbers[strings.ToLower(m[1])], atoi(m[2]))
	}

	if m := slashPattern.FindStringSubmatch(trimmed); m != nil {
		return canonical(atoi(m[3]), atoi(m[1]), atoi(m[2]))
	}

	if t, err := dateparse.ParseAny(trimmed); err == nil {
		return canonical(t.Year(), int(t.Month()), t.Day())
	}

	return ""
}

// Parse returns the time.Time for a normalized date string, with ok=false
// for anything Normalize would not have produced.
func Parse(normalized string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", normalized)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaysApart reports the absolute difference in days between two normalized
// dates.
func DaysApart(a, b time.Time) int {
	d := int(a.Sub(b).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

// canonical validates and repairs a year/month/day triple against real
// calendar rules. Upstream models occasionally emit day 00 or a day past
// the end of a short month; those are corrected rather than rejected.
func canonical(year, month, day int) string {
	if year < MinYear || year > MaxYear {
		return ""
	}
	if month < 1 || month > 12 {
		return ""
	}
	if day < 1 {
		day = 1
	}
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func lastDayOfMonth(year, month int) int {
	// Day 0 of the following month.
	return time.Date(year, time.Month(month+1), 0, 0, 0, 0, 0, time.UTC).Day()
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
