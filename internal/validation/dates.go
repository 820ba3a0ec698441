package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// dateLayouts in detection order. ISO first, then the French numeric
// conventions, then the two-digit-year shorthand.
var dateLayouts = []struct {
	pattern *regexp.Regexp
	layout  string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "2006-01-02"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), "02/01/2006"},
	{regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`), "02-01-2006"},
	{regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`), "02.01.2006"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{2}$`), "02/01/06"},
}

var frenchMonths = []struct {
	name  string
	digit string
}{
	{"janvier", "01"}, {"février", "02"}, {"fevrier", "02"}, {"mars", "03"},
	{"avril", "04"}, {"mai", "05"}, {"juin", "06"}, {"juillet", "07"},
	{"août", "08"}, {"aout", "08"}, {"septembre", "09"}, {"octobre", "10"},
	{"novembre", "11"}, {"décembre", "12"}, {"decembre", "12"},
}

var (
	premierPattern = regexp.MustCompile(`\b1er\b`)
	spacesPattern  = regexp.MustCompile(`\s+`)
)

// ParseDate accepts ISO dates, French numeric formats and spelled-out
// French dates like "15 janvier 1990" or "1er mars 2000".
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, candidate := range dateLayouts {
		if candidate.pattern.MatchString(value) {
			t, err := time.Parse(candidate.layout, value)
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
			}
			return t, nil
		}
	}

	normalized := strings.ToLower(value)
	normalized = premierPattern.ReplaceAllString(normalized, "1")
	for _, month := range frenchMonths {
		normalized = strings.ReplaceAll(normalized, month.name, month.digit)
	}
	normalized = spacesPattern.ReplaceAllString(strings.TrimSpace(normalized), " ")

	for _, layout := range []string{"2 01 2006", "02 01 2006", "2 01 06"} {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}

// normalizeDate returns the canonical YYYY-MM-DD form, or nil when the
// value is not a date.
func normalizeDate(value string) any {
	t, err := ParseDate(value)
	if err != nil {
		return nil
	}
	return t.Format("2006-01-02")
}
