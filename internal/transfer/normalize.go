package transfer

import (
	"strings"
	"time"
)

// timeLayouts are the renderings a date-like cell may arrive in. Order
// matters: the first layout that parses wins.
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
}

// normalize canonicalizes one key part for comparison: trims, lower-cases,
// and renders date-like values as a single calendar date in loc. Keys are
// only ever compared in this form; raw or typed comparison would make a
// date cell and its string rendering unequal.
func normalize(value string, loc *time.Location) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if day, ok := parseDay(value, loc); ok {
		return day
	}
	return strings.ToLower(value)
}

func parseDay(value string, loc *time.Location) (string, bool) {
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err != nil {
			continue
		}
		return t.In(loc).Format("2006-01-02"), true
	}
	return "", false
}

// joinKeyParts renders a compound key. Separator occurrences inside a part
// are escaped first, so two different part lists can never render to the
// same joined key.
func joinKeyParts(parts []string, separator string) string {
	escaped := make([]string, len(parts))
	for i, part := range parts {
		escaped[i] = strings.ReplaceAll(part, separator, `\`+separator)
	}
	return strings.Join(escaped, separator)
}
