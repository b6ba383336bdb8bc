package trips

import (
	"math"
	"strings"
	"time"
)

// TimestampLayout is the canonical text form of resolved instants (UTC, millisecond precision)
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Layouts accepted from the store. Values without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses a stored timestamp, reporting false for nil, empty,
// or malformed values.
func ParseTimestamp(value *string) (time.Time, bool) {
	if value == nil {
		return time.Time{}, false
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Millisecond), true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t in TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// secondsBetween returns end - start in whole seconds, clamped at 0
func secondsBetween(start, end time.Time) int64 {
	sec := int64(math.Round(end.Sub(start).Seconds()))
	if sec > 0 {
		return sec
	}
	return 0
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
