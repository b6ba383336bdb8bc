package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateRange is returned for unparseable, inverted or oversized ranges
var ErrInvalidDateRange = errors.New("invalid date range")

// DefaultMaxRange is the longest window a report may cover
const DefaultMaxRange = 7 * 24 * time.Hour

// DateRange is a validated [From, To] reporting window
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDateRange validates RFC 3339 bounds. An empty to defaults to now and
// an empty from to 24 hours before to.
func ParseDateRange(fromRaw, toRaw string, now time.Time, maxRange time.Duration) (DateRange, error) {
	if maxRange <= 0 {
		maxRange = DefaultMaxRange
	}

	to := now
	if toRaw = strings.TrimSpace(toRaw); toRaw != "" {
		t, err := time.Parse(time.RFC3339Nano, toRaw)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: to must be an ISO-8601 datetime", ErrInvalidDateRange)
		}
		to = t
	}
	to = to.UTC().Truncate(time.Millisecond)

	from := to.Add(-24 * time.Hour)
	if fromRaw = strings.TrimSpace(fromRaw); fromRaw != "" {
		t, err := time.Parse(time.RFC3339Nano, fromRaw)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: from must be an ISO-8601 datetime", ErrInvalidDateRange)
		}
		from = t.UTC().Truncate(time.Millisecond)
	}

	if !to.After(from) {
		return DateRange{}, fmt.Errorf("%w: to must be greater than from", ErrInvalidDateRange)
	}
	if to.Sub(from) > maxRange {
		return DateRange{}, fmt.Errorf("%w: maximum allowed is %g days", ErrInvalidDateRange, maxRange.Hours()/24)
	}

	return DateRange{From: from, To: to}, nil
}

// ParsePlateList splits a comma separated plate filter, dropping blanks
func ParsePlateList(raw string) []string {
	var plates []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			plates = append(plates, item)
		}
	}
	return plates
}
