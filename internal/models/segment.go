package models

import (
	"time"

	"github.com/jengzang/fleet-trips-backend-go/internal/spatial"
)

// Segment is a TrackingRow with resolved timing and location
type Segment struct {
	TrackingRow

	Point          *spatial.Point `json:"point"`
	EffectiveStart time.Time      `json:"effectiveStart"`
	EffectiveEnd   time.Time      `json:"effectiveEnd"`
	DurationSec    int64          `json:"durationSec"`
	HasTimeAnomaly bool           `json:"hasTimeAnomaly"`
}
