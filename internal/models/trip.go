package models

import (
	"time"

	"github.com/jengzang/fleet-trips-backend-go/internal/spatial"
)

// Trip is a contiguous interval of movement for one vehicle, derived on
// demand from its segments.
type Trip struct {
	PlateNumber string  `json:"plateNumber"`
	DisplayName *string `json:"displayName"`

	// Temporal info
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	DurationSec int64     `json:"durationSec"`
	IdleSec     int64     `json:"idleSec"`
	MovingSec   int64     `json:"movingSec"`

	// Movement characteristics
	DistanceKm  float64 `json:"distanceKm"`
	AvgSpeedKmh float64 `json:"avgSpeedKmh"`
	MaxSpeedKmh float64 `json:"maxSpeedKmh"`

	// Endpoints, nil when the trip has no located segment
	StartLat *float64 `json:"startLat"`
	StartLon *float64 `json:"startLon"`
	EndLat   *float64 `json:"endLat"`
	EndLon   *float64 `json:"endLon"`

	Points         []spatial.Point `json:"-"`
	HasTimeAnomaly bool            `json:"hasTimeAnomaly"`
}
