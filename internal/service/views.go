package service

import (
	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/fleet-trips-backend-go/internal/models"
	"github.com/jengzang/fleet-trips-backend-go/internal/spatial"
	"github.com/jengzang/fleet-trips-backend-go/internal/trips"
)

// LocationUnavailable marks history segments without a usable point
const LocationUnavailable = "location_parse_failed_or_missing"

// TripView is the JSON form of a trip
type TripView struct {
	PlateNumber    string   `json:"plateNumber"`
	DisplayName    *string  `json:"displayName"`
	StartTime      string   `json:"startTime"`
	EndTime        string   `json:"endTime"`
	DurationSec    int64    `json:"durationSec"`
	IdleSec        int64    `json:"idleSec"`
	MovingSec      int64    `json:"movingSec"`
	DistanceKm     float64  `json:"distanceKm"`
	AvgSpeedKmh    float64  `json:"avgSpeedKmh"`
	MaxSpeedKmh    float64  `json:"maxSpeedKmh"`
	StartLat       *float64 `json:"startLat"`
	StartLon       *float64 `json:"startLon"`
	EndLat         *float64 `json:"endLat"`
	EndLon         *float64 `json:"endLon"`
	HasTimeAnomaly bool     `json:"hasTimeAnomaly"`
}

// NewTripViews projects trips without their point lists
func NewTripViews(list []models.Trip) []TripView {
	views := make([]TripView, len(list))
	for i, t := range list {
		views[i] = TripView{
			PlateNumber:    t.PlateNumber,
			DisplayName:    t.DisplayName,
			StartTime:      trips.FormatTimestamp(t.StartTime),
			EndTime:        trips.FormatTimestamp(t.EndTime),
			DurationSec:    t.DurationSec,
			IdleSec:        t.IdleSec,
			MovingSec:      t.MovingSec,
			DistanceKm:     t.DistanceKm,
			AvgSpeedKmh:    t.AvgSpeedKmh,
			MaxSpeedKmh:    t.MaxSpeedKmh,
			StartLat:       t.StartLat,
			StartLon:       t.StartLon,
			EndLat:         t.EndLat,
			EndLon:         t.EndLon,
			HasTimeAnomaly: t.HasTimeAnomaly,
		}
	}
	return views
}

// RouteLines holds the raw and road-snapped line of a track
type RouteLines struct {
	Raw     *geojson.Feature `json:"raw"`
	Snapped *geojson.Feature `json:"snapped"`
}

// RouteResult is one vehicle's track and trips over a range
type RouteResult struct {
	Plate         string          `json:"plate"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	SnapRequested bool            `json:"snapRequested"`
	SnapApplied   bool            `json:"snapApplied"`
	SnapError     *string         `json:"snapError"`
	TripCount     int             `json:"tripCount"`
	DistanceKm    float64         `json:"distanceKm"` // along the raw track
	Route         RouteLines      `json:"route"`
	Points        []spatial.Point `json:"points"`
	Trips         []TripView      `json:"trips"`
}

// SegmentView is the JSON form of a history segment
type SegmentView struct {
	ID              int64    `json:"id"`
	PlateNumber     string   `json:"plateNumber"`
	DisplayName     *string  `json:"displayName"`
	SpeedKmh        *float64 `json:"speedKmh"`
	Heading         *float64 `json:"heading"`
	StartTime       string   `json:"startTime"`
	EndTime         string   `json:"endTime"`
	DurationSec     int64    `json:"durationSec"`
	Lat             *float64 `json:"lat"`
	Lon             *float64 `json:"lon"`
	LocationWarning *string  `json:"locationWarning"`
	Road            *string  `json:"road"`
	Suburb          *string  `json:"suburb"`
	City            *string  `json:"city"`
	State           *string  `json:"state"`
	Country         *string  `json:"country"`
	HasTimeAnomaly  bool     `json:"hasTimeAnomaly"`
}

// HistoryPoint is a located segment start
type HistoryPoint struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Time string  `json:"time"`
}

// HistoryResult is one vehicle's segments over a range
type HistoryResult struct {
	Plate         string          `json:"plate"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Count         int             `json:"count"`
	Points        []HistoryPoint  `json:"points"`
	Bounds        *spatial.Bounds `json:"bounds"`
	SnapRequested bool            `json:"snapRequested"`
	SnapApplied   bool            `json:"snapApplied"`
	SnapError     *string         `json:"snapError"`
	Route         RouteLines      `json:"route"`
	Segments      []SegmentView   `json:"segments"`
}

// CurrentVehiclesResult is the live position listing
type CurrentVehiclesResult struct {
	Vehicles        []models.VehicleLocation `json:"vehicles"`
	Cached          bool                     `json:"cached"`
	PollIntervalSec float64                  `json:"pollIntervalSec"`
	FetchedAt       string                   `json:"fetchedAt"`
}
