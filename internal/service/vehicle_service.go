package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jengzang/fleet-trips-backend-go/internal/models"
	"github.com/jengzang/fleet-trips-backend-go/internal/spatial"
	"github.com/jengzang/fleet-trips-backend-go/internal/trips"
)

const minCurrentVehiclesTTL = 5 * time.Second

// VehicleService serves live vehicle positions
type VehicleService struct {
	source       TrackingSource
	pollInterval time.Duration
	cache        *expirable.LRU[string, []models.VehicleLocation]
	now          func() time.Time
}

// NewVehicleService creates a vehicle service. Results are cached for the
// poll interval or cacheTTL, whichever is longer, and never less than 5s.
func NewVehicleService(source TrackingSource, pollInterval, cacheTTL time.Duration) *VehicleService {
	ttl := max(minCurrentVehiclesTTL, pollInterval, cacheTTL)
	return &VehicleService{
		source:       source,
		pollInterval: pollInterval,
		cache:        expirable.NewLRU[string, []models.VehicleLocation](256, nil, ttl),
		now:          time.Now,
	}
}

// CurrentVehicles returns the latest position of each vehicle. A nil
// activeWithinMinutes disables the recency filter.
func (s *VehicleService) CurrentVehicles(ctx context.Context, plate string, activeWithinMinutes *float64) (*CurrentVehiclesResult, error) {
	key := plate + "|"
	minutes := 0.0
	if activeWithinMinutes != nil {
		minutes = *activeWithinMinutes
		key += strconv.FormatFloat(minutes, 'f', -1, 64)
	}

	result := &CurrentVehiclesResult{
		PollIntervalSec: s.pollInterval.Seconds(),
		FetchedAt:       trips.FormatTimestamp(s.now()),
	}

	if cached, ok := s.cache.Get(key); ok {
		result.Vehicles = cached
		result.Cached = true
		return result, nil
	}

	rows, err := s.source.CurrentVehicles(ctx, plate, minutes)
	if err != nil {
		return nil, fmt.Errorf("failed to load current vehicles: %w", err)
	}

	vehicles := make([]models.VehicleLocation, len(rows))
	for i, row := range rows {
		vehicles[i] = toVehicleLocation(row)
	}
	s.cache.Add(key, vehicles)

	result.Vehicles = vehicles
	return result, nil
}

func toVehicleLocation(row models.TrackingRow) models.VehicleLocation {
	v := models.VehicleLocation{
		ID:                  row.ID,
		PlateNumber:         row.PlateNumber,
		DisplayName:         row.DisplayName,
		Road:                row.Road,
		City:                row.City,
		SpeedKmh:            row.SpeedKmh,
		Heading:             row.Heading,
		LastGPSTimestamp:    canonicalTimestamp(row.LastGPSTimestamp),
		LastServerTimestamp: canonicalTimestamp(row.LastServerTimestamp),
	}

	var text string
	if row.LocationText != nil {
		text = *row.LocationText
	}
	loc := spatial.ParseLocation(text)
	if loc.Point != nil {
		v.Lat, v.Lon = &loc.Point.Lat, &loc.Point.Lon
	}
	if loc.Warning != "" {
		warning := string(loc.Warning)
		v.LocationWarning = &warning
	}
	return v
}

func canonicalTimestamp(value *string) *string {
	t, ok := trips.ParseTimestamp(value)
	if !ok {
		return nil
	}
	s := trips.FormatTimestamp(t)
	return &s
}
