package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/fleet-trips-backend-go/internal/export"
	"github.com/jengzang/fleet-trips-backend-go/internal/models"
	"github.com/jengzang/fleet-trips-backend-go/internal/spatial"
	"github.com/jengzang/fleet-trips-backend-go/internal/trips"
)

// TrackingSource supplies tracking rows ordered by effective start
type TrackingSource interface {
	VehicleHistory(ctx context.Context, plate string, from, to time.Time) ([]models.TrackingRow, error)
	FleetRange(ctx context.Context, plates []string, from, to time.Time) ([]models.TrackingRow, error)
	CurrentVehicles(ctx context.Context, plate string, activeWithinMinutes float64) ([]models.TrackingRow, error)
}

// RouteSnapper snaps a track to roads. A nil feature means nothing to draw.
type RouteSnapper interface {
	SnapRoute(ctx context.Context, points []spatial.Point) (*geojson.Feature, error)
}

// ReportService builds trip reports and routes from stored tracking rows
type ReportService struct {
	source     TrackingSource
	snapper    RouteSnapper
	thresholds trips.Thresholds
}

// NewReportService creates a new report service. snapper may be nil.
func NewReportService(source TrackingSource, snapper RouteSnapper, thresholds trips.Thresholds) *ReportService {
	return &ReportService{
		source:     source,
		snapper:    snapper,
		thresholds: thresholds,
	}
}

// BuildTripsReport infers trips for the whole fleet, or the given plates
func (s *ReportService) BuildTripsReport(ctx context.Context, plates []string, rng DateRange) ([]models.Trip, error) {
	rows, err := s.source.FleetRange(ctx, plates, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load fleet segments: %w", err)
	}
	return trips.InferFleetTrips(normalizeByPlate(rows), s.thresholds), nil
}

// normalizeByPlate normalizes each plate's run of rows on its own, so one
// vehicle's timeline never flags another's rows as out of order. Rows must
// be grouped by plate.
func normalizeByPlate(rows []models.TrackingRow) []models.Segment {
	segments := make([]models.Segment, 0, len(rows))
	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && rows[end].PlateNumber == rows[start].PlateNumber {
			end++
		}
		segments = append(segments, trips.Normalize(rows[start:end])...)
		start = end
	}
	return segments
}

// BuildVehicleTrips infers one vehicle's trips
func (s *ReportService) BuildVehicleTrips(ctx context.Context, plate string, rng DateRange) ([]models.Trip, error) {
	segments, err := s.vehicleSegments(ctx, plate, rng)
	if err != nil {
		return nil, err
	}
	return trips.InferTripsForPlate(segments, s.thresholds), nil
}

// BuildRoute returns a vehicle's located points, the raw and snapped lines
// and its trips. A snapping failure is reported in SnapError, not returned.
func (s *ReportService) BuildRoute(ctx context.Context, plate string, rng DateRange, snap bool) (*RouteResult, error) {
	segments, err := s.vehicleSegments(ctx, plate, rng)
	if err != nil {
		return nil, err
	}

	points := make([]spatial.Point, 0, len(segments))
	for _, seg := range segments {
		if seg.Point != nil {
			points = append(points, *seg.Point)
		}
	}
	tripList := trips.InferTripsForPlate(segments, s.thresholds)

	result := &RouteResult{
		Plate:         plate,
		From:          trips.FormatTimestamp(rng.From),
		To:            trips.FormatTimestamp(rng.To),
		SnapRequested: snap,
		TripCount:     len(tripList),
		DistanceKm:    math.Round(spatial.PathLength(points)) / 1000,
		Route:         RouteLines{Raw: export.LineFromPoints(points)},
		Points:        points,
		Trips:         NewTripViews(tripList),
	}
	if snap {
		result.Route.Snapped, result.SnapError = s.snap(ctx, plate, points)
		result.SnapApplied = result.Route.Snapped != nil
	}

	return result, nil
}

// VehicleHistory returns a vehicle's normalized segments with their track
func (s *ReportService) VehicleHistory(ctx context.Context, plate string, rng DateRange, snap bool) (*HistoryResult, error) {
	segments, err := s.vehicleSegments(ctx, plate, rng)
	if err != nil {
		return nil, err
	}

	views := make([]SegmentView, len(segments))
	historyPoints := make([]HistoryPoint, 0, len(segments))
	routePoints := make([]spatial.Point, 0, len(segments))

	for i, seg := range segments {
		start := trips.FormatTimestamp(seg.EffectiveStart)
		view := SegmentView{
			ID:             seg.ID,
			PlateNumber:    seg.PlateNumber,
			DisplayName:    seg.DisplayName,
			SpeedKmh:       seg.SpeedKmh,
			Heading:        seg.Heading,
			StartTime:      start,
			EndTime:        trips.FormatTimestamp(seg.EffectiveEnd),
			DurationSec:    seg.DurationSec,
			Road:           seg.Road,
			Suburb:         seg.Suburb,
			City:           seg.City,
			State:          seg.State,
			Country:        seg.Country,
			HasTimeAnomaly: seg.HasTimeAnomaly,
		}
		if seg.Point != nil {
			p := *seg.Point
			view.Lat, view.Lon = &p.Lat, &p.Lon
			historyPoints = append(historyPoints, HistoryPoint{Lat: p.Lat, Lon: p.Lon, Time: start})
			routePoints = append(routePoints, p)
		} else {
			warning := LocationUnavailable
			view.LocationWarning = &warning
		}
		views[i] = view
	}

	result := &HistoryResult{
		Plate:         plate,
		From:          trips.FormatTimestamp(rng.From),
		To:            trips.FormatTimestamp(rng.To),
		Count:         len(views),
		Points:        historyPoints,
		Bounds:        spatial.BoundingBox(routePoints),
		SnapRequested: snap,
		Route:         RouteLines{Raw: export.LineFromPoints(routePoints)},
		Segments:      views,
	}
	if snap {
		result.Route.Snapped, result.SnapError = s.snap(ctx, plate, routePoints)
		result.SnapApplied = result.Route.Snapped != nil
	}

	return result, nil
}

func (s *ReportService) vehicleSegments(ctx context.Context, plate string, rng DateRange) ([]models.Segment, error) {
	rows, err := s.source.VehicleHistory(ctx, plate, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle segments: %w", err)
	}
	return trips.Normalize(rows), nil
}

func (s *ReportService) snap(ctx context.Context, plate string, points []spatial.Point) (*geojson.Feature, *string) {
	if s.snapper == nil {
		return nil, nil
	}
	feature, err := s.snapper.SnapRoute(ctx, points)
	if err != nil {
		log.Printf("[Reports] snapping %s failed: %v", plate, err)
		msg := err.Error()
		return nil, &msg
	}
	return feature, nil
}
