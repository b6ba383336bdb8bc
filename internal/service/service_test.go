package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/fleet-trips-backend-go/internal/models"
	"github.com/jengzang/fleet-trips-backend-go/internal/spatial"
	"github.com/jengzang/fleet-trips-backend-go/internal/trips"
)

var testThresholds = trips.Thresholds{MoveDistanceM: 50, MoveSpeedKmh: 5, StopMinutes: 5}

type fakeSource struct {
	rows         []models.TrackingRow
	current      []models.TrackingRow
	err          error
	gotPlates    []string
	currentCalls int
}

func (f *fakeSource) VehicleHistory(ctx context.Context, plate string, from, to time.Time) ([]models.TrackingRow, error) {
	return f.rows, f.err
}

func (f *fakeSource) FleetRange(ctx context.Context, plates []string, from, to time.Time) ([]models.TrackingRow, error) {
	f.gotPlates = plates
	return f.rows, f.err
}

func (f *fakeSource) CurrentVehicles(ctx context.Context, plate string, activeWithinMinutes float64) ([]models.TrackingRow, error) {
	f.currentCalls++
	return f.current, f.err
}

type fakeSnapper struct {
	feature *geojson.Feature
	err     error
	points  []spatial.Point
}

func (f *fakeSnapper) SnapRoute(ctx context.Context, points []spatial.Point) (*geojson.Feature, error) {
	f.points = points
	return f.feature, f.err
}

func str(s string) *string   { return &s }
func num(v float64) *float64 { return &v }

func trackRow(id int64, start, end string, speed float64, location *string) models.TrackingRow {
	return models.TrackingRow{
		ID:                id,
		PlateNumber:       "ABC123",
		SpeedKmh:          num(speed),
		FirstGPSTimestamp: str(start),
		LastGPSTimestamp:  str(end),
		LocationText:      location,
	}
}

// movement, a long stop, then movement again
func twoTripRows() []models.TrackingRow {
	return []models.TrackingRow{
		trackRow(1, "2026-01-01T08:00:00Z", "2026-01-01T08:05:00Z", 35, str("(46.6753,24.7136)")),
		trackRow(2, "2026-01-01T08:05:00Z", "2026-01-01T08:12:00Z", 0, str("(46.6753,24.7136)")),
		trackRow(3, "2026-01-01T08:12:00Z", "2026-01-01T08:18:00Z", 26, str("(46.6900,24.7300)")),
		trackRow(4, "2026-01-01T08:18:00Z", "2026-01-01T08:19:00Z", 26, nil),
	}
}

var testRange = DateRange{
	From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
}

func TestBuildTripsReport(t *testing.T) {
	source := &fakeSource{rows: twoTripRows()}
	svc := NewReportService(source, nil, testThresholds)

	list, err := svc.BuildTripsReport(context.Background(), []string{"ABC123"}, testRange)
	if err != nil {
		t.Fatalf("BuildTripsReport error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(list))
	}
	if len(source.gotPlates) != 1 || source.gotPlates[0] != "ABC123" {
		t.Fatalf("plate filter not passed through: %v", source.gotPlates)
	}

	views := NewTripViews(list)
	if views[0].StartTime != "2026-01-01T08:00:00.000Z" || views[0].EndTime != "2026-01-01T08:05:00.000Z" {
		t.Fatalf("unexpected first trip times %s - %s", views[0].StartTime, views[0].EndTime)
	}
	if views[1].StartTime != "2026-01-01T08:12:00.000Z" {
		t.Fatalf("unexpected second trip start %s", views[1].StartTime)
	}
}

func TestBuildTripsReportWrapsSourceError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewReportService(&fakeSource{err: boom}, nil, testThresholds)

	if _, err := svc.BuildTripsReport(context.Background(), nil, testRange); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestBuildRouteWithSnapping(t *testing.T) {
	snapped := geojson.NewFeature(orb.LineString{{46.6753, 24.7136}, {46.69, 24.73}})
	snapper := &fakeSnapper{feature: snapped}
	svc := NewReportService(&fakeSource{rows: twoTripRows()}, snapper, testThresholds)

	route, err := svc.BuildRoute(context.Background(), "ABC123", testRange, true)
	if err != nil {
		t.Fatalf("BuildRoute error: %v", err)
	}
	if len(route.Points) != 3 || len(snapper.points) != 3 {
		t.Fatalf("expected 3 located points, got %d (snapper saw %d)", len(route.Points), len(snapper.points))
	}
	if route.Route.Raw == nil || route.Route.Snapped != snapped || !route.SnapApplied || route.SnapError != nil {
		t.Fatalf("unexpected route lines %+v", route)
	}
	if route.TripCount != 2 || len(route.Trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", route.TripCount)
	}
	if route.DistanceKm <= 1 {
		t.Fatalf("expected raw distance over 1km, got %v", route.DistanceKm)
	}
	if route.From != "2026-01-01T00:00:00.000Z" || route.To != "2026-01-02T00:00:00.000Z" {
		t.Fatalf("unexpected range %s..%s", route.From, route.To)
	}
}

func TestBuildRouteReportsSnapError(t *testing.T) {
	svc := NewReportService(&fakeSource{rows: twoTripRows()}, &fakeSnapper{err: errors.New("osrm down")}, testThresholds)

	route, err := svc.BuildRoute(context.Background(), "ABC123", testRange, true)
	if err != nil {
		t.Fatalf("snap failure must not fail the route: %v", err)
	}
	if route.SnapApplied || route.SnapError == nil || *route.SnapError != "osrm down" {
		t.Fatalf("expected snap error, got %+v", route)
	}
	if route.Route.Raw == nil {
		t.Fatalf("expected raw route")
	}
}

func TestBuildRouteWithoutSnapping(t *testing.T) {
	snapper := &fakeSnapper{}
	svc := NewReportService(&fakeSource{rows: twoTripRows()}, snapper, testThresholds)

	route, err := svc.BuildRoute(context.Background(), "ABC123", testRange, false)
	if err != nil {
		t.Fatalf("BuildRoute error: %v", err)
	}
	if route.SnapRequested || route.Route.Snapped != nil || snapper.points != nil {
		t.Fatalf("snapper should not be called")
	}
}

func TestVehicleHistory(t *testing.T) {
	svc := NewReportService(&fakeSource{rows: twoTripRows()}, nil, testThresholds)

	history, err := svc.VehicleHistory(context.Background(), "ABC123", testRange, true)
	if err != nil {
		t.Fatalf("VehicleHistory error: %v", err)
	}
	if history.Count != 4 || len(history.Segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", history.Count)
	}
	if len(history.Points) != 3 || history.Points[0].Time != "2026-01-01T08:00:00.000Z" {
		t.Fatalf("unexpected points %+v", history.Points)
	}

	last := history.Segments[3]
	if last.Lat != nil || last.LocationWarning == nil || *last.LocationWarning != LocationUnavailable {
		t.Fatalf("expected location warning on unlocated segment, got %+v", last)
	}
	if history.Segments[0].LocationWarning != nil {
		t.Fatalf("unexpected warning on located segment")
	}

	b := history.Bounds
	if b == nil || b.MinLat != 24.7136 || b.MaxLat != 24.73 || b.MinLon != 46.6753 || b.MaxLon != 46.69 {
		t.Fatalf("unexpected bounds %+v", b)
	}
	// no snapper configured
	if history.SnapApplied || history.SnapError != nil {
		t.Fatalf("unexpected snap state %+v", history)
	}
}

func TestCurrentVehiclesCachesResults(t *testing.T) {
	source := &fakeSource{current: []models.TrackingRow{
		{ID: 7, PlateNumber: "ABC123", LastServerTimestamp: str("2026-01-01 08:00:00+03:00"), LocationText: str("POINT(46.6753 24.7136)")},
		{ID: 9, PlateNumber: "XYZ789", LocationText: str("nowhere")},
	}}
	svc := NewVehicleService(source, 10*time.Second, time.Second)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC) }

	first, err := svc.CurrentVehicles(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("CurrentVehicles error: %v", err)
	}
	if first.Cached || len(first.Vehicles) != 2 || first.PollIntervalSec != 10 {
		t.Fatalf("unexpected first result %+v", first)
	}

	a := first.Vehicles[0]
	if a.Lat == nil || *a.Lat != 24.7136 || a.LocationWarning != nil {
		t.Fatalf("unexpected location %+v", a)
	}
	if a.LastServerTimestamp == nil || *a.LastServerTimestamp != "2026-01-01T05:00:00.000Z" {
		t.Fatalf("expected canonical timestamp, got %v", a.LastServerTimestamp)
	}
	b := first.Vehicles[1]
	if b.Lat != nil || b.LocationWarning == nil || *b.LocationWarning != "location_parse_failed" {
		t.Fatalf("expected parse warning, got %+v", b)
	}

	second, err := svc.CurrentVehicles(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("CurrentVehicles error: %v", err)
	}
	if !second.Cached || source.currentCalls != 1 {
		t.Fatalf("expected cached result, calls=%d", source.currentCalls)
	}

	// different filter, different entry
	minutes := 15.0
	if _, err := svc.CurrentVehicles(context.Background(), "", &minutes); err != nil {
		t.Fatalf("CurrentVehicles error: %v", err)
	}
	if source.currentCalls != 2 {
		t.Fatalf("expected a miss for a new filter, calls=%d", source.currentCalls)
	}
}

func TestBuildTripsReportNormalizesEachPlate(t *testing.T) {
	aaa := trackRow(1, "2026-01-01T09:00:00Z", "2026-01-01T09:05:00Z", 30, nil)
	aaa.PlateNumber = "AAA111"
	bbb := trackRow(2, "2026-01-01T08:00:00Z", "2026-01-01T08:05:00Z", 30, nil)
	bbb.PlateNumber = "BBB222"

	svc := NewReportService(&fakeSource{rows: []models.TrackingRow{aaa, bbb}}, nil, testThresholds)
	list, err := svc.BuildTripsReport(context.Background(), nil, testRange)
	if err != nil {
		t.Fatalf("BuildTripsReport error: %v", err)
	}
	if len(list) != 2 || list[0].PlateNumber != "BBB222" {
		t.Fatalf("unexpected trips %+v", list)
	}
	for _, trip := range list {
		if trip.HasTimeAnomaly {
			t.Fatalf("%s flagged by another plate's timeline", trip.PlateNumber)
		}
	}
}
