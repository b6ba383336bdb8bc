package trips

import (
	"math"
	"slices"
	"time"

	"github.com/jengzang/fleet-trips-backend-go/internal/models"
	"github.com/jengzang/fleet-trips-backend-go/internal/spatial"
)

// Thresholds controls movement classification and trip splitting
type Thresholds struct {
	MoveDistanceM float64 // displacement from the previous point counted as movement
	MoveSpeedKmh  float64 // reported speed counted as movement
	StopMinutes   float64 // continuous stationary time that ends a trip
}

func (t Thresholds) stopSeconds() float64 {
	return t.StopMinutes * 60
}

// Phase of the segmentation state machine
type Phase int

const (
	NoTripOpen Phase = iota
	TripOpen
)

func (p Phase) String() string {
	if p == TripOpen {
		return "trip_open"
	}
	return "no_trip_open"
}

// accumulator is the running record of the open trip
type accumulator struct {
	plateNumber string
	displayName *string

	startTime time.Time
	endTime   time.Time
	points    []spatial.Point

	distanceM        float64
	idleSec          int64
	movingSec        int64
	speedWeightedSum float64
	speedWeightSec   int64
	maxSpeedKmh      float64

	trailingStationarySec  int64
	lastMovementEnd        time.Time
	lastMovementPointIndex int
	hasTimeAnomaly         bool
}

// State is the segmentation state between two segments. The zero value is
// the initial state.
//
// Step never modifies the State it is given, but the returned State may
// share point storage with it, so only the returned State should be stepped
// further.
type State struct {
	phase     Phase
	trip      accumulator
	lastPoint *spatial.Point
}

// Phase reports whether a trip is open
func (s State) Phase() Phase {
	return s.phase
}

// Step consumes one segment. It returns the next state and, when the
// segment completes a qualifying stop, the trip that the stop closed.
func Step(s State, seg models.Segment, th Thresholds) (State, *models.Trip) {
	speed := seg.Speed()
	duration := seg.DurationSec

	var deltaM float64
	if s.lastPoint != nil && seg.Point != nil {
		deltaM = spatial.HaversineMeters(*s.lastPoint, *seg.Point)
	}
	movement := deltaM >= th.MoveDistanceM || speed >= th.MoveSpeedKmh

	next := s
	if seg.Point != nil {
		next.lastPoint = seg.Point
	}

	if s.phase == NoTripOpen {
		if movement {
			next.phase = TripOpen
			next.trip = open(seg)
		}
		return next, nil
	}

	trip := s.trip
	trip.endTime = seg.EffectiveEnd
	trip.hasTimeAnomaly = trip.hasTimeAnomaly || seg.HasTimeAnomaly

	if seg.Point != nil {
		if n := len(trip.points); n > 0 {
			trip.distanceM += spatial.HaversineMeters(trip.points[n-1], *seg.Point)
		}
		trip.points = append(trip.points, *seg.Point)
	}

	if movement {
		trip.movingSec += duration
		trip.trailingStationarySec = 0
		trip.lastMovementEnd = seg.EffectiveEnd
		if seg.Point != nil {
			trip.lastMovementPointIndex = len(trip.points) - 1
		}
		trip.speedWeightedSum += speed * float64(duration)
		trip.speedWeightSec += duration
		trip.maxSpeedKmh = math.Max(trip.maxSpeedKmh, speed)
		next.trip = trip
		return next, nil
	}

	trip.idleSec += duration
	trip.trailingStationarySec += duration
	if float64(trip.trailingStationarySec) >= th.stopSeconds() {
		next.phase = NoTripOpen
		next.trip = accumulator{}
		return next, trip.finalize(true)
	}

	next.trip = trip
	return next, nil
}

// Finish closes the open trip at the end of input, if any
func (s State) Finish() *models.Trip {
	if s.phase != TripOpen {
		return nil
	}
	return s.trip.finalize(false)
}

func open(seg models.Segment) accumulator {
	var points []spatial.Point
	if seg.Point != nil {
		points = []spatial.Point{*seg.Point}
	}
	speed := seg.Speed()
	duration := seg.DurationSec

	return accumulator{
		plateNumber:            seg.PlateNumber,
		displayName:            seg.DisplayName,
		startTime:              seg.EffectiveStart,
		endTime:                seg.EffectiveEnd,
		points:                 points,
		movingSec:              duration,
		speedWeightedSum:       speed * float64(duration),
		speedWeightSec:         duration,
		maxSpeedKmh:            speed,
		lastMovementEnd:        seg.EffectiveEnd,
		lastMovementPointIndex: len(points) - 1,
		hasTimeAnomaly:         seg.HasTimeAnomaly,
	}
}

// finalize turns the accumulator into a trip, or nil when the trip has no
// positive duration. A terminal stop is excluded from idle time and geometry.
func (a accumulator) finalize(terminalStop bool) *models.Trip {
	end := a.endTime
	if !a.lastMovementEnd.IsZero() {
		end = a.lastMovementEnd
	}

	duration := secondsBetween(a.startTime, end)
	if duration <= 0 {
		return nil
	}

	idle := a.idleSec
	points := a.points
	if terminalStop {
		idle -= a.trailingStationarySec
		if a.lastMovementPointIndex >= 0 {
			points = points[:a.lastMovementPointIndex+1]
		}
	}
	idle = min(max(idle, 0), duration)

	var avgSpeed float64
	if a.speedWeightSec > 0 {
		avgSpeed = roundTo(a.speedWeightedSum/float64(a.speedWeightSec), 2)
	}

	trip := &models.Trip{
		PlateNumber:    a.plateNumber,
		DisplayName:    a.displayName,
		StartTime:      a.startTime,
		EndTime:        end,
		DurationSec:    duration,
		IdleSec:        idle,
		MovingSec:      duration - idle,
		DistanceKm:     roundTo(a.distanceM/1000, 3),
		AvgSpeedKmh:    avgSpeed,
		MaxSpeedKmh:    roundTo(a.maxSpeedKmh, 2),
		Points:         slices.Clone(points),
		HasTimeAnomaly: a.hasTimeAnomaly,
	}
	if trip.Points == nil {
		trip.Points = []spatial.Point{}
	}

	if len(points) > 0 {
		first, last := points[0], points[len(points)-1]
		trip.StartLat, trip.StartLon = &first.Lat, &first.Lon
		trip.EndLat, trip.EndLon = &last.Lat, &last.Lon
	}

	return trip
}

// InferTripsForPlate runs the state machine over one vehicle's segments,
// which must already be ordered by effective start.
func InferTripsForPlate(segments []models.Segment, th Thresholds) []models.Trip {
	trips := make([]models.Trip, 0)

	var state State
	for _, seg := range segments {
		var closed *models.Trip
		state, closed = Step(state, seg, th)
		if closed != nil {
			trips = append(trips, *closed)
		}
	}

	if last := state.Finish(); last != nil {
		trips = append(trips, *last)
	}

	return trips
}
