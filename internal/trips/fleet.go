package trips

import (
	"slices"

	"github.com/jengzang/fleet-trips-backend-go/internal/models"
)

// InferFleetTrips groups segments by plate, infers each vehicle's trips
// independently and returns all trips ordered by start time. Trips with equal
// start times keep the order in which their plates first appear in segments.
func InferFleetTrips(segments []models.Segment, th Thresholds) []models.Trip {
	var plates []string
	byPlate := make(map[string][]models.Segment)
	for _, seg := range segments {
		if _, ok := byPlate[seg.PlateNumber]; !ok {
			plates = append(plates, seg.PlateNumber)
		}
		byPlate[seg.PlateNumber] = append(byPlate[seg.PlateNumber], seg)
	}

	trips := make([]models.Trip, 0)
	for _, plate := range plates {
		list := byPlate[plate]
		slices.SortStableFunc(list, func(a, b models.Segment) int {
			return a.EffectiveStart.Compare(b.EffectiveStart)
		})
		trips = append(trips, InferTripsForPlate(list, th)...)
	}

	slices.SortStableFunc(trips, func(a, b models.Trip) int {
		return a.StartTime.Compare(b.StartTime)
	})

	return trips
}
