package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/fleet-trips-backend-go/internal/spatial"
)

// LineFromPoints builds a GeoJSON LineString feature ([lon, lat] order).
// Returns nil for fewer than two points.
func LineFromPoints(points []spatial.Point) *geojson.Feature {
	if len(points) < 2 {
		return nil
	}

	line := make(orb.LineString, len(points))
	for i, p := range points {
		line[i] = orb.Point{p.Lon, p.Lat}
	}
	return geojson.NewFeature(line)
}
