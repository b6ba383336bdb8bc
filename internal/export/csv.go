package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jengzang/fleet-trips-backend-go/internal/models"
	"github.com/jengzang/fleet-trips-backend-go/internal/trips"
)

// TripCSVHeader is the column order of TripsToCSV
var TripCSVHeader = []string{
	"plate_number",
	"display_name",
	"start_time",
	"end_time",
	"duration_sec",
	"idle_sec",
	"moving_sec",
	"distance_km",
	"avg_speed_kmh",
	"max_speed_kmh",
	"start_lat",
	"start_lon",
	"end_lat",
	"end_lon",
	"has_time_anomaly",
}

// TripsToCSV renders trips as CSV with a header row. Fields containing a
// comma, quote or newline are quoted; nil values are empty.
func TripsToCSV(list []models.Trip) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(TripCSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, t := range list {
		record := []string{
			t.PlateNumber,
			optionalString(t.DisplayName),
			trips.FormatTimestamp(t.StartTime),
			trips.FormatTimestamp(t.EndTime),
			strconv.FormatInt(t.DurationSec, 10),
			strconv.FormatInt(t.IdleSec, 10),
			strconv.FormatInt(t.MovingSec, 10),
			formatFloat(t.DistanceKm),
			formatFloat(t.AvgSpeedKmh),
			formatFloat(t.MaxSpeedKmh),
			optionalFloat(t.StartLat),
			optionalFloat(t.StartLon),
			optionalFloat(t.EndLat),
			optionalFloat(t.EndLon),
			strconv.FormatBool(t.HasTimeAnomaly),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
