package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jengzang/fleet-trips-backend-go/internal/models"
	"github.com/jengzang/fleet-trips-backend-go/internal/trips"
)

const trackingColumns = `id, plate_number, speed_kmh, heading,
	first_gps_timestamp, last_gps_timestamp, first_server_timestamp, last_server_timestamp,
	display_name, road, suburb, city, subdistrict, county, state_district, state,
	postcode, country, country_code, location_text, raw_tracker, raw_geocode,
	created_at, updated_at`

// Rows overlapping [from, to]. Stored timestamps are compared through julianday
// so mixed offsets order correctly.
const overlapCondition = `julianday(COALESCE(last_gps_timestamp, last_server_timestamp)) >= julianday(?)
	AND julianday(COALESCE(first_gps_timestamp, first_server_timestamp)) <= julianday(?)`

const segmentOrder = `julianday(COALESCE(first_gps_timestamp, first_server_timestamp)) ASC,
	julianday(COALESCE(last_gps_timestamp, last_server_timestamp)) ASC,
	id ASC`

// TrackingRepository handles database operations for vehicle tracking rows
type TrackingRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTrackingRepository creates a new tracking repository
func NewTrackingRepository(db *sql.DB) *TrackingRepository {
	return &TrackingRepository{db: db, now: time.Now}
}

// VehicleHistory returns one vehicle's rows overlapping the window
func (r *TrackingRepository) VehicleHistory(ctx context.Context, plate string, from, to time.Time) ([]models.TrackingRow, error) {
	query := `SELECT ` + trackingColumns + ` FROM vehicle_tracking_data
		WHERE plate_number = ? AND ` + overlapCondition + `
		ORDER BY ` + segmentOrder

	rows, err := r.db.QueryContext(ctx, query, plate, trips.FormatTimestamp(from), trips.FormatTimestamp(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicle history: %w", err)
	}
	defer rows.Close()

	return scanTrackingRows(rows)
}

// FleetRange returns rows of all vehicles (or only the given plates)
// overlapping the window, ordered by plate first.
func (r *TrackingRepository) FleetRange(ctx context.Context, plates []string, from, to time.Time) ([]models.TrackingRow, error) {
	conditions := []string{overlapCondition}
	args := []interface{}{trips.FormatTimestamp(from), trips.FormatTimestamp(to)}

	if len(plates) > 0 {
		placeholders := make([]string, len(plates))
		for i, plate := range plates {
			placeholders[i] = "?"
			args = append(args, plate)
		}
		conditions = append(conditions, "plate_number IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `SELECT ` + trackingColumns + ` FROM vehicle_tracking_data
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY plate_number ASC, ` + segmentOrder

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fleet range: %w", err)
	}
	defer rows.Close()

	return scanTrackingRows(rows)
}

// CurrentVehicles returns the latest row per plate. An empty plate matches
// every vehicle; activeWithinMinutes <= 0 disables the recency filter.
func (r *TrackingRepository) CurrentVehicles(ctx context.Context, plate string, activeWithinMinutes float64) ([]models.TrackingRow, error) {
	var conditions []string
	var args []interface{}

	if plate != "" {
		conditions = append(conditions, "plate_number = ?")
		args = append(args, plate)
	}
	if activeWithinMinutes > 0 {
		cutoff := r.now().Add(-time.Duration(activeWithinMinutes * float64(time.Minute)))
		conditions = append(conditions, "julianday(COALESCE(last_server_timestamp, last_gps_timestamp)) >= julianday(?)")
		args = append(args, trips.FormatTimestamp(cutoff))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := `SELECT ` + trackingColumns + ` FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY plate_number
				ORDER BY julianday(last_server_timestamp) DESC NULLS LAST, id DESC
			) AS rn
			FROM vehicle_tracking_data
			` + where + `
		)
		WHERE rn = 1
		ORDER BY plate_number ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query current vehicles: %w", err)
	}
	defer rows.Close()

	return scanTrackingRows(rows)
}

// GetByID retrieves a single row by ID
func (r *TrackingRepository) GetByID(ctx context.Context, id int64) (*models.TrackingRow, error) {
	query := `SELECT ` + trackingColumns + ` FROM vehicle_tracking_data WHERE id = ?`

	var row models.TrackingRow
	err := r.db.QueryRowContext(ctx, query, id).Scan(scanTargets(&row)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracking row: %w", err)
	}

	return &row, nil
}

// InsertRow stores one tracking row and returns its ID
func (r *TrackingRepository) InsertRow(ctx context.Context, row models.TrackingRow) (int64, error) {
	query := `INSERT INTO vehicle_tracking_data (
			plate_number, speed_kmh, heading,
			first_gps_timestamp, last_gps_timestamp, first_server_timestamp, last_server_timestamp,
			display_name, road, suburb, city, subdistrict, county, state_district, state,
			postcode, country, country_code, location_text, raw_tracker, raw_geocode
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		row.PlateNumber, row.SpeedKmh, row.Heading,
		row.FirstGPSTimestamp, row.LastGPSTimestamp, row.FirstServerTimestamp, row.LastServerTimestamp,
		row.DisplayName, row.Road, row.Suburb, row.City, row.Subdistrict, row.County, row.StateDistrict, row.State,
		row.Postcode, row.Country, row.CountryCode, row.LocationText, row.RawTracker, row.RawGeocode,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert tracking row: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	return id, nil
}

func scanTargets(row *models.TrackingRow) []interface{} {
	return []interface{}{
		&row.ID, &row.PlateNumber, &row.SpeedKmh, &row.Heading,
		&row.FirstGPSTimestamp, &row.LastGPSTimestamp, &row.FirstServerTimestamp, &row.LastServerTimestamp,
		&row.DisplayName, &row.Road, &row.Suburb, &row.City, &row.Subdistrict, &row.County, &row.StateDistrict, &row.State,
		&row.Postcode, &row.Country, &row.CountryCode, &row.LocationText, &row.RawTracker, &row.RawGeocode,
		&row.CreatedAt, &row.UpdatedAt,
	}
}

func scanTrackingRows(rows *sql.Rows) ([]models.TrackingRow, error) {
	var result []models.TrackingRow
	for rows.Next() {
		var row models.TrackingRow
		if err := rows.Scan(scanTargets(&row)...); err != nil {
			return nil, fmt.Errorf("failed to scan tracking row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracking rows: %w", err)
	}
	return result, nil
}
