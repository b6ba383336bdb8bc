package models

// TrackingRow is one persisted telemetry aggregate from vehicle_tracking_data.
// Timestamps are kept as stored text; they are resolved during normalization.
type TrackingRow struct {
	ID          int64    `json:"id" db:"id"`
	PlateNumber string   `json:"plateNumber" db:"plate_number"`
	SpeedKmh    *float64 `json:"speedKmh" db:"speed_kmh"`
	Heading     *float64 `json:"heading" db:"heading"`

	// Timestamp candidates
	FirstGPSTimestamp    *string `json:"firstGpsTimestamp" db:"first_gps_timestamp"`
	LastGPSTimestamp     *string `json:"lastGpsTimestamp" db:"last_gps_timestamp"`
	FirstServerTimestamp *string `json:"firstServerTimestamp" db:"first_server_timestamp"`
	LastServerTimestamp  *string `json:"lastServerTimestamp" db:"last_server_timestamp"`

	// Geocoded description (pass-through)
	DisplayName   *string `json:"displayName" db:"display_name"`
	Road          *string `json:"road" db:"road"`
	Suburb        *string `json:"suburb" db:"suburb"`
	City          *string `json:"city" db:"city"`
	Subdistrict   *string `json:"subdistrict" db:"subdistrict"`
	County        *string `json:"county" db:"county"`
	StateDistrict *string `json:"stateDistrict" db:"state_district"`
	State         *string `json:"state" db:"state"`
	Postcode      *string `json:"postcode" db:"postcode"`
	Country       *string `json:"country" db:"country"`
	CountryCode   *string `json:"countryCode" db:"country_code"`

	LocationText *string `json:"locationText" db:"location_text"`
	RawTracker   *string `json:"rawTracker,omitempty" db:"raw_tracker"` // JSON
	RawGeocode   *string `json:"rawGeocode,omitempty" db:"raw_geocode"` // JSON

	// Metadata
	CreatedAt *string `json:"createdAt,omitempty" db:"created_at"`
	UpdatedAt *string `json:"updatedAt,omitempty" db:"updated_at"`
}

// Speed returns the reported speed, 0 when absent
func (r TrackingRow) Speed() float64 {
	if r.SpeedKmh == nil {
		return 0
	}
	return *r.SpeedKmh
}
