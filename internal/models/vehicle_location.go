package models

// VehicleLocation is the latest known position of one vehicle
type VehicleLocation struct {
	ID                  int64    `json:"id"`
	PlateNumber         string   `json:"plateNumber"`
	DisplayName         *string  `json:"displayName"`
	Road                *string  `json:"road"`
	City                *string  `json:"city"`
	SpeedKmh            *float64 `json:"speedKmh"`
	Heading             *float64 `json:"heading"`
	LastGPSTimestamp    *string  `json:"lastGpsTimestamp"`
	LastServerTimestamp *string  `json:"lastServerTimestamp"`
	Lat                 *float64 `json:"lat"`
	Lon                 *float64 `json:"lon"`
	LocationWarning     *string  `json:"locationWarning"`
}
