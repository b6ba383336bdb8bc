package service

import (
	"math"

	"github.com/jengzang/fleet-trips-backend-go/internal/models"
	"github.com/jengzang/fleet-trips-backend-go/internal/stats"
)

// ReportSummary aggregates a trips report
type ReportSummary struct {
	TripCount         int     `json:"tripCount"`
	VehicleCount      int     `json:"vehicleCount"`
	TotalDistanceKm   float64 `json:"totalDistanceKm"`
	TotalDurationSec  int64   `json:"totalDurationSec"`
	TotalIdleSec      int64   `json:"totalIdleSec"`
	MeanDistanceKm    float64 `json:"meanDistanceKm"`
	MedianDurationSec float64 `json:"medianDurationSec"`
	P90DurationSec    float64 `json:"p90DurationSec"`
	MaxSpeedKmh       float64 `json:"maxSpeedKmh"`
	AnomalousTrips    int     `json:"anomalousTrips"`
}

// Summarize computes fleet totals and duration percentiles
func Summarize(list []models.Trip) ReportSummary {
	distances := make([]float64, len(list))
	durations := make([]float64, len(list))
	speeds := make([]float64, len(list))
	plates := make(map[string]struct{})

	var summary ReportSummary
	for i, t := range list {
		distances[i] = t.DistanceKm
		durations[i] = float64(t.DurationSec)
		speeds[i] = t.MaxSpeedKmh
		plates[t.PlateNumber] = struct{}{}

		summary.TotalDurationSec += t.DurationSec
		summary.TotalIdleSec += t.IdleSec
		if t.HasTimeAnomaly {
			summary.AnomalousTrips++
		}
	}

	summary.TripCount = len(list)
	summary.VehicleCount = len(plates)
	summary.TotalDistanceKm = round3(stats.Sum(distances))
	summary.MeanDistanceKm = round3(stats.Mean(distances))
	summary.MedianDurationSec = math.Round(stats.Percentile(durations, 50))
	summary.P90DurationSec = math.Round(stats.Percentile(durations, 90))
	summary.MaxSpeedKmh = stats.Max(speeds)
	return summary
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
