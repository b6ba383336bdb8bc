package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jengzang/fleet-trips-backend-go/internal/trips"
)

// Config 应用配置
type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string // empty disables session auth
	SessionCookie string

	OSRMBaseURL  string
	OSRMTimeout  time.Duration
	OSRMCacheTTL time.Duration

	PollInterval            time.Duration
	CurrentVehiclesCacheTTL time.Duration

	TripMoveDistanceM float64
	TripMoveSpeedKmh  float64
	TripStopMinutes   float64

	MaxRange           time.Duration
	RateLimitPerMinute int
}

// Load 加载配置
func Load() *Config {
	return &Config{
		Port:          envString("PORT", ":8080"),
		DBPath:        envString("DB_PATH", "./data/fleet/tracking.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionCookie: envString("SESSION_COOKIE", "fleet_session"),

		OSRMBaseURL:  envString("OSRM_BASE_URL", "http://osrm:5000"),
		OSRMTimeout:  time.Duration(envNumber("OSRM_TIMEOUT_MS", 5000)) * time.Millisecond,
		OSRMCacheTTL: time.Duration(envNumber("OSRM_CACHE_TTL_MIN", 60)) * time.Minute,

		PollInterval:            time.Duration(envNumber("POLL_INTERVAL_SEC", 10)) * time.Second,
		CurrentVehiclesCacheTTL: time.Duration(envNumber("CURRENT_VEHICLES_CACHE_TTL_MS", 1000)) * time.Millisecond,

		TripMoveDistanceM: envNumber("TRIP_MOVE_DISTANCE_M", 50),
		TripMoveSpeedKmh:  envNumber("TRIP_MOVE_SPEED_KMH", 5),
		TripStopMinutes:   envNumber("TRIP_STOP_MINUTES", 5),

		MaxRange:           time.Duration(envNumber("MAX_RANGE_DAYS", 7)) * 24 * time.Hour,
		RateLimitPerMinute: int(envNumber("RATE_LIMIT_PER_MINUTE", 120)),
	}
}

// Thresholds returns the trip segmentation thresholds
func (c *Config) Thresholds() trips.Thresholds {
	return trips.Thresholds{
		MoveDistanceM: c.TripMoveDistanceM,
		MoveSpeedKmh:  c.TripMoveSpeedKmh,
		StopMinutes:   c.TripStopMinutes,
	}
}

// AuthEnabled reports whether a JWT secret is configured
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envNumber(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("[Config] invalid %s=%q, using %v", key, raw, fallback)
		return fallback
	}
	return v
}
