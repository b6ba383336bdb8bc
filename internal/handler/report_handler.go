package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/fleet-trips-backend-go/internal/export"
	"github.com/jengzang/fleet-trips-backend-go/internal/models"
	"github.com/jengzang/fleet-trips-backend-go/internal/service"
	"github.com/jengzang/fleet-trips-backend-go/internal/trips"
	"github.com/jengzang/fleet-trips-backend-go/pkg/response"
)

// ReportHandler handles HTTP requests for trip reports
type ReportHandler struct {
	service  *service.ReportService
	maxRange time.Duration
	now      func() time.Time
}

// NewReportHandler creates a new report handler
func NewReportHandler(service *service.ReportService, maxRange time.Duration) *ReportHandler {
	return &ReportHandler{service: service, maxRange: maxRange, now: time.Now}
}

// GetTripsReport handles GET /api/v1/reports/trips
func (h *ReportHandler) GetTripsReport(c *gin.Context) {
	var filter models.TripReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	rng, ok := h.dateRange(c, filter.From, filter.To)
	if !ok {
		return
	}

	list, err := h.service.BuildTripsReport(c.Request.Context(), service.ParsePlateList(filter.Plate), rng)
	if err != nil {
		log.Printf("[Reports] trips report failed: %v", err)
		response.InternalError(c, "Failed to build trips report", err)
		return
	}

	response.Success(c, gin.H{
		"from":    trips.FormatTimestamp(rng.From),
		"to":      trips.FormatTimestamp(rng.To),
		"count":   len(list),
		"summary": service.Summarize(list),
		"trips":   service.NewTripViews(list),
	})
}

// ExportTripsCSV handles GET /api/v1/reports/trips/export.csv
func (h *ReportHandler) ExportTripsCSV(c *gin.Context) {
	var filter models.TripReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	rng, ok := h.dateRange(c, filter.From, filter.To)
	if !ok {
		return
	}

	list, err := h.service.BuildTripsReport(c.Request.Context(), service.ParsePlateList(filter.Plate), rng)
	if err != nil {
		log.Printf("[Reports] csv export failed: %v", err)
		response.InternalError(c, "Failed to export CSV", err)
		return
	}

	data, err := export.TripsToCSV(list)
	if err != nil {
		log.Printf("[Reports] csv export failed: %v", err)
		response.InternalError(c, "Failed to export CSV", err)
		return
	}

	filename := fmt.Sprintf("trip-report-%s-%s.csv", trips.FormatTimestamp(rng.From), trips.FormatTimestamp(rng.To))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// GetTripRoute handles GET /api/v1/reports/trips/route
func (h *ReportHandler) GetTripRoute(c *gin.Context) {
	var filter models.RouteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	plate := strings.TrimSpace(filter.Plate)
	if plate == "" {
		response.BadRequest(c, "plate is required")
		return
	}

	rng, ok := h.dateRange(c, filter.From, filter.To)
	if !ok {
		return
	}

	route, err := h.service.BuildRoute(c.Request.Context(), plate, rng, filter.SnapRequested())
	if err != nil {
		log.Printf("[Reports] route for %s failed: %v", plate, err)
		response.InternalError(c, "Failed to build trip route", err)
		return
	}

	response.Success(c, route)
}

// GetVehicleTrips handles GET /api/v1/vehicles/:plate/trips
func (h *ReportHandler) GetVehicleTrips(c *gin.Context) {
	plate := strings.TrimSpace(c.Param("plate"))
	if plate == "" {
		response.BadRequest(c, "plate parameter is required")
		return
	}

	rng, ok := h.dateRange(c, c.Query("from"), c.Query("to"))
	if !ok {
		return
	}

	list, err := h.service.BuildVehicleTrips(c.Request.Context(), plate, rng)
	if err != nil {
		log.Printf("[Reports] trips for %s failed: %v", plate, err)
		response.InternalError(c, "Failed to build vehicle trips", err)
		return
	}

	response.Success(c, gin.H{
		"plate": plate,
		"from":  trips.FormatTimestamp(rng.From),
		"to":    trips.FormatTimestamp(rng.To),
		"count": len(list),
		"trips": service.NewTripViews(list),
	})
}

// GetVehicleHistory handles GET /api/v1/vehicles/:plate/history
func (h *ReportHandler) GetVehicleHistory(c *gin.Context) {
	plate := strings.TrimSpace(c.Param("plate"))
	if plate == "" {
		response.BadRequest(c, "plate parameter is required")
		return
	}

	var filter models.RouteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	rng, ok := h.dateRange(c, filter.From, filter.To)
	if !ok {
		return
	}

	history, err := h.service.VehicleHistory(c.Request.Context(), plate, rng, filter.SnapRequested())
	if err != nil {
		log.Printf("[Reports] history for %s failed: %v", plate, err)
		response.InternalError(c, "Failed to fetch vehicle history", err)
		return
	}

	response.Success(c, history)
}

// dateRange writes a 400 and reports false when the range is invalid
func (h *ReportHandler) dateRange(c *gin.Context, from, to string) (service.DateRange, bool) {
	rng, err := service.ParseDateRange(from, to, h.now(), h.maxRange)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDateRange) {
			response.BadRequest(c, err.Error())
		} else {
			response.InternalError(c, "Failed to parse date range", err)
		}
		return service.DateRange{}, false
	}
	return rng, true
}
