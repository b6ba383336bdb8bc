package handler

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/fleet-trips-backend-go/internal/models"
	"github.com/jengzang/fleet-trips-backend-go/internal/service"
	"github.com/jengzang/fleet-trips-backend-go/pkg/response"
)

// VehicleHandler handles HTTP requests for live vehicle positions
type VehicleHandler struct {
	service *service.VehicleService
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(service *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{service: service}
}

// GetCurrentVehicles handles GET /api/v1/vehicles/current
func (h *VehicleHandler) GetCurrentVehicles(c *gin.Context) {
	var filter models.CurrentVehiclesFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	var activeWithin *float64
	if raw := strings.TrimSpace(filter.ActiveWithinMinutes); raw != "" {
		minutes, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
			response.BadRequest(c, "activeWithinMinutes must be a positive number")
			return
		}
		activeWithin = &minutes
	}

	result, err := h.service.CurrentVehicles(c.Request.Context(), strings.TrimSpace(filter.Plate), activeWithin)
	if err != nil {
		log.Printf("[Vehicles] current positions failed: %v", err)
		response.InternalError(c, "Failed to fetch current vehicle positions", err)
		return
	}

	response.Success(c, result)
}
