package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/fleet-trips-backend-go/internal/config"
	"github.com/jengzang/fleet-trips-backend-go/internal/handler"
	"github.com/jengzang/fleet-trips-backend-go/internal/middleware"
	"github.com/jengzang/fleet-trips-backend-go/internal/osrm"
	"github.com/jengzang/fleet-trips-backend-go/internal/repository"
	"github.com/jengzang/fleet-trips-backend-go/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, db *sql.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Fleet Trips API is running",
		})
	})

	trackingRepo := repository.NewTrackingRepository(db)
	snapper := osrm.NewClient(cfg.OSRMBaseURL, cfg.OSRMTimeout, cfg.OSRMCacheTTL)

	reportService := service.NewReportService(trackingRepo, snapper, cfg.Thresholds())
	vehicleService := service.NewVehicleService(trackingRepo, cfg.PollInterval, cfg.CurrentVehiclesCacheTTL)

	reportHandler := handler.NewReportHandler(reportService, cfg.MaxRange)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret, cfg.SessionCookie))
	api.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)))
	{
		reports := api.Group("/reports/trips")
		{
			reports.GET("", reportHandler.GetTripsReport)
			reports.GET("/export.csv", reportHandler.ExportTripsCSV)
			reports.GET("/route", reportHandler.GetTripRoute)
		}

		vehicles := api.Group("/vehicles")
		{
			vehicles.GET("/current", vehicleHandler.GetCurrentVehicles)
			vehicles.GET("/:plate/history", reportHandler.GetVehicleHistory)
			vehicles.GET("/:plate/trips", reportHandler.GetVehicleTrips)
		}
	}

	return r
}
