package http

import (
	"github.com/gin-gonic/gin"

	"github.com/ecoreceipt/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = int64(cfg.Server.MaxUploadMB) << 20

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.GET("/catalog", handler.GetCatalog)
		v1.POST("/normalize", handler.Normalize)
		v1.POST("/match", handler.Match)

		receipts := v1.Group("/receipts")
		{
			receipts.POST("", handler.UploadReceipts)
			receipts.POST("/text", handler.AnalyzeText)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/:id", handler.GetReport)
			reports.GET("/:id/export", handler.ExportReport)
		}
	}

	return router
}
