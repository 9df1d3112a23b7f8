package router

import (
	"github.com/gin-gonic/gin"

	"stratadoc/internal/handler"
	"stratadoc/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	docH *handler.DocumentHandler,
	propertyH *handler.PropertyHandler,
	reportH *handler.ReportHandler,
	healthH *handler.HealthHandler,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.UserContext())

	// Document intake and query routes
	docs := v1.Group("/documents")
	docs.POST("", docH.Upload)
	docs.GET("", docH.List)
	docs.GET("/:id", docH.Get)
	docs.GET("/:id/pages", docH.Pages)
	docs.GET("/:id/diagrams", docH.Diagrams)
	docs.GET("/:id/contract", docH.Contract)
	docs.GET("/:id/download", docH.DownloadURL)
	docs.POST("/:id/reprocess", docH.Reprocess)

	// Property data routes
	properties := v1.Group("/properties")
	properties.GET("/suggest", propertyH.Suggest)
	properties.GET("/:id/valuation", propertyH.Valuation)

	// Report routes
	reports := v1.Group("/reports")
	reports.GET("/processing", reportH.ProcessingReport)

	return r
}
