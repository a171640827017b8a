// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pricebook/internal/domain/pricing"
	"pricebook/internal/infrastructure/http/v1/handlers"
	"pricebook/internal/infrastructure/http/v1/middleware"
	"pricebook/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Service *pricing.Service

	// Logger for request logging
	Logger *logger.Logger

	// ReadinessChecks are probed by /health/ready.
	ReadinessChecks []handlers.Checker

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// Debug enables gin debug mode.
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Order matters: ErrorHandler must run after handlers and Recovery.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "route not found"})
	})

	healthHandler := handlers.NewHealthHandler(cfg.ReadinessChecks...)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	api.Use(middleware.UserContext())
	api.Use(middleware.RequestCache())
	registerPricingRoutes(api, cfg.Service)

	return router
}

func registerPricingRoutes(rg *gin.RouterGroup, service *pricing.Service) {
	base := handlers.NewBaseHandler()
	prices := handlers.NewPricingHandler(base, service)
	schedules := handlers.NewPriceScheduleHandler(base, service)

	rg.GET("/prices/effective", prices.Effective)
	rg.POST("/prices/effective/batch", prices.Batch)

	rg.GET("/items/:itemId/price-schedules", schedules.ListByItem)

	ps := rg.Group("/price-schedules")
	{
		ps.GET("", schedules.List)
		ps.POST("", schedules.Create)
		ps.POST("/bulk", schedules.BulkCreate)
		ps.GET("/:id", schedules.Get)
		ps.GET("/:id/history", schedules.History)
		ps.PATCH("/:id", schedules.Update)
		ps.POST("/:id/cancel", schedules.Cancel)
		ps.DELETE("/:id", schedules.Delete)
	}
}
