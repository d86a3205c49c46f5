package api

import (
	"net/http"

	"ecommerce/api/discount"
	"ecommerce/api/health"
	"ecommerce/api/inventory"
	"ecommerce/api/middleware"
	"ecommerce/api/order"
	"ecommerce/config"
	"ecommerce/infrastructure/observability"

	"github.com/gin-gonic/gin"
)

// Router Route configuration
type Router struct {
	engine              *gin.Engine
	config              *config.Config
	metricsHandler      http.Handler
	healthController    *health.Controller
	orderController     *order.Controller
	discountController  *discount.Controller
	inventoryController *inventory.Controller
}

// Controllers groups the HTTP controllers mounted under /api/v1.
type Controllers struct {
	Health    *health.Controller
	Order     *order.Controller
	Discount  *discount.Controller
	Inventory *inventory.Controller
}

// NewRouter Create route configuration. metrics may be nil.
func NewRouter(cfg *config.Config, controllers Controllers, metrics *observability.Metrics, tracer *observability.Tracer) *Router {
	// Set Gin mode based on environment
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	var observer middleware.HTTPObserver
	var metricsHandler http.Handler
	if metrics != nil {
		observer = metrics
		metricsHandler = metrics.Handler()
	}

	// Add middleware (order is important)
	engine.Use(middleware.RequestIDMiddleware())                      // 1. Generate request ID first
	engine.Use(middleware.RecoveryMiddleware())                       // 2. Recovery middleware
	engine.Use(middleware.LoggingMiddleware())                        // 3. Logging middleware
	engine.Use(middleware.MetricsMiddleware(observer, tracer))        // 4. Metrics + tracing
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))                  // 5. CORS
	engine.Use(middleware.RateLimitMiddleware(&cfg.Server.RateLimit)) // 6. Rate limiting

	return &Router{
		engine:              engine,
		config:              cfg,
		metricsHandler:      metricsHandler,
		healthController:    controllers.Health,
		orderController:     controllers.Order,
		discountController:  controllers.Discount,
		inventoryController: controllers.Inventory,
	}
}

// SetupRoutes Set up all routes
func (r *Router) SetupRoutes() {
	apiGroup := r.engine.Group("/api/v1")
	{
		r.healthController.RegisterRoutes(apiGroup)
		r.orderController.RegisterRoutes(apiGroup)
		r.discountController.RegisterRoutes(apiGroup)
		r.inventoryController.RegisterRoutes(apiGroup)
	}

	if r.metricsHandler != nil && r.config.Metrics.Enabled {
		path := r.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(r.metricsHandler))
	}

	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    r.config.App.Name,
			"version": r.config.App.Version,
			"env":     r.config.App.Env,
			"health":  "/api/v1/health",
		})
	})
}

// GetEngine Get Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
