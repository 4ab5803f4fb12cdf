package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/api/handlers"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/api/middleware"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/service"
)

// Services are built once at startup and shared by the handlers
type Services struct {
	Addons  *service.AddonService
	Shopify *service.ShopifyService
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, svcs *Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	// Root: friendly response so GET / returns 200 instead of 404
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Product Add-ons",
			"endpoints": []string{
				"GET /health",
				"GET /auth?shop=",
				"GET /auth/callback",
				"GET /api/addons/:productId?shop=",
				"POST /api/addons",
				"PUT /api/addons/:id",
				"DELETE /api/addons/:id",
				"GET /api/products?shop=",
			},
		})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// OAuth install
	router.GET("/auth", handlers.HandleInstall(svcs.Shopify, logger))
	router.GET("/auth/callback", handlers.HandleInstallCallback(cfg, svcs.Shopify, logger))

	apiGroup := router.Group("/api")
	{
		// Storefront script reads add-ons from any origin
		public := apiGroup.Group("")
		public.Use(middleware.PublicCORS())
		{
			public.GET("/addons/:productId", handlers.HandleListAddons(svcs.Addons, logger))
			public.OPTIONS("/addons/:productId", func(c *gin.Context) {})
		}

		// Admin routes (session token or operator key)
		admin := apiGroup.Group("")
		admin.Use(middleware.AdminAuth(cfg, logger))
		admin.Use(middleware.IdempotencyMiddleware(repos.Idempotency, logger))
		{
			admin.POST("/addons", handlers.HandleCreateAddon(svcs.Addons, logger))
			admin.PUT("/addons/:id", handlers.HandleUpdateAddon(svcs.Addons, logger))
			admin.DELETE("/addons/:id", handlers.HandleDeleteAddon(svcs.Addons, logger))
			admin.GET("/products", handlers.HandleListProducts(svcs.Shopify, logger))
		}
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
