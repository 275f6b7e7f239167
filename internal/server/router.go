// Package server assembles the HTTP router shared by cmd/api and the
// end-to-end tests.
package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"drinklog/internal/config"
	"drinklog/internal/handlers"
	"drinklog/internal/metrics"
	"drinklog/internal/middleware"
	"drinklog/internal/services"

	_ "drinklog/internal/docs" // Import swagger docs
)

// Deps are the services the router exposes.
type Deps struct {
	Config       *config.Config
	UserService  services.UserServicer
	DrinkService services.DrinkServicer
	AuditService services.AuditServicer
	Metrics      *metrics.Metrics
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	settings := handlers.DrinkSettings{
		QuickOrderLimit: cfg.QuickOrderLimit,
		TopStoreLimit:   cfg.TopStoreLimit,
		ExportLocale:    cfg.ExportLocale,
		ShareURL:        cfg.ShareURL,
	}

	authHandler := handlers.NewAuthHandler(d.UserService, d.DrinkService, d.AuditService)
	drinkHandler := handlers.NewDrinkHandler(d.DrinkService, d.UserService, d.AuditService, settings)
	streamHandler := handlers.NewStreamHandler(d.DrinkService, d.UserService, settings)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	if d.Metrics != nil {
		router.Use(d.Metrics.GinMiddleware())
	}
	router.Use(middleware.ErrorHandler())
	router.Use(corsMiddleware(cfg.CORSAllowedOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if d.Metrics != nil {
		router.GET("/metrics", middleware.MetricsAuthMiddleware(cfg.MetricsAPIKey), gin.WrapH(d.Metrics.Handler()))
	}

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/profile", authHandler.GetProfile)

	drinks := protected.Group("/drinks")
	drinks.GET("", drinkHandler.ListDrinks)
	drinks.POST("", drinkHandler.CreateDrink)
	drinks.GET("/overview", drinkHandler.GetOverview)
	drinks.GET("/quick-orders", drinkHandler.GetQuickOrders)
	drinks.GET("/vocabulary", drinkHandler.GetVocabulary)
	drinks.GET("/stats/stores", drinkHandler.GetTopStores)
	drinks.GET("/export", drinkHandler.ExportDrinks)
	drinks.GET("/stream", streamHandler.StreamDrinks)
	drinks.GET("/ws", streamHandler.StreamDrinksWS)
	drinks.GET("/:id", drinkHandler.GetDrink)
	drinks.PUT("/:id", drinkHandler.UpdateDrink)
	drinks.DELETE("/:id", drinkHandler.DeleteDrink)
	drinks.GET("/:id/share", drinkHandler.ShareDrink)

	return router
}

// corsMiddleware allows the configured comma separated origins, or any
// origin for "*".
func corsMiddleware(allowed string) gin.HandlerFunc {
	origins := map[string]bool{}
	for _, o := range strings.Split(allowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case origins["*"]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && origins[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
