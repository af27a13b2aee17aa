// Package server assembles the SocialEyes HTTP API from the feature packages.
package server

import (
	"log/slog"
	"net/http"

	_ "github.com/BrandonKMoore/socialeyes/api/swagger"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/admin"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/apikeys"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/auth"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/events"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/groups"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/httpx"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/metrics"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/venues"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// NewRouter creates a Gin engine with every route registered
func NewRouter(db *gorm.DB, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.RequestLogger(log), metrics.Middleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": "socialeyes",
			})
		})

		// Auth routes (public)
		authHandler := auth.NewHandler(db)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// API keys routes (JWT only - need to be logged in to manage keys)
		apiKeysHandler := apikeys.NewHandler(db)
		apiKeysHandler.RegisterRoutes(api)

		// Reads are public but still see the caller when a JWT or API key is sent
		public := api.Group("", apikeys.OptionalCombinedAuth(db))
		// Writes accept a JWT or an API key
		protected := api.Group("", apikeys.CombinedAuthMiddleware(db))

		groupsHandler := groups.NewHandler(db)
		groupsHandler.RegisterPublicRoutes(public.Group("/groups"))
		groupsHandler.RegisterRoutes(protected.Group("/groups"))

		venuesHandler := venues.NewHandler(db)
		venuesHandler.RegisterRoutes(protected)

		eventsHandler := events.NewHandler(db)
		eventsHandler.RegisterPublicRoutes(public)
		eventsHandler.RegisterRoutes(protected)

		// Admin routes (JWT only, admin role required)
		adminHandler := admin.NewHandler(db)
		adminGroup := api.Group("/admin")
		adminGroup.Use(auth.AuthMiddleware(), auth.RequireAdmin())
		adminHandler.RegisterRoutes(adminGroup)
	}

	return r
}

// WithCORS lets the browser frontend at origins call the API
func WithCORS(h http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", httpx.HeaderRequestID},
		ExposedHeaders:   []string{httpx.HeaderRequestID},
		AllowCredentials: true,
	}).Handler(h)
}
