package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	"github.com/VanishVault/Vault-Service/cmd/middleware"
	"github.com/VanishVault/Vault-Service/internal/api/handlers"
	"github.com/VanishVault/Vault-Service/internal/metrics"
)

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "PATCH", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}

func RegisterRoutes(r *gin.Engine, h *handlers.FileHandler, allowedOrigins []string) {
	r.Use(gintrace.Middleware("vault-service"))
	r.Use(corsMiddleware(allowedOrigins))
	r.Use(metrics.GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		// Share-link endpoints: auth is optional, anonymous viewers are
		// legal for public links.
		api.GET("/view/:fileId", middleware.OptionalAuth(), h.ViewFile)
		api.POST("/destroy", middleware.OptionalAuth(), h.DestroyFile)

		// Owner endpoints
		api.POST("/upload", middleware.RequireAuth(), h.UploadFile)
		api.GET("/files", middleware.RequireAuth(), h.ListFiles)
	}
}
