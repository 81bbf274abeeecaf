package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/VanishVault/Vault-Service/cmd/middleware"
	"github.com/VanishVault/Vault-Service/internal/api"
	"github.com/VanishVault/Vault-Service/internal/api/handlers"
	"github.com/VanishVault/Vault-Service/internal/configuration"
	"github.com/VanishVault/Vault-Service/internal/logger"
	"github.com/VanishVault/Vault-Service/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := configuration.Load()

	logr, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logr)

	tracer.Start(tracer.WithService("vault-service"), tracer.WithEnv(cfg.Env))
	defer tracer.Stop()

	if err := middleware.InitAuth(cfg.KeycloakURL); err != nil {
		logr.Sugar().Fatalw("Failed to initialize OIDC verifier", "error", err)
	}

	records, err := services.NewPostgresStorage(cfg.Database.ConnectionString())
	if err != nil {
		logr.Sugar().Fatalw("Failed to initialize PostgreSQL", "error", err)
	}

	blobs, err := services.NewMinioService(
		cfg.MinIO.Endpoint,
		cfg.MinIO.AccessKey,
		cfg.MinIO.SecretKey,
		cfg.MinIO.BucketName,
		cfg.MinIO.UseSSL,
	)
	if err != nil {
		logr.Sugar().Fatalw("Failed to initialize MinIO", "error", err)
	}

	events, err := services.NewEventService(cfg.NATSURL)
	if err != nil {
		// Events are advisory; run without them rather than refusing to start.
		logr.Sugar().Warnw("Failed to connect to NATS, events disabled", "error", err)
	}

	setupGracefulShutdown(records, events)

	h := handlers.NewFileHandler(records, blobs, events, cfg.SignedURLTTL, cfg.CLAMAVURL)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(logr))

	api.RegisterRoutes(r, h, cfg.Server.AllowedOrigins)

	logr.Sugar().Infow("Server starting", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logr.Sugar().Fatalw("Server failed", "error", err)
	}
}

func setupGracefulShutdown(records *services.PostgresStorage, events *services.EventService) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		zap.S().Info("Shutting down gracefully...")
		events.Close()
		if err := records.Close(); err != nil {
			zap.S().Warnf("Error closing database: %v", err)
		}
		os.Exit(0)
	}()
}
