package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/nexkey/nexkey-admin-backend/docs"
	"github.com/nexkey/nexkey-admin-backend/internal/config"
	"github.com/nexkey/nexkey-admin-backend/internal/database"
	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
	"github.com/nexkey/nexkey-admin-backend/internal/middleware"
	"github.com/nexkey/nexkey-admin-backend/internal/router"
	"github.com/nexkey/nexkey-admin-backend/internal/services"
	"github.com/nexkey/nexkey-admin-backend/internal/services/apikey"
	"github.com/nexkey/nexkey-admin-backend/internal/services/auth"
	"github.com/nexkey/nexkey-admin-backend/internal/services/maintenance"
	"github.com/nexkey/nexkey-admin-backend/internal/services/subscription"
	"github.com/nexkey/nexkey-admin-backend/internal/utils"
)

// @title NexKey Admin API
// @version 1.0
// @description API key and subscription management backend with JWT admin sessions

// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter `Bearer ` followed by your session token

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Configure logging
	configureLogging()

	// Initialize Sentry
	utils.InitSentry()

	cfg := config.Load()
	docs.SwaggerInfo.BasePath = cfg.BasePath

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize RabbitMQ for audit event fan-out (optional)
	var rabbitMQService *services.RabbitMQService
	if rmq, err := services.NewRabbitMQService(); err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ, audit fan-out disabled: %v", err)
	} else {
		rabbitMQService = rmq
		defer rabbitMQService.Close()
	}

	// Core services
	auditService := services.NewAuditService(repository.NewAuditLogRepository(db), rabbitMQService)
	lifecycle := subscription.NewService(db, auditService, cfg.ExpiringThresholdDays, cfg.DefaultRenewDays)
	tokenService := auth.NewTokenService(repository.NewRevokedTokenRepository(db), cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := auth.NewAuthService(db, tokenService, lifecycle, auditService)
	apiKeyService := apikey.NewService(db, auditService)

	// Create bootstrap admin key on an empty database
	if key, err := apiKeyService.EnsureBootstrapAdminKey(); err != nil {
		logrus.Warnf("Failed to ensure bootstrap admin key: %v", err)
	} else if key != "" {
		logrus.Infof("Bootstrap admin API key created: %s (store it now, it is not shown again)", key)
	}

	// Maintenance sweep: periodic plus the HTTP trigger
	sweepService := maintenance.NewSweepService(lifecycle,
		repository.NewRevokedTokenRepository(db), auditService,
		cfg.AutoRenewWindow, cfg.SweepInterval)
	sweepService.Start()
	defer sweepService.Stop()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	defer rateLimiter.Stop()

	r := router.SetupRouter(router.Dependencies{
		DB:            db,
		Config:        cfg,
		AuthService:   authService,
		APIKeyService: apiKeyService,
		Lifecycle:     lifecycle,
		SweepService:  sweepService,
		AuditService:  auditService,
		RateLimiter:   rateLimiter,
	})

	// Configure HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", cfg.Port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
