package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/nexkey/nexkey-admin-backend/internal/config"
	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
	"github.com/nexkey/nexkey-admin-backend/internal/handlers"
	"github.com/nexkey/nexkey-admin-backend/internal/middleware"
	"github.com/nexkey/nexkey-admin-backend/internal/services"
	"github.com/nexkey/nexkey-admin-backend/internal/services/apikey"
	"github.com/nexkey/nexkey-admin-backend/internal/services/auth"
	"github.com/nexkey/nexkey-admin-backend/internal/services/export"
	"github.com/nexkey/nexkey-admin-backend/internal/services/maintenance"
	"github.com/nexkey/nexkey-admin-backend/internal/services/subscription"
)

// Dependencies carries the services the router wires into handlers
type Dependencies struct {
	DB            *gorm.DB
	Config        *config.Config
	AuthService   *auth.AuthService
	APIKeyService *apikey.Service
	Lifecycle     *subscription.Service
	SweepService  *maintenance.SweepService
	AuditService  *services.AuditService
	RateLimiter   *middleware.RateLimiter
}

// SetupRouter configures the Gin router with all admin dashboard routes
func SetupRouter(deps Dependencies) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.RateLimitMiddleware(deps.RateLimiter))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Repositories shared by read-only handlers
	paymentRepo := repository.NewPaymentRepository(deps.DB)
	apiKeyRepo := repository.NewAPIKeyRepository(deps.DB)
	exportService := export.NewService(paymentRepo, apiKeyRepo)

	// Middleware
	bearerTokenMiddleware := middleware.NewBearerTokenMiddleware(deps.AuthService)

	// Handlers
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	apiKeyHandler := handlers.NewAPIKeyHandler(deps.APIKeyService)
	subscriptionHandler := handlers.NewSubscriptionHandler(deps.Lifecycle)
	billingHandler := handlers.NewBillingHandler(paymentRepo, deps.AuditService, exportService)
	maintenanceHandler := handlers.NewMaintenanceHandler(deps.SweepService)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// Auth routes (public)
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.RefreshToken)
			// Logout verifies the token itself; no gatekeeper pass needed
			authRoutes.POST("/logout", authHandler.Logout)
		}

		// Maintenance trigger for external schedulers, gated by shared secret
		api.POST("/maintenance/sweep",
			middleware.SweepSecretMiddleware(deps.Config.SweepSecretHash),
			maintenanceHandler.RunSweep)

		// Protected routes
		protected := api.Group("")
		protected.Use(bearerTokenMiddleware.BearerTokenAuthMiddleware())
		{
			keys := protected.Group("/keys")
			{
				keys.POST("", apiKeyHandler.Create)
				keys.GET("", apiKeyHandler.List)
				keys.GET("/:uid", apiKeyHandler.Get)
				keys.PUT("/:uid", apiKeyHandler.Update)
				keys.DELETE("/:uid", apiKeyHandler.Delete)

				keys.GET("/:uid/subscription", subscriptionHandler.Get)
				keys.POST("/:uid/subscription/activate", subscriptionHandler.Activate)
				keys.POST("/:uid/subscription/renew", subscriptionHandler.Renew)
				keys.POST("/:uid/subscription/cancel", subscriptionHandler.Cancel)

				keys.GET("/:uid/payments", billingHandler.ListPayments)
			}

			protected.GET("/audit-logs", billingHandler.ListAuditLogs)
			protected.GET("/export/payments", billingHandler.ExportPayments)
		}
	}

	return r
}
