package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/vigilops/ipsentry/internal/api/handlers"
	"github.com/vigilops/ipsentry/internal/api/middleware"
	"github.com/vigilops/ipsentry/internal/config"
	"github.com/vigilops/ipsentry/internal/guard"
	"github.com/vigilops/ipsentry/internal/metrics"
	"github.com/vigilops/ipsentry/internal/models"
	"github.com/vigilops/ipsentry/internal/reputation"
	"github.com/vigilops/ipsentry/internal/services"
)

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config, gate *reputation.Gate, store *services.TierStoreService) error {
	if err := db.AutoMigrate(
		&models.WhitelistEntry{},
		&models.YellowlistEntry{},
		&models.BlockedIP{},
		&models.Decision{},
		&models.NotificationProvider{},
		&models.User{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	router.GET("/api/v1/health", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")

	// The guard applies the reputation gate to every inbound request.
	sentry := guard.New(cfg.GuardMode, gate, store)
	api.Use(sentry.Middleware())

	authService := services.NewAuthService(db, cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(authService)
	requireAuth := middleware.Auth(authService)

	api.POST("/auth/login", authHandler.Login)

	reputationHandler := handlers.NewReputationHandler(gate)
	api.GET("/reputation/:ip", reputationHandler.Check)

	blocklistHandler := handlers.NewBlocklistHandler(gate, store)
	api.GET("/blocklist", blocklistHandler.List)
	api.GET("/decisions", blocklistHandler.Decisions)
	api.POST("/blocklist/:ip", requireAuth, blocklistHandler.Block)
	api.DELETE("/blocklist/:ip", requireAuth, blocklistHandler.Unblock)

	notificationService := services.NewNotificationService(db)
	providerHandler := handlers.NewNotificationProviderHandler(notificationService)
	providers := api.Group("/notification-providers", requireAuth)
	providers.GET("", providerHandler.List)
	providers.POST("", providerHandler.Create)
	providers.DELETE("/:id", providerHandler.Delete)
	providers.POST("/:id/test", providerHandler.Test)

	return nil
}
