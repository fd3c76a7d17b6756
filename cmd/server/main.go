package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/provider-portal-backend/config"
	"github.com/ikkim/provider-portal-backend/internal/app/controller"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/ikkim/provider-portal-backend/internal/app/service"
	"github.com/ikkim/provider-portal-backend/internal/db"
	"github.com/ikkim/provider-portal-backend/internal/metrics"
	"github.com/ikkim/provider-portal-backend/internal/middleware"
	"github.com/ikkim/provider-portal-backend/internal/router"
	"github.com/ikkim/provider-portal-backend/internal/scheduler"
	"github.com/ikkim/provider-portal-backend/internal/storage"
	"github.com/ikkim/provider-portal-backend/internal/websocket"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"github.com/ikkim/provider-portal-backend/pkg/mailer"
	"github.com/ikkim/provider-portal-backend/pkg/redis"
	"github.com/ikkim/provider-portal-backend/pkg/stripeclient"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting provider portal backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs booking notification idempotency
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize Redis", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appMetrics := metrics.New()
	hub := websocket.NewHub()
	go hub.Run(ctx)

	objectStorage := storage.NewS3Storage(cfg.S3)
	stripeClient := stripeclient.NewClient(cfg.Stripe)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP)

	// Initialize repositories
	gormDB := db.GetDB()
	businessRepo := repository.NewBusinessRepository(gormDB)
	providerRepo := repository.NewProviderRepository(gormDB)
	tokenRepo := repository.NewOnboardingTokenRepository(gormDB)
	documentRepo := repository.NewDocumentRepository(gormDB)
	catalogRepo := repository.NewCatalogRepository(gormDB)
	offeringRepo := repository.NewBusinessServiceRepository(gormDB)
	bookingRepo := repository.NewBookingRepository(gormDB)
	reviewRepo := repository.NewReviewRepository(gormDB)

	// Initialize services
	onboardingService := service.NewOnboardingService(cfg.Onboarding, service.OnboardingDeps{
		Businesses: businessRepo,
		Providers:  providerRepo,
		Tokens:     tokenRepo,
		Documents:  documentRepo,
		Catalog:    catalogRepo,
		Offerings:  offeringRepo,
		Identity:   stripeClient,
		Payouts:    stripeClient,
		Events:     hub,
		Metrics:    appMetrics,
	})
	documentService := service.NewDocumentService(cfg.Onboarding, businessRepo, documentRepo, objectStorage, hub, appMetrics)
	catalogService := service.NewBusinessCatalogService(catalogRepo, offeringRepo)
	bookingService := service.NewBookingService(bookingRepo, redis.NewStore(nil), smtpMailer, appMetrics)
	moderationService := service.NewModerationService(businessRepo, reviewRepo, onboardingService, smtpMailer, hub, appMetrics)
	staffService := service.NewStaffService(providerRepo)

	// Background jobs
	purgeScheduler := scheduler.NewTokenPurgeScheduler(tokenRepo, cfg.Onboarding.TokenPurgeSpec)
	if err := purgeScheduler.Start(); err != nil {
		logger.Fatal("Failed to start token purge scheduler", err)
	}
	defer purgeScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		router.Controllers{
			Onboarding: controller.NewOnboardingController(onboardingService),
			Document:   controller.NewDocumentController(documentService),
			Business:   controller.NewBusinessController(catalogService),
			Booking:    controller.NewBookingController(bookingService),
			Staff:      controller.NewStaffController(staffService),
			Admin:      controller.NewAdminController(moderationService),
			WebSocket:  controller.NewWebSocketController(hub, cfg.CORS.AllowedOrigins),
		},
		middleware.NewAuthMiddleware(cfg.JWT.Secret),
		middleware.NewRoleMiddleware(providerRepo),
		middleware.NewPhaseGate(onboardingService, cfg.RateLimit, appMetrics),
		appMetrics,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shut down", err)
	}
	cancel()
	logger.Info("Server stopped successfully")
}
