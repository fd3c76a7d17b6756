package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/provider-portal-backend/config"
	"github.com/ikkim/provider-portal-backend/internal/app/controller"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
	"github.com/ikkim/provider-portal-backend/internal/metrics"
	"github.com/ikkim/provider-portal-backend/internal/middleware"
)

type Router struct {
	onboardingController *controller.OnboardingController
	documentController   *controller.DocumentController
	businessController   *controller.BusinessController
	bookingController    *controller.BookingController
	staffController      *controller.StaffController
	adminController      *controller.AdminController
	wsController         *controller.WebSocketController
	authMiddleware       *middleware.AuthMiddleware
	roleMiddleware       *middleware.RoleMiddleware
	phaseGate            *middleware.PhaseGate
	metrics              *metrics.Metrics
	config               *config.Config
}

// Controllers groups the HTTP handlers mounted by the router.
type Controllers struct {
	Onboarding *controller.OnboardingController
	Document   *controller.DocumentController
	Business   *controller.BusinessController
	Booking    *controller.BookingController
	Staff      *controller.StaffController
	Admin      *controller.AdminController
	WebSocket  *controller.WebSocketController
}

func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	roleMiddleware *middleware.RoleMiddleware,
	phaseGate *middleware.PhaseGate,
	m *metrics.Metrics,
	cfg *config.Config,
) *Router {
	return &Router{
		onboardingController: controllers.Onboarding,
		documentController:   controllers.Document,
		businessController:   controllers.Business,
		bookingController:    controllers.Booking,
		staffController:      controllers.Staff,
		adminController:      controllers.Admin,
		wsController:         controllers.WebSocket,
		authMiddleware:       authMiddleware,
		roleMiddleware:       roleMiddleware,
		phaseGate:            phaseGate,
		metrics:              m,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Provider portal API is running",
		})
	})
	if r.metrics != nil {
		router.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	router.NoRoute(func(c *gin.Context) {
		apperrors.NotFound(c, apperrors.ResourceNotFound, "Route not found")
	})

	api := router.Group("/api")
	{
		onboarding := api.Group("/onboarding")
		{
			// phase 1: identity-provider session, ownership checked per call
			public := onboarding.Group("", r.authMiddleware.Authenticate())
			{
				public.POST("/business-info", r.onboardingController.SaveBusinessInfo)
				public.POST("/identity/session", r.onboardingController.StartIdentityVerification)
				public.POST("/identity/confirm", r.onboardingController.ConfirmIdentityVerification)
				public.POST("/submit-application", r.onboardingController.SubmitApplication)
			}

			// phase 2: admitted by the emailed link only
			uploads := onboarding.Group("/upload-documents", r.phaseGate.Handler())
			{
				uploads.POST("", middleware.BodyLimit(controller.UploadBodyLimit(1)), r.documentController.Upload)
				uploads.POST("/batch", middleware.BodyLimit(controller.UploadBodyLimit(controller.MaxBatchFiles)), r.documentController.UploadBatch)
			}

			phase2 := onboarding.Group("/phase2", r.phaseGate.Handler())
			{
				phase2.GET("/status", r.onboardingController.Status)
				phase2.GET("/document-types", r.documentController.FormTypes)
				phase2.GET("/documents", r.documentController.List)
				phase2.DELETE("/documents/:id", r.documentController.Delete)
				phase2.PUT("/services", r.onboardingController.SaveServices)
				phase2.POST("/payout-link", r.onboardingController.CreatePayoutLink)
				phase2.POST("/payout-confirm", r.onboardingController.ConfirmPayout)
				phase2.PUT("/business-hours", r.onboardingController.SaveBusinessHours)
				phase2.POST("/submit", r.onboardingController.Submit)
			}
		}

		business := api.Group("/business", r.authMiddleware.Authenticate())
		{
			business.GET("/services",
				r.roleMiddleware.RequireRole(model.RoleOwner, model.RoleDispatcher),
				r.businessController.ListServices,
			)
			business.POST("/services",
				r.roleMiddleware.RequireCapability(model.CapServicesManage),
				r.businessController.CreateService,
			)
			business.PUT("/services/:id",
				r.roleMiddleware.RequireCapability(model.CapServicesManage),
				r.businessController.UpdateService,
			)
			business.DELETE("/services/:id",
				r.roleMiddleware.RequireCapability(model.CapServicesManage),
				r.businessController.DeleteService,
			)
			business.GET("/addons",
				r.roleMiddleware.RequireRole(model.RoleOwner, model.RoleDispatcher),
				r.businessController.ListAddons,
			)
			business.PUT("/addons/:id",
				r.roleMiddleware.RequireCapability(model.CapServicesManage),
				r.businessController.UpdateAddon,
			)
		}

		bookings := api.Group("/bookings", r.authMiddleware.Authenticate())
		{
			bookings.GET("",
				r.roleMiddleware.RequireCapability(model.CapBookingsViewAll, model.CapBookingsViewOwn),
				r.bookingController.ListBookings,
			)
			bookings.PATCH("/:id/status",
				r.roleMiddleware.RequireCapability(model.CapBookingsManage, model.CapBookingsUpdateOwn),
				r.bookingController.UpdateStatus,
			)
		}

		staff := api.Group("/staff", r.authMiddleware.Authenticate())
		{
			staff.GET("",
				r.roleMiddleware.RequireCapability(model.CapStaffView),
				r.staffController.ListStaff,
			)
			staff.POST("",
				r.roleMiddleware.RequireRole(model.RoleOwner),
				r.staffController.AddStaff,
			)
			staff.PATCH("/:id/role",
				r.roleMiddleware.RequireRole(model.RoleOwner),
				r.staffController.ChangeRole,
			)
			staff.DELETE("/:id",
				r.roleMiddleware.RequireRole(model.RoleOwner),
				r.staffController.DeactivateStaff,
			)
		}

		admin := api.Group("/admin", r.authMiddleware.Authenticate(), r.authMiddleware.RequireAdmin())
		{
			admin.GET("/businesses", r.adminController.ListBusinesses)
			admin.PATCH("/businesses/:id/moderate", r.adminController.ModerateBusiness)
			admin.POST("/businesses/:id/approve-application", r.adminController.ApproveApplication)

			admin.GET("/reviews", r.adminController.ListReviews)
			admin.PATCH("/reviews/:id/moderate", r.adminController.ModerateReview)

			admin.PATCH("/documents/:id/verify", r.documentController.Verify)
			admin.GET("/documents/:id/download", r.documentController.DownloadURL)

			admin.GET("/ws", r.wsController.AdminFeed)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.OnboardingTokenHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	wildcard := false
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
		}
	}
	if wildcard || len(allowedOrigins) == 0 {
		// credentials cannot be combined with a wildcard origin
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}
