package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"melco-care-server/internal/agents"
	"melco-care-server/internal/cache"
	"melco-care-server/internal/config"
	"melco-care-server/internal/handlers"
	"melco-care-server/internal/middleware"
	"melco-care-server/internal/models"
	"melco-care-server/internal/vlm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, svc vlm.Service, c *cache.Cache) {
	// Initialize agents and handlers
	orchestrator := agents.NewOrchestrator(db, svc, c, cfg.DefaultCity, nil)
	pharmacyAgent := agents.NewPharmacyAgent(db, svc)

	authHandler := handlers.NewAuthHandler(db, cfg)
	chatHandler := handlers.NewChatHandler(db, cfg, orchestrator)
	appointmentHandler := handlers.NewAppointmentHandler(db, orchestrator.Appointments)
	pharmacyHandler := handlers.NewPharmacyHandler(db, cfg, pharmacyAgent)
	adminHandler := handlers.NewAdminHandler(db, svc, orchestrator.RAG)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// Chat intake and booking
		private.POST("/chat", chatHandler.Chat)
		private.POST("/chat/with-image", chatHandler.ChatWithImage)
		private.GET("/chat/history/:userId", chatHandler.ChatHistory)
		private.POST("/book-appointment", chatHandler.BookAppointment)
		private.GET("/appointments/:userId", chatHandler.GetAppointments)

		// Appointment lifecycle
		appointmentRoutes := private.Group("/appointment")
		{
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)
		}
		private.GET("/doctor/queue", middleware.RoleAuthMiddleware(models.RoleDoctor), appointmentHandler.GetDoctorQueue)

		// Pharmacy
		pharmacyRoutes := private.Group("/pharmacy")
		{
			pharmacyRoutes.GET("", pharmacyHandler.GetPharmacies)
			pharmacyRoutes.GET("/:id/inventory", pharmacyHandler.GetInventory)
			pharmacyRoutes.POST("/search", pharmacyHandler.SearchMedicines)
			pharmacyRoutes.POST("/recommendations", pharmacyHandler.Recommendations)
			pharmacyRoutes.POST("/validate-prescription", pharmacyHandler.ValidatePrescription)
		}

		// Admin-only routes
		adminRoutes := private.Group("/admin")
		adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminRoutes.GET("/hospitals", adminHandler.GetHospitals)
			adminRoutes.GET("/hospitals/:id", adminHandler.GetHospitalByID)
			adminRoutes.PATCH("/hospitals/:id/beds", adminHandler.UpdateHospitalBeds)
			adminRoutes.GET("/hospitals/:id/departments", adminHandler.GetDepartments)
			adminRoutes.GET("/doctors", adminHandler.GetDoctors)
			adminRoutes.PATCH("/doctors/:id/status", adminHandler.UpdateDoctorStatus)
			adminRoutes.GET("/users", adminHandler.GetUsers)
			adminRoutes.GET("/appointments", adminHandler.GetAppointments)
			adminRoutes.GET("/status", adminHandler.SystemStatus)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
