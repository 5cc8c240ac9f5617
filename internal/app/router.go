package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/domain"
	"dispatch/internal/handler"
	"dispatch/internal/middleware"
	"dispatch/internal/notify"
	"dispatch/internal/service"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	BookingHandler  *handler.BookingHandler
	VehicleHandler  *handler.VehicleHandler
	FeedbackHandler *handler.FeedbackHandler
	AuthHandler     *handler.AuthHandler
	AdminHandler    *handler.AdminHandler
	Hub             *notify.Hub
	TokenManager    *service.TokenManager
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Realtime notification channel.
	router.GET("/ws", func(c *gin.Context) {
		deps.Hub.HandleWS(c.Writer, c.Request)
	})

	authRequired := middleware.AuthMiddleware(deps.TokenManager)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Auth routes.
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", deps.AuthHandler.Signup)
			auth.POST("/login", deps.AuthHandler.Login)

			protected := auth.Group("", authRequired)
			{
				protected.GET("/me", deps.AuthHandler.Me)
				protected.PUT("/profile", deps.AuthHandler.UpdateProfile)
				protected.PUT("/approve/:userId", adminOnly, deps.AuthHandler.ApproveDriver)
				protected.POST("/admins", adminOnly, deps.AuthHandler.CreateAdmin)
				protected.DELETE("/admins/:id", adminOnly, deps.AuthHandler.DeleteAdmin)
				protected.GET("/admins", adminOnly, deps.AuthHandler.ListAdmins)
				protected.GET("/users", adminOnly, deps.AuthHandler.ListUsers)
			}
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("", deps.BookingHandler.ListBookings)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.GET("/customer/:id", deps.BookingHandler.ListByCustomer)
			bookings.GET("/driver/:id", deps.BookingHandler.ListByDriver)
			bookings.POST("/:id/assign", deps.BookingHandler.AssignDriver)
			bookings.POST("/:id/respond", deps.BookingHandler.Respond)
			bookings.POST("/:id/reached-pickup", deps.BookingHandler.ReachedPickup)
			bookings.POST("/:id/resend-otp", deps.BookingHandler.ResendOTP)
			bookings.POST("/:id/verify-otp", deps.BookingHandler.VerifyOTP)
			bookings.POST("/:id/in-transit", deps.BookingHandler.StartTransit)
			bookings.POST("/:id/delivered", deps.BookingHandler.MarkDelivered)
			bookings.POST("/:id/deny", deps.BookingHandler.Deny)
			bookings.POST("/:id/cancel", deps.BookingHandler.Cancel)
		}

		// Vehicle routes.
		vehicles := v1.Group("/vehicles")
		{
			vehicles.POST("", deps.VehicleHandler.Create)
			vehicles.GET("", deps.VehicleHandler.List)
			vehicles.GET("/available", deps.VehicleHandler.ListAvailable)
			vehicles.GET("/by-driver/:driverId", deps.VehicleHandler.ListByDriver)
			vehicles.PUT("/by-driver/:driverId", deps.VehicleHandler.UpsertByDriver)
			vehicles.PATCH("/by-driver/:driverId/active", deps.VehicleHandler.SetActiveByDriver)
			vehicles.GET("/:id", deps.VehicleHandler.Get)
			vehicles.PATCH("/:id", deps.VehicleHandler.Update)
		}

		// Feedback routes.
		feedback := v1.Group("/feedback")
		{
			feedback.POST("", deps.FeedbackHandler.Submit)
			feedback.PUT("/:bookingId", deps.FeedbackHandler.Update)
			feedback.GET("/booking/:bookingId", deps.FeedbackHandler.GetByBooking)
			feedback.GET("/driver/:driverId", deps.FeedbackHandler.ListByDriver)
			feedback.GET("/driver/:driverId/stats", deps.FeedbackHandler.DriverStats)
			feedback.GET("/customer/:customerId", deps.FeedbackHandler.ListByCustomer)
		}

		// Administrative maintenance.
		admin := v1.Group("/admin", authRequired, adminOnly)
		{
			admin.DELETE("/data", deps.AdminHandler.ClearData)
		}
	}

	return router
}
