package routes

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/findone/findone-backend/config"
	"github.com/findone/findone-backend/database"
	"github.com/findone/findone-backend/internal/activity"
	"github.com/findone/findone-backend/internal/auditlog"
	"github.com/findone/findone-backend/internal/auth"
	"github.com/findone/findone-backend/internal/chat"
	"github.com/findone/findone-backend/internal/geo"
	"github.com/findone/findone-backend/internal/notification"
	"github.com/findone/findone-backend/internal/rating"
	"github.com/findone/findone-backend/internal/reports"
	"github.com/findone/findone-backend/internal/userprofile"
	"github.com/findone/findone-backend/middleware"
	"github.com/findone/findone-backend/utils"
)

// Setup wires every module and registers the HTTP routes. It returns the
// chat service so main can start the Kafka consumer next to the server.
func Setup(r *gin.Engine, cfg *config.Config) *chat.Service {
	db := database.DB

	// Cross-cutting services
	auditRepo := auditlog.NewRepository(db)
	auditSvc := auditlog.NewService(auditRepo)

	notifRepo := notification.NewRepository(db)
	notifSvc := notification.NewService(notifRepo)

	// Auth
	authRepo := auth.NewRepository(db)
	authSvc := auth.NewService(authRepo, auth.NewRedisCodeStore(), auth.NewSMTPCodeSender(), cfg)
	authHandler := auth.NewHandler(authSvc)

	// Ratings
	ratingRepo := rating.NewRepository(db)
	ratingSvc := rating.NewService(ratingRepo, auditSvc)
	ratingHandler := rating.NewHandler(ratingSvc)

	// Chat (spawned from approval events)
	chatRepo := chat.NewRepository(db)
	chatSvc := chat.NewService(chatRepo, notifSvc)
	chatHandler := chat.NewHandler(chatSvc)

	// Activities publish approval events to Kafka when configured and fall
	// back to spawning the chat in-process otherwise.
	var sink activity.EventSink
	if utils.KafkaEnabled() {
		sink = activity.NewKafkaSink()
	} else {
		log.Println("routes: kafka disabled, spawning chats in-process")
		sink = chat.NewDirectSink(chatSvc)
	}

	activityRepo := activity.NewRepository(db)
	activitySvc := activity.NewService(activityRepo, auditSvc, notifSvc, sink, ratingSvc)
	activityHandler := activity.NewHandler(activitySvc)

	// Profiles
	profileRepo := userprofile.NewRepository(db)
	profileSvc := userprofile.NewService(profileRepo, ratingSvc, activitySvc, chatSvc, auditSvc)
	profileHandler := userprofile.NewHandler(profileSvc)

	// Geocoding
	geoHandler := geo.NewHandler(geo.NewClient(cfg))

	// Reports
	reportsRepo := reports.NewRepository(db)
	reportsSvc := reports.NewService(reportsRepo, auditSvc)
	reportsHandler := reports.NewHandler(reportsSvc)

	// Misc
	notifHandler := notification.NewHandler(notifSvc)
	auditHandler := auditlog.NewHandler(auditSvc)

	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins != "" {
		corsConfig.AllowOrigins = []string{cfg.AllowedOrigins}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimiter(), middleware.AuditMiddleware())

	// Public auth routes
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/verify-email", authHandler.VerifyEmail)
		authGroup.POST("/resend-verification", authHandler.ResendVerification)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
	}

	// Everything below requires a valid token.
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(cfg, authSvc))
	{
		protected.POST("/auth/change-password", authHandler.ChangePassword)
		protected.POST("/auth/logout", authHandler.Logout)

		protected.GET("/profile", profileHandler.GetProfile)
		protected.PATCH("/profile", profileHandler.UpdateProfile)
		protected.GET("/profiles/:email", profileHandler.GetPublicProfile)

		protected.GET("/activities", activityHandler.List)
		protected.GET("/activities/categories", activityHandler.Categories)
		protected.GET("/activities/mine", activityHandler.Mine)
		protected.GET("/activities/requests/mine", activityHandler.MyRequests)
		protected.GET("/activities/requests/pending", activityHandler.PendingForMyActivities)
		protected.GET("/activities/:id", activityHandler.Get)
		protected.GET("/activities/:id/spots", activityHandler.AvailableSpots)
		protected.GET("/activities/:id/requests/status", activityHandler.RequestStatus)

		protected.GET("/chats", chatHandler.List)
		protected.GET("/chats/unread-count", chatHandler.UnreadCount)
		protected.GET("/chats/:id", chatHandler.Get)
		protected.POST("/chats/:id/messages", chatHandler.SendMessage)
		protected.PATCH("/chats/:id/read", chatHandler.MarkRead)

		protected.GET("/ratings/:email", ratingHandler.ListRatings)
		protected.GET("/ratings/:email/stats", ratingHandler.GetStats)

		protected.GET("/notifications", notifHandler.List)
		protected.GET("/notifications/unread-count", notifHandler.UnreadCount)
		protected.PATCH("/notifications/:id/read", notifHandler.MarkRead)
		protected.PATCH("/notifications/read-all", notifHandler.MarkAllRead)

		protected.GET("/geo/search", geoHandler.Search)
		protected.GET("/geo/reverse", geoHandler.Reverse)

		protected.GET("/auditlogs", auditHandler.GetAuditLogs)
		protected.GET("/auditlogs/:id", auditHandler.GetAuditLogByID)

		// Mutations require a verified account.
		verified := protected.Group("")
		verified.Use(middleware.RequireVerified())
		{
			verified.POST("/activities", activityHandler.Create)
			verified.POST("/activities/:id/requests", activityHandler.RequestToJoin)
			verified.GET("/activities/:id/requests", activityHandler.PendingRequests)
			verified.POST("/activities/:id/requests/:requestId/approve", activityHandler.Approve)
			verified.POST("/activities/:id/requests/:requestId/reject", activityHandler.Reject)
			verified.DELETE("/activities/:id/requests/mine", activityHandler.Withdraw)
			verified.DELETE("/activities/:id/requests/:requestId", activityHandler.Revoke)
			verified.POST("/activities/:id/complete", activityHandler.Complete)
			verified.POST("/activities/:id/attendance", activityHandler.MarkAttendance)
			verified.GET("/activities/:id/attendance", activityHandler.Attendance)

			verified.POST("/ratings", ratingHandler.RateUser)

			verified.GET("/reports/activities", reportsHandler.ActivityReport)
		}
	}

	return chatSvc
}
