package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sanjana123-dot/hometownhub/config"
	"github.com/sanjana123-dot/hometownhub/controllers"
	"github.com/sanjana123-dot/hometownhub/middleware"
	"github.com/sanjana123-dot/hometownhub/utils"
	"gorm.io/gorm"
)

// SetupRouter wires middleware, static serving and every API route group.
func SetupRouter() *gin.Engine {
	cfg := config.Get()
	gin.SetMode(cfg.GinMode)

	router := gin.New()

	accessLogger, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel,
		cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		accessLogger = utils.Logger
	}
	router.Use(utils.Ginzap(accessLogger, time.RFC3339, true))
	router.Use(utils.RecoveryWithZap(utils.Logger, true))

	router.Use(cors.New(cors.Config{
		AllowOriginFunc:  middleware.CORSOriginAllowed,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	router.Use(rateLimiter.Middleware())

	// Uploaded files are content-addressed by uuid, safe to cache hard.
	static := router.Group("/uploads", func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
	})
	static.Static("/", cfg.UploadDir)

	router.GET("/health", func(c *gin.Context) {
		utils.Success(c, gin.H{"status": "ok"})
	})

	dbFn := func() *gorm.DB { return config.DB() }
	auth := middleware.AuthRequired(dbFn)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", controllers.Register)
			authGroup.POST("/login", controllers.Login)
			authGroup.POST("/forgot-password", controllers.ForgotPassword)
			authGroup.POST("/reset-password", controllers.ResetPassword)
			authGroup.GET("/me", auth, controllers.Me)
			authGroup.POST("/logout", auth, controllers.Logout)
		}

		users := api.Group("/users", auth)
		{
			users.PUT("/me", controllers.UpdateProfile)
			users.PUT("/me/password", controllers.ChangePassword)
			users.DELETE("/me", controllers.DeleteAccount)
			users.GET("/:id", controllers.GetUser)
			users.GET("/:id/posts", controllers.GetUserPosts)
			users.GET("/:id/communities", controllers.GetUserCommunities)
		}

		// Browsing the community directory needs no account.
		api.GET("/communities", controllers.ListCommunities)

		communities := api.Group("/communities", auth)
		{
			communities.POST("", controllers.CreateCommunity)
			communities.GET("/my", controllers.MyCommunities)
			communities.GET("/my-admin", controllers.MyAdminCommunities)
			communities.GET("/:id", controllers.GetCommunity)
			communities.POST("/:id/join", controllers.JoinCommunity)
			communities.POST("/:id/leave", controllers.LeaveCommunity)
			communities.POST("/:id/members/approve", controllers.ApproveMember)
			communities.POST("/:id/members/reject", controllers.RejectMember)
			communities.POST("/:id/members/remove", controllers.RemoveMember)
			communities.POST("/:id/members/ban", controllers.BanMember)
			communities.PATCH("/:id/settings", controllers.UpdateCommunitySettings)
			communities.GET("/:id/posts", controllers.GetCommunityPosts)
			communities.GET("/:id/events", controllers.GetCommunityEvents)
			communities.GET("/:id/announcements", controllers.GetCommunityAnnouncements)
		}

		posts := api.Group("/posts", auth)
		{
			posts.POST("", controllers.CreatePost)
			posts.GET("/feed", controllers.Feed)
			posts.GET("/:id", controllers.GetPost)
			posts.DELETE("/:id", controllers.DeletePost)
			posts.POST("/:id/like", controllers.ToggleLike)
			posts.POST("/:id/comments", controllers.AddComment)
			posts.DELETE("/:id/comments/:commentId", controllers.DeleteComment)
			posts.POST("/:id/pin", controllers.PinPost)
			posts.POST("/:id/unpin", controllers.UnpinPost)
		}

		events := api.Group("/events", auth)
		{
			events.POST("", controllers.CreateEvent)
			events.GET("", controllers.MyEvents)
			events.GET("/:id", controllers.GetEvent)
			events.PUT("/:id", controllers.UpdateEvent)
			events.DELETE("/:id", controllers.DeleteEvent)
			events.POST("/:id/attend", controllers.ToggleAttendance)
		}

		announcements := api.Group("/announcements", auth)
		{
			announcements.POST("", controllers.CreateAnnouncement)
			announcements.PUT("/:id", controllers.UpdateAnnouncement)
			announcements.DELETE("/:id", controllers.DeleteAnnouncement)
			announcements.POST("/:id/pin", controllers.PinAnnouncement)
			announcements.POST("/:id/unpin", controllers.UnpinAnnouncement)
		}

		messages := api.Group("/messages", auth)
		{
			messages.POST("", controllers.SendMessage)
			messages.GET("/conversations", controllers.ListConversations)
			messages.GET("/unread-count", controllers.UnreadMessageCount)
			messages.GET("/with/:userId", controllers.GetConversation)
			messages.PUT("/:id/read", controllers.MarkMessageRead)
			messages.DELETE("/:id", controllers.DeleteMessage)
		}

		notifications := api.Group("/notifications", auth)
		{
			notifications.GET("", controllers.ListNotifications)
			notifications.PUT("/:id/read", controllers.MarkNotificationRead)
			notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			notifications.DELETE("/:id", controllers.DeleteNotification)
		}

		uploads := api.Group("/uploads", auth)
		{
			uploads.POST("", controllers.UploadFiles)
		}

		admin := api.Group("/admin", auth, middleware.AdminRequired())
		{
			admin.GET("/stats", controllers.AdminStats)
			admin.GET("/communities", controllers.AdminListCommunities)
			admin.POST("/communities/:id/approve", controllers.ApproveCommunity)
			admin.POST("/communities/:id/reject", controllers.RejectCommunity)
			admin.DELETE("/communities/:id", controllers.AdminDeleteCommunity)
			admin.GET("/users", controllers.AdminListUsers)
			admin.POST("/users/:id/suspend", controllers.SuspendUser)
			admin.POST("/users/:id/unsuspend", controllers.UnsuspendUser)
			admin.POST("/users/:id/ban", controllers.BanUser)
			admin.POST("/users/:id/unban", controllers.UnbanUser)
			admin.GET("/admins", controllers.AdminListAdmins)
			admin.POST("/admins", controllers.CreateAdmin)
			admin.POST("/moderators", controllers.AssignModerator)
			admin.DELETE("/moderators", controllers.RevokeModerator)
		}
	}

	return router
}
