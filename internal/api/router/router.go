package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"superviseme/backend/config"
	"superviseme/backend/internal/api/handler"
	"superviseme/backend/internal/api/middleware"
	"superviseme/backend/internal/model"
	"superviseme/backend/pkg/jwt"
	"superviseme/backend/pkg/redis"
)

const (
	maxBodyBytes     = 1 << 20 // 1MB
	activityInterval = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	activity middleware.ActivityRecorder,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	admin := middleware.RoleAuth(model.RoleAdmin)
	staff := middleware.RoleAuth(model.RoleSupervisor, model.RoleAdmin)

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	v1.Use(middleware.RateLimit(rdb, 120, time.Minute))
	v1.Use(middleware.ActivityTracker(activity, activityInterval))
	{
		v1.GET("/users/me", h.User.GetCurrentUser)

		// 站内通知
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", h.Notification.ListNotifications)
			notifications.GET("/unread-count", h.Notification.UnreadCount)
			notifications.PUT("/read-all", h.Notification.MarkAllRead)
			notifications.PUT("/:id/read", h.Notification.MarkRead)
			notifications.DELETE("/:id", h.Notification.DeleteNotification)
			notifications.DELETE("", h.Notification.ClearAll)
		}

		// Telegram
		telegram := v1.Group("/telegram")
		{
			telegram.GET("/preferences", h.Telegram.GetPreferences)
			telegram.PUT("/preferences", h.Telegram.UpdatePreferences)
			telegram.POST("/test", middleware.RateLimit(rdb, 5, time.Minute), h.Telegram.SendTest)
			telegram.POST("/verify", admin, h.Telegram.VerifyChat)
			telegram.GET("/bot", admin, h.Telegram.BotInfo)
		}

		// 论文、进展与会议纪要
		theses := v1.Group("/theses")
		{
			theses.POST("/:id/updates", h.Content.CreateUpdate)
			theses.PUT("/:id/status", staff, h.Thesis.ChangeStatus)
		}
		updates := v1.Group("/updates")
		{
			updates.PUT("/:id", h.Content.EditUpdate)
			updates.GET("/:id/references", h.Content.UpdateReferences)
		}
		meetingNotes := v1.Group("/meeting-notes")
		{
			meetingNotes.POST("", h.Content.CreateMeetingNote)
			meetingNotes.PUT("/:id", h.Content.EditMeetingNote)
			meetingNotes.GET("/:id/references", h.Content.MeetingNoteReferences)
		}

		// 待办
		todos := v1.Group("/todos")
		{
			todos.GET("/:id/referenced-by", h.Todo.ReferencedBy)
			todos.PUT("/:id/assignee", h.Todo.AssignTodo)
		}

		// 周报
		v1.GET("/digest/export", staff, h.Digest.ExportMine)
		// 管理员
		digest := v1.Group("/admin/digest", admin)
		{
			digest.POST("/trigger", h.Digest.Trigger)
			digest.GET("/status", h.Digest.Status)
			digest.PUT("/schedule", h.Digest.Reschedule)
		}
	}

	return r
}
