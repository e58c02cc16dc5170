package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/service"
	"superviseme/backend/pkg/response"
)

// NotificationHandler 站内通知 HTTP 处理器
// 所有操作都只作用于当前登录用户自己的通知
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// ListNotifications 通知列表（最新在前）
// GET /api/v1/notifications?limit=&unread_only=
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ctx := c.Request.Context()
	list, err := h.notificationSvc.ListForUser(ctx, userID, req.GetLimit(), req.UnreadOnly)
	if err != nil {
		response.InternalError(c)
		return
	}
	unread, err := h.notificationSvc.UnreadCount(ctx, userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	items := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		items = append(items, service.ToNotificationResponse(&list[i]))
	}
	response.OK(c, dto.NotificationListResponse{List: items, UnreadCount: unread})
}

// UnreadCount 未读数
// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationSvc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, dto.UnreadCountResponse{Count: count})
}

// MarkRead 标记单条已读（重复标记无副作用）
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustParseID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkRead(c.Request.Context(), userID, id); err != nil {
		h.handleNotificationError(c, err)
		return
	}
	response.OK(c, nil)
}

// MarkAllRead 全部已读
// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	n, err := h.notificationSvc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, dto.AffectedResponse{Affected: n})
}

// DeleteNotification 删除单条通知
// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustParseID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationSvc.Delete(c.Request.Context(), userID, id); err != nil {
		h.handleNotificationError(c, err)
		return
	}
	response.OK(c, nil)
}

// ClearAll 清空当前用户的所有通知
// DELETE /api/v1/notifications
func (h *NotificationHandler) ClearAll(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	n, err := h.notificationSvc.ClearAll(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, dto.AffectedResponse{Affected: n})
}

func (h *NotificationHandler) handleNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		response.NotFound(c, 30001, "通知不存在")
	default:
		response.InternalError(c)
	}
}
