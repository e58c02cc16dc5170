package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/service"
	"superviseme/backend/pkg/response"
)

// TelegramHandler Telegram 通知设置与诊断
type TelegramHandler struct {
	telegramSvc service.TelegramService
}

// NewTelegramHandler 创建 TelegramHandler
func NewTelegramHandler(telegramSvc service.TelegramService) *TelegramHandler {
	return &TelegramHandler{telegramSvc: telegramSvc}
}

// GetPreferences 当前用户的 Telegram 设置
// GET /api/v1/telegram/preferences
func (h *TelegramHandler) GetPreferences(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	prefs, err := h.telegramSvc.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		h.handleTelegramError(c, err)
		return
	}
	response.OK(c, prefs)
}

// UpdatePreferences 更新当前用户的 Telegram 设置
// PUT /api/v1/telegram/preferences
func (h *TelegramHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTelegramPreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	prefs, err := h.telegramSvc.UpdatePreferences(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleTelegramError(c, err)
		return
	}
	response.OK(c, prefs)
}

// SendTest 向当前用户发送测试消息；发送失败也返回 200，结果见 success 字段
// POST /api/v1/telegram/test
func (h *TelegramHandler) SendTest(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	response.OK(c, h.telegramSvc.SendTest(c.Request.Context(), userID))
}

// VerifyChat 校验聊天 ID 是否可达（管理员）
// POST /api/v1/telegram/verify
func (h *TelegramHandler) VerifyChat(c *gin.Context) {
	var req dto.VerifyChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	response.OK(c, h.telegramSvc.VerifyChat(c.Request.Context(), req.ChatID))
}

// BotInfo 当前启用 Bot 的身份（管理员）
// GET /api/v1/telegram/bot
func (h *TelegramHandler) BotInfo(c *gin.Context) {
	response.OK(c, h.telegramSvc.BotInfo(c.Request.Context()))
}

func (h *TelegramHandler) handleTelegramError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	case errors.Is(err, service.ErrInvalidChatID):
		response.BadRequest(c, 31001, "Telegram 聊天 ID 格式错误")
	case errors.Is(err, service.ErrUnknownNotifyType):
		response.BadRequest(c, 31002, err.Error())
	case errors.Is(err, service.ErrTelegramChatRequired):
		response.BadRequest(c, 31003, "启用 Telegram 通知前需先绑定聊天 ID")
	default:
		response.InternalError(c)
	}
}
