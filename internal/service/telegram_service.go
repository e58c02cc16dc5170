package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/model"
	"superviseme/backend/internal/repository"
	"superviseme/backend/pkg/telegram"
)

// ── Telegram 模块业务错误 ──

var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrInvalidChatID        = errors.New("Telegram 聊天 ID 格式错误")
	ErrUnknownNotifyType    = errors.New("未知的通知类型")
	ErrTelegramChatRequired = errors.New("启用 Telegram 通知前需先绑定聊天 ID")
)

// 发送结果说明
const (
	msgSent             = "message sent"
	msgUserNotFound     = "user not found"
	msgChannelDisabled  = "telegram notifications disabled for user"
	msgNoChatID         = "user has no telegram chat id"
	msgTypeFiltered     = "notification type disabled by user"
	msgTypeBotFiltered  = "notification type disabled for bot"
	msgBotNotConfigured = "no active telegram bot configuration"
)

var notificationIcons = map[string]string{
	model.NotificationNewUpdate:          "📝",
	model.NotificationNewFeedback:        "💬",
	model.NotificationTodoAssigned:       "✅",
	model.NotificationThesisStatusChange: "🔄",
	model.NotificationMeetingNote:        "🗒",
	model.NotificationSystem:             "⚙️",
	model.NotificationTest:               "🧪",
}

// TelegramService Telegram 通知渠道
// Send / VerifyChat / BotInfo / SendTest 失败时以结构化结果返回，不返回 error
type TelegramService interface {
	ChatChannel
	VerifyChat(ctx context.Context, chatID string) dto.ChatVerifyResponse
	BotInfo(ctx context.Context) dto.BotInfoResponse
	SendTest(ctx context.Context, userID uint) dto.SendResult
	GetPreferences(ctx context.Context, userID uint) (*dto.TelegramPreferencesResponse, error)
	UpdatePreferences(ctx context.Context, userID uint, req *dto.UpdateTelegramPreferencesRequest) (*dto.TelegramPreferencesResponse, error)
}

type telegramService struct {
	repo    *repository.Repository
	factory telegram.Factory
	baseURL string
	logger  *zap.Logger
}

// NewTelegramService 创建 TelegramService 实例
// 每次调用都从数据库读取当前启用的 Bot 配置，经 factory 构造新的客户端
func NewTelegramService(repo *repository.Repository, factory telegram.Factory, baseURL string, logger *zap.Logger) TelegramService {
	return &telegramService{
		repo:    repo,
		factory: factory,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// ────────────────────── Send ──────────────────────

func (s *telegramService) Send(ctx context.Context, userID uint, notificationType, title, message, actionURL string) dto.SendResult {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("查询用户失败", zap.Uint("user_id", userID), zap.Error(err))
		}
		return dto.SendResult{Message: msgUserNotFound}
	}
	if !user.TelegramEnabled {
		return dto.SendResult{Message: msgChannelDisabled}
	}
	chatID, ok := user.TelegramChatID()
	if !ok {
		return dto.SendResult{Message: msgNoChatID}
	}
	if !user.AllowsTelegramType(notificationType) {
		return dto.SendResult{Message: msgTypeFiltered}
	}

	cfg, client, failure := s.client(ctx)
	if client == nil {
		return failure
	}
	if !botAllowsType(cfg, notificationType) {
		return dto.SendResult{Message: msgTypeBotFiltered}
	}

	text := s.FormatMessage(notificationType, title, message, actionURL)
	if err := client.SendHTML(ctx, chatID, text); err != nil {
		s.logger.Warn("发送 Telegram 消息失败",
			zap.Uint("user_id", userID), zap.Int64("chat_id", chatID), zap.Error(err))
		return dto.SendResult{Attempted: true, Message: fmt.Sprintf("telegram send failed: %v", err)}
	}
	return dto.SendResult{Success: true, Attempted: true, Message: msgSent}
}

// SendTest 向用户发送一条 test 类型消息
func (s *telegramService) SendTest(ctx context.Context, userID uint) dto.SendResult {
	return s.Send(ctx, userID, model.NotificationTest,
		"Test notification",
		"Telegram notifications are working for your SuperviseMe account.",
		"/notifications")
}

// FormatMessage 生成 HTML 消息：加粗标题（带图标）、正文、可选详情链接、固定落款
func (s *telegramService) FormatMessage(notificationType, title, message, actionURL string) string {
	icon, ok := notificationIcons[notificationType]
	if !ok {
		icon = "🔔"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s %s</b>\n\n", icon, html.EscapeString(title))
	b.WriteString(html.EscapeString(message))
	if link := s.absoluteURL(actionURL); link != "" {
		fmt.Fprintf(&b, "\n\n<a href=\"%s\">View details</a>", html.EscapeString(link))
	}
	b.WriteString("\n\n— SuperviseMe")
	return b.String()
}

func (s *telegramService) absoluteURL(actionURL string) string {
	switch {
	case actionURL == "":
		return ""
	case strings.HasPrefix(actionURL, "http://"), strings.HasPrefix(actionURL, "https://"):
		return actionURL
	}
	return s.baseURL + "/" + strings.TrimLeft(actionURL, "/")
}

// ────────────────────── Bot 信息与校验 ──────────────────────

func (s *telegramService) VerifyChat(ctx context.Context, chatID string) dto.ChatVerifyResponse {
	id, err := parseChatID(chatID)
	if err != nil {
		return dto.ChatVerifyResponse{Message: err.Error()}
	}

	_, client, failure := s.client(ctx)
	if client == nil {
		return dto.ChatVerifyResponse{Message: failure.Message}
	}
	chat, err := client.GetChat(ctx, id)
	if err != nil {
		s.logger.Info("Telegram 聊天不可达", zap.Int64("chat_id", id), zap.Error(err))
		return dto.ChatVerifyResponse{Message: fmt.Sprintf("chat not reachable: %v", err)}
	}
	title := chat.Title
	if title == "" {
		title = strings.TrimSpace(chat.FirstName + " @" + chat.Username)
	}
	return dto.ChatVerifyResponse{Success: true, Message: "chat reachable", ChatType: chat.Type, Title: title}
}

func (s *telegramService) BotInfo(ctx context.Context) dto.BotInfoResponse {
	_, client, failure := s.client(ctx)
	if client == nil {
		return dto.BotInfoResponse{Message: failure.Message}
	}
	self := client.Self()
	return dto.BotInfoResponse{
		Success:   true,
		Message:   "ok",
		ID:        self.ID,
		Username:  self.Username,
		FirstName: self.FirstName,
	}
}

// client 读取当前启用的 Bot 配置并构造客户端；失败时 client 为 nil
func (s *telegramService) client(ctx context.Context) (*model.TelegramBotConfig, telegram.Client, dto.SendResult) {
	cfg, err := s.repo.TelegramConfig.GetActive(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("查询 Telegram Bot 配置失败", zap.Error(err))
		}
		return nil, nil, dto.SendResult{Message: msgBotNotConfigured}
	}
	if s.factory == nil {
		return nil, nil, dto.SendResult{Message: msgBotNotConfigured}
	}
	client, err := s.factory(ctx, cfg.BotToken)
	if err != nil {
		s.logger.Warn("构造 Telegram 客户端失败", zap.Uint("config_id", cfg.ID), zap.Error(err))
		return nil, nil, dto.SendResult{Attempted: true, Message: fmt.Sprintf("telegram bot unavailable: %v", err)}
	}
	return cfg, client, dto.SendResult{}
}

func botAllowsType(cfg *model.TelegramBotConfig, notificationType string) bool {
	if cfg == nil || len(cfg.NotificationTypes) == 0 {
		return true
	}
	for _, t := range cfg.NotificationTypes {
		if t == notificationType {
			return true
		}
	}
	return false
}

// ────────────────────── 个人设置 ──────────────────────

func (s *telegramService) GetPreferences(ctx context.Context, userID uint) (*dto.TelegramPreferencesResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toPreferencesResponse(user.TelegramEnabled, user.TelegramUserID, user.TelegramNotificationTypes), nil
}

func (s *telegramService) UpdatePreferences(ctx context.Context, userID uint, req *dto.UpdateTelegramPreferencesRequest) (*dto.TelegramPreferencesResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	chatID := user.TelegramUserID
	if req.ChatID != nil {
		trimmed := strings.TrimSpace(*req.ChatID)
		if trimmed == "" {
			chatID = nil
		} else {
			if _, err := parseChatID(trimmed); err != nil {
				return nil, err
			}
			chatID = &trimmed
		}
	}
	if req.Enabled && chatID == nil {
		return nil, ErrTelegramChatRequired
	}

	types := make([]string, 0, len(req.NotificationTypes))
	seen := make(map[string]bool)
	for _, t := range req.NotificationTypes {
		if !validNotificationType(t) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNotifyType, t)
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}

	if err := s.repo.User.UpdateTelegramSettings(ctx, userID, req.Enabled, chatID, types); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("更新 Telegram 设置失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Telegram 设置已更新", zap.Uint("user_id", userID), zap.Bool("enabled", req.Enabled))
	return toPreferencesResponse(req.Enabled, chatID, types), nil
}

func toPreferencesResponse(enabled bool, chatID *string, types []string) *dto.TelegramPreferencesResponse {
	if types == nil {
		types = []string{}
	}
	return &dto.TelegramPreferencesResponse{Enabled: enabled, ChatID: chatID, NotificationTypes: types}
}

func validNotificationType(t string) bool {
	for _, known := range model.NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

func parseChatID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidChatID
	}
	return id, nil
}
