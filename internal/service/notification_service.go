package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/model"
	"superviseme/backend/internal/repository"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound = errors.New("通知不存在")
)

const timeLayout = time.RFC3339

// NotifyParams 单条通知的内容
type NotifyParams struct {
	UserID    uint
	ActorID   *uint
	ThesisID  *uint
	Type      string
	Title     string
	Message   string
	ActionURL string // 相对路径，由聊天渠道补全为绝对地址
}

// ChatChannel 站内通知之外的次要投递渠道，失败以结果返回而不是错误
type ChatChannel interface {
	Send(ctx context.Context, userID uint, notificationType, title, message, actionURL string) dto.SendResult
}

// NotificationService 站内通知业务接口
type NotificationService interface {
	// Notify 先持久化站内通知，再尽力投递到聊天渠道；只有存储错误会返回
	Notify(ctx context.Context, p NotifyParams) (*model.Notification, error)
	ListForUser(ctx context.Context, userID uint, limit int, unreadOnly bool) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID, id uint) error
	ClearAll(ctx context.Context, userID uint) (int64, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

type notificationService struct {
	repo    *repository.Repository
	channel ChatChannel
	logger  *zap.Logger
	now     func() time.Time
}

// NewNotificationService 创建 NotificationService 实例；channel 为 nil 时只写站内通知
func NewNotificationService(repo *repository.Repository, channel ChatChannel, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, channel: channel, logger: logger, now: time.Now}
}

// ────────────────────── Notify ──────────────────────

func (s *notificationService) Notify(ctx context.Context, p NotifyParams) (*model.Notification, error) {
	p.Title = truncateTitle(p.Title)
	n := &model.Notification{
		UserID:    p.UserID,
		ActorID:   p.ActorID,
		ThesisID:  p.ThesisID,
		Type:      p.Type,
		Title:     p.Title,
		Message:   p.Message,
		CreatedAt: s.now(),
	}
	if p.ActionURL != "" {
		url := p.ActionURL
		n.ActionURL = &url
	}

	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Error("创建通知失败", zap.Uint("user_id", p.UserID), zap.String("type", p.Type), zap.Error(err))
		return nil, err
	}

	if s.channel == nil {
		return n, nil
	}

	result := s.channel.Send(ctx, p.UserID, p.Type, p.Title, p.Message, p.ActionURL)
	if !result.Success {
		log := s.logger.Debug
		if result.Attempted {
			log = s.logger.Warn
		}
		log("Telegram 通知未发送",
			zap.Uint("notification_id", n.ID), zap.String("reason", result.Message))
		return n, nil
	}

	sentAt := s.now()
	if err := s.repo.Notification.MarkTelegramSent(ctx, n.ID, sentAt); err != nil {
		// 消息已送达，仅投递标记写入失败，不影响站内通知
		s.logger.Warn("更新 Telegram 发送状态失败", zap.Uint("notification_id", n.ID), zap.Error(err))
		return n, nil
	}
	n.TelegramSent = true
	n.TelegramSentAt = &sentAt
	return n, nil
}

// truncateTitle 按字符截断到列宽，超长时以省略号结尾
func truncateTitle(title string) string {
	r := []rune(title)
	if len(r) <= model.NotificationTitleMaxLen {
		return title
	}
	return string(r[:model.NotificationTitleMaxLen-3]) + "..."
}

// ────────────────────── 查询与已读 ──────────────────────

func (s *notificationService) ListForUser(ctx context.Context, userID uint, limit int, unreadOnly bool) ([]model.Notification, error) {
	list, err := s.repo.Notification.ListByUser(ctx, userID, limit, unreadOnly)
	if err != nil {
		s.logger.Error("查询通知列表失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uint) error {
	if _, err := s.repo.Notification.GetForUser(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return s.repo.Notification.MarkRead(ctx, userID, id, s.now())
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.Notification.MarkAllRead(ctx, userID, s.now())
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.Notification.CountUnread(ctx, userID)
}

// ────────────────────── 删除 ──────────────────────

// Delete 非本人或不存在的通知统一返回 ErrNotificationNotFound
func (s *notificationService) Delete(ctx context.Context, userID, id uint) error {
	affected, err := s.repo.Notification.DeleteForUser(ctx, userID, id)
	if err != nil {
		s.logger.Error("删除通知失败", zap.Uint("user_id", userID), zap.Uint("id", id), zap.Error(err))
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) ClearAll(ctx context.Context, userID uint) (int64, error) {
	affected, err := s.repo.Notification.DeleteAllForUser(ctx, userID)
	if err != nil {
		s.logger.Error("清空通知失败", zap.Uint("user_id", userID), zap.Error(err))
		return 0, err
	}
	return affected, nil
}

// ToNotificationResponse 转换为响应 DTO
func ToNotificationResponse(n *model.Notification) dto.NotificationResponse {
	resp := dto.NotificationResponse{
		ID:           n.ID,
		Type:         n.Type,
		Title:        n.Title,
		Message:      n.Message,
		ActionURL:    n.ActionURL,
		ActorID:      n.ActorID,
		ThesisID:     n.ThesisID,
		IsRead:       n.IsRead,
		TelegramSent: n.TelegramSent,
		CreatedAt:    n.CreatedAt.Format(timeLayout),
	}
	if n.ReadAt != nil {
		s := n.ReadAt.Format(timeLayout)
		resp.ReadAt = &s
	}
	if n.TelegramSentAt != nil {
		s := n.TelegramSentAt.Format(timeLayout)
		resp.TelegramSentAt = &s
	}
	return resp
}
