package service

import (
	"go.uber.org/zap"

	"superviseme/backend/config"
	"superviseme/backend/internal/repository"
	"superviseme/backend/pkg/mail"
	"superviseme/backend/pkg/telegram"
)

// Service 所有 Service 的聚合入口
type Service struct {
	User         UserService
	Reference    ReferenceService
	Notification NotificationService
	Events       NotificationEvents
	Telegram     TelegramService
	Content      ContentService
	Todo         TodoService
	Thesis       ThesisService
	Digest       DigestService
}

// Deps 外部依赖；Locker 为 nil 时周报不加分布式锁
type Deps struct {
	Mail     mail.Sender
	Telegram telegram.Factory
	Locker   Locker
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	deps Deps,
	logger *zap.Logger,
) *Service {
	tg := NewTelegramService(repo, deps.Telegram, cfg.Server.BaseURL, logger)
	notification := NewNotificationService(repo, tg, logger)
	events := NewNotificationEvents(repo, notification, logger)

	return &Service{
		User:         NewUserService(repo, logger),
		Reference:    NewReferenceService(repo, logger),
		Notification: notification,
		Events:       events,
		Telegram:     tg,
		Content:      NewContentService(repo, events, logger),
		Todo:         NewTodoService(repo, events, logger),
		Thesis:       NewThesisService(repo, events, logger),
		Digest:       NewDigestService(repo, deps.Mail, deps.Locker, cfg.Digest, cfg.Server.BaseURL, logger),
	}
}
