package handler

import "superviseme/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	User         *UserHandler
	Notification *NotificationHandler
	Telegram     *TelegramHandler
	Content      *ContentHandler
	Todo         *TodoHandler
	Thesis       *ThesisHandler
	Digest       *DigestHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, scheduler DigestController) *Handler {
	return &Handler{
		User:         NewUserHandler(svc.User),
		Notification: NewNotificationHandler(svc.Notification),
		Telegram:     NewTelegramHandler(svc.Telegram),
		Content:      NewContentHandler(svc.Content, svc.Reference),
		Todo:         NewTodoHandler(svc.Todo, svc.Reference),
		Thesis:       NewThesisHandler(svc.Thesis),
		Digest:       NewDigestHandler(scheduler, svc.Digest),
	}
}
