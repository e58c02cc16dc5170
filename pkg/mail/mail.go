// Package mail 邮件发送：sendgrid 生产实现与 console 开发实现，模板渲染见 template.go
package mail

import (
	"context"
	"fmt"
	"net/mail"

	"go.uber.org/zap"

	"superviseme/backend/config"
)

// Attachment 邮件附件
type Attachment struct {
	Content     []byte
	ContentType string
	Filename    string
}

// Message 待发送的邮件
type Message struct {
	To          []mail.Address
	Subject     string
	TextContent string
	HTMLContent string
	Attachments []Attachment
}

// HasRecipients 是否至少有一个收件人
func (m *Message) HasRecipients() bool {
	return len(m.To) > 0
}

// HasContent 是否有正文或附件
func (m *Message) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != "" || len(m.Attachments) > 0
}

// Sender 同步发送单封邮件，发送失败返回错误由调用方决定是否继续
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// ErrEmptyMessage 无收件人或无内容
var ErrEmptyMessage = fmt.Errorf("邮件缺少收件人或内容")

// NewSender 按 mail.provider 创建发送器
func NewSender(cfg *config.MailConfig, logger *zap.Logger) (Sender, error) {
	from := mail.Address{Name: cfg.FromName, Address: cfg.FromAddress}
	switch cfg.Provider {
	case "sendgrid":
		return newSendgridSender(cfg.SendgridAPIKey, from, cfg.SubjectPrefix, logger), nil
	case "console", "":
		return newConsoleSender(from, cfg.SubjectPrefix, logger), nil
	default:
		return nil, fmt.Errorf("未知的邮件服务商 %q", cfg.Provider)
	}
}
