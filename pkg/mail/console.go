package mail

import (
	"context"
	"net/mail"

	"go.uber.org/zap"
)

// consoleSender 开发环境发送器：不连接外部服务，仅把邮件摘要写入日志
type consoleSender struct {
	from       mail.Address
	subjPrefix string
	logger     *zap.Logger
}

var _ Sender = (*consoleSender)(nil)

func newConsoleSender(from mail.Address, subjPrefix string, logger *zap.Logger) *consoleSender {
	return &consoleSender{from: from, subjPrefix: subjPrefix, logger: logger}
}

func (s *consoleSender) Send(_ context.Context, msg *Message) error {
	if !msg.HasRecipients() || !msg.HasContent() {
		return ErrEmptyMessage
	}

	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.String())
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}

	s.logger.Info("邮件（console 模式，未实际发送）",
		zap.String("from", s.from.String()),
		zap.Strings("to", to),
		zap.String("subject", s.subjPrefix+msg.Subject),
		zap.Int("text_len", len(msg.TextContent)),
		zap.Int("html_len", len(msg.HTMLContent)),
		zap.Strings("attachments", names),
	)
	return nil
}
