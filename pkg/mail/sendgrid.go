package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type sendgridSender struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     *zap.Logger
}

var _ Sender = (*sendgridSender)(nil)

func newSendgridSender(key string, from mail.Address, subjPrefix string, logger *zap.Logger) *sendgridSender {
	return &sendgridSender{
		key:        key,
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: subjPrefix,
		logger:     logger,
	}
}

func (s *sendgridSender) Send(ctx context.Context, msg *Message) error {
	if !msg.HasRecipients() || !msg.HasContent() {
		return ErrEmptyMessage
	}

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid 请求失败: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		s.logger.Warn("sendgrid 返回错误状态",
			zap.Int("status", res.StatusCode),
			zap.String("body", res.Body),
		)
		return fmt.Errorf("sendgrid 返回状态 %d", res.StatusCode)
	}
	return nil
}

func (s *sendgridSender) prepare(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)

	if msg.TextContent != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	for _, a := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Type:        a.ContentType,
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}

	return m
}
