// Package telegram 封装 Telegram Bot API 调用：
// 每次调用按当前 Token 新建客户端（不缓存进程级单例），所有外部请求受 ctx 超时约束，
// 网络错误与服务端 5xx/429 错误重试一次。
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"superviseme/backend/config"
)

// BotIdentity Bot 自身身份信息
type BotIdentity struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// ChatInfo 聊天对象信息
type ChatInfo struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// Client Bot 客户端
type Client interface {
	Self() BotIdentity
	SendHTML(ctx context.Context, chatID int64, text string) error
	GetChat(ctx context.Context, chatID int64) (*ChatInfo, error)
}

// Factory 根据 Token 构造并认证客户端；ctx 约束构造期间及客户端后续请求
type Factory func(ctx context.Context, token string) (Client, error)

// ErrEmptyToken Bot Token 为空
var ErrEmptyToken = errors.New("bot token 为空")

// NewFactory 创建基于 telegram-bot-api 的客户端工厂
func NewFactory(cfg *config.TelegramConfig) Factory {
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	backoff := cfg.RetryBackoff

	return func(ctx context.Context, token string) (Client, error) {
		if token == "" {
			return nil, ErrEmptyToken
		}
		doer := &ctxDoer{ctx: ctx, client: httpClient}

		var api *tgbotapi.BotAPI
		err := withRetry(ctx, backoff, func() error {
			var err error
			api, err = tgbotapi.NewBotAPIWithClient(token, endpoint, doer)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("初始化 Telegram Bot 失败: %w", err)
		}
		return &botClient{api: api, backoff: backoff}, nil
	}
}

// ctxDoer 让 telegram-bot-api 的每个请求都继承调用方 ctx
type ctxDoer struct {
	ctx    context.Context
	client *http.Client
}

func (d *ctxDoer) Do(req *http.Request) (*http.Response, error) {
	return d.client.Do(req.WithContext(d.ctx))
}

type botClient struct {
	api     *tgbotapi.BotAPI
	backoff time.Duration
}

func (c *botClient) Self() BotIdentity {
	return BotIdentity{
		ID:        c.api.Self.ID,
		Username:  c.api.Self.UserName,
		FirstName: c.api.Self.FirstName,
	}
}

func (c *botClient) SendHTML(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	return withRetry(ctx, c.backoff, func() error {
		_, err := c.api.Send(msg)
		return err
	})
}

func (c *botClient) GetChat(ctx context.Context, chatID int64) (*ChatInfo, error) {
	var chat tgbotapi.Chat
	err := withRetry(ctx, c.backoff, func() error {
		var err error
		chat, err = c.api.GetChat(tgbotapi.ChatInfoConfig{
			ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ChatInfo{
		ID:        chat.ID,
		Type:      chat.Type,
		Title:     chat.Title,
		Username:  chat.UserName,
		FirstName: chat.FirstName,
	}, nil
}

// withRetry 执行 fn，可重试错误时等待 backoff 后再执行一次
func withRetry(ctx context.Context, backoff time.Duration, fn func() error) error {
	err := fn()
	if err == nil || !retryable(err) {
		return err
	}

	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return err
	case <-timer.C:
	}
	return fn()
}

// retryable API 明确拒绝（4xx，429 除外）的请求不重试
func retryable(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
