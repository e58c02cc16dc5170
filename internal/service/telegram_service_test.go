package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/model"
)

// setupTelegram 用户 1 已启用并绑定聊天 555，存在启用的 Bot 配置
func setupTelegram(t *testing.T) (TelegramService, *mockRepos, *fakeBot) {
	t.Helper()
	repo, m := newMockRepository()
	m.users.add(&model.User{
		ID:              1,
		Name:            "Ada",
		Role:            model.RoleStudent,
		TelegramEnabled: true,
		TelegramUserID:  strPtr("555"),
	})
	m.telegram.active = &model.TelegramBotConfig{ID: 1, BotToken: "123:abc", BotUsername: "superviseme_bot", IsActive: true}

	bot := &fakeBot{}
	svc := NewTelegramService(repo, fakeFactory(bot, nil), "https://supervise.example.edu/", zap.NewNop())
	return svc, m, bot
}

func TestTelegramSend_Success(t *testing.T) {
	svc, _, bot := setupTelegram(t)

	res := svc.Send(context.Background(), 1, model.NotificationNewUpdate, "New update", "Body text", "/theses/7")
	require.True(t, res.Success, res.Message)
	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(555), bot.sent[0].chatID)
	assert.Contains(t, bot.sent[0].text, "<b>📝 New update</b>")
	assert.Contains(t, bot.sent[0].text, `<a href="https://supervise.example.edu/theses/7">View details</a>`)
	assert.True(t, strings.HasSuffix(bot.sent[0].text, "— SuperviseMe"))
}

func TestTelegramSend_PreconditionFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(m *mockRepos, bot *fakeBot)
		userID uint
		typ    string
		want   string
	}{
		{
			name:   "user missing",
			mutate: func(*mockRepos, *fakeBot) {},
			userID: 99,
			typ:    model.NotificationNewUpdate,
			want:   msgUserNotFound,
		},
		{
			name:   "channel disabled",
			mutate: func(m *mockRepos, _ *fakeBot) { m.users.users[1].TelegramEnabled = false },
			userID: 1,
			typ:    model.NotificationNewUpdate,
			want:   msgChannelDisabled,
		},
		{
			name:   "no chat id",
			mutate: func(m *mockRepos, _ *fakeBot) { m.users.users[1].TelegramUserID = nil },
			userID: 1,
			typ:    model.NotificationNewUpdate,
			want:   msgNoChatID,
		},
		{
			name: "type filtered out",
			mutate: func(m *mockRepos, _ *fakeBot) {
				m.users.users[1].TelegramNotificationTypes = []string{model.NotificationNewFeedback}
			},
			userID: 1,
			typ:    model.NotificationNewUpdate,
			want:   msgTypeFiltered,
		},
		{
			name:   "bot not configured",
			mutate: func(m *mockRepos, _ *fakeBot) { m.telegram.active = nil },
			userID: 1,
			typ:    model.NotificationNewUpdate,
			want:   msgBotNotConfigured,
		},
		{
			name:   "bot unreachable",
			mutate: func(_ *mockRepos, bot *fakeBot) { bot.sendErr = errors.New("connection reset") },
			userID: 1,
			typ:    model.NotificationNewUpdate,
			want:   "telegram send failed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, m, bot := setupTelegram(t)
			tc.mutate(m, bot)

			var res dto.SendResult
			assert.NotPanics(t, func() {
				res = svc.Send(context.Background(), tc.userID, tc.typ, "t", "m", "")
			})
			assert.False(t, res.Success)
			assert.Contains(t, res.Message, tc.want)
		})
	}
}

func TestTelegramSend_FactoryError(t *testing.T) {
	repo, m := newMockRepository()
	m.users.add(&model.User{ID: 1, TelegramEnabled: true, TelegramUserID: strPtr("555")})
	m.telegram.active = &model.TelegramBotConfig{ID: 1, BotToken: "bad", IsActive: true}
	svc := NewTelegramService(repo, fakeFactory(nil, errors.New("401 unauthorized")), "", zap.NewNop())

	res := svc.Send(context.Background(), 1, model.NotificationSystem, "t", "m", "")
	assert.False(t, res.Success)
	assert.True(t, res.Attempted)
	assert.Contains(t, res.Message, "unauthorized")
}

func TestTelegramSend_EmptyAllowListAllowsAll(t *testing.T) {
	svc, m, bot := setupTelegram(t)
	m.users.users[1].TelegramNotificationTypes = []string{}

	res := svc.Send(context.Background(), 1, model.NotificationThesisStatusChange, "t", "m", "")
	assert.True(t, res.Success)
	assert.Len(t, bot.sent, 1)
}

func TestTelegramSend_BotLevelFilter(t *testing.T) {
	svc, m, bot := setupTelegram(t)
	m.telegram.active.NotificationTypes = []string{model.NotificationSystem}

	res := svc.Send(context.Background(), 1, model.NotificationNewUpdate, "t", "m", "")
	assert.False(t, res.Success)
	assert.Equal(t, msgTypeBotFiltered, res.Message)
	assert.Empty(t, bot.sent)
}

func TestTelegramFormatMessage_EscapesAndLinks(t *testing.T) {
	svc, _, _ := setupTelegram(t)
	ts := svc.(*telegramService)

	text := ts.FormatMessage("unknown", "<script>", "a & b", "")
	assert.Equal(t, "<b>🔔 &lt;script&gt;</b>\n\na &amp; b\n\n— SuperviseMe", text)

	text = ts.FormatMessage(model.NotificationTest, "t", "m", "https://other.example.com/x")
	assert.Contains(t, text, `href="https://other.example.com/x"`)
}

func TestTelegramSendTest(t *testing.T) {
	svc, _, bot := setupTelegram(t)

	res := svc.SendTest(context.Background(), 1)
	require.True(t, res.Success)
	assert.Contains(t, bot.sent[0].text, "🧪")
}

func TestTelegramVerifyChatAndBotInfo(t *testing.T) {
	svc, m, bot := setupTelegram(t)
	ctx := context.Background()

	v := svc.VerifyChat(ctx, "555")
	assert.True(t, v.Success)
	assert.Equal(t, "private", v.ChatType)

	assert.False(t, svc.VerifyChat(ctx, "not-a-number").Success)

	bot.chatErr = errors.New("chat not found")
	assert.False(t, svc.VerifyChat(ctx, "555").Success)

	info := svc.BotInfo(ctx)
	assert.True(t, info.Success)
	assert.Equal(t, "superviseme_bot", info.Username)

	m.telegram.active = nil
	assert.False(t, svc.BotInfo(ctx).Success)
}

func TestTelegramUpdatePreferences(t *testing.T) {
	svc, m, _ := setupTelegram(t)
	ctx := context.Background()

	resp, err := svc.UpdatePreferences(ctx, 1, &dto.UpdateTelegramPreferencesRequest{
		Enabled:           true,
		ChatID:            strPtr(" 777 "),
		NotificationTypes: []string{model.NotificationNewFeedback, model.NotificationNewFeedback},
	})
	require.NoError(t, err)
	assert.Equal(t, "777", *resp.ChatID)
	assert.Equal(t, []string{model.NotificationNewFeedback}, resp.NotificationTypes)
	assert.Equal(t, "777", *m.users.users[1].TelegramUserID)

	_, err = svc.UpdatePreferences(ctx, 1, &dto.UpdateTelegramPreferencesRequest{Enabled: true, NotificationTypes: []string{"bogus"}})
	assert.ErrorIs(t, err, ErrUnknownNotifyType)

	_, err = svc.UpdatePreferences(ctx, 1, &dto.UpdateTelegramPreferencesRequest{Enabled: true, ChatID: strPtr("")})
	assert.ErrorIs(t, err, ErrTelegramChatRequired)

	_, err = svc.UpdatePreferences(ctx, 1, &dto.UpdateTelegramPreferencesRequest{ChatID: strPtr("abc")})
	assert.ErrorIs(t, err, ErrInvalidChatID)

	_, err = svc.UpdatePreferences(ctx, 404, &dto.UpdateTelegramPreferencesRequest{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
