package model

import (
	"time"

	"gorm.io/datatypes"
)

// 通知类型
const (
	NotificationNewUpdate          = "new_update"
	NotificationNewFeedback        = "new_feedback"
	NotificationTodoAssigned       = "todo_assigned"
	NotificationThesisStatusChange = "thesis_status_change"
	NotificationMeetingNote        = "meeting_note"
	NotificationSystem             = "system"
	NotificationTest               = "test"
)

// NotificationTypes 全部通知类型（用户 Telegram 允许列表的取值范围）
var NotificationTypes = []string{
	NotificationNewUpdate,
	NotificationNewFeedback,
	NotificationTodoAssigned,
	NotificationThesisStatusChange,
	NotificationMeetingNote,
	NotificationSystem,
	NotificationTest,
}

// Notification 站内通知表 — 对应 notifications
// 仅由通知分发器创建；TelegramSent=true 时 TelegramSentAt 必须非空
type Notification struct {
	ID             uint       `gorm:"primaryKey"                 json:"id"`
	UserID         uint       `gorm:"not null;index"             json:"user_id"`
	ActorID        *uint      `                                  json:"actor_id,omitempty"`
	ThesisID       *uint      `                                  json:"thesis_id,omitempty"`
	Type           string     `gorm:"type:varchar(50);not null"  json:"type"`
	Title          string     `gorm:"type:varchar(200);not null" json:"title"`
	Message        string     `gorm:"type:text;not null"         json:"message"`
	ActionURL      *string    `gorm:"type:varchar(500)"          json:"action_url,omitempty"`
	IsRead         bool       `gorm:"not null;default:false"     json:"is_read"`
	ReadAt         *time.Time `                                  json:"read_at,omitempty"`
	TelegramSent   bool       `gorm:"not null;default:false"     json:"telegram_sent"`
	TelegramSentAt *time.Time `                                  json:"telegram_sent_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// NotificationTitleMaxLen 通知标题最大字符数，与 notifications.title 列宽一致
const NotificationTitleMaxLen = 200

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// TelegramBotConfig Telegram Bot 配置表 — 对应 telegram_bot_configs，同一时刻至多一行 is_active
type TelegramBotConfig struct {
	ID                uint                        `gorm:"primaryKey"                         json:"id"`
	BotToken          string                      `gorm:"type:varchar(255);not null"         json:"-"`
	BotUsername       string                      `gorm:"type:varchar(100);not null;default:''" json:"bot_username"`
	IsActive          bool                        `gorm:"not null;default:false"             json:"is_active"`
	NotificationTypes datatypes.JSONSlice[string] `gorm:"type:jsonb"                         json:"notification_types"`
	FrequencySettings datatypes.JSONMap           `gorm:"type:jsonb"                         json:"frequency_settings"`
	BaseModel
}

// TableName 指定表名
func (TelegramBotConfig) TableName() string { return "telegram_bot_configs" }
