package model

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// 用户角色
const (
	RoleStudent    = "student"
	RoleSupervisor = "supervisor"
	RoleResearcher = "researcher"
	RoleAdmin      = "admin"
)

// ValidRole 角色是否合法
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleSupervisor, RoleResearcher, RoleAdmin:
		return true
	}
	return false
}

// User 用户表 — 对应 users
type User struct {
	ID                        uint                        `gorm:"primaryKey"                                json:"id"`
	Username                  string                      `gorm:"type:varchar(80);not null;uniqueIndex"     json:"username"`
	Name                      string                      `gorm:"type:varchar(100);not null"                json:"name"`
	Surname                   string                      `gorm:"type:varchar(100);not null"                json:"surname"`
	Email                     string                      `gorm:"type:varchar(255);not null;uniqueIndex"    json:"email"`
	Role                      string                      `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	LastActivity              *time.Time                  `                                                 json:"last_activity,omitempty"`
	LastActivityLocation      string                      `gorm:"type:varchar(255);not null;default:''"     json:"last_activity_location"`
	TelegramEnabled           bool                        `gorm:"not null;default:false"                    json:"telegram_enabled"`
	TelegramUserID            *string                     `gorm:"type:varchar(64)"                          json:"telegram_user_id,omitempty"`
	TelegramNotificationTypes datatypes.JSONSlice[string] `gorm:"type:jsonb"                                json:"telegram_notification_types"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// FullName 展示用姓名，姓名均为空时回退到用户名
func (u *User) FullName() string {
	full := strings.TrimSpace(u.Name + " " + u.Surname)
	if full == "" {
		return u.Username
	}
	return full
}

// TelegramChatID 解析已登记的 Telegram 聊天 ID，未登记或格式错误时 ok=false
func (u *User) TelegramChatID() (int64, bool) {
	if u.TelegramUserID == nil || *u.TelegramUserID == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(*u.TelegramUserID), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// AllowsTelegramType 用户是否接收该类型的 Telegram 通知
// 允许列表为空或未设置时视为全部允许
func (u *User) AllowsTelegramType(notificationType string) bool {
	if len(u.TelegramNotificationTypes) == 0 {
		return true
	}
	for _, t := range u.TelegramNotificationTypes {
		if t == notificationType {
			return true
		}
	}
	return false
}
