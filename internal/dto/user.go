package dto

// ── 用户模块 DTO ──

// UserResponse 当前用户信息
type UserResponse struct {
	ID                   uint                        `json:"id"`
	Username             string                      `json:"username"`
	Name                 string                      `json:"name"`
	Surname              string                      `json:"surname"`
	Email                string                      `json:"email"`
	Role                 string                      `json:"role"`
	LastActivity         *string                     `json:"last_activity,omitempty"`
	LastActivityLocation string                      `json:"last_activity_location,omitempty"`
	Telegram             TelegramPreferencesResponse `json:"telegram"`
	UnreadNotifications  int64                       `json:"unread_notifications"`
}
