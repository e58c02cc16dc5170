package dto

// ── 通知模块 DTO ──

// ListNotificationsRequest 通知列表查询参数
type ListNotificationsRequest struct {
	Limit      int  `form:"limit"       binding:"omitempty,min=1,max=200"`
	UnreadOnly bool `form:"unread_only"`
}

// GetLimit 获取条数上限（含默认值）
func (r *ListNotificationsRequest) GetLimit() int {
	if r.Limit <= 0 {
		return 50
	}
	return r.Limit
}

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID             uint    `json:"id"`
	Type           string  `json:"type"`
	Title          string  `json:"title"`
	Message        string  `json:"message"`
	ActionURL      *string `json:"action_url,omitempty"`
	ActorID        *uint   `json:"actor_id,omitempty"`
	ThesisID       *uint   `json:"thesis_id,omitempty"`
	IsRead         bool    `json:"is_read"`
	ReadAt         *string `json:"read_at,omitempty"`
	TelegramSent   bool    `json:"telegram_sent"`
	TelegramSentAt *string `json:"telegram_sent_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// NotificationListResponse 通知列表响应
type NotificationListResponse struct {
	List        []NotificationResponse `json:"list"`
	UnreadCount int64                  `json:"unread_count"`
}

// UnreadCountResponse 未读数响应
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// AffectedResponse 批量操作影响行数
type AffectedResponse struct {
	Affected int64 `json:"affected"`
}
