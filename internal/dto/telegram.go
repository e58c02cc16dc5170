package dto

// ── Telegram 模块 DTO ──

// UpdateTelegramPreferencesRequest 更新个人 Telegram 通知设置
// ChatID 为空字符串表示解除绑定
type UpdateTelegramPreferencesRequest struct {
	Enabled           bool     `json:"enabled"`
	ChatID            *string  `json:"chat_id"            binding:"omitempty,max=64"`
	NotificationTypes []string `json:"notification_types" binding:"omitempty,dive,required"`
}

// VerifyChatRequest 校验聊天 ID 是否可达
type VerifyChatRequest struct {
	ChatID string `json:"chat_id" binding:"required,max=64"`
}

// SendResult 渠道发送结果，失败不抛出错误
type SendResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Attempted 是否已发起外部调用（前置条件未满足时为 false）
	Attempted bool `json:"-"`
}

// BotInfoResponse Bot 身份信息
type BotInfoResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ID        int64  `json:"id,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// ChatVerifyResponse 聊天校验结果
type ChatVerifyResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	ChatType string `json:"chat_type,omitempty"`
	Title    string `json:"title,omitempty"`
}

// TelegramPreferencesResponse 个人 Telegram 设置
type TelegramPreferencesResponse struct {
	Enabled           bool     `json:"enabled"`
	ChatID            *string  `json:"chat_id,omitempty"`
	NotificationTypes []string `json:"notification_types"`
}
