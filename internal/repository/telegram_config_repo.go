package repository

import (
	"context"

	"gorm.io/gorm"

	"superviseme/backend/internal/model"
)

// TelegramConfigRepository Telegram Bot 配置数据访问接口
type TelegramConfigRepository interface {
	// GetActive 当前启用的配置，多行启用时取最近更新的一行
	GetActive(ctx context.Context) (*model.TelegramBotConfig, error)
}

type telegramConfigRepo struct {
	db *gorm.DB
}

// NewTelegramConfigRepo 创建 TelegramConfigRepository 实例
func NewTelegramConfigRepo(db *gorm.DB) TelegramConfigRepository {
	return &telegramConfigRepo{db: db}
}

func (r *telegramConfigRepo) GetActive(ctx context.Context) (*model.TelegramBotConfig, error) {
	var cfg model.TelegramBotConfig
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("updated_at DESC, id DESC").
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
