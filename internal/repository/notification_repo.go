package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"superviseme/backend/internal/model"
)

// NotificationRepository 站内通知数据访问接口
// 所有按用户的操作都以 user_id 作为归属条件，非本人的通知视为不存在
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetForUser(ctx context.Context, userID, id uint) (*model.Notification, error)
	ListByUser(ctx context.Context, userID uint, limit int, unreadOnly bool) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id uint, at time.Time) error
	MarkAllRead(ctx context.Context, userID uint, at time.Time) (int64, error)
	DeleteForUser(ctx context.Context, userID, id uint) (int64, error)
	DeleteAllForUser(ctx context.Context, userID uint) (int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	// MarkTelegramSent 单条 UPDATE 同时写入 telegram_sent 与 telegram_sent_at
	MarkTelegramSent(ctx context.Context, id uint, at time.Time) error
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) GetForUser(ctx context.Context, userID, id uint) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID uint, limit int, unreadOnly bool) ([]model.Notification, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var list []model.Notification
	err := query.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

// MarkRead 已读的通知不再改写 read_at
func (r *notificationRepo) MarkRead(ctx context.Context, userID, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		}).Error
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *notificationRepo) DeleteForUser(ctx context.Context, userID, id uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Notification{})
	return result.RowsAffected, result.Error
}

func (r *notificationRepo) DeleteAllForUser(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.Notification{})
	return result.RowsAffected, result.Error
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepo) MarkTelegramSent(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"telegram_sent":    true,
			"telegram_sent_at": at,
		}).Error
}
