package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"superviseme/backend/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	ListByRole(ctx context.Context, role string) ([]model.User, error)
	ListByIDs(ctx context.Context, ids []uint) ([]model.User, error)
	UpdateActivity(ctx context.Context, id uint, at time.Time, location string) error
	UpdateTelegramSettings(ctx context.Context, id uint, enabled bool, chatID *string, types []string) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []uint) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// UpdateActivity 仅更新活动字段，不触碰 updated_at 以外的资料列
func (r *userRepo) UpdateActivity(ctx context.Context, id uint, at time.Time, location string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_activity":          at,
			"last_activity_location": location,
		}).Error
}

func (r *userRepo) UpdateTelegramSettings(ctx context.Context, id uint, enabled bool, chatID *string, types []string) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"telegram_enabled":            enabled,
			"telegram_user_id":            chatID,
			"telegram_notification_types": datatypes.JSONSlice[string](types),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
