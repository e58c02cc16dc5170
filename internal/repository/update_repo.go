package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"superviseme/backend/internal/model"
)

// UpdateRepository 论文进展数据访问接口
type UpdateRepository interface {
	Create(ctx context.Context, update *model.ThesisUpdate) error
	GetByID(ctx context.Context, id uint) (*model.ThesisUpdate, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	// CountByAuthorSince 作者在 thesisID 下自 since 起发布的进展数（不含评论）
	CountByAuthorSince(ctx context.Context, thesisID, authorID uint, since time.Time) (int64, error)
}

type updateRepo struct {
	db *gorm.DB
}

// NewUpdateRepo 创建 UpdateRepository 实例
func NewUpdateRepo(db *gorm.DB) UpdateRepository {
	return &updateRepo{db: db}
}

func (r *updateRepo) Create(ctx context.Context, update *model.ThesisUpdate) error {
	return r.db.WithContext(ctx).Create(update).Error
}

func (r *updateRepo) GetByID(ctx context.Context, id uint) (*model.ThesisUpdate, error) {
	var update model.ThesisUpdate
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&update).Error
	if err != nil {
		return nil, err
	}
	return &update, nil
}

func (r *updateRepo) UpdateContent(ctx context.Context, id uint, content string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ThesisUpdate{}).
		Where("id = ?", id).
		Update("content", content)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *updateRepo) CountByAuthorSince(ctx context.Context, thesisID, authorID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ThesisUpdate{}).
		Where("thesis_id = ? AND author_id = ? AND parent_id IS NULL AND created_at >= ?", thesisID, authorID, since).
		Count(&count).Error
	return count, err
}
