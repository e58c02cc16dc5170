package repository

import (
	"context"

	"gorm.io/gorm"

	"superviseme/backend/internal/model"
)

// ThesisRepository 论文数据访问接口
type ThesisRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Thesis, error)
	ListSupervisorIDs(ctx context.Context, thesisID uint) ([]uint, error)
	ListBySupervisor(ctx context.Context, supervisorID uint) ([]model.Thesis, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
}

type thesisRepo struct {
	db *gorm.DB
}

// NewThesisRepo 创建 ThesisRepository 实例
func NewThesisRepo(db *gorm.DB) ThesisRepository {
	return &thesisRepo{db: db}
}

func (r *thesisRepo) GetByID(ctx context.Context, id uint) (*model.Thesis, error) {
	var thesis model.Thesis
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ?", id).
		First(&thesis).Error
	if err != nil {
		return nil, err
	}
	return &thesis, nil
}

func (r *thesisRepo) ListSupervisorIDs(ctx context.Context, thesisID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.ThesisSupervisor{}).
		Where("thesis_id = ?", thesisID).
		Order("supervisor_id ASC").
		Pluck("supervisor_id", &ids).Error
	return ids, err
}

// ListBySupervisor 导师指导的全部论文（含作者），供周报统计
func (r *thesisRepo) ListBySupervisor(ctx context.Context, supervisorID uint) ([]model.Thesis, error) {
	var theses []model.Thesis
	err := r.db.WithContext(ctx).
		Preload("Author").
		Joins("JOIN thesis_supervisors ts ON ts.thesis_id = theses.id").
		Where("ts.supervisor_id = ?", supervisorID).
		Order("theses.id ASC").
		Find(&theses).Error
	return theses, err
}

func (r *thesisRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
