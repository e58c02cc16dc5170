package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"superviseme/backend/internal/model"
)

// DigestRunRepository 周报执行记录数据访问接口
type DigestRunRepository interface {
	// Claim 登记一次执行。定时触发在同一 ISO 周已有记录时返回 false
	Claim(ctx context.Context, run *model.DigestRun) (bool, error)
	Finish(ctx context.Context, id uint, sent, failed, skipped int, at time.Time) error
	Latest(ctx context.Context) (*model.DigestRun, error)
}

type digestRunRepo struct {
	db *gorm.DB
}

// NewDigestRunRepo 创建 DigestRunRepository 实例
func NewDigestRunRepo(db *gorm.DB) DigestRunRepository {
	return &digestRunRepo{db: db}
}

func (r *digestRunRepo) Claim(ctx context.Context, run *model.DigestRun) (bool, error) {
	if run.TriggerType != model.DigestTriggerScheduled {
		if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	// 依赖 (week_key) WHERE trigger_type='scheduled' 部分唯一索引
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "week_key"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Eq{Column: "trigger_type", Value: model.DigestTriggerScheduled}}},
			DoNothing:   true,
		}).
		Create(run)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *digestRunRepo) Finish(ctx context.Context, id uint, sent, failed, skipped int, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.DigestRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sent":        sent,
			"failed":      failed,
			"skipped":     skipped,
			"finished_at": at,
		}).Error
}

func (r *digestRunRepo) Latest(ctx context.Context) (*model.DigestRun, error) {
	var run model.DigestRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC, id DESC").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}
