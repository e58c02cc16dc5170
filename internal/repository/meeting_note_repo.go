package repository

import (
	"context"

	"gorm.io/gorm"

	"superviseme/backend/internal/model"
)

// MeetingNoteRepository 会议纪要数据访问接口
type MeetingNoteRepository interface {
	Create(ctx context.Context, note *model.MeetingNote) error
	GetByID(ctx context.Context, id uint) (*model.MeetingNote, error)
	UpdateContent(ctx context.Context, id uint, title, content string) error
}

type meetingNoteRepo struct {
	db *gorm.DB
}

// NewMeetingNoteRepo 创建 MeetingNoteRepository 实例
func NewMeetingNoteRepo(db *gorm.DB) MeetingNoteRepository {
	return &meetingNoteRepo{db: db}
}

func (r *meetingNoteRepo) Create(ctx context.Context, note *model.MeetingNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *meetingNoteRepo) GetByID(ctx context.Context, id uint) (*model.MeetingNote, error) {
	var note model.MeetingNote
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *meetingNoteRepo) UpdateContent(ctx context.Context, id uint, title, content string) error {
	result := r.db.WithContext(ctx).
		Model(&model.MeetingNote{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":   title,
			"content": content,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
