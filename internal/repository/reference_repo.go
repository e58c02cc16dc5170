package repository

import (
	"context"

	"gorm.io/gorm"

	"superviseme/backend/internal/model"
	apperrors "superviseme/backend/pkg/errors"
)

// ReferenceRepository 待办引用数据访问接口
type ReferenceRepository interface {
	// Replace 在事务中全量替换容器的引用：先硬删除旧链接，再为 ws 内仍存在的待办逐一插入
	Replace(ctx context.Context, container model.ContainerRef, ws model.Workspace, todoIDs []uint) error
	// ListTodos 容器引用的待办，按待办创建时间倒序
	ListTodos(ctx context.Context, container model.ContainerRef) ([]model.Todo, error)
	ListUpdatesReferencing(ctx context.Context, todoID uint) ([]model.ThesisUpdate, error)
	ListMeetingNotesReferencing(ctx context.Context, todoID uint) ([]model.MeetingNote, error)
}

type referenceRepo struct {
	db *gorm.DB
}

// NewReferenceRepo 创建 ReferenceRepository 实例
func NewReferenceRepo(db *gorm.DB) ReferenceRepository {
	return &referenceRepo{db: db}
}

// linkTable 容器类型对应的链接模型、表名与外键列
func linkTable(kind string) (link interface{}, table, column string, err error) {
	switch kind {
	case model.ContainerUpdate:
		return &model.UpdateTodoReference{}, "update_todo_references", "update_id", nil
	case model.ContainerMeetingNote:
		return &model.MeetingNoteTodoReference{}, "meeting_note_todo_references", "meeting_note_id", nil
	}
	return nil, "", "", apperrors.ErrUnknownContainer
}

func (r *referenceRepo) Replace(ctx context.Context, container model.ContainerRef, ws model.Workspace, todoIDs []uint) error {
	link, _, column, err := linkTable(container.Kind)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(column+" = ?", container.ID).
			Delete(link).Error; err != nil {
			return err
		}
		if len(todoIDs) == 0 {
			return nil
		}

		// 待办可能在解析之后被删除，只为仍存在的待办建立链接
		var existing []uint
		if err := scopeWorkspace(tx.Model(&model.Todo{}), ws).
			Where("id IN ?", todoIDs).
			Order("id ASC").
			Pluck("id", &existing).Error; err != nil {
			return err
		}
		if len(existing) == 0 {
			return nil
		}

		switch container.Kind {
		case model.ContainerUpdate:
			rows := make([]model.UpdateTodoReference, 0, len(existing))
			for _, id := range existing {
				rows = append(rows, model.UpdateTodoReference{UpdateID: container.ID, TodoID: id})
			}
			return tx.Create(&rows).Error
		default:
			rows := make([]model.MeetingNoteTodoReference, 0, len(existing))
			for _, id := range existing {
				rows = append(rows, model.MeetingNoteTodoReference{MeetingNoteID: container.ID, TodoID: id})
			}
			return tx.Create(&rows).Error
		}
	})
}

func (r *referenceRepo) ListTodos(ctx context.Context, container model.ContainerRef) ([]model.Todo, error) {
	_, table, column, err := linkTable(container.Kind)
	if err != nil {
		return nil, err
	}
	var todos []model.Todo
	err = r.db.WithContext(ctx).
		Preload("AssignedTo").
		Joins("JOIN "+table+" ref ON ref.todo_id = todos.id").
		Where("ref."+column+" = ?", container.ID).
		Order("todos.created_at DESC, todos.id DESC").
		Find(&todos).Error
	return todos, err
}

func (r *referenceRepo) ListUpdatesReferencing(ctx context.Context, todoID uint) ([]model.ThesisUpdate, error) {
	var updates []model.ThesisUpdate
	err := r.db.WithContext(ctx).
		Preload("Author").
		Joins("JOIN update_todo_references ref ON ref.update_id = thesis_updates.id").
		Where("ref.todo_id = ?", todoID).
		Order("thesis_updates.created_at DESC, thesis_updates.id DESC").
		Find(&updates).Error
	return updates, err
}

func (r *referenceRepo) ListMeetingNotesReferencing(ctx context.Context, todoID uint) ([]model.MeetingNote, error) {
	var notes []model.MeetingNote
	err := r.db.WithContext(ctx).
		Joins("JOIN meeting_note_todo_references ref ON ref.meeting_note_id = meeting_notes.id").
		Where("ref.todo_id = ?", todoID).
		Order("meeting_notes.created_at DESC, meeting_notes.id DESC").
		Find(&notes).Error
	return notes, err
}
