package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"superviseme/backend/internal/model"
)

// TodoRepository 待办数据访问接口
type TodoRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Todo, error)
	// FilterExisting 返回 ids 中仍存在且属于 ws 的待办 ID（升序）
	FilterExisting(ctx context.Context, ws model.Workspace, ids []uint) ([]uint, error)
	// SearchByTitle 标题包含 phrase（不区分大小写）的 ws 内待办 ID（升序）
	SearchByTitle(ctx context.Context, ws model.Workspace, phrase string) ([]uint, error)
	UpdateAssignee(ctx context.Context, id uint, assigneeID *uint) error
}

type todoRepo struct {
	db *gorm.DB
}

// NewTodoRepo 创建 TodoRepository 实例
func NewTodoRepo(db *gorm.DB) TodoRepository {
	return &todoRepo{db: db}
}

func (r *todoRepo) GetByID(ctx context.Context, id uint) (*model.Todo, error) {
	var todo model.Todo
	err := r.db.WithContext(ctx).
		Preload("AssignedTo").
		Where("id = ?", id).
		First(&todo).Error
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *todoRepo) FilterExisting(ctx context.Context, ws model.Workspace, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	err := scopeWorkspace(r.db.WithContext(ctx).Model(&model.Todo{}), ws).
		Where("id IN ?", ids).
		Order("id ASC").
		Pluck("id", &found).Error
	return found, err
}

func (r *todoRepo) SearchByTitle(ctx context.Context, ws model.Workspace, phrase string) ([]uint, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, nil
	}
	var found []uint
	err := scopeWorkspace(r.db.WithContext(ctx).Model(&model.Todo{}), ws).
		Where("title ILIKE ?", "%"+escapeLike(phrase)+"%").
		Order("id ASC").
		Pluck("id", &found).Error
	return found, err
}

func (r *todoRepo) UpdateAssignee(ctx context.Context, id uint, assigneeID *uint) error {
	result := r.db.WithContext(ctx).
		Model(&model.Todo{}).
		Where("id = ?", id).
		Update("assigned_to_id", assigneeID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// scopeWorkspace 限定论文或项目；零值工作区不加限制
func scopeWorkspace(db *gorm.DB, ws model.Workspace) *gorm.DB {
	switch ws.Kind {
	case model.WorkspaceThesis:
		return db.Where("thesis_id = ?", ws.ID)
	case model.WorkspaceProject:
		return db.Where("project_id = ?", ws.ID)
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 转义 LIKE 通配符，使短语按字面匹配
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
