package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"superviseme/backend/internal/model"
)

// ProjectRepository 科研项目数据访问接口
type ProjectRepository interface {
	GetByID(ctx context.Context, id uint) (*model.ResearchProject, error)
	// ListMemberIDs 项目负责人与全部合作者
	ListMemberIDs(ctx context.Context, projectID uint) ([]uint, error)
}

type projectRepo struct {
	db *gorm.DB
}

// NewProjectRepo 创建 ProjectRepository 实例
func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) GetByID(ctx context.Context, id uint) (*model.ResearchProject, error) {
	var project model.ResearchProject
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) ListMemberIDs(ctx context.Context, projectID uint) ([]uint, error) {
	project, err := r.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var collaborators []uint
	if err := r.db.WithContext(ctx).
		Table("research_project_collaborators").
		Where("project_id = ?", projectID).
		Pluck("user_id", &collaborators).Error; err != nil {
		return nil, err
	}

	seen := map[uint]bool{project.OwnerID: true}
	ids := []uint{project.OwnerID}
	for _, id := range collaborators {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
