package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/model"
	"superviseme/backend/internal/repository"
	apperrors "superviseme/backend/pkg/errors"
)

// ── 引用模块业务错误 ──

var (
	ErrContainerNotFound = errors.New("进展或会议纪要不存在")
	ErrTodoNotFound      = errors.New("待办不存在")
)

// ReferenceService 待办引用业务接口
type ReferenceService interface {
	// Resolve 将文本中的引用解析为 ws 内存在的待办 ID（升序、去重）
	Resolve(ctx context.Context, ws model.Workspace, text string) ([]uint, error)
	// SetReferences 全量替换容器的引用集合，空集合即清空
	SetReferences(ctx context.Context, container model.ContainerRef, todoIDs []uint) error
	// Sync 解析 + 解析结果写入，返回最终链接的待办 ID
	Sync(ctx context.Context, container model.ContainerRef, text string) ([]uint, error)
	ReferencesForContainer(ctx context.Context, container model.ContainerRef) ([]model.Todo, error)
	ContainersReferencing(ctx context.Context, todoID uint) ([]dto.ReferencingContainer, error)
}

type referenceService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReferenceService 创建 ReferenceService 实例
func NewReferenceService(repo *repository.Repository, logger *zap.Logger) ReferenceService {
	return &referenceService{repo: repo, logger: logger}
}

func (s *referenceService) Resolve(ctx context.Context, ws model.Workspace, text string) ([]uint, error) {
	refs := ParseReferences(text)
	if refs.IsEmpty() {
		return nil, nil
	}

	found := make(map[uint]bool)
	if len(refs.IDs) > 0 {
		ids, err := s.repo.Todo.FilterExisting(ctx, ws, refs.IDs)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			found[id] = true
		}
	}
	// 标题匹配到多个待办时全部关联
	for _, phrase := range refs.Phrases {
		ids, err := s.repo.Todo.SearchByTitle(ctx, ws, phrase)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			found[id] = true
		}
	}

	result := make([]uint, 0, len(found))
	for id := range found {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

func (s *referenceService) SetReferences(ctx context.Context, container model.ContainerRef, todoIDs []uint) error {
	ws, err := s.workspaceOf(ctx, container)
	if err != nil {
		return err
	}
	if err := s.repo.Reference.Replace(ctx, container, ws, todoIDs); err != nil {
		s.logger.Error("写入待办引用失败",
			zap.String("kind", container.Kind), zap.Uint("container_id", container.ID), zap.Error(err))
		return err
	}
	return nil
}

func (s *referenceService) Sync(ctx context.Context, container model.ContainerRef, text string) ([]uint, error) {
	ws, err := s.workspaceOf(ctx, container)
	if err != nil {
		return nil, err
	}
	ids, err := s.Resolve(ctx, ws, text)
	if err != nil {
		s.logger.Error("解析待办引用失败", zap.String("workspace", ws.String()), zap.Error(err))
		return nil, err
	}
	if err := s.repo.Reference.Replace(ctx, container, ws, ids); err != nil {
		s.logger.Error("写入待办引用失败",
			zap.String("kind", container.Kind), zap.Uint("container_id", container.ID), zap.Error(err))
		return nil, err
	}
	return ids, nil
}

func (s *referenceService) ReferencesForContainer(ctx context.Context, container model.ContainerRef) ([]model.Todo, error) {
	if _, err := s.workspaceOf(ctx, container); err != nil {
		return nil, err
	}
	return s.repo.Reference.ListTodos(ctx, container)
}

func (s *referenceService) ContainersReferencing(ctx context.Context, todoID uint) ([]dto.ReferencingContainer, error) {
	if _, err := s.repo.Todo.GetByID(ctx, todoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}

	updates, err := s.repo.Reference.ListUpdatesReferencing(ctx, todoID)
	if err != nil {
		return nil, err
	}
	notes, err := s.repo.Reference.ListMeetingNotesReferencing(ctx, todoID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ReferencingContainer, 0, len(updates)+len(notes))
	for i := range updates {
		u := &updates[i]
		title := "Update"
		if u.Author != nil {
			title = "Update by " + u.Author.FullName()
		}
		thesisID := u.ThesisID
		result = append(result, dto.ReferencingContainer{
			Kind:      model.ContainerUpdate,
			ID:        u.ID,
			ThesisID:  &thesisID,
			AuthorID:  u.AuthorID,
			Title:     title,
			Preview:   Preview(u.Content),
			CreatedAt: u.CreatedAt.Format(timeLayout),
		})
	}
	for i := range notes {
		n := &notes[i]
		result = append(result, dto.ReferencingContainer{
			Kind:      model.ContainerMeetingNote,
			ID:        n.ID,
			ThesisID:  n.ThesisID,
			ProjectID: n.ProjectID,
			AuthorID:  n.AuthorID,
			Title:     n.Title,
			Preview:   Preview(n.Content),
			CreatedAt: n.CreatedAt.Format(timeLayout),
		})
	}
	return result, nil
}

// workspaceOf 容器所属的论文或项目
func (s *referenceService) workspaceOf(ctx context.Context, container model.ContainerRef) (model.Workspace, error) {
	switch container.Kind {
	case model.ContainerUpdate:
		u, err := s.repo.Update.GetByID(ctx, container.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.Workspace{}, ErrContainerNotFound
			}
			return model.Workspace{}, err
		}
		return model.ThesisWorkspace(u.ThesisID), nil
	case model.ContainerMeetingNote:
		n, err := s.repo.MeetingNote.GetByID(ctx, container.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.Workspace{}, ErrContainerNotFound
			}
			return model.Workspace{}, err
		}
		return model.WorkspaceOf(n.ThesisID, n.ProjectID), nil
	}
	return model.Workspace{}, apperrors.ErrUnknownContainer
}
