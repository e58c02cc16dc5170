package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/repository"
)

// TodoService 待办业务接口（仅指派）
type TodoService interface {
	// Assign 指派或取消指派；被指派人变化时通知新的被指派人
	Assign(ctx context.Context, actorID, todoID uint, assigneeID *uint) (*dto.TodoBrief, error)
}

type todoService struct {
	repo   *repository.Repository
	events NotificationEvents
	logger *zap.Logger
}

// NewTodoService 创建 TodoService 实例
func NewTodoService(repo *repository.Repository, events NotificationEvents, logger *zap.Logger) TodoService {
	return &todoService{repo: repo, events: events, logger: logger}
}

func (s *todoService) Assign(ctx context.Context, actorID, todoID uint, assigneeID *uint) (*dto.TodoBrief, error) {
	todo, err := s.repo.Todo.GetByID(ctx, todoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}

	if assigneeID != nil {
		if _, err := s.repo.User.GetByID(ctx, *assigneeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
	}

	unchanged := (todo.AssignedToID == nil && assigneeID == nil) ||
		(todo.AssignedToID != nil && assigneeID != nil && *todo.AssignedToID == *assigneeID)
	if unchanged {
		brief := toTodoBrief(todo)
		return &brief, nil
	}

	if err := s.repo.Todo.UpdateAssignee(ctx, todoID, assigneeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		s.logger.Error("指派待办失败", zap.Uint("todo_id", todoID), zap.Error(err))
		return nil, err
	}
	todo.AssignedToID = assigneeID
	todo.AssignedTo = nil

	if _, err := s.events.OnTodoAssigned(ctx, todo, actorID); err != nil {
		s.logger.Error("发送指派通知失败", zap.Uint("todo_id", todoID), zap.Error(err))
	}

	brief := toTodoBrief(todo)
	return &brief, nil
}
