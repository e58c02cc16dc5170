package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/model"
	"superviseme/backend/internal/repository"
)

var (
	ErrInvalidThesisStatus = errors.New("无效的论文状态")
)

// ThesisService 论文业务接口（仅状态变更）
type ThesisService interface {
	ChangeStatus(ctx context.Context, actorID, thesisID uint, status string) (*dto.ThesisStatusResponse, error)
}

type thesisService struct {
	repo   *repository.Repository
	events NotificationEvents
	logger *zap.Logger
}

// NewThesisService 创建 ThesisService 实例
func NewThesisService(repo *repository.Repository, events NotificationEvents, logger *zap.Logger) ThesisService {
	return &thesisService{repo: repo, events: events, logger: logger}
}

// ChangeStatus 状态未变化时不写库也不通知
func (s *thesisService) ChangeStatus(ctx context.Context, actorID, thesisID uint, status string) (*dto.ThesisStatusResponse, error) {
	if !model.ValidThesisStatus(status) {
		return nil, ErrInvalidThesisStatus
	}

	thesis, err := s.repo.Thesis.GetByID(ctx, thesisID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrThesisNotFound
		}
		return nil, err
	}

	oldStatus := thesis.Status
	resp := &dto.ThesisStatusResponse{ID: thesis.ID, OldStatus: oldStatus, Status: status}
	if oldStatus == status {
		return resp, nil
	}

	if err := s.repo.Thesis.UpdateStatus(ctx, thesisID, status); err != nil {
		s.logger.Error("更新论文状态失败", zap.Uint("thesis_id", thesisID), zap.Error(err))
		return nil, err
	}
	thesis.Status = status

	s.logger.Info("论文状态已变更",
		zap.Uint("thesis_id", thesisID),
		zap.String("from", oldStatus),
		zap.String("to", status),
		zap.Uint("actor_id", actorID),
	)

	if _, err := s.events.OnThesisStatusChanged(ctx, thesis, oldStatus, actorID); err != nil {
		s.logger.Error("发送状态变更通知失败", zap.Uint("thesis_id", thesisID), zap.Error(err))
	}
	return resp, nil
}
