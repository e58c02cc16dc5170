package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/repository"
)

// UserService 用户业务接口
type UserService interface {
	GetProfile(ctx context.Context, id uint) (*dto.UserResponse, error)
	// TouchActivity 记录最近活动时间与位置（请求路径），周报据此判断是否不活跃
	TouchActivity(ctx context.Context, id uint, location string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger, now: time.Now}
}

func (s *userService) GetProfile(ctx context.Context, id uint) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	unread, err := s.repo.Notification.CountUnread(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dto.UserResponse{
		ID:                   user.ID,
		Username:             user.Username,
		Name:                 user.Name,
		Surname:              user.Surname,
		Email:                user.Email,
		Role:                 user.Role,
		LastActivityLocation: user.LastActivityLocation,
		Telegram:             *toPreferencesResponse(user.TelegramEnabled, user.TelegramUserID, user.TelegramNotificationTypes),
		UnreadNotifications:  unread,
	}
	if user.LastActivity != nil {
		la := user.LastActivity.Format(timeLayout)
		resp.LastActivity = &la
	}
	return resp, nil
}

func (s *userService) TouchActivity(ctx context.Context, id uint, location string) error {
	if len(location) > 255 {
		location = location[:255]
	}
	if err := s.repo.User.UpdateActivity(ctx, id, s.now(), location); err != nil {
		s.logger.Warn("记录用户活动失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}
