package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"superviseme/backend/internal/model"
)

func TestUserService_TouchActivityAndProfile(t *testing.T) {
	repo, m := newMockRepository()
	m.users.add(&model.User{ID: 1, Username: "ada", Role: model.RoleStudent})
	svc := NewUserService(repo, zap.NewNop())
	ctx := context.Background()

	if err := svc.TouchActivity(ctx, 1, "/api/v1/notifications"); err != nil {
		t.Fatalf("TouchActivity 应成功: %v", err)
	}
	if m.users.users[1].LastActivity == nil || m.users.users[1].LastActivityLocation != "/api/v1/notifications" {
		t.Errorf("期望记录活动，实际 %+v", m.users.users[1])
	}

	profile, err := svc.GetProfile(ctx, 1)
	if err != nil {
		t.Fatalf("GetProfile 应成功: %v", err)
	}
	if profile.LastActivity == nil || profile.Telegram.NotificationTypes == nil {
		t.Errorf("期望返回活动时间与空类型列表，实际 %+v", profile)
	}

	if _, err := svc.GetProfile(ctx, 404); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
