package service

import (
	"context"
	"errors"
	"testing"

	"superviseme/backend/internal/model"
)

func TestTodoService_Assign(t *testing.T) {
	todos, _, m := setupTodoThesis()
	ctx := context.Background()

	brief, err := todos.Assign(ctx, 2, 5, uintPtr(1))
	if err != nil {
		t.Fatalf("Assign 应成功: %v", err)
	}
	if brief.AssignedToID == nil || *brief.AssignedToID != 1 {
		t.Errorf("期望指派给 1，实际 %v", brief.AssignedToID)
	}
	if got := recipientsOf(m, model.NotificationTodoAssigned); !equalIDs(got, []uint{1}) {
		t.Errorf("期望通知被指派人 [1]，实际 %v", got)
	}

	// 重复指派同一人不再通知
	if _, err := todos.Assign(ctx, 2, 5, uintPtr(1)); err != nil {
		t.Fatalf("Assign 应成功: %v", err)
	}
	if got := recipientsOf(m, model.NotificationTodoAssigned); len(got) != 1 {
		t.Errorf("期望不重复通知，实际 %v", got)
	}

	// 取消指派
	brief, _ = todos.Assign(ctx, 2, 5, nil)
	if brief.AssignedToID != nil || m.todos.todos[5].AssignedToID != nil {
		t.Error("期望取消指派")
	}
}

func TestTodoService_Assign_Errors(t *testing.T) {
	todos, _, _ := setupTodoThesis()
	ctx := context.Background()

	if _, err := todos.Assign(ctx, 2, 404, uintPtr(1)); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("期望 ErrTodoNotFound，实际: %v", err)
	}
	if _, err := todos.Assign(ctx, 2, 5, uintPtr(404)); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
