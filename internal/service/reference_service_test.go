package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"superviseme/backend/internal/model"
)

// ── 测试辅助 ──

// setupReferenceFixture 论文 1 下有待办 1-3，论文 2 下有待办 4；进展 101 属于论文 1
func setupReferenceFixture() (ReferenceService, *mockRepos) {
	repo, m := newMockRepository()
	m.todos.add(&model.Todo{ID: 1, ThesisID: uintPtr(1), Title: "Write literature review"})
	m.todos.add(&model.Todo{ID: 2, ThesisID: uintPtr(1), Title: "Fix data pipeline"})
	m.todos.add(&model.Todo{ID: 3, ThesisID: uintPtr(1), Title: "Review draft chapter"})
	m.todos.add(&model.Todo{ID: 4, ThesisID: uintPtr(2), Title: "Review other thesis"})
	m.updates.updates[101] = &model.ThesisUpdate{ID: 101, ThesisID: 1, AuthorID: 10, Content: "x"}
	return NewReferenceService(repo, zap.NewNop()), m
}

var update101 = model.ContainerRef{Kind: model.ContainerUpdate, ID: 101}

// ── Resolve 测试 ──

func TestReferenceService_Resolve_DropsMissingAndForeign(t *testing.T) {
	svc, _ := setupReferenceFixture()

	ids, err := svc.Resolve(context.Background(), model.ThesisWorkspace(1), "@todo:1 #todo-4 @todo:99")
	if err != nil {
		t.Fatalf("Resolve 应成功: %v", err)
	}
	if fmt.Sprint(ids) != "[1]" {
		t.Errorf("期望 [1]，实际 %v", ids)
	}
}

func TestReferenceService_Resolve_PhraseFansOut(t *testing.T) {
	svc, _ := setupReferenceFixture()

	ids, err := svc.Resolve(context.Background(), model.ThesisWorkspace(1), `@todo:"review" and @todo:2`)
	if err != nil {
		t.Fatalf("Resolve 应成功: %v", err)
	}
	// "review" 命中待办 1 与 3（待办 4 属于其他论文）
	if fmt.Sprint(ids) != "[1 2 3]" {
		t.Errorf("期望 [1 2 3]，实际 %v", ids)
	}
}

func TestReferenceService_Resolve_Empty(t *testing.T) {
	svc, _ := setupReferenceFixture()

	ids, err := svc.Resolve(context.Background(), model.ThesisWorkspace(1), "no refs here")
	if err != nil || len(ids) != 0 {
		t.Errorf("期望空集合，实际 %v (%v)", ids, err)
	}
}

// ── SetReferences 测试 ──

func TestReferenceService_SetReferences_RoundTripAndClear(t *testing.T) {
	svc, _ := setupReferenceFixture()
	ctx := context.Background()

	if err := svc.SetReferences(ctx, update101, []uint{1, 2, 3}); err != nil {
		t.Fatalf("SetReferences 应成功: %v", err)
	}
	todos, _ := svc.ReferencesForContainer(ctx, update101)
	var ids []uint
	for _, td := range todos {
		ids = append(ids, td.ID)
	}
	// 按创建时间倒序
	if fmt.Sprint(ids) != "[3 2 1]" {
		t.Errorf("期望 [3 2 1]，实际 %v", ids)
	}

	if err := svc.SetReferences(ctx, update101, nil); err != nil {
		t.Fatalf("清空应成功: %v", err)
	}
	todos, _ = svc.ReferencesForContainer(ctx, update101)
	if len(todos) != 0 {
		t.Errorf("期望清空后无引用，实际 %d", len(todos))
	}
}

func TestReferenceService_SetReferences_Idempotent(t *testing.T) {
	svc, m := setupReferenceFixture()
	ctx := context.Background()

	_ = svc.SetReferences(ctx, update101, []uint{2, 1})
	first := fmt.Sprint(m.refs.links[update101])
	_ = svc.SetReferences(ctx, update101, []uint{2, 1})
	second := fmt.Sprint(m.refs.links[update101])

	if first != second {
		t.Errorf("期望两次写入结果一致，第一次 %s 第二次 %s", first, second)
	}
}

func TestReferenceService_SetReferences_SkipsForeignTodo(t *testing.T) {
	svc, m := setupReferenceFixture()

	if err := svc.SetReferences(context.Background(), update101, []uint{1, 4}); err != nil {
		t.Fatalf("SetReferences 应成功: %v", err)
	}
	if fmt.Sprint(m.refs.links[update101]) != "[1]" {
		t.Errorf("期望仅保留同一论文的待办，实际 %v", m.refs.links[update101])
	}
}

func TestReferenceService_SetReferences_StorageErrorPropagates(t *testing.T) {
	svc, m := setupReferenceFixture()
	ctx := context.Background()
	_ = svc.SetReferences(ctx, update101, []uint{1})

	m.refs.failOn = true
	err := svc.SetReferences(ctx, update101, []uint{2, 3})
	if !errors.Is(err, errStorage) {
		t.Errorf("期望存储错误向上传递，实际: %v", err)
	}
	if fmt.Sprint(m.refs.links[update101]) != "[1]" {
		t.Errorf("期望失败后保持原链接，实际 %v", m.refs.links[update101])
	}
}

func TestReferenceService_SetReferences_UnknownContainer(t *testing.T) {
	svc, _ := setupReferenceFixture()

	err := svc.SetReferences(context.Background(), model.ContainerRef{Kind: model.ContainerUpdate, ID: 999}, []uint{1})
	if !errors.Is(err, ErrContainerNotFound) {
		t.Errorf("期望 ErrContainerNotFound，实际: %v", err)
	}
}

// ── Sync / ContainersReferencing 测试 ──

func TestReferenceService_Sync_ReplacesOnEdit(t *testing.T) {
	svc, m := setupReferenceFixture()
	ctx := context.Background()

	if _, err := svc.Sync(ctx, update101, "@todo:1 @todo:2"); err != nil {
		t.Fatalf("Sync 应成功: %v", err)
	}
	ids, err := svc.Sync(ctx, update101, "now only #todo-3")
	if err != nil {
		t.Fatalf("Sync 应成功: %v", err)
	}
	if fmt.Sprint(ids) != "[3]" || fmt.Sprint(m.refs.links[update101]) != "[3]" {
		t.Errorf("期望编辑后仅剩 [3]，实际 %v / %v", ids, m.refs.links[update101])
	}
}

func TestReferenceService_ContainersReferencing(t *testing.T) {
	svc, m := setupReferenceFixture()
	ctx := context.Background()
	m.notes.notes[201] = &model.MeetingNote{ID: 201, ThesisID: uintPtr(1), AuthorID: 20, Title: "Sync", Content: "talked about @todo:1"}

	_ = svc.SetReferences(ctx, update101, []uint{1})
	_ = svc.SetReferences(ctx, model.ContainerRef{Kind: model.ContainerMeetingNote, ID: 201}, []uint{1})

	containers, err := svc.ContainersReferencing(ctx, 1)
	if err != nil {
		t.Fatalf("ContainersReferencing 应成功: %v", err)
	}
	if len(containers) != 2 {
		t.Fatalf("期望 2 个引用容器，实际 %d", len(containers))
	}
	if containers[0].Kind != model.ContainerUpdate || containers[1].Kind != model.ContainerMeetingNote {
		t.Errorf("期望先进展后会议纪要，实际 %+v", containers)
	}

	if _, err := svc.ContainersReferencing(ctx, 999); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("期望 ErrTodoNotFound，实际: %v", err)
	}
}
