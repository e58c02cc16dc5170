package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"superviseme/backend/internal/model"
	"superviseme/backend/internal/repository"
)

// previewRunes 通知预览截取的字符数
const previewRunes = 100

// Preview 取前 100 个字符并固定追加省略号
func Preview(text string) string {
	r := []rune(text)
	if len(r) > previewRunes {
		r = r[:previewRunes]
	}
	return string(r) + "..."
}

// NotificationEvents 领域事件到通知的映射
// 返回创建的通知条数；只有存储错误会返回 error
type NotificationEvents interface {
	// OnUpdatePosted 学生发布进展：通知论文的全部导师，发布者本人除外
	OnUpdatePosted(ctx context.Context, update *model.ThesisUpdate) (int, error)
	// OnFeedbackPosted 导师发布反馈：通知论文作者，无作者或作者本人发布时不通知
	OnFeedbackPosted(ctx context.Context, update *model.ThesisUpdate) (int, error)
	// OnTodoAssigned 待办被指派：通知被指派人，自己指派给自己时不通知
	OnTodoAssigned(ctx context.Context, todo *model.Todo, actorID uint) (int, error)
	// OnThesisStatusChanged 论文状态变更：通知作者与导师，操作者本人除外
	OnThesisStatusChanged(ctx context.Context, thesis *model.Thesis, oldStatus string, actorID uint) (int, error)
	// OnMeetingNotePosted 会议纪要：通知工作区内的另一方，操作者本人除外
	OnMeetingNotePosted(ctx context.Context, note *model.MeetingNote) (int, error)
}

type notificationEvents struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewNotificationEvents 创建 NotificationEvents 实例
func NewNotificationEvents(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) NotificationEvents {
	return &notificationEvents{repo: repo, notifier: notifier, logger: logger}
}

func (e *notificationEvents) OnUpdatePosted(ctx context.Context, update *model.ThesisUpdate) (int, error) {
	thesis, err := e.thesis(ctx, update.ThesisID)
	if err != nil || thesis == nil {
		return 0, err
	}
	supervisors, err := e.repo.Thesis.ListSupervisorIDs(ctx, thesis.ID)
	if err != nil {
		return 0, err
	}

	actorID := update.AuthorID
	params := NotifyParams{
		ActorID:   &actorID,
		ThesisID:  &thesis.ID,
		Type:      model.NotificationNewUpdate,
		Title:     fmt.Sprintf("New update on %q", thesis.Title),
		Message:   Preview(update.Content),
		ActionURL: thesisURL(thesis.ID),
	}
	return e.fanOut(ctx, without(supervisors, actorID), params)
}

func (e *notificationEvents) OnFeedbackPosted(ctx context.Context, update *model.ThesisUpdate) (int, error) {
	thesis, err := e.thesis(ctx, update.ThesisID)
	if err != nil || thesis == nil {
		return 0, err
	}
	if thesis.AuthorID == nil || *thesis.AuthorID == update.AuthorID {
		return 0, nil
	}

	actorID := update.AuthorID
	params := NotifyParams{
		ActorID:   &actorID,
		ThesisID:  &thesis.ID,
		Type:      model.NotificationNewFeedback,
		Title:     fmt.Sprintf("New feedback on %q", thesis.Title),
		Message:   Preview(update.Content),
		ActionURL: thesisURL(thesis.ID),
	}
	return e.fanOut(ctx, []uint{*thesis.AuthorID}, params)
}

func (e *notificationEvents) OnTodoAssigned(ctx context.Context, todo *model.Todo, actorID uint) (int, error) {
	if todo.AssignedToID == nil {
		return 0, nil
	}

	body := todo.Description
	if body == "" {
		body = todo.Title
	}
	params := NotifyParams{
		ActorID:   &actorID,
		ThesisID:  todo.ThesisID,
		Type:      model.NotificationTodoAssigned,
		Title:     fmt.Sprintf("Todo assigned: %s", todo.Title),
		Message:   Preview(body),
		ActionURL: fmt.Sprintf("/todos/%d", todo.ID),
	}
	return e.fanOut(ctx, without([]uint{*todo.AssignedToID}, actorID), params)
}

func (e *notificationEvents) OnThesisStatusChanged(ctx context.Context, thesis *model.Thesis, oldStatus string, actorID uint) (int, error) {
	supervisors, err := e.repo.Thesis.ListSupervisorIDs(ctx, thesis.ID)
	if err != nil {
		return 0, err
	}

	var recipients []uint
	if thesis.AuthorID != nil {
		recipients = append(recipients, *thesis.AuthorID)
	}
	recipients = append(recipients, supervisors...)
	recipients = without(recipients, actorID)

	params := NotifyParams{
		ActorID:   &actorID,
		ThesisID:  &thesis.ID,
		Type:      model.NotificationThesisStatusChange,
		Title:     fmt.Sprintf("Thesis %q status changed", thesis.Title),
		Message:   fmt.Sprintf("Status changed from %s to %s", oldStatus, thesis.Status),
		ActionURL: thesisURL(thesis.ID),
	}
	return e.fanOut(ctx, recipients, params)
}

func (e *notificationEvents) OnMeetingNotePosted(ctx context.Context, note *model.MeetingNote) (int, error) {
	actorID := note.AuthorID
	params := NotifyParams{
		ActorID: &actorID,
		Type:    model.NotificationMeetingNote,
		Message: Preview(note.Content),
	}

	var recipients []uint
	switch {
	case note.ThesisID != nil:
		thesis, err := e.thesis(ctx, *note.ThesisID)
		if err != nil || thesis == nil {
			return 0, err
		}
		supervisors, err := e.repo.Thesis.ListSupervisorIDs(ctx, thesis.ID)
		if err != nil {
			return 0, err
		}
		if thesis.AuthorID != nil && *thesis.AuthorID == note.AuthorID {
			recipients = supervisors
		} else if thesis.AuthorID != nil {
			recipients = []uint{*thesis.AuthorID}
		}
		params.ThesisID = &thesis.ID
		params.Title = fmt.Sprintf("New meeting note on %q", thesis.Title)
		params.ActionURL = thesisURL(thesis.ID)
	case note.ProjectID != nil:
		project, err := e.repo.Project.GetByID(ctx, *note.ProjectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, nil
			}
			return 0, err
		}
		members, err := e.repo.Project.ListMemberIDs(ctx, project.ID)
		if err != nil {
			return 0, err
		}
		recipients = members
		params.Title = fmt.Sprintf("New meeting note on %q", project.Title)
		params.ActionURL = fmt.Sprintf("/projects/%d", project.ID)
	default:
		return 0, nil
	}

	return e.fanOut(ctx, without(recipients, note.AuthorID), params)
}

// fanOut 为每个接收者（去重）创建一条通知；遇到存储错误立即返回
func (e *notificationEvents) fanOut(ctx context.Context, recipients []uint, params NotifyParams) (int, error) {
	seen := make(map[uint]bool, len(recipients))
	created := 0
	for _, uid := range recipients {
		if uid == 0 || seen[uid] {
			continue
		}
		seen[uid] = true

		p := params
		p.UserID = uid
		if _, err := e.notifier.Notify(ctx, p); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// thesis 论文不存在时返回 (nil, nil)，由调用方视为无需通知
func (e *notificationEvents) thesis(ctx context.Context, id uint) (*model.Thesis, error) {
	thesis, err := e.repo.Thesis.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			e.logger.Debug("论文不存在，跳过通知", zap.Uint("thesis_id", id))
			return nil, nil
		}
		return nil, err
	}
	return thesis, nil
}

func without(ids []uint, exclude uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}

func thesisURL(id uint) string {
	return fmt.Sprintf("/theses/%d", id)
}
