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

// ── 内容模块业务错误 ──

var (
	ErrThesisNotFound      = errors.New("论文不存在")
	ErrProjectNotFound     = errors.New("科研项目不存在")
	ErrNotContentAuthor    = errors.New("只能编辑自己发布的内容")
	ErrInvalidWorkspace    = errors.New("thesis_id 与 project_id 必须且只能指定一个")
	ErrParentUpdateInvalid = errors.New("回复的进展不存在或不属于该论文")
	ErrFeedbackNotAllowed  = errors.New("只有该论文的导师可以发布反馈")
)

// Actor 当前操作者
type Actor struct {
	ID   uint
	Role string
}

// ContentService 进展与会议纪要业务接口
// 保存内容与引用在同一事务中完成；提交后再触发通知，通知失败不影响保存结果
type ContentService interface {
	CreateUpdate(ctx context.Context, actor Actor, thesisID uint, req *dto.CreateUpdateRequest) (*dto.UpdateResponse, error)
	EditUpdate(ctx context.Context, actor Actor, updateID uint, req *dto.EditUpdateRequest) (*dto.UpdateResponse, error)
	CreateMeetingNote(ctx context.Context, actor Actor, req *dto.CreateMeetingNoteRequest) (*dto.MeetingNoteResponse, error)
	EditMeetingNote(ctx context.Context, actor Actor, noteID uint, req *dto.EditMeetingNoteRequest) (*dto.MeetingNoteResponse, error)
}

type contentService struct {
	repo   *repository.Repository
	events NotificationEvents
	logger *zap.Logger
}

// NewContentService 创建 ContentService 实例
func NewContentService(repo *repository.Repository, events NotificationEvents, logger *zap.Logger) ContentService {
	return &contentService{repo: repo, events: events, logger: logger}
}

// ────────────────────── 进展 ──────────────────────

func (s *contentService) CreateUpdate(ctx context.Context, actor Actor, thesisID uint, req *dto.CreateUpdateRequest) (*dto.UpdateResponse, error) {
	thesis, err := s.repo.Thesis.GetByID(ctx, thesisID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrThesisNotFound
		}
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.repo.Update.GetByID(ctx, *req.ParentID)
		if err != nil || parent.ThesisID != thesisID {
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			return nil, ErrParentUpdateInvalid
		}
	}

	supervisors, err := s.repo.Thesis.ListSupervisorIDs(ctx, thesisID)
	if err != nil {
		return nil, err
	}
	isSupervisor := containsID(supervisors, actor.ID)
	if req.UpdateType == model.UpdateTypeFeedback && !isSupervisor {
		return nil, ErrFeedbackNotAllowed
	}

	update := &model.ThesisUpdate{
		ThesisID:   thesisID,
		AuthorID:   actor.ID,
		ParentID:   req.ParentID,
		UpdateType: updateTypeFor(isSupervisor, req),
		Content:    req.Content,
	}

	var refs []model.Todo
	err = s.inTx(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Update.Create(ctx, update); err != nil {
			return err
		}
		container := model.ContainerRef{Kind: model.ContainerUpdate, ID: update.ID}
		if _, err := NewReferenceService(txRepo, s.logger).Sync(ctx, container, update.Content); err != nil {
			return err
		}
		refs, err = txRepo.Reference.ListTodos(ctx, container)
		return err
	})
	if err != nil {
		s.logger.Error("发布进展失败", zap.Uint("thesis_id", thesisID), zap.Uint("author_id", actor.ID), zap.Error(err))
		return nil, err
	}

	s.fireUpdateEvent(ctx, thesis, update)
	return toUpdateResponse(update, refs), nil
}

func (s *contentService) EditUpdate(ctx context.Context, actor Actor, updateID uint, req *dto.EditUpdateRequest) (*dto.UpdateResponse, error) {
	update, err := s.repo.Update.GetByID(ctx, updateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContainerNotFound
		}
		return nil, err
	}
	if update.AuthorID != actor.ID {
		return nil, ErrNotContentAuthor
	}

	update.Content = req.Content
	var refs []model.Todo
	err = s.inTx(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Update.UpdateContent(ctx, update.ID, update.Content); err != nil {
			return err
		}
		container := model.ContainerRef{Kind: model.ContainerUpdate, ID: update.ID}
		if _, err := NewReferenceService(txRepo, s.logger).Sync(ctx, container, update.Content); err != nil {
			return err
		}
		refs, err = txRepo.Reference.ListTodos(ctx, container)
		return err
	})
	if err != nil {
		s.logger.Error("编辑进展失败", zap.Uint("update_id", updateID), zap.Error(err))
		return nil, err
	}
	return toUpdateResponse(update, refs), nil
}

// fireUpdateEvent 按发布者与论文的关系选择通知：作者发布的通知导师，其他人发布的通知作者
func (s *contentService) fireUpdateEvent(ctx context.Context, thesis *model.Thesis, update *model.ThesisUpdate) {
	var (
		n   int
		err error
	)
	if thesis.AuthorID != nil && *thesis.AuthorID == update.AuthorID {
		n, err = s.events.OnUpdatePosted(ctx, update)
	} else {
		n, err = s.events.OnFeedbackPosted(ctx, update)
	}
	if err != nil {
		s.logger.Error("发送进展通知失败", zap.Uint("update_id", update.ID), zap.Error(err))
		return
	}
	s.logger.Debug("进展通知已创建", zap.Uint("update_id", update.ID), zap.Int("count", n))
}

func updateTypeFor(isSupervisor bool, req *dto.CreateUpdateRequest) string {
	switch {
	case req.UpdateType != "":
		return req.UpdateType
	case req.ParentID != nil:
		return model.UpdateTypeComment
	case isSupervisor:
		return model.UpdateTypeFeedback
	}
	return model.UpdateTypeProgress
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ────────────────────── 会议纪要 ──────────────────────

func (s *contentService) CreateMeetingNote(ctx context.Context, actor Actor, req *dto.CreateMeetingNoteRequest) (*dto.MeetingNoteResponse, error) {
	if (req.ThesisID == nil) == (req.ProjectID == nil) {
		return nil, ErrInvalidWorkspace
	}
	if req.ThesisID != nil {
		if _, err := s.repo.Thesis.GetByID(ctx, *req.ThesisID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrThesisNotFound
			}
			return nil, err
		}
	} else {
		if _, err := s.repo.Project.GetByID(ctx, *req.ProjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, err
		}
	}

	note := &model.MeetingNote{
		ThesisID:  req.ThesisID,
		ProjectID: req.ProjectID,
		AuthorID:  actor.ID,
		Title:     req.Title,
		Content:   req.Content,
	}

	var refs []model.Todo
	err := s.inTx(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.MeetingNote.Create(ctx, note); err != nil {
			return err
		}
		container := model.ContainerRef{Kind: model.ContainerMeetingNote, ID: note.ID}
		if _, err := NewReferenceService(txRepo, s.logger).Sync(ctx, container, note.Content); err != nil {
			return err
		}
		var err error
		refs, err = txRepo.Reference.ListTodos(ctx, container)
		return err
	})
	if err != nil {
		s.logger.Error("创建会议纪要失败", zap.Uint("author_id", actor.ID), zap.Error(err))
		return nil, err
	}

	if n, err := s.events.OnMeetingNotePosted(ctx, note); err != nil {
		s.logger.Error("发送会议纪要通知失败", zap.Uint("note_id", note.ID), zap.Error(err))
	} else {
		s.logger.Debug("会议纪要通知已创建", zap.Uint("note_id", note.ID), zap.Int("count", n))
	}
	return toMeetingNoteResponse(note, refs), nil
}

func (s *contentService) EditMeetingNote(ctx context.Context, actor Actor, noteID uint, req *dto.EditMeetingNoteRequest) (*dto.MeetingNoteResponse, error) {
	note, err := s.repo.MeetingNote.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContainerNotFound
		}
		return nil, err
	}
	if note.AuthorID != actor.ID {
		return nil, ErrNotContentAuthor
	}

	if req.Title != "" {
		note.Title = req.Title
	}
	note.Content = req.Content

	var refs []model.Todo
	err = s.inTx(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.MeetingNote.UpdateContent(ctx, note.ID, note.Title, note.Content); err != nil {
			return err
		}
		container := model.ContainerRef{Kind: model.ContainerMeetingNote, ID: note.ID}
		if _, err := NewReferenceService(txRepo, s.logger).Sync(ctx, container, note.Content); err != nil {
			return err
		}
		refs, err = txRepo.Reference.ListTodos(ctx, container)
		return err
	})
	if err != nil {
		s.logger.Error("编辑会议纪要失败", zap.Uint("note_id", noteID), zap.Error(err))
		return nil, err
	}
	return toMeetingNoteResponse(note, refs), nil
}

// inTx 在事务中执行 fn；mock 聚合没有数据库连接时直接使用原 Repository
func (s *contentService) inTx(ctx context.Context, fn func(txRepo *repository.Repository) error) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(s.repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}
	if tx != nil {
		return tx.Commit().Error
	}
	return nil
}

// ── 响应转换 ──

func toUpdateResponse(u *model.ThesisUpdate, refs []model.Todo) *dto.UpdateResponse {
	return &dto.UpdateResponse{
		ID:         u.ID,
		ThesisID:   u.ThesisID,
		AuthorID:   u.AuthorID,
		ParentID:   u.ParentID,
		UpdateType: u.UpdateType,
		Content:    u.Content,
		References: ToTodoBriefs(refs),
		CreatedAt:  u.CreatedAt.Format(timeLayout),
		UpdatedAt:  u.UpdatedAt.Format(timeLayout),
	}
}

func toMeetingNoteResponse(n *model.MeetingNote, refs []model.Todo) *dto.MeetingNoteResponse {
	return &dto.MeetingNoteResponse{
		ID:         n.ID,
		ThesisID:   n.ThesisID,
		ProjectID:  n.ProjectID,
		AuthorID:   n.AuthorID,
		Title:      n.Title,
		Content:    n.Content,
		References: ToTodoBriefs(refs),
		CreatedAt:  n.CreatedAt.Format(timeLayout),
		UpdatedAt:  n.UpdatedAt.Format(timeLayout),
	}
}

// ToTodoBriefs 转换为待办简要信息列表
func ToTodoBriefs(todos []model.Todo) []dto.TodoBrief {
	result := make([]dto.TodoBrief, 0, len(todos))
	for i := range todos {
		result = append(result, toTodoBrief(&todos[i]))
	}
	return result
}

func toTodoBrief(t *model.Todo) dto.TodoBrief {
	brief := dto.TodoBrief{
		ID:           t.ID,
		Title:        t.Title,
		Status:       t.Status,
		Priority:     t.Priority,
		AssignedToID: t.AssignedToID,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(dateLayout)
		brief.DueDate = &d
	}
	return brief
}
