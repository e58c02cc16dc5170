package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/model"
	"superviseme/backend/internal/service"
	"superviseme/backend/pkg/response"
)

// ContentHandler 进展、会议纪要及其待办引用
type ContentHandler struct {
	contentSvc   service.ContentService
	referenceSvc service.ReferenceService
}

// NewContentHandler 创建 ContentHandler
func NewContentHandler(contentSvc service.ContentService, referenceSvc service.ReferenceService) *ContentHandler {
	return &ContentHandler{contentSvc: contentSvc, referenceSvc: referenceSvc}
}

// ── 进展 ──

// CreateUpdate 发布进展 / 反馈 / 评论
// POST /api/v1/theses/:id/updates
func (h *ContentHandler) CreateUpdate(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	thesisID, ok := MustParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.contentSvc.CreateUpdate(c.Request.Context(), actor, thesisID, &req)
	if err != nil {
		h.handleContentError(c, err)
		return
	}
	response.Created(c, resp)
}

// EditUpdate 编辑进展，引用随内容重新计算
// PUT /api/v1/updates/:id
func (h *ContentHandler) EditUpdate(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := MustParseID(c, "id")
	if !ok {
		return
	}

	var req dto.EditUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.contentSvc.EditUpdate(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.handleContentError(c, err)
		return
	}
	response.OK(c, resp)
}

// UpdateReferences 进展引用的待办
// GET /api/v1/updates/:id/references
func (h *ContentHandler) UpdateReferences(c *gin.Context) {
	h.listReferences(c, model.ContainerUpdate)
}

// ── 会议纪要 ──

// CreateMeetingNote 创建会议纪要
// POST /api/v1/meeting-notes
func (h *ContentHandler) CreateMeetingNote(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateMeetingNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.contentSvc.CreateMeetingNote(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleContentError(c, err)
		return
	}
	response.Created(c, resp)
}

// EditMeetingNote 编辑会议纪要
// PUT /api/v1/meeting-notes/:id
func (h *ContentHandler) EditMeetingNote(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := MustParseID(c, "id")
	if !ok {
		return
	}

	var req dto.EditMeetingNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.contentSvc.EditMeetingNote(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.handleContentError(c, err)
		return
	}
	response.OK(c, resp)
}

// MeetingNoteReferences 会议纪要引用的待办
// GET /api/v1/meeting-notes/:id/references
func (h *ContentHandler) MeetingNoteReferences(c *gin.Context) {
	h.listReferences(c, model.ContainerMeetingNote)
}

func (h *ContentHandler) listReferences(c *gin.Context, kind string) {
	id, ok := MustParseID(c, "id")
	if !ok {
		return
	}

	todos, err := h.referenceSvc.ReferencesForContainer(c.Request.Context(), model.ContainerRef{Kind: kind, ID: id})
	if err != nil {
		h.handleContentError(c, err)
		return
	}
	response.OK(c, service.ToTodoBriefs(todos))
}

func (h *ContentHandler) handleContentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrThesisNotFound):
		response.NotFound(c, 34001, "论文不存在")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 32001, "科研项目不存在")
	case errors.Is(err, service.ErrContainerNotFound):
		response.NotFound(c, 32002, "进展或会议纪要不存在")
	case errors.Is(err, service.ErrNotContentAuthor):
		response.Forbidden(c, 32003, "只能编辑自己发布的内容")
	case errors.Is(err, service.ErrInvalidWorkspace):
		response.BadRequest(c, 32004, "thesis_id 与 project_id 必须且只能指定一个")
	case errors.Is(err, service.ErrParentUpdateInvalid):
		response.BadRequest(c, 32005, "回复的进展不存在或不属于该论文")
	case errors.Is(err, service.ErrFeedbackNotAllowed):
		response.Forbidden(c, 32006, "只有该论文的导师可以发布反馈")
	default:
		response.InternalError(c)
	}
}
