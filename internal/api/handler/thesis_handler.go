package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/service"
	"superviseme/backend/pkg/response"
)

// ThesisHandler 论文状态
type ThesisHandler struct {
	thesisSvc service.ThesisService
}

// NewThesisHandler 创建 ThesisHandler
func NewThesisHandler(thesisSvc service.ThesisService) *ThesisHandler {
	return &ThesisHandler{thesisSvc: thesisSvc}
}

// ChangeStatus 变更论文状态
// PUT /api/v1/theses/:id/status
func (h *ThesisHandler) ChangeStatus(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ChangeThesisStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.thesisSvc.ChangeStatus(c.Request.Context(), actorID, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrThesisNotFound):
			response.NotFound(c, 34001, "论文不存在")
		case errors.Is(err, service.ErrInvalidThesisStatus):
			response.BadRequest(c, 34002, "无效的论文状态")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, resp)
}
