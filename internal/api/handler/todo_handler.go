package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/service"
	"superviseme/backend/pkg/response"
)

// TodoHandler 待办指派与反向引用
type TodoHandler struct {
	todoSvc      service.TodoService
	referenceSvc service.ReferenceService
}

// NewTodoHandler 创建 TodoHandler
func NewTodoHandler(todoSvc service.TodoService, referenceSvc service.ReferenceService) *TodoHandler {
	return &TodoHandler{todoSvc: todoSvc, referenceSvc: referenceSvc}
}

// ReferencedBy 引用该待办的进展与会议纪要
// GET /api/v1/todos/:id/referenced-by
func (h *TodoHandler) ReferencedBy(c *gin.Context) {
	id, ok := MustParseID(c, "id")
	if !ok {
		return
	}

	list, err := h.referenceSvc.ContainersReferencing(c.Request.Context(), id)
	if err != nil {
		h.handleTodoError(c, err)
		return
	}
	response.OK(c, list)
}

// AssignTodo 指派或取消指派（assignee_id 为 null）
// PUT /api/v1/todos/:id/assignee
func (h *TodoHandler) AssignTodo(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AssignTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	brief, err := h.todoSvc.Assign(c.Request.Context(), actorID, id, req.AssigneeID)
	if err != nil {
		h.handleTodoError(c, err)
		return
	}
	response.OK(c, brief)
}

func (h *TodoHandler) handleTodoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTodoNotFound):
		response.NotFound(c, 33001, "待办不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.BadRequest(c, 33002, "被指派用户不存在")
	default:
		response.InternalError(c)
	}
}
