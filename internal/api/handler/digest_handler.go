package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/service"
	"superviseme/backend/pkg/response"
)

// DigestController 周报调度器的管理入口
type DigestController interface {
	TriggerNow(ctx context.Context) *dto.DigestRunResult
	Reschedule(weekday, hour, minute int) error
	Status() dto.SchedulerStatus
}

// DigestHandler 周报管理（管理员）
type DigestHandler struct {
	scheduler DigestController
	digestSvc service.DigestService
}

// NewDigestHandler 创建 DigestHandler
func NewDigestHandler(scheduler DigestController, digestSvc service.DigestService) *DigestHandler {
	return &DigestHandler{scheduler: scheduler, digestSvc: digestSvc}
}

// Trigger 立即执行一次周报（不做按周去重），同步返回执行汇总
// POST /api/v1/admin/digest/trigger
func (h *DigestHandler) Trigger(c *gin.Context) {
	result := h.scheduler.TriggerNow(c.Request.Context())
	if !result.Success && result.Message == service.ErrDigestRunning.Error() {
		response.Conflict(c, 35001, result.Message)
		return
	}
	response.OK(c, result)
}

// Status 调度器状态；进程内尚无执行记录时从数据库补充上次执行
// GET /api/v1/admin/digest/status
func (h *DigestHandler) Status(c *gin.Context) {
	status := h.scheduler.Status()
	if status.LastRun == nil {
		last, err := h.digestSvc.LastRun(c.Request.Context())
		if err != nil {
			response.InternalError(c)
			return
		}
		status.LastRun = last
	}
	response.OK(c, status)
}

// Reschedule 调整每周执行时间
// PUT /api/v1/admin/digest/schedule
func (h *DigestHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.scheduler.Reschedule(*req.Weekday, *req.Hour, *req.Minute); err != nil {
		response.BadRequest(c, 35002, err.Error())
		return
	}
	response.OK(c, h.scheduler.Status())
}

// ExportMine 导出当前导师本周周报（Excel）
// GET /api/v1/digest/export
func (h *DigestHandler) ExportMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.digestSvc.ExportForSupervisor(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDigestNoStudents):
			response.NotFound(c, 35003, "暂无指导学生，无法生成周报")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20001, "用户不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
