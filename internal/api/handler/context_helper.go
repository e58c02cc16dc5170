package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"superviseme/backend/internal/service"
	"superviseme/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return id, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetActor 提取当前操作者（ID + 角色）
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{ID: id, Role: role}, true
}

// MustParseID 解析路径参数中的数字 ID，失败时写入 400
func MustParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, 10001, name+" 参数无效")
		return 0, false
	}
	return uint(id), true
}
