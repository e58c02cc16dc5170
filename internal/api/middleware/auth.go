package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"superviseme/backend/internal/model"
	"superviseme/backend/pkg/jwt"
	"superviseme/backend/pkg/response"
)

// JWTAuth 校验 Authorization: Bearer <token> 并注入 user_id（uint）与 role
// 登录由外部认证层完成，这里只消费其签发的 Access Token
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, 10002, "缺少或无效的认证头")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Unauthorized(c, 10006, "Token 已过期")
			} else {
				response.Unauthorized(c, 10002, "Token 无效")
			}
			c.Abort()
			return
		}

		if claims.TokenType != "access" || claims.UserID == 0 || !model.ValidRole(claims.Role) {
			response.Unauthorized(c, 10002, "Token 声明无效")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RoleAuth 仅允许指定角色访问，需挂在 JWTAuth 之后
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}
		if !allowed[role] {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}
		c.Next()
	}
}
