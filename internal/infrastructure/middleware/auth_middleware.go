package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"support_chat_server/internal/model"
	"support_chat_server/pkg/constants"
	"support_chat_server/pkg/errorx"
	"support_chat_server/pkg/util/jwt"
)

// AuthRequired JWT 认证中间件
// 优先读取 Cookie 中的 Token，没有时再读取 Authorization: Bearer
// 校验通过后把 model.Identity 存入上下文
func AuthRequired(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c, cookieName)
		if token == "" {
			abort(c, http.StatusUnauthorized, errorx.CodeUnauthorized, "请先登录")
			return
		}

		claims, err := jwt.ParseToken(token)
		if err != nil {
			zap.L().Debug("token 校验失败", zap.Error(err))
			// 清除失效的 Cookie，避免前端反复携带
			c.SetCookie(cookieName, "", -1, "/", "", false, true)
			abort(c, http.StatusUnauthorized, errorx.CodeUnauthorized, "Token 已过期或无效，请重新登录")
			return
		}

		identity := model.Identity{
			Id:    claims.Id,
			Role:  model.Role(claims.UserType),
			Email: claims.Email,
		}
		if identity.Id == "" {
			c.SetCookie(cookieName, "", -1, "/", "", false, true)
			abort(c, http.StatusUnauthorized, errorx.CodeUnauthorized, "Token 缺少用户信息")
			return
		}
		if !identity.Role.Valid() {
			abort(c, http.StatusForbidden, errorx.CodeForbidden, "未知的用户类型")
			return
		}

		c.Set(constants.CTX_IDENTITY, identity)
		c.Next()
	}
}

// RequireAdmin 仅允许管理员访问，需放在 AuthRequired 之后
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, errorx.CodeUnauthorized, "请先登录")
			return
		}
		if !identity.IsAdmin() {
			abort(c, http.StatusForbidden, errorx.CodeForbidden, "需要管理员权限")
			return
		}
		c.Next()
	}
}

// IdentityFrom 从上下文读取当前身份
func IdentityFrom(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(constants.CTX_IDENTITY)
	if !ok {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}

func tokenFromRequest(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func abort(c *gin.Context, status, code int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"code":    code,
		"message": msg,
	})
}
