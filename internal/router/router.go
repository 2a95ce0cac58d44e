// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"support_chat_server/internal/handler"
	"support_chat_server/internal/infrastructure/middleware"
	"support_chat_server/pkg/errorx"
)

// Router 路由管理器
type Router struct {
	handlers   *handler.Handlers
	cookieName string // 携带 JWT 的 Cookie 名称
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers, cookieName string) *Router {
	return &Router{
		handlers:   handlers,
		cookieName: cookieName,
	}
}

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	// 监控指标，无需认证
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 客服会话接口，全部需要认证
	chatGroup := r.Group("/api/chat", middleware.AuthRequired(rt.cookieName))
	{
		rt.RegisterChatRoutes(chatGroup)      // 客户与管理员共用
		rt.RegisterAdminRoutes(chatGroup)     // 管理员专用
		rt.RegisterWebSocketRoutes(chatGroup) // 实时推送
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"code":    errorx.CodeNotFound,
			"message": "接口不存在",
		})
	})
}
