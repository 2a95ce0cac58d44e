// Package router 提供 HTTP 路由注册
// 本文件定义管理员相关的路由
package router

import (
	"github.com/gin-gonic/gin"

	"support_chat_server/internal/infrastructure/middleware"
)

// RegisterAdminRoutes 注册管理员相关路由（需要认证）
// 这些接口只能由管理员调用
func (rt *Router) RegisterAdminRoutes(rg *gin.RouterGroup) {
	adminGroup := rg.Group("/admin", middleware.RequireAdmin())
	{
		adminGroup.GET("/conversations", rt.handlers.Admin.GetAllConversations)               // 分页查询会话
		adminGroup.GET("/conversation/:customerId", rt.handlers.Chat.GetOrCreateConversation) // 为客户打开会话
		adminGroup.PUT("/close/:conversationId", rt.handlers.Admin.CloseConversation)         // 关闭会话
		adminGroup.GET("/stats", rt.handlers.Admin.GetChatStats)                              // 会话统计
	}
}
