// Package router 提供 HTTP 路由注册
// 本文件定义客户与管理员共用的会话路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes 注册会话路由（需要认证）
// 访问权限由 Service 层按会话归属校验
func (rt *Router) RegisterChatRoutes(rg *gin.RouterGroup) {
	rg.GET("/conversation/:customerId", rt.handlers.Chat.GetOrCreateConversation) // 获取或创建活跃会话
	rg.POST("/message", rt.handlers.Chat.SendMessage)                             // 发送消息
	rg.DELETE("/message/:messageId", rt.handlers.Chat.DeleteMessage)              // 删除自己的消息
	rg.GET("/messages/:conversationId", rt.handlers.Chat.GetMessages)             // 分页获取消息
	rg.PUT("/read/:conversationId", rt.handlers.Chat.MarkAsRead)                  // 标记已读
}
