// Package handler 提供 HTTP 请求处理器
// 本文件处理管理员专用接口，路由层已挂载 RequireAdmin
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/service"
)

// AdminHandler 管理员请求处理器
type AdminHandler struct {
	chatSvc service.ConversationService
}

// NewAdminHandler 创建管理员处理器
func NewAdminHandler(chatSvc service.ConversationService) *AdminHandler {
	return &AdminHandler{chatSvc: chatSvc}
}

// GetAllConversations 分页查询会话
// GET /api/chat/admin/conversations?page=1&limit=20&status=all
func (h *AdminHandler) GetAllConversations(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req request.ConversationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	list, err := h.chatSvc.GetAllConversations(c.Request.Context(), identity, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, http.StatusOK, gin.H{
		"conversations": list.Conversations,
		"pagination":    list.Pagination,
	})
}

// CloseConversation 关闭会话
// PUT /api/chat/admin/close/:conversationId
func (h *AdminHandler) CloseConversation(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	conversation, err := h.chatSvc.CloseConversation(c.Request.Context(), identity, c.Param("conversationId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, http.StatusOK, gin.H{"conversation": conversation})
}

// GetChatStats 会话统计
// GET /api/chat/admin/stats
func (h *AdminHandler) GetChatStats(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	stats, err := h.chatSvc.GetChatStats(c.Request.Context(), identity)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, http.StatusOK, gin.H{"stats": stats})
}
