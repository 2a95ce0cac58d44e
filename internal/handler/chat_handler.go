// Package handler 提供 HTTP 请求处理器
// 本文件处理客户与管理员共用的会话接口
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/service"
)

// ChatHandler 会话请求处理器
type ChatHandler struct {
	chatSvc service.ConversationService
}

// NewChatHandler 创建会话处理器
func NewChatHandler(chatSvc service.ConversationService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// GetOrCreateConversation 获取或创建客户的活跃会话
// GET /api/chat/conversation/:customerId
// GET /api/chat/admin/conversation/:customerId
func (h *ChatHandler) GetOrCreateConversation(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	conversation, err := h.chatSvc.GetOrCreateConversation(c.Request.Context(), identity, c.Param("customerId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, http.StatusOK, gin.H{"conversation": conversation})
}

// SendMessage 发送消息
// POST /api/chat/message
// 请求体: request.SendMessageRequest
func (h *ChatHandler) SendMessage(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	message, err := h.chatSvc.SendMessage(c.Request.Context(), identity, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, http.StatusCreated, gin.H{"message": message})
}

// DeleteMessage 删除自己发送的消息
// DELETE /api/chat/message/:messageId
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	deleted, err := h.chatSvc.DeleteMessage(c.Request.Context(), identity, c.Param("messageId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, http.StatusOK, gin.H{
		"conversationId": deleted.ConversationId,
		"messageId":      deleted.MessageId,
	})
}

// GetMessages 分页获取消息
// GET /api/chat/messages/:conversationId?page=1&limit=50
func (h *ChatHandler) GetMessages(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req request.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	list, err := h.chatSvc.GetMessages(c.Request.Context(), identity, c.Param("conversationId"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, http.StatusOK, gin.H{
		"conversation": list.Conversation,
		"messages":     list.Messages,
		"pagination":   list.Pagination,
	})
}

// MarkAsRead 标记对方消息为已读
// PUT /api/chat/read/:conversationId
func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	result, err := h.chatSvc.MarkAsRead(c.Request.Context(), identity, c.Param("conversationId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, http.StatusOK, gin.H{
		"message":         "消息已标记为已读",
		"messagesUpdated": result.MessagesUpdated,
	})
}
