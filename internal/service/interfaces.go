// Package service 定义业务层接口
// 本文件定义 Service 接口，供 Handler 层和 WebSocket 网关调用
package service

import (
	"context"

	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/dto/respond"
	"support_chat_server/internal/model"
)

// ConversationService 客服会话业务接口
// 所有方法的 identity 都已由认证中间件校验
type ConversationService interface {
	// GetOrCreateConversation 获取或创建客户的活跃会话
	GetOrCreateConversation(ctx context.Context, identity model.Identity, customerId string) (*respond.ConversationRespond, error)
	// SendMessage 发送消息
	SendMessage(ctx context.Context, identity model.Identity, req request.SendMessageRequest) (*respond.MessageRespond, error)
	// DeleteMessage 发送者软删除消息
	DeleteMessage(ctx context.Context, identity model.Identity, messageId string) (*respond.MessageDeletedRespond, error)
	// GetMessages 分页获取消息（结果按时间正序）
	GetMessages(ctx context.Context, identity model.Identity, conversationId string, req request.PageRequest) (*respond.MessageListRespond, error)
	// MarkAsRead 标记对方消息已读
	MarkAsRead(ctx context.Context, identity model.Identity, conversationId string) (*respond.MarkReadRespond, error)
	// GetAllConversations 管理员分页查询会话
	GetAllConversations(ctx context.Context, identity model.Identity, req request.ConversationListRequest) (*respond.ConversationListRespond, error)
	// CloseConversation 管理员关闭会话
	CloseConversation(ctx context.Context, identity model.Identity, conversationId string) (*respond.ConversationRespond, error)
	// GetChatStats 管理员统计
	GetChatStats(ctx context.Context, identity model.Identity) (*respond.ChatStatsRespond, error)
	// NotifyTyping 广播输入状态
	NotifyTyping(ctx context.Context, identity model.Identity, conversationId string, isTyping bool) error
	// CheckAccess 校验会话访问权限
	CheckAccess(ctx context.Context, identity model.Identity, conversationId string) error
}
