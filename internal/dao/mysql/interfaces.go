// Package mysql 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的子包中
package mysql

import (
	"context"
	"time"

	"support_chat_server/internal/model"
)

// ==================== Repository 接口定义 ====================

// ConversationRepository 会话数据访问接口
type ConversationRepository interface {
	// FindByConversationId 根据会话 id 查找会话
	FindByConversationId(ctx context.Context, conversationId string) (*model.Conversation, error)
	// FindActiveByCustomerId 查找客户当前的活跃会话
	FindActiveByCustomerId(ctx context.Context, customerId string) (*model.Conversation, error)
	// Create 创建会话，活跃会话唯一索引冲突时返回错误
	Create(ctx context.Context, conversation *model.Conversation) error
	// ApplyNewMessage 记录新消息：更新摘要和时间，并原子递增接收方未读数
	// 仅对 active 会话生效，返回受影响行数
	ApplyNewMessage(ctx context.Context, conversationId, preview string, at time.Time, recipient model.Role) (int64, error)
	// SubtractUnread 指定角色的未读数减去 n，最小为 0
	SubtractUnread(ctx context.Context, conversationId string, reader model.Role, n int64) error
	// UpdateLastMessage 覆盖会话的最近消息摘要
	UpdateLastMessage(ctx context.Context, conversationId, preview string, at time.Time) error
	// Close 关闭会话并释放活跃会话唯一键，返回受影响行数
	Close(ctx context.Context, conversationId string) (int64, error)
	// List 按最近消息时间倒序分页查询，status 为空表示全部
	List(ctx context.Context, status string, offset, limit int) ([]model.Conversation, int64, error)
	// CountByStatus 统计会话数量，status 为空表示全部
	CountByStatus(ctx context.Context, status string) (int64, error)
	// SumUnreadAdmin 汇总所有会话的客服未读数
	SumUnreadAdmin(ctx context.Context) (int64, error)
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	// Create 创建消息
	Create(ctx context.Context, message *model.Message) error
	// FindByMessageId 根据消息 id 查找消息
	FindByMessageId(ctx context.Context, messageId string) (*model.Message, error)
	// FindPage 按创建时间倒序分页查询未删除的消息
	FindPage(ctx context.Context, conversationId string, offset, limit int) ([]model.Message, error)
	// CountVisible 统计会话内未删除的消息数量
	CountVisible(ctx context.Context, conversationId string) (int64, error)
	// FindLatestVisible 查询会话内最新一条未删除的消息
	FindLatestVisible(ctx context.Context, conversationId string) (*model.Message, error)
	// MarkRead 将会话内非 readerSenderId 发送的未读可见消息标记为已读，返回更新条数
	MarkRead(ctx context.Context, conversationId, readerSenderId string, at time.Time) (int64, error)
	// SoftDelete 设置删除标记
	SoftDelete(ctx context.Context, messageId string) error
	// CountAll 统计全部未删除消息数量
	CountAll(ctx context.Context) (int64, error)
}

// CustomerRepository 客户资料只读访问接口
type CustomerRepository interface {
	// FindByCustomerId 根据客户 id 查找客户
	FindByCustomerId(ctx context.Context, customerId string) (*model.Customer, error)
	// FindByCustomerIds 批量查找客户
	FindByCustomerIds(ctx context.Context, customerIds []string) ([]model.Customer, error)
}
