// Package model 定义数据库实体模型
// 本文件定义客服会话模型
package model

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// 会话状态
const (
	ConversationActive = "active"
	ConversationClosed = "closed"
)

// Conversation 客服会话模型
// 对应数据库 conversation 表，一个客户同一时间最多只有一个 active 会话
type Conversation struct {
	gorm.Model

	// ConversationId 会话唯一标识
	// 格式：chat_<customerId>_<创建时间毫秒>，创建后不可修改
	ConversationId string `gorm:"column:conversation_id;uniqueIndex;type:varchar(96);not null;comment:会话id"`

	// CustomerId 会话所属客户
	CustomerId string `gorm:"column:customer_id;index;type:varchar(64);not null;comment:客户id"`

	// Status 会话状态：active / closed
	Status string `gorm:"column:status;index;type:varchar(10);not null;default:active;comment:会话状态"`

	// ActiveKey 活跃会话唯一键
	// 会话 active 时等于 CustomerId，关闭时置为 NULL
	// 唯一索引保证同一客户最多一个活跃会话（NULL 不参与唯一约束）
	ActiveKey sql.NullString `gorm:"column:active_key;uniqueIndex;type:varchar(64);comment:活跃会话唯一键"`

	// LastMessage 最近一条消息内容摘要，用于会话列表展示
	LastMessage string `gorm:"column:last_message;type:TEXT;comment:最新的消息"`

	// LastMessageAt 最近一条消息时间，用于会话列表排序
	LastMessageAt time.Time `gorm:"column:last_message_at;index;comment:最近消息时间"`

	// UnreadCountAdmin 客服侧未读数（客户发送、客服未读）
	UnreadCountAdmin int `gorm:"column:unread_count_admin;not null;default:0;comment:客服未读数"`

	// UnreadCountClient 客户侧未读数（客服发送、客户未读）
	UnreadCountClient int `gorm:"column:unread_count_client;not null;default:0;comment:客户未读数"`
}

// TableName 指定表名
func (Conversation) TableName() string {
	return "conversation"
}

// IsActive 会话是否处于活跃状态
func (c *Conversation) IsActive() bool {
	return c.Status == ConversationActive
}
