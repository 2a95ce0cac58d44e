// Package mysql 提供 Repository 层聚合与构造
package mysql

import (
	"context"

	"gorm.io/gorm"

	"support_chat_server/internal/dao/mysql/conversation"
	"support_chat_server/internal/dao/mysql/customer"
	"support_chat_server/internal/dao/mysql/message"
)

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db           *gorm.DB               // GORM 数据库实例，为 nil 时不支持真实事务
	Conversation ConversationRepository // 会话 Repository
	Message      MessageRepository      // 消息 Repository
	Customer     CustomerRepository     // 客户 Repository
}

// NewRepositories 基于 GORM 实例创建所有 Repository
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		Conversation: conversation.NewConversationRepository(db),
		Message:      message.NewMessageRepository(db),
		Customer:     customer.NewCustomerRepository(db),
	}
}

// Transaction 在数据库事务中执行函数
// 事务内的所有操作要么全部成功，要么全部回滚
// 未绑定数据库（例如内存实现）时直接在当前 Repositories 上执行 fn
func (r *Repositories) Transaction(ctx context.Context, fn func(txRepos *Repositories) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// DB 返回底层 GORM 实例
func (r *Repositories) DB() *gorm.DB {
	return r.db
}
