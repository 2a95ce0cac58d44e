// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"time"

	"support_chat_server/internal/config"
	"support_chat_server/internal/dao/mysql"
	myredis "support_chat_server/internal/dao/redis"
	"support_chat_server/internal/service/conversation"
	"support_chat_server/internal/service/profile"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过此结构访问业务层
type Services struct {
	Conversation ConversationService // 客服会话 Service
}

// NewServices 创建并注入所有 Service 实例
//  1. 基于客户 Repository 和缓存创建资料解析器
//  2. 创建会话 Service，注入 Repository、资料解析器和事件发布器
//
// cache 可以为 nil，此时资料解析直接查库
func NewServices(repos *mysql.Repositories, cache myredis.AsyncCacheService, publisher conversation.EventPublisher, chatConf config.ChatConfig) *Services {
	profiles := profile.NewResolver(
		repos.Customer,
		cache,
		time.Duration(chatConf.ProfileCacheTTL)*time.Minute,
		chatConf.AdminDisplayName,
	)
	conversationSvc := conversation.NewConversationService(repos, profiles, publisher, conversation.Options{
		AdminSentinelId:      chatConf.AdminSentinelId,
		MessageMaxLength:     chatConf.MessageMaxLength,
		MessagePageSize:      chatConf.MessagePageSize,
		ConversationPageSize: chatConf.ConversationPageSize,
		MaxPageSize:          chatConf.MaxPageSize,
	})
	return &Services{
		Conversation: conversationSvc,
	}
}
