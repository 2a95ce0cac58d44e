// Package chat 实现实时事件分发
// broker.go
// 核心职责：定义事件代理接口
// 业务层只负责 Publish，代理把事件送到每个节点的 Hub，由 Hub 推送给本机订阅者
package chat

import (
	"context"

	"support_chat_server/internal/dto/event"
)

// 事件分发模式
const (
	ModeChannel = "channel"
	ModeKafka   = "kafka"
	ModeRedis   = "redis"
)

// MessageBroker 事件代理接口
// 实现：ChannelBroker (单机)、KafkaBroker (集群)、RedisBroker (集群，轻量)
// 投递语义为至多一次，失败或积压时直接丢弃，由客户端的兜底轮询补齐
type MessageBroker interface {
	// Publish 发布事件
	Publish(ctx context.Context, evt event.Event) error
	// Start 启动消费循环，阻塞直到 ctx 取消或 Close
	Start(ctx context.Context)
	// Close 关闭代理资源
	Close() error
}
