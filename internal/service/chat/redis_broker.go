// Package chat 实现实时事件分发
// redis_broker.go
// 核心职责：集群模式下基于 Redis Pub/Sub 的事件代理
// 所有节点订阅同一个 channel，适合已部署 Redis 但没有 Kafka 的环境
package chat

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"support_chat_server/internal/dto/event"
	"support_chat_server/internal/infrastructure/metrics"
	"support_chat_server/pkg/errorx"
)

// RedisBroker Redis Pub/Sub 事件代理
type RedisBroker struct {
	hub     *Hub
	client  *redis.Client
	channel string
}

// NewRedisBroker 创建 RedisBroker，client 的生命周期由调用方管理
func NewRedisBroker(hub *Hub, client *redis.Client, channel string) *RedisBroker {
	return &RedisBroker{
		hub:     hub,
		client:  client,
		channel: channel,
	}
}

// Publish 发布到 Redis channel
func (b *RedisBroker) Publish(ctx context.Context, evt event.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeEventError, "序列化事件失败")
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return errorx.Wrap(err, errorx.CodeEventError, "发布 Redis 事件失败")
	}
	return nil
}

// Start 订阅 channel 并把事件交给 Hub
func (b *RedisBroker) Start(ctx context.Context) {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()
	zap.L().Info("redis 事件订阅启动", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var evt event.Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				metrics.RecordDrop(metrics.DropDecodeError)
				zap.L().Warn("解析 Redis 事件失败", zap.Error(err))
				continue
			}
			b.hub.Deliver(evt)
		}
	}
}

// Close 订阅随 Start 的 ctx 一起关闭
func (b *RedisBroker) Close() error {
	return nil
}
