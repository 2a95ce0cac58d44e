// Package chat 实现实时事件分发
// channel_broker.go
// 核心职责：单机模式下的事件代理
// 事件写入带缓冲的 channel，由 Start 循环取出交给 Hub；不依赖外部消息队列，适合开发环境或单实例部署
package chat

import (
	"context"
	"sync"

	"support_chat_server/internal/dto/event"
	"support_chat_server/internal/infrastructure/metrics"
	"support_chat_server/pkg/errorx"
)

// ChannelBroker 进程内事件代理
type ChannelBroker struct {
	hub       *Hub
	events    chan event.Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannelBroker 创建 ChannelBroker
func NewChannelBroker(hub *Hub, bufferSize int) *ChannelBroker {
	return &ChannelBroker{
		hub:    hub,
		events: make(chan event.Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// Publish 非阻塞写入，缓冲已满时丢弃
func (b *ChannelBroker) Publish(_ context.Context, evt event.Event) error {
	select {
	case <-b.done:
		return errorx.New(errorx.CodeEventError, "事件代理已关闭")
	default:
	}
	select {
	case b.events <- evt:
		return nil
	default:
		metrics.RecordDrop(metrics.DropBrokerFull)
		return errorx.New(errorx.CodeEventError, "事件队列已满")
	}
}

// Start 消费循环
func (b *ChannelBroker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case evt := <-b.events:
			b.hub.Deliver(evt)
		}
	}
}

// Close 停止消费循环
func (b *ChannelBroker) Close() error {
	b.closeOnce.Do(func() {
		close(b.done)
	})
	return nil
}
