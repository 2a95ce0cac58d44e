// Package chat 实现实时事件分发
// server.go
// 核心职责：聚合 Hub 与事件代理，统一管理生命周期
// ChatServer 实现业务层需要的 EventPublisher 接口
package chat

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"support_chat_server/internal/config"
	"support_chat_server/internal/dto/event"
	"support_chat_server/internal/infrastructure/metrics"
	"support_chat_server/pkg/constants"
)

// ChatServerConfig 实时服务配置
type ChatServerConfig struct {
	Kafka       config.KafkaConfig // MessageMode 决定代理实现
	RedisClient *redis.Client      // redis 模式必填
	BufferSize  int                // channel 模式的队列长度
}

// ChatServer 实时服务聚合结构
type ChatServer struct {
	Hub    *Hub
	Broker MessageBroker
	mode   string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewChatServer 根据配置选择事件代理
func NewChatServer(cfg ChatServerConfig) (*ChatServer, error) {
	hub := NewHub()
	cs := &ChatServer{
		Hub:  hub,
		mode: cfg.Kafka.MessageMode,
	}

	switch cfg.Kafka.MessageMode {
	case ModeKafka:
		broker := NewKafkaBroker(hub, cfg.Kafka)
		if err := broker.EnsureTopic(); err != nil {
			zap.L().Warn("创建 Kafka topic 失败，继续使用已有 topic", zap.Error(err))
		}
		cs.Broker = broker
	case ModeRedis:
		if cfg.RedisClient == nil {
			return nil, fmt.Errorf("redis 模式需要可用的 redis 连接")
		}
		cs.Broker = NewRedisBroker(hub, cfg.RedisClient, cfg.Kafka.EventTopic)
	case ModeChannel, "":
		size := cfg.BufferSize
		if size <= 0 {
			size = constants.CHANNEL_SIZE
		}
		cs.mode = ModeChannel
		cs.Broker = NewChannelBroker(hub, size)
	default:
		return nil, fmt.Errorf("未知的事件分发模式: %s", cfg.Kafka.MessageMode)
	}
	return cs, nil
}

// Mode 当前分发模式
func (cs *ChatServer) Mode() string {
	return cs.mode
}

// Start 在后台启动代理的消费循环
func (cs *ChatServer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	cs.cancel = cancel
	cs.done = make(chan struct{})
	go func() {
		defer close(cs.done)
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("事件消费循环 panic", zap.Any("panic", r))
			}
		}()
		cs.Broker.Start(ctx)
	}()
	zap.L().Info("实时服务启动", zap.String("mode", cs.mode))
}

// Publish 发布事件并记录指标
func (cs *ChatServer) Publish(ctx context.Context, evt event.Event) error {
	err := cs.Broker.Publish(ctx, evt)
	metrics.RecordPublish(evt.Name, err)
	return err
}

// Close 停止消费循环并释放代理资源
func (cs *ChatServer) Close() error {
	if cs.cancel != nil {
		cs.cancel()
	}
	err := cs.Broker.Close()
	if cs.done != nil {
		<-cs.done
	}
	return err
}
