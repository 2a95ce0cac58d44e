// Package chat 实现实时事件分发
// kafka_broker.go
// 核心职责：集群模式下基于 Kafka 的事件代理
// 1. Publish 把事件写入统一 topic，以事件主题作为 key 保证同一会话内有序
// 2. 每个节点使用独立的消费组，读取全量事件后交给本机 Hub
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"support_chat_server/internal/config"
	"support_chat_server/internal/dto/event"
	"support_chat_server/internal/infrastructure/metrics"
	"support_chat_server/pkg/errorx"
)

// KafkaBroker Kafka 事件代理
type KafkaBroker struct {
	hub    *Hub
	conf   config.KafkaConfig
	writer *kafka.Writer
	reader *kafka.Reader
}

// NewKafkaBroker 创建 KafkaBroker
func NewKafkaBroker(hub *Hub, conf config.KafkaConfig) *KafkaBroker {
	timeout := conf.Timeout * time.Second
	return &KafkaBroker{
		hub:  hub,
		conf: conf,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(conf.HostPort),
			Topic:                  conf.EventTopic,
			Balancer:               &kafka.Hash{},
			WriteTimeout:           timeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: false,
		},
		// 每个节点都要收到全部事件，消费组按节点隔离
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        []string{conf.HostPort},
			Topic:          conf.EventTopic,
			CommitInterval: timeout,
			GroupID:        "support-chat-" + uuid.NewString(),
			StartOffset:    kafka.LastOffset,
		}),
	}
}

// EnsureTopic 创建事件 topic，已存在时忽略
func (b *KafkaBroker) EnsureTopic() error {
	conn, err := kafka.Dial("tcp", b.conf.HostPort)
	if err != nil {
		return fmt.Errorf("dial kafka: %w", err)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             b.conf.EventTopic,
		NumPartitions:     b.conf.Partition,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", b.conf.EventTopic, err)
	}
	return nil
}

// Publish 写入 Kafka
func (b *KafkaBroker) Publish(ctx context.Context, evt event.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeEventError, "序列化事件失败")
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.Topic),
		Value: data,
	}); err != nil {
		return errorx.Wrap(err, errorx.CodeEventError, "写入 Kafka 失败")
	}
	return nil
}

// Start 消费循环
func (b *KafkaBroker) Start(ctx context.Context) {
	zap.L().Info("kafka 事件消费启动", zap.String("topic", b.conf.EventTopic))
	for {
		msg, err := b.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			zap.L().Error("读取 Kafka 事件失败", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		var evt event.Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			metrics.RecordDrop(metrics.DropDecodeError)
			zap.L().Warn("解析 Kafka 事件失败",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}
		b.hub.Deliver(evt)
	}
}

// Close 关闭生产者和消费者
func (b *KafkaBroker) Close() error {
	return errors.Join(b.writer.Close(), b.reader.Close())
}
