// Package event 定义实时推送事件的信封格式
// 服务端各节点之间（Kafka / Redis）以及服务端到 WebSocket 客户端都使用同一格式
package event

import (
	"encoding/json"
	"strings"
	"time"
)

// 事件名称
const (
	NewMessage          = "new_message"
	MessageDeleted      = "message_deleted"
	MessagesRead        = "messages_read"
	ConversationUpdated = "conversation_updated"
	ConversationClosed  = "conversation_closed"
	ChatStatsUpdated    = "chat_stats_updated"
	UserTyping          = "user_typing"
	Error               = "error"
)

// AdminTopic 管理员广播主题
const AdminTopic = "admin"

const conversationTopicPrefix = "conversation:"

// ConversationTopic 返回会话房间主题
func ConversationTopic(conversationId string) string {
	return conversationTopicPrefix + conversationId
}

// ConversationIdFromTopic 从会话主题中取出会话 id，非会话主题返回 false
func ConversationIdFromTopic(topic string) (string, bool) {
	if !strings.HasPrefix(topic, conversationTopicPrefix) {
		return "", false
	}
	return strings.TrimPrefix(topic, conversationTopicPrefix), true
}

// Event 推送事件
type Event struct {
	Name           string          `json:"event"`
	Topic          string          `json:"topic"`
	ConversationId string          `json:"conversationId,omitempty"`
	Data           json.RawMessage `json:"data"`
	EmittedAt      time.Time       `json:"emittedAt"`
}

// New 序列化载荷并构造事件
func New(name, topic, conversationId string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Name:           name,
		Topic:          topic,
		ConversationId: conversationId,
		Data:           data,
		EmittedAt:      time.Now(),
	}, nil
}

// ErrorPayload 被拒绝的客户端帧返回的错误载荷
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
