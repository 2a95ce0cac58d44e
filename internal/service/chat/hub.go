// Package chat 实现实时事件分发
// hub.go
// 核心职责：维护本机连接与主题的订阅关系，把事件写入订阅者的发送缓冲
package chat

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"support_chat_server/internal/dto/event"
	"support_chat_server/internal/infrastructure/metrics"
)

// Hub 本机订阅表
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*UserConn]struct{} // 主题 -> 订阅连接
	conns  map[*UserConn]map[string]struct{} // 连接 -> 已订阅主题
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*UserConn]struct{}),
		conns:  make(map[*UserConn]map[string]struct{}),
	}
}

// Register 登记连接
func (h *Hub) Register(c *UserConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; !ok {
		h.conns[c] = make(map[string]struct{})
	}
}

// Unregister 移除连接及其全部订阅
func (h *Hub) Unregister(c *UserConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic := range h.conns[c] {
		h.removeLocked(c, topic)
	}
	delete(h.conns, c)
}

// Subscribe 订阅主题，未登记的连接会被自动登记
func (h *Hub) Subscribe(c *UserConn, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; !ok {
		h.conns[c] = make(map[string]struct{})
	}
	h.conns[c][topic] = struct{}{}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*UserConn]struct{})
		h.topics[topic] = subs
	}
	subs[c] = struct{}{}
}

// Unsubscribe 取消订阅
func (h *Hub) Unsubscribe(c *UserConn, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if topics, ok := h.conns[c]; ok {
		delete(topics, topic)
	}
	h.removeLocked(c, topic)
}

func (h *Hub) removeLocked(c *UserConn, topic string) {
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Deliver 推送事件给主题的所有本机订阅者，返回成功写入缓冲的连接数
// 缓冲已满的连接直接丢弃该事件，不阻塞其他订阅者
func (h *Hub) Deliver(evt event.Event) int {
	data, err := json.Marshal(evt)
	if err != nil {
		zap.L().Warn("序列化事件失败", zap.String("event", evt.Name), zap.Error(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.topics[evt.Topic] {
		if c.enqueue(data) {
			delivered++
			continue
		}
		metrics.RecordDrop(metrics.DropConnBuffer)
		zap.L().Warn("连接发送缓冲已满，丢弃事件",
			zap.String("conn_id", c.Id),
			zap.String("event", evt.Name),
		)
	}
	metrics.EventsDelivered.Add(float64(delivered))
	return delivered
}

// Subscribers 主题的本机订阅数
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Online 本机连接数
func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
