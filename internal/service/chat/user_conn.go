// Package chat 实现实时事件分发
// user_conn.go
// 核心职责：单条 WebSocket 连接的读写协程
// 读协程处理 join / leave / typing 控制帧，写协程把 Hub 投递的事件写回客户端并维持心跳
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"support_chat_server/internal/dto/event"
	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/model"
	"support_chat_server/pkg/errorx"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 4096
	frameTimeout = 5 * time.Second
)

// UserConn 一条 WebSocket 连接
type UserConn struct {
	Id       string
	Identity model.Identity

	conn    *websocket.Conn
	hub     *Hub
	access  AccessService
	limiter *rate.Limiter

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newUserConn(id string, identity model.Identity, bufferSize int) *UserConn {
	return &UserConn{
		Id:       id,
		Identity: identity,
		send:     make(chan []byte, bufferSize),
		done:     make(chan struct{}),
	}
}

// enqueue 非阻塞写入发送缓冲，连接已关闭或缓冲已满时返回 false
func (c *UserConn) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close 关闭连接，可重复调用
func (c *UserConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// Read 读协程，返回时连接已从 Hub 移除
func (c *UserConn) Read() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("ws 连接异常断开", zap.String("conn_id", c.Id), zap.Error(err))
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *UserConn) handleFrame(data []byte) {
	var frame request.WsFrameRequest
	if err := json.Unmarshal(data, &frame); err != nil {
		c.sendError("", errorx.New(errorx.CodeInvalidParam, "无法解析的消息帧"))
		return
	}
	if frame.ConversationId == "" && frame.Action != request.WsActionLeave {
		c.sendError("", errorx.New(errorx.CodeInvalidParam, "缺少 conversationId"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	switch frame.Action {
	case request.WsActionJoin:
		if err := c.access.CheckAccess(ctx, c.Identity, frame.ConversationId); err != nil {
			c.sendError(frame.ConversationId, err)
			return
		}
		c.hub.Subscribe(c, event.ConversationTopic(frame.ConversationId))
	case request.WsActionLeave:
		c.hub.Unsubscribe(c, event.ConversationTopic(frame.ConversationId))
	case request.WsActionTyping:
		if c.limiter != nil && !c.limiter.Allow() {
			return
		}
		if err := c.access.NotifyTyping(ctx, c.Identity, frame.ConversationId, frame.IsTyping); err != nil {
			c.sendError(frame.ConversationId, err)
		}
	default:
		c.sendError(frame.ConversationId, errorx.Newf(errorx.CodeInvalidParam, "未知的动作: %s", frame.Action))
	}
}

// sendError 回写错误帧，只发给当前连接
func (c *UserConn) sendError(conversationId string, err error) {
	code := errorx.GetCode(err)
	msg := err.Error()
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		msg = codeErr.Msg
	}
	evt, mErr := event.New(event.Error, "", conversationId, event.ErrorPayload{Code: code, Message: msg})
	if mErr != nil {
		return
	}
	data, mErr := json.Marshal(evt)
	if mErr != nil {
		return
	}
	if !c.enqueue(data) {
		zap.L().Debug("错误帧写入失败", zap.String("conn_id", c.Id))
	}
}

// Write 写协程，负责事件下发和心跳
func (c *UserConn) Write() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				zap.L().Debug("ws 写入失败", zap.String("conn_id", c.Id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
