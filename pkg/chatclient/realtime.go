package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	eventBufferSize = 64
	actionJoin      = "join"
	actionLeave     = "leave"
	actionTyping    = "typing"
)

// ErrRealtimeClosed 连接已关闭
var ErrRealtimeClosed = errors.New("chatclient: realtime connection closed")

type frame struct {
	Action         string `json:"action"`
	ConversationId string `json:"conversationId,omitempty"`
	IsTyping       bool   `json:"isTyping,omitempty"`
}

// Realtime WebSocket 事件监听
// 收到的事件按到达顺序写入 Events()，连接断开后该 channel 被关闭
type Realtime struct {
	conn      *websocket.Conn
	events    chan Event
	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once

	errMu sync.Mutex
	err   error
}

// DialRealtime 连接 WebSocket 地址，header 用于携带认证 Cookie
func DialRealtime(ctx context.Context, wsURL string, header http.Header) (*Realtime, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("websocket handshake: %v", err)}
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	rt := &Realtime{
		conn:   conn,
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
	}
	go rt.readLoop()
	return rt, nil
}

// Events 事件流
func (r *Realtime) Events() <-chan Event {
	return r.events
}

// Err 连接断开的原因，主动关闭时为 nil
func (r *Realtime) Err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.err
}

// Join 加入会话房间
func (r *Realtime) Join(conversationId string) error {
	return r.send(frame{Action: actionJoin, ConversationId: conversationId})
}

// Leave 离开会话房间
func (r *Realtime) Leave(conversationId string) error {
	return r.send(frame{Action: actionLeave, ConversationId: conversationId})
}

// Typing 发送正在输入状态
func (r *Realtime) Typing(conversationId string, isTyping bool) error {
	return r.send(frame{Action: actionTyping, ConversationId: conversationId, IsTyping: isTyping})
}

// Close 关闭连接，可重复调用
func (r *Realtime) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)
		r.writeMu.Lock()
		_ = r.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		r.writeMu.Unlock()
		err = r.conn.Close()
	})
	return err
}

func (r *Realtime) send(f frame) error {
	select {
	case <-r.done:
		return ErrRealtimeClosed
	default:
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return r.conn.WriteMessage(websocket.TextMessage, data)
}

func (r *Realtime) readLoop() {
	defer close(r.events)
	for {
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			select {
			case <-r.done:
			default:
				r.errMu.Lock()
				r.err = err
				r.errMu.Unlock()
				_ = r.conn.Close()
			}
			return
		}
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}
		select {
		case r.events <- evt:
		case <-r.done:
			return
		}
	}
}
