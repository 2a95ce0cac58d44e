package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support_chat_server/internal/dto/event"
	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/model"
	"support_chat_server/pkg/errorx"
)

type fakeAccess struct {
	mu      sync.Mutex
	allowed map[string]string // 会话 id -> 客户 id
	typing  []string
}

func (f *fakeAccess) CheckAccess(_ context.Context, identity model.Identity, conversationId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	owner, ok := f.allowed[conversationId]
	if !ok {
		return errorx.New(errorx.CodeNotFound, "会话不存在")
	}
	if !identity.IsAdmin() && owner != identity.Id {
		return errorx.ErrForbidden
	}
	return nil
}

func (f *fakeAccess) NotifyTyping(ctx context.Context, identity model.Identity, conversationId string, isTyping bool) error {
	if err := f.CheckAccess(ctx, identity, conversationId); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, identity.Id)
	return nil
}

func (f *fakeAccess) typingCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.typing)
}

type gatewayFixture struct {
	hub    *Hub
	access *fakeAccess
	server *httptest.Server
}

func newGatewayFixture(t *testing.T, typingRate int) *gatewayFixture {
	t.Helper()
	hub := NewHub()
	access := &fakeAccess{allowed: map[string]string{"c1": "alice"}}
	gw := NewGateway(hub, access, []string{"http://localhost:5173"}, typingRate)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := model.Identity{Id: r.URL.Query().Get("id"), Role: model.Role(r.URL.Query().Get("role"))}
		_ = gw.Serve(w, r, identity)
	}))
	t.Cleanup(server.Close)
	return &gatewayFixture{hub: hub, access: access, server: server}
}

func (f *gatewayFixture) dial(t *testing.T, id string, role model.Role) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/?id=" + id + "&role=" + string(role)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame request.WsFrameRequest) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func receive(t *testing.T, conn *websocket.Conn) event.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt event.Event
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestGatewayJoinReceivesConversationEvents(t *testing.T) {
	f := newGatewayFixture(t, 5)
	conn := f.dial(t, "alice", model.RoleCustomer)

	sendFrame(t, conn, request.WsFrameRequest{Action: request.WsActionJoin, ConversationId: "c1"})
	topic := event.ConversationTopic("c1")
	waitFor(t, func() bool { return f.hub.Subscribers(topic) == 1 })

	f.hub.Deliver(mustEvent(t, event.NewMessage, topic, "c1"))
	evt := receive(t, conn)
	assert.Equal(t, event.NewMessage, evt.Name)
	assert.Equal(t, "c1", evt.ConversationId)

	sendFrame(t, conn, request.WsFrameRequest{Action: request.WsActionLeave, ConversationId: "c1"})
	waitFor(t, func() bool { return f.hub.Subscribers(topic) == 0 })
}

func TestGatewayRejectsForeignConversation(t *testing.T) {
	f := newGatewayFixture(t, 5)
	conn := f.dial(t, "mallory", model.RoleCustomer)

	sendFrame(t, conn, request.WsFrameRequest{Action: request.WsActionJoin, ConversationId: "c1"})
	evt := receive(t, conn)
	assert.Equal(t, event.Error, evt.Name)

	var payload event.ErrorPayload
	require.NoError(t, json.Unmarshal(evt.Data, &payload))
	assert.Equal(t, errorx.CodeForbidden, payload.Code)
	assert.Equal(t, 0, f.hub.Subscribers(event.ConversationTopic("c1")))
}

func TestGatewayRejectsBadFrames(t *testing.T) {
	f := newGatewayFixture(t, 5)
	conn := f.dial(t, "alice", model.RoleCustomer)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, event.Error, receive(t, conn).Name)

	sendFrame(t, conn, request.WsFrameRequest{Action: request.WsActionJoin})
	assert.Equal(t, event.Error, receive(t, conn).Name)

	sendFrame(t, conn, request.WsFrameRequest{Action: "shout", ConversationId: "c1"})
	evt := receive(t, conn)
	var payload event.ErrorPayload
	require.NoError(t, json.Unmarshal(evt.Data, &payload))
	assert.Equal(t, errorx.CodeInvalidParam, payload.Code)
}

func TestGatewayAdminSubscribesAdminTopic(t *testing.T) {
	f := newGatewayFixture(t, 5)
	conn := f.dial(t, "ops", model.RoleAdmin)
	waitFor(t, func() bool { return f.hub.Subscribers(event.AdminTopic) == 1 })

	f.hub.Deliver(mustEvent(t, event.ConversationUpdated, event.AdminTopic, "c1"))
	assert.Equal(t, event.ConversationUpdated, receive(t, conn).Name)

	// 管理员可以加入任意会话
	sendFrame(t, conn, request.WsFrameRequest{Action: request.WsActionJoin, ConversationId: "c1"})
	waitFor(t, func() bool { return f.hub.Subscribers(event.ConversationTopic("c1")) == 1 })
}

func TestGatewayTypingIsRateLimited(t *testing.T) {
	f := newGatewayFixture(t, 1)
	conn := f.dial(t, "alice", model.RoleCustomer)

	for i := 0; i < 5; i++ {
		sendFrame(t, conn, request.WsFrameRequest{Action: request.WsActionTyping, ConversationId: "c1", IsTyping: true})
	}
	// 用一个 join 帧确认前面的帧都已处理
	sendFrame(t, conn, request.WsFrameRequest{Action: request.WsActionJoin, ConversationId: "c1"})
	waitFor(t, func() bool { return f.hub.Subscribers(event.ConversationTopic("c1")) == 1 })
	assert.Equal(t, 1, f.access.typingCalls())
}

func TestGatewayUnregistersOnClose(t *testing.T) {
	f := newGatewayFixture(t, 5)
	conn := f.dial(t, "alice", model.RoleCustomer)
	sendFrame(t, conn, request.WsFrameRequest{Action: request.WsActionJoin, ConversationId: "c1"})
	waitFor(t, func() bool { return f.hub.Online() == 1 && f.hub.Subscribers(event.ConversationTopic("c1")) == 1 })

	require.NoError(t, conn.Close())
	waitFor(t, func() bool { return f.hub.Online() == 0 })
	assert.Equal(t, 0, f.hub.Subscribers(event.ConversationTopic("c1")))
}

func TestGatewayRejectsUnknownOrigin(t *testing.T) {
	f := newGatewayFixture(t, 5)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/?id=alice&role=Customer"
	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
