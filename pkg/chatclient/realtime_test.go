package chatclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer 收到 join 帧后推送一条该会话的 new_message
func echoServer(t *testing.T, frames chan<- frame, cookies chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(DefaultCookieName); err == nil {
			cookies <- c.Value
		} else {
			cookies <- ""
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			frames <- f
			if f.Action != actionJoin {
				continue
			}
			data, _ := json.Marshal(Message{MessageId: "m1", ConversationId: f.ConversationId, Message: "hi"})
			_ = conn.WriteJSON(Event{
				Name:           EventNewMessage,
				Topic:          "conversation:" + f.ConversationId,
				ConversationId: f.ConversationId,
				Data:           data,
			})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRealtimeJoinReceivesEvents(t *testing.T) {
	frames := make(chan frame, 4)
	cookies := make(chan string, 1)
	srv := echoServer(t, frames, cookies)

	rt, err := New(srv.URL+"/api/chat", WithToken("tok")).DialRealtime(context.Background())
	require.NoError(t, err)
	defer rt.Close()
	assert.Equal(t, "tok", <-cookies)

	require.NoError(t, rt.Join("c1"))
	select {
	case e := <-rt.Events():
		assert.Equal(t, EventNewMessage, e.Name)
		var m Message
		require.NoError(t, e.Decode(&m))
		assert.Equal(t, "m1", m.MessageId)
		assert.Equal(t, "c1", m.ConversationId)
	case <-time.After(2 * time.Second):
		t.Fatal("未收到事件")
	}

	require.NoError(t, rt.Typing("c1", true))
	require.NoError(t, rt.Leave("c1"))
	assert.Equal(t, frame{Action: actionJoin, ConversationId: "c1"}, <-frames)
	assert.Equal(t, frame{Action: actionTyping, ConversationId: "c1", IsTyping: true}, <-frames)
	assert.Equal(t, frame{Action: actionLeave, ConversationId: "c1"}, <-frames)
}

func TestRealtimeCloseEndsEvents(t *testing.T) {
	frames := make(chan frame, 4)
	cookies := make(chan string, 1)
	srv := echoServer(t, frames, cookies)

	rt, err := DialRealtime(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	assert.Empty(t, <-cookies)

	require.NoError(t, rt.Close())
	require.NoError(t, rt.Close())
	assert.ErrorIs(t, rt.Join("c1"), ErrRealtimeClosed)

	select {
	case _, ok := <-rt.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("事件流未关闭")
	}
	assert.NoError(t, rt.Err())
}

func TestClientDialRealtimeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL + "/api/chat").DialRealtime(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}
