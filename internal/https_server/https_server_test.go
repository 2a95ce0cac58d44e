package https_server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support_chat_server/internal/config"
	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/dto/respond"
	"support_chat_server/internal/handler"
	"support_chat_server/internal/model"
	"support_chat_server/internal/service"
	"support_chat_server/pkg/errorx"
	"support_chat_server/pkg/util/jwt"
)

// stubService 按调用记录参数，返回预设结果
type stubService struct {
	sendErr  error
	lastSend request.SendMessageRequest
	lastList request.ConversationListRequest
	lastPage request.PageRequest
}

func (s *stubService) GetOrCreateConversation(_ context.Context, identity model.Identity, customerId string) (*respond.ConversationRespond, error) {
	if !identity.IsAdmin() && identity.Id != customerId {
		return nil, errorx.ErrForbidden
	}
	return &respond.ConversationRespond{ConversationId: "chat_" + customerId + "_1", CustomerId: customerId, Status: model.ConversationActive}, nil
}

func (s *stubService) SendMessage(_ context.Context, identity model.Identity, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	s.lastSend = req
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &respond.MessageRespond{MessageId: "m1", ConversationId: req.ConversationId, SenderId: identity.Id, Message: req.Message}, nil
}

func (s *stubService) DeleteMessage(_ context.Context, _ model.Identity, messageId string) (*respond.MessageDeletedRespond, error) {
	return &respond.MessageDeletedRespond{ConversationId: "c1", MessageId: messageId}, nil
}

func (s *stubService) GetMessages(_ context.Context, _ model.Identity, _ string, req request.PageRequest) (*respond.MessageListRespond, error) {
	s.lastPage = req
	return &respond.MessageListRespond{Messages: []respond.MessageRespond{}, Pagination: respond.PaginationRespond{CurrentPage: 1, Limit: 50}}, nil
}

func (s *stubService) MarkAsRead(_ context.Context, identity model.Identity, conversationId string) (*respond.MarkReadRespond, error) {
	return &respond.MarkReadRespond{ConversationId: conversationId, ReaderId: identity.Id, ReadAt: time.Now(), MessagesUpdated: 3}, nil
}

func (s *stubService) GetAllConversations(_ context.Context, _ model.Identity, req request.ConversationListRequest) (*respond.ConversationListRespond, error) {
	s.lastList = req
	return &respond.ConversationListRespond{Conversations: []respond.ConversationRespond{}}, nil
}

func (s *stubService) CloseConversation(_ context.Context, _ model.Identity, conversationId string) (*respond.ConversationRespond, error) {
	return &respond.ConversationRespond{ConversationId: conversationId, Status: model.ConversationClosed}, nil
}

func (s *stubService) GetChatStats(_ context.Context, _ model.Identity) (*respond.ChatStatsRespond, error) {
	return &respond.ChatStatsRespond{TotalConversations: 2, ActiveConversations: 1, ClosedConversations: 1}, nil
}

func (s *stubService) NotifyTyping(context.Context, model.Identity, string, bool) error { return nil }

func (s *stubService) CheckAccess(context.Context, model.Identity, string) error { return nil }

var _ service.ConversationService = (*stubService)(nil)

type stubGateway struct{}

func (stubGateway) Serve(w http.ResponseWriter, _ *http.Request, _ model.Identity) error {
	w.WriteHeader(http.StatusTeapot)
	return nil
}

func newTestServer(t *testing.T) (*gin.Engine, *stubService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, handler.InitTrans("zh"))
	jwt.Init("server-test-secret", 10)

	conf := &config.Config{}
	conf.JWTConfig.CookieName = "authToken"
	conf.CorsConfig.AllowOrigins = []string{"http://localhost:5173"}

	svc := &stubService{}
	handlers := handler.NewHandlers(&service.Services{Conversation: svc}, stubGateway{})
	return Init(conf, handlers), svc
}

func do(t *testing.T, engine *gin.Engine, method, path, body string, identity *model.Identity) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if identity != nil {
		token, err := jwt.GenerateToken(identity.Id, string(identity.Role), identity.Email)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "authToken", Value: token})
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	out := map[string]any{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

var (
	customer = &model.Identity{Id: "cus_1", Role: model.RoleCustomer}
	admin    = &model.Identity{Id: "ops_1", Role: model.RoleAdmin}
)

func TestRoutesRequireAuthentication(t *testing.T) {
	engine, _ := newTestServer(t)

	status, body := do(t, engine, http.MethodGet, "/api/chat/conversation/cus_1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])

	status, _ = do(t, engine, http.MethodGet, "/api/chat/admin/stats", "", customer)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestConversationRoutes(t *testing.T) {
	engine, svc := newTestServer(t)

	status, body := do(t, engine, http.MethodGet, "/api/chat/conversation/cus_1", "", customer)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	conversation := body["conversation"].(map[string]any)
	assert.Equal(t, "cus_1", conversation["customerId"])

	status, _ = do(t, engine, http.MethodGet, "/api/chat/conversation/cus_2", "", customer)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = do(t, engine, http.MethodPost, "/api/chat/message", `{"conversationId":"c1","message":"hola"}`, customer)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "hola", body["message"].(map[string]any)["message"])
	assert.Equal(t, "c1", svc.lastSend.ConversationId)

	status, body = do(t, engine, http.MethodGet, "/api/chat/messages/c1?page=2&limit=10", "", customer)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "pagination")
	assert.Equal(t, request.PageRequest{Page: 2, Limit: 10}, svc.lastPage)

	status, body = do(t, engine, http.MethodPut, "/api/chat/read/c1", "", customer)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["messagesUpdated"])

	status, body = do(t, engine, http.MethodDelete, "/api/chat/message/m1", "", customer)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "m1", body["messageId"])
}

func TestAdminRoutes(t *testing.T) {
	engine, svc := newTestServer(t)

	status, body := do(t, engine, http.MethodGet, "/api/chat/admin/conversations?status=active&page=1", "", admin)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "conversations")
	assert.Equal(t, "active", svc.lastList.Status)

	status, body = do(t, engine, http.MethodGet, "/api/chat/admin/conversations?status=archived", "", admin)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["errors"], "status")

	status, body = do(t, engine, http.MethodGet, "/api/chat/admin/conversation/cus_9", "", admin)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "cus_9", body["conversation"].(map[string]any)["customerId"])

	status, body = do(t, engine, http.MethodPut, "/api/chat/admin/close/c1", "", admin)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.ConversationClosed, body["conversation"].(map[string]any)["status"])

	status, body = do(t, engine, http.MethodGet, "/api/chat/admin/stats", "", admin)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["stats"].(map[string]any)["totalConversations"])
}

func TestErrorEnvelope(t *testing.T) {
	engine, svc := newTestServer(t)

	status, body := do(t, engine, http.MethodPost, "/api/chat/message", `{"message":"hola"}`, customer)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.EqualValues(t, errorx.CodeInvalidParam, body["code"])
	assert.Contains(t, body["errors"], "conversationId")

	svc.sendErr = errorx.ErrConversationClosed
	status, body = do(t, engine, http.MethodPost, "/api/chat/message", `{"conversationId":"c1","message":"hola"}`, customer)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])
	assert.EqualValues(t, errorx.CodeConversationClosed, body["code"])
}

func TestMetricsAndNoRoute(t *testing.T) {
	engine, _ := newTestServer(t)

	status, body := do(t, engine, http.MethodGet, "/api/chat/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "support_chat_http_requests_total")
}

func TestWebSocketRouteUsesGateway(t *testing.T) {
	engine, _ := newTestServer(t)
	status, _ := do(t, engine, http.MethodGet, "/api/chat/ws", "", customer)
	assert.Equal(t, http.StatusTeapot, status)
}
