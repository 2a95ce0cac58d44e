// Package chat 实现实时事件分发
// ws_gateway.go
// 核心职责：WebSocket 连接建立
// 1. 校验 Origin 并升级连接
// 2. 管理员自动订阅 admin 主题
// 3. 启动读写协程
package chat

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"support_chat_server/internal/dto/event"
	"support_chat_server/internal/infrastructure/metrics"
	"support_chat_server/internal/model"
	"support_chat_server/pkg/constants"
)

// AccessService 网关依赖的业务能力
// 由 conversation 服务实现
type AccessService interface {
	CheckAccess(ctx context.Context, identity model.Identity, conversationId string) error
	NotifyTyping(ctx context.Context, identity model.Identity, conversationId string, isTyping bool) error
}

// Gateway WebSocket 网关
type Gateway struct {
	hub        *Hub
	access     AccessService
	upgrader   websocket.Upgrader
	typingRate int
	bufferSize int
}

// NewGateway 创建网关
// allowedOrigins 为空时只接受不带 Origin 的请求和同源请求
func NewGateway(hub *Hub, access AccessService, allowedOrigins []string, typingRate int) *Gateway {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &Gateway{
		hub:        hub,
		access:     access,
		typingRate: typingRate,
		bufferSize: constants.WS_SEND_BUFFER_SIZE,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  2048,
			WriteBufferSize: 2048,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := origins[origin]; ok {
					return true
				}
				return origin == "http://"+r.Host || origin == "https://"+r.Host
			},
		},
	}
}

// Serve 升级连接并启动读写协程，identity 已由鉴权中间件校验
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, identity model.Identity) error {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := newUserConn(uuid.NewString(), identity, g.bufferSize)
	c.conn = conn
	c.hub = g.hub
	c.access = g.access
	if g.typingRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(g.typingRate), g.typingRate)
	}

	g.hub.Register(c)
	if identity.IsAdmin() {
		g.hub.Subscribe(c, event.AdminTopic)
	}
	metrics.WsConnections.Inc()
	zap.L().Info("ws 连接建立",
		zap.String("conn_id", c.Id),
		zap.String("user_id", identity.Id),
		zap.String("role", string(identity.Role)),
	)

	go c.Write()
	go func() {
		defer metrics.WsConnections.Dec()
		c.Read()
		zap.L().Info("ws 连接关闭", zap.String("conn_id", c.Id))
	}()
	return nil
}
