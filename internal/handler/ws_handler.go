// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接升级
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"support_chat_server/internal/model"
)

// WsGateway 连接升级能力，由 chat.Gateway 实现
type WsGateway interface {
	Serve(w http.ResponseWriter, r *http.Request, identity model.Identity) error
}

// WsHandler WebSocket 处理器
type WsHandler struct {
	gateway WsGateway
}

// NewWsHandler 创建 WebSocket 处理器
func NewWsHandler(gateway WsGateway) *WsHandler {
	return &WsHandler{gateway: gateway}
}

// Connect 升级为 WebSocket 连接
// GET /api/chat/ws
// 连接建立后通过 join / leave / typing 帧订阅会话
func (h *WsHandler) Connect(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	// 升级失败时 gorilla 已写入 HTTP 错误响应
	if err := h.gateway.Serve(c.Writer, c.Request, identity); err != nil {
		zap.L().Warn("ws 升级失败", zap.String("user_id", identity.Id), zap.Error(err))
	}
}
