// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
package handler

import (
	"support_chat_server/internal/service"
)

// Handlers 聚合所有 Handler 实例
// Router 层通过此结构访问各个 Handler
type Handlers struct {
	Chat  *ChatHandler
	Admin *AdminHandler
	Ws    *WsHandler
}

// NewHandlers 创建并注入所有 Handler 实例
// svc: Service 层聚合实例
// gateway: WebSocket 网关
func NewHandlers(svc *service.Services, gateway WsGateway) *Handlers {
	return &Handlers{
		Chat:  NewChatHandler(svc.Conversation),
		Admin: NewAdminHandler(svc.Conversation),
		Ws:    NewWsHandler(gateway),
	}
}
