package request

// 客户端 WebSocket 帧动作
const (
	WsActionJoin   = "join"
	WsActionLeave  = "leave"
	WsActionTyping = "typing"
)

// WsFrameRequest 客户端通过 WebSocket 发送的控制帧
// 使用位置:
//   - internal/service/chat/user_conn.go: Read
type WsFrameRequest struct {
	Action         string `json:"action"`
	ConversationId string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}
