// Package chatclient 客服聊天服务的 Go 客户端
// 包含 HTTP 接口封装、WebSocket 事件监听，以及合并分页数据与实时事件的本地状态同步器
package chatclient

import (
	"encoding/json"
	"time"
)

// 用户类型，与 JWT 中的 userType 一致
const (
	RoleCustomer = "Customer"
	RoleAdmin    = "admin"
)

// 服务端推送的事件名称
const (
	EventNewMessage          = "new_message"
	EventMessageDeleted      = "message_deleted"
	EventMessagesRead        = "messages_read"
	EventConversationUpdated = "conversation_updated"
	EventConversationClosed  = "conversation_closed"
	EventChatStatsUpdated    = "chat_stats_updated"
	EventUserTyping          = "user_typing"
	EventError               = "error"
)

// Identity 当前登录用户
type Identity struct {
	Id   string
	Role string
}

// IsAdmin 是否为管理员
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Profile 发送者或客户的展示资料
type Profile struct {
	Id             string `json:"id"`
	UserType       string `json:"userType"`
	FullName       string `json:"fullName"`
	Email          string `json:"email,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Conversation 会话
type Conversation struct {
	ConversationId    string    `json:"conversationId"`
	CustomerId        string    `json:"customerId"`
	Customer          *Profile  `json:"customer,omitempty"`
	Status            string    `json:"status"`
	LastMessage       string    `json:"lastMessage"`
	LastMessageAt     time.Time `json:"lastMessageAt"`
	UnreadCountAdmin  int       `json:"unreadCountAdmin"`
	UnreadCountClient int       `json:"unreadCountClient"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Attachment 消息附件
type Attachment struct {
	Url      string `json:"url"`
	FileType string `json:"fileType,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
}

// Message 消息
type Message struct {
	MessageId      string      `json:"messageId"`
	ConversationId string      `json:"conversationId"`
	SenderId       string      `json:"senderId"`
	SenderType     string      `json:"senderType"`
	Sender         Profile     `json:"sender"`
	Message        string      `json:"message"`
	Attachment     *Attachment `json:"attachment,omitempty"`
	Status         string      `json:"status"`
	IsRead         bool        `json:"isRead"`
	ReadAt         *time.Time  `json:"readAt"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Pagination 分页信息
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// MessagePage 一页消息，按时间正序
type MessagePage struct {
	Conversation *Conversation `json:"conversation"`
	Messages     []Message     `json:"messages"`
	Pagination   Pagination    `json:"pagination"`
}

// ConversationPage 一页会话
type ConversationPage struct {
	Conversations []Conversation `json:"conversations"`
	Pagination    Pagination     `json:"pagination"`
}

// Stats 会话统计
type Stats struct {
	TotalConversations  int64 `json:"totalConversations"`
	ActiveConversations int64 `json:"activeConversations"`
	ClosedConversations int64 `json:"closedConversations"`
	TotalMessages       int64 `json:"totalMessages"`
	UnreadMessages      int64 `json:"unreadMessages"`
}

// ReadReceipt messages_read 事件载荷
type ReadReceipt struct {
	ConversationId  string    `json:"conversationId"`
	ReaderType      string    `json:"readerType"`
	ReaderId        string    `json:"readerId"`
	ReadAt          time.Time `json:"readAt"`
	MessagesUpdated int64     `json:"messagesUpdated"`
}

// MessageDeleted message_deleted 事件载荷，也是删除接口的返回值
type MessageDeleted struct {
	ConversationId string `json:"conversationId"`
	MessageId      string `json:"messageId"`
}

// Typing user_typing 事件载荷
type Typing struct {
	ConversationId string `json:"conversationId"`
	UserId         string `json:"userId"`
	SenderType     string `json:"senderType"`
	IsTyping       bool   `json:"isTyping"`
}

// Event 服务端推送的事件信封
type Event struct {
	Name           string          `json:"event"`
	Topic          string          `json:"topic"`
	ConversationId string          `json:"conversationId,omitempty"`
	Data           json.RawMessage `json:"data"`
	EmittedAt      time.Time       `json:"emittedAt"`
}

// Decode 解析事件载荷
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// ErrorPayload error 事件载荷
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SendMessageInput 发送消息参数
type SendMessageInput struct {
	ConversationId string      `json:"conversationId"`
	Message        string      `json:"message"`
	Attachment     *Attachment `json:"attachment,omitempty"`
}

// ConversationQuery 管理员会话列表查询参数，零值使用服务端默认值
type ConversationQuery struct {
	Page   int
	Limit  int
	Status string // all / active / closed
}
