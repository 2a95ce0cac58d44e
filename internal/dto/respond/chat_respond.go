package respond

import "time"

// ProfileRespond 展示用的用户资料
// 客户来自客户资料表，管理员统一使用配置中的展示名称
type ProfileRespond struct {
	Id             string `json:"id"`
	UserType       string `json:"userType"`
	FullName       string `json:"fullName"`
	Email          string `json:"email,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// ConversationRespond 会话信息
type ConversationRespond struct {
	ConversationId    string          `json:"conversationId"`
	CustomerId        string          `json:"customerId"`
	Customer          *ProfileRespond `json:"customer,omitempty"`
	Status            string          `json:"status"`
	LastMessage       string          `json:"lastMessage"`
	LastMessageAt     time.Time       `json:"lastMessageAt"`
	UnreadCountAdmin  int             `json:"unreadCountAdmin"`
	UnreadCountClient int             `json:"unreadCountClient"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// AttachmentRespond 消息附件
type AttachmentRespond struct {
	Url      string `json:"url"`
	FileType string `json:"fileType,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
}

// MessageRespond 消息信息
type MessageRespond struct {
	MessageId      string             `json:"messageId"`
	ConversationId string             `json:"conversationId"`
	SenderId       string             `json:"senderId"`
	SenderType     string             `json:"senderType"`
	Sender         ProfileRespond     `json:"sender"`
	Message        string             `json:"message"`
	Attachment     *AttachmentRespond `json:"attachment,omitempty"`
	Status         string             `json:"status"`
	IsRead         bool               `json:"isRead"`
	ReadAt         *time.Time         `json:"readAt"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// PaginationRespond 分页元信息
type PaginationRespond struct {
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// MessageListRespond 消息分页结果，Messages 按时间正序
// Conversation 为会话当前状态，客户端轮询时据此恢复状态与未读数
type MessageListRespond struct {
	Conversation *ConversationRespond `json:"conversation"`
	Messages     []MessageRespond     `json:"messages"`
	Pagination   PaginationRespond    `json:"pagination"`
}

// ConversationListRespond 会话分页结果，按最近消息时间倒序
type ConversationListRespond struct {
	Conversations []ConversationRespond `json:"conversations"`
	Pagination    PaginationRespond     `json:"pagination"`
}

// ChatStatsRespond 管理员统计
type ChatStatsRespond struct {
	TotalConversations  int64 `json:"totalConversations"`
	ActiveConversations int64 `json:"activeConversations"`
	ClosedConversations int64 `json:"closedConversations"`
	TotalMessages       int64 `json:"totalMessages"`
	UnreadMessages      int64 `json:"unreadMessages"`
}

// MarkReadRespond 已读确认结果，同时作为 messages_read 事件的载荷
type MarkReadRespond struct {
	ConversationId  string    `json:"conversationId"`
	ReaderType      string    `json:"readerType"`
	ReaderId        string    `json:"readerId"`
	ReadAt          time.Time `json:"readAt"`
	MessagesUpdated int64     `json:"messagesUpdated"`
}

// MessageDeletedRespond message_deleted 事件载荷
type MessageDeletedRespond struct {
	ConversationId string `json:"conversationId"`
	MessageId      string `json:"messageId"`
}

// TypingRespond user_typing 事件载荷
type TypingRespond struct {
	ConversationId string `json:"conversationId"`
	UserId         string `json:"userId"`
	SenderType     string `json:"senderType"`
	IsTyping       bool   `json:"isTyping"`
}
