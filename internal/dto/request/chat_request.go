package request

// AttachmentRequest 消息附件
// 文件本身由外部存储上传，这里只接收访问链接和元信息
type AttachmentRequest struct {
	Url      string `json:"url" binding:"required,url"`
	FileType string `json:"fileType" binding:"max=64"`
	FileName string `json:"fileName" binding:"max=128"`
	FileSize int64  `json:"fileSize" binding:"gte=0"`
}

// SendMessageRequest 发送消息请求
// 使用位置:
//   - internal/handler/chat_handler.go: SendMessage
//   - internal/service/conversation/service.go: SendMessage
type SendMessageRequest struct {
	ConversationId string             `json:"conversationId" binding:"required"`
	Message        string             `json:"message"`
	Attachment     *AttachmentRequest `json:"attachment"`
}

// PageRequest 分页参数，缺省值由 Service 层补齐
type PageRequest struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// ConversationListRequest 管理员会话列表查询
// 使用位置:
//   - internal/handler/admin_handler.go: GetAllConversations
type ConversationListRequest struct {
	PageRequest
	Status string `form:"status" binding:"omitempty,oneof=all active closed"`
}
