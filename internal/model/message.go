// Package model 定义数据库实体模型
// 本文件定义客服消息模型
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// 消息状态
const (
	MessageSent      = "sent"
	MessageDelivered = "delivered"
	MessageRead      = "read"
)

// Message 消息模型
// 对应数据库 message 表，消息只追加，除已读字段和删除标记外不再修改
type Message struct {
	gorm.Model

	// MessageId 消息唯一标识（雪花算法字符串，避免前端精度丢失）
	MessageId string `gorm:"column:message_id;uniqueIndex;type:varchar(32);not null;comment:消息id"`

	// ConversationId 所属会话
	ConversationId string `gorm:"column:conversation_id;index;type:varchar(96);not null;comment:会话id"`

	// SenderId 发送者：客户 id，或管理员统一的哨兵 id
	SenderId string `gorm:"column:sender_id;index;type:varchar(64);not null;comment:发送者id"`

	// SenderType 发送者类型：Customer / admin
	SenderType Role `gorm:"column:sender_type;type:varchar(16);not null;comment:发送者类型"`

	// Content 文本内容，已去除首尾空白
	Content string `gorm:"column:message;type:varchar(1000);comment:消息内容"`

	// 附件信息，文件本身由外部存储负责，这里只保存访问链接
	Url      string `gorm:"column:url;type:varchar(255);comment:附件url"`
	FileType string `gorm:"column:file_type;type:varchar(64);comment:文件类型"`
	FileName string `gorm:"column:file_name;type:varchar(128);comment:文件名"`
	FileSize int64  `gorm:"column:file_size;default:0;comment:文件大小(字节)"`

	// Status 消息状态：sent / delivered / read
	Status string `gorm:"column:status;type:varchar(10);not null;default:sent;comment:消息状态"`

	// IsRead / ReadAt 由接收方的已读确认一起设置
	IsRead bool         `gorm:"column:is_read;index;not null;default:false;comment:是否已读"`
	ReadAt sql.NullTime `gorm:"column:read_at;comment:已读时间"`

	// IsDeleted 发送者软删除标记，只影响展示
	IsDeleted bool `gorm:"column:is_deleted;not null;default:false;comment:是否删除"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}

// HasAttachment 消息是否携带附件
func (m *Message) HasAttachment() bool {
	return m.Url != ""
}
