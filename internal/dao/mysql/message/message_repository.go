// Package message 提供消息相关数据访问层的具体实现
// 本文件实现 MessageRepository 接口，处理消息相关的数据库操作
package message

import (
	"context"
	"time"

	"support_chat_server/internal/dao/mysql/internal"
	"support_chat_server/internal/model"

	"gorm.io/gorm"
)

// messageRepository MessageRepository 接口的实现
type messageRepository struct {
	db *gorm.DB // GORM 数据库实例
}

// NewMessageRepository 创建 MessageRepository 实例
func NewMessageRepository(db *gorm.DB) *messageRepository {
	return &messageRepository{db: db}
}

// Create 创建消息
func (r *messageRepository) Create(ctx context.Context, message *model.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return internal.WrapDBErrorf(err, "创建消息 conversation_id=%s", message.ConversationId)
	}
	return nil
}

// FindByMessageId 根据消息 id 查找消息
func (r *messageRepository) FindByMessageId(ctx context.Context, messageId string) (*model.Message, error) {
	var message model.Message
	if err := r.db.WithContext(ctx).Where("message_id = ?", messageId).First(&message).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询消息 message_id=%s", messageId)
	}
	return &message, nil
}

// FindPage 按创建时间倒序分页，同一时间戳内以自增 id 保证顺序稳定
func (r *messageRepository) FindPage(ctx context.Context, conversationId string, offset, limit int) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND is_deleted = ?", conversationId, false).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "分页查询消息 conversation_id=%s", conversationId)
	}
	return messages, nil
}

// CountVisible 统计会话内未删除的消息数量
func (r *messageRepository) CountVisible(ctx context.Context, conversationId string) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND is_deleted = ?", conversationId, false).
		Count(&total).Error; err != nil {
		return 0, internal.WrapDBErrorf(err, "统计消息数量 conversation_id=%s", conversationId)
	}
	return total, nil
}

// FindLatestVisible 查询最新一条未删除的消息
func (r *messageRepository) FindLatestVisible(ctx context.Context, conversationId string) (*model.Message, error) {
	var message model.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND is_deleted = ?", conversationId, false).
		Order("created_at DESC").Order("id DESC").
		First(&message).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询最新消息 conversation_id=%s", conversationId)
	}
	return &message, nil
}

// MarkRead 批量已读：条件过滤式更新，不覆盖扫描开始后新到达的消息
func (r *messageRepository) MarkRead(ctx context.Context, conversationId, readerSenderId string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ? AND is_deleted = ?", conversationId, readerSenderId, false, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
			"status":  model.MessageRead,
		})
	if res.Error != nil {
		return 0, internal.WrapDBErrorf(res.Error, "标记已读 conversation_id=%s", conversationId)
	}
	return res.RowsAffected, nil
}

// SoftDelete 设置删除标记，数据仍保留
func (r *messageRepository) SoftDelete(ctx context.Context, messageId string) error {
	if err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("message_id = ?", messageId).
		Update("is_deleted", true).Error; err != nil {
		return internal.WrapDBErrorf(err, "删除消息 message_id=%s", messageId)
	}
	return nil
}

// CountAll 统计全部未删除消息数量
func (r *messageRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Message{}).Where("is_deleted = ?", false).Count(&total).Error; err != nil {
		return 0, internal.WrapDBError(err, "统计消息总数")
	}
	return total, nil
}
