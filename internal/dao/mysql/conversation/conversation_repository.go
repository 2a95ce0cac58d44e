// Package conversation 提供会话数据访问层的具体实现
package conversation

import (
	"context"
	"time"

	"support_chat_server/internal/dao/mysql/internal"
	"support_chat_server/internal/model"

	"gorm.io/gorm"
)

// conversationRepository ConversationRepository 接口的实现
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建 ConversationRepository 实例
func NewConversationRepository(db *gorm.DB) *conversationRepository {
	return &conversationRepository{db: db}
}

// FindByConversationId 根据会话 id 查找会话
func (r *conversationRepository) FindByConversationId(ctx context.Context, conversationId string) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationId).First(&conversation).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询会话 conversation_id=%s", conversationId)
	}
	return &conversation, nil
}

// FindActiveByCustomerId 通过活跃会话唯一键查找客户的当前会话
func (r *conversationRepository) FindActiveByCustomerId(ctx context.Context, customerId string) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.WithContext(ctx).
		Where("active_key = ? AND status = ?", customerId, model.ConversationActive).
		First(&conversation).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询活跃会话 customer_id=%s", customerId)
	}
	return &conversation, nil
}

// Create 创建会话
func (r *conversationRepository) Create(ctx context.Context, conversation *model.Conversation) error {
	if err := r.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return internal.WrapDBErrorf(err, "创建会话 conversation_id=%s", conversation.ConversationId)
	}
	return nil
}

// ApplyNewMessage 更新最近消息并原子递增接收方未读数
// 条件中带上 status = active，与关闭操作并发时只有一方生效
func (r *conversationRepository) ApplyNewMessage(ctx context.Context, conversationId, preview string, at time.Time, recipient model.Role) (int64, error) {
	column := internal.UnreadColumn(recipient)
	res := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("conversation_id = ? AND status = ?", conversationId, model.ConversationActive).
		Updates(map[string]interface{}{
			"last_message":    preview,
			"last_message_at": at,
			"status":          model.ConversationActive,
			column:            gorm.Expr(column+" + ?", 1),
		})
	if res.Error != nil {
		return 0, internal.WrapDBErrorf(res.Error, "更新会话最近消息 conversation_id=%s", conversationId)
	}
	return res.RowsAffected, nil
}

// SubtractUnread 未读数减去 n，CASE 表达式保证不小于 0
// 与并发递增叠加，不会抹掉读取之后新到的未读消息
func (r *conversationRepository) SubtractUnread(ctx context.Context, conversationId string, reader model.Role, n int64) error {
	column := internal.UnreadColumn(reader)
	if err := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("conversation_id = ?", conversationId).
		Update(column, gorm.Expr("CASE WHEN "+column+" > ? THEN "+column+" - ? ELSE 0 END", n, n)).Error; err != nil {
		return internal.WrapDBErrorf(err, "减少未读数 conversation_id=%s n=%d", conversationId, n)
	}
	return nil
}

// UpdateLastMessage 覆盖最近消息摘要
func (r *conversationRepository) UpdateLastMessage(ctx context.Context, conversationId, preview string, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("conversation_id = ?", conversationId).
		Updates(map[string]interface{}{
			"last_message":    preview,
			"last_message_at": at,
		}).Error; err != nil {
		return internal.WrapDBErrorf(err, "更新最近消息 conversation_id=%s", conversationId)
	}
	return nil
}

// Close 关闭会话，同时释放 active_key 以便客户之后创建新会话
func (r *conversationRepository) Close(ctx context.Context, conversationId string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("conversation_id = ? AND status = ?", conversationId, model.ConversationActive).
		Updates(map[string]interface{}{
			"status":     model.ConversationClosed,
			"active_key": gorm.Expr("NULL"),
		})
	if res.Error != nil {
		return 0, internal.WrapDBErrorf(res.Error, "关闭会话 conversation_id=%s", conversationId)
	}
	return res.RowsAffected, nil
}

// List 分页查询会话，按最近消息时间倒序
func (r *conversationRepository) List(ctx context.Context, status string, offset, limit int) ([]model.Conversation, int64, error) {
	var conversations []model.Conversation
	total, err := r.CountByStatus(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).Scopes(withStatus(status)).
		Order("last_message_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&conversations).Error; err != nil {
		return nil, 0, internal.WrapDBErrorf(err, "分页查询会话 status=%s", status)
	}
	return conversations, total, nil
}

// withStatus 按状态过滤，空字符串表示不过滤
func withStatus(status string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status == "" {
			return db
		}
		return db.Where("status = ?", status)
	}
}

// CountByStatus 统计会话数量
func (r *conversationRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Conversation{}).Scopes(withStatus(status)).
		Count(&total).Error; err != nil {
		return 0, internal.WrapDBErrorf(err, "统计会话数量 status=%s", status)
	}
	return total, nil
}

// SumUnreadAdmin 汇总客服未读数
func (r *conversationRepository) SumUnreadAdmin(ctx context.Context) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Select("COALESCE(SUM(unread_count_admin), 0)").
		Scan(&sum).Error; err != nil {
		return 0, internal.WrapDBError(err, "汇总客服未读数")
	}
	return sum, nil
}
