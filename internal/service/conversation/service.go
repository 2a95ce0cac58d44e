// Package conversation 实现客服会话与消息的核心业务
// 负责会话创建、权限校验、未读计数维护和已读状态流转，并在状态变化后发布实时事件
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"support_chat_server/internal/dao/mysql"
	"support_chat_server/internal/dto/event"
	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/dto/respond"
	"support_chat_server/internal/model"
	"support_chat_server/internal/service/profile"
	"support_chat_server/pkg/constants"
	"support_chat_server/pkg/errorx"
	"support_chat_server/pkg/util/snowflake"
)

// ProfileResolver 展示资料解析
type ProfileResolver interface {
	Customers(ctx context.Context, customerIds []string) map[string]respond.ProfileRespond
	Admin(senderId string) respond.ProfileRespond
}

// EventPublisher 实时事件发布
type EventPublisher interface {
	Publish(ctx context.Context, evt event.Event) error
}

// Options 业务参数
type Options struct {
	AdminSentinelId      string
	MessageMaxLength     int
	MessagePageSize      int
	ConversationPageSize int
	MaxPageSize          int
	Now                  func() time.Time // 测试中注入固定时钟
	NewMessageId         func() string
}

// conversationService 会话业务逻辑实现
type conversationService struct {
	repos     *mysql.Repositories
	profiles  ProfileResolver
	publisher EventPublisher
	opts      Options
}

// NewConversationService 构造函数，注入所有依赖
func NewConversationService(repos *mysql.Repositories, profiles ProfileResolver, publisher EventPublisher, opts Options) *conversationService {
	if opts.AdminSentinelId == "" {
		opts.AdminSentinelId = constants.ADMIN_SENTINEL_ID
	}
	if opts.MessageMaxLength <= 0 {
		opts.MessageMaxLength = constants.MESSAGE_MAX_LENGTH
	}
	if opts.MessagePageSize <= 0 {
		opts.MessagePageSize = constants.MESSAGE_PAGE_SIZE
	}
	if opts.ConversationPageSize <= 0 {
		opts.ConversationPageSize = constants.CONVERSATION_PAGE_SIZE
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = constants.MAX_PAGE_SIZE
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewMessageId == nil {
		opts.NewMessageId = snowflake.GenerateIDString
	}
	return &conversationService{
		repos:     repos,
		profiles:  profiles,
		publisher: publisher,
		opts:      opts,
	}
}

// GetOrCreateConversation 获取客户当前的活跃会话，不存在时创建
func (s *conversationService) GetOrCreateConversation(ctx context.Context, identity model.Identity, customerId string) (*respond.ConversationRespond, error) {
	if customerId == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "客户 id 不能为空")
	}
	if !identity.IsAdmin() && identity.Id != customerId {
		zap.L().Warn("越权获取会话",
			zap.String("requester", identity.Id),
			zap.String("customer_id", customerId),
		)
		return nil, errorx.ErrForbidden
	}

	customer, err := s.repos.Customer.FindByCustomerId(ctx, customerId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "客户不存在")
		}
		zap.L().Error("查询客户失败", zap.String("customer_id", customerId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	customerProfile := profile.FromCustomer(customer)

	existing, err := s.repos.Conversation.FindActiveByCustomerId(ctx, customerId)
	if err == nil {
		return toConversationRespond(existing, &customerProfile), nil
	}
	if !errorx.IsNotFound(err) {
		zap.L().Error("查询活跃会话失败", zap.String("customer_id", customerId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	now := s.opts.Now()
	conversation := &model.Conversation{
		ConversationId: NewConversationId(customerId, now),
		CustomerId:     customerId,
		Status:         model.ConversationActive,
		LastMessageAt:  now,
	}
	conversation.ActiveKey.String = customerId
	conversation.ActiveKey.Valid = true
	conversation.CreatedAt = now
	conversation.UpdatedAt = now

	if err := s.repos.Conversation.Create(ctx, conversation); err != nil {
		// 并发创建时唯一索引冲突，读取对方创建的会话
		winner, findErr := s.repos.Conversation.FindActiveByCustomerId(ctx, customerId)
		if findErr == nil {
			zap.L().Info("并发创建会话，返回已存在的活跃会话",
				zap.String("customer_id", customerId),
				zap.String("conversation_id", winner.ConversationId),
			)
			return toConversationRespond(winner, &customerProfile), nil
		}
		zap.L().Error("创建会话失败",
			zap.String("customer_id", customerId),
			zap.String("conversation_id", conversation.ConversationId),
			zap.Error(err),
		)
		return nil, errorx.ErrServerBusy
	}

	zap.L().Info("创建会话",
		zap.String("customer_id", customerId),
		zap.String("conversation_id", conversation.ConversationId),
		zap.String("requester", identity.Id),
	)
	result := toConversationRespond(conversation, &customerProfile)
	s.publish(ctx, event.ConversationUpdated, event.AdminTopic, conversation.ConversationId, result)
	s.publishStats(ctx)
	return result, nil
}

// NewConversationId 生成会话 id：chat_<customerId>_<毫秒时间戳>
func NewConversationId(customerId string, at time.Time) string {
	return fmt.Sprintf("%s%s_%d", constants.CONVERSATION_ID_PREFIX, customerId, at.UnixMilli())
}

// SendMessage 发送消息
// 消息写入和会话更新在同一事务内完成，已关闭的会话拒绝发送
func (s *conversationService) SendMessage(ctx context.Context, identity model.Identity, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" && req.Attachment == nil {
		return nil, errorx.New(errorx.CodeInvalidParam, "消息内容不能为空")
	}
	if utf8.RuneCountInString(text) > s.opts.MessageMaxLength {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "消息长度不能超过 %d 个字符", s.opts.MessageMaxLength)
	}

	conversation, err := s.loadAuthorized(ctx, identity, req.ConversationId)
	if err != nil {
		return nil, err
	}
	if !conversation.IsActive() {
		return nil, errorx.ErrConversationClosed
	}

	now := s.opts.Now()
	message := &model.Message{
		MessageId:      s.opts.NewMessageId(),
		ConversationId: conversation.ConversationId,
		SenderId:       s.senderId(identity),
		SenderType:     identity.Role,
		Content:        text,
		Status:         model.MessageSent,
	}
	if req.Attachment != nil {
		message.Url = req.Attachment.Url
		message.FileType = req.Attachment.FileType
		message.FileName = req.Attachment.FileName
		message.FileSize = req.Attachment.FileSize
	}
	message.CreatedAt = now
	message.UpdatedAt = now

	err = s.repos.Transaction(ctx, func(tx *mysql.Repositories) error {
		if err := tx.Message.Create(ctx, message); err != nil {
			return err
		}
		rows, err := tx.Conversation.ApplyNewMessage(ctx, conversation.ConversationId, preview(message), now, recipientOf(identity.Role))
		if err != nil {
			return err
		}
		if rows == 0 {
			// 发送期间会话被关闭
			return errorx.ErrConversationClosed
		}
		return nil
	})
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeConversationClosed {
			return nil, errorx.ErrConversationClosed
		}
		zap.L().Error("发送消息失败",
			zap.String("conversation_id", conversation.ConversationId),
			zap.String("requester", identity.Id),
			zap.Error(err),
		)
		return nil, errorx.ErrServerBusy
	}

	if identity.IsAdmin() {
		zap.L().Info("管理员发送消息",
			zap.String("conversation_id", conversation.ConversationId),
			zap.String("admin_id", identity.Id),
			zap.String("message_id", message.MessageId),
		)
	}

	result := s.toMessageRespond(message, s.senderProfiles(ctx, []model.Message{*message}))
	s.publish(ctx, event.NewMessage, event.ConversationTopic(conversation.ConversationId), conversation.ConversationId, result)
	s.publishConversationUpdated(ctx, conversation.ConversationId)
	s.publishStats(ctx)
	return &result, nil
}

// DeleteMessage 发送者软删除消息
func (s *conversationService) DeleteMessage(ctx context.Context, identity model.Identity, messageId string) (*respond.MessageDeletedRespond, error) {
	message, err := s.repos.Message.FindByMessageId(ctx, messageId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "消息不存在")
		}
		zap.L().Error("查询消息失败", zap.String("message_id", messageId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	conversation, err := s.loadAuthorized(ctx, identity, message.ConversationId)
	if err != nil {
		return nil, err
	}
	if message.SenderId != s.senderId(identity) || message.SenderType != identity.Role {
		zap.L().Warn("删除他人消息",
			zap.String("requester", identity.Id),
			zap.String("message_id", messageId),
		)
		return nil, errorx.New(errorx.CodeForbidden, "只能删除自己发送的消息")
	}

	result := &respond.MessageDeletedRespond{
		ConversationId: conversation.ConversationId,
		MessageId:      message.MessageId,
	}
	if message.IsDeleted {
		return result, nil
	}

	err = s.repos.Transaction(ctx, func(tx *mysql.Repositories) error {
		if err := tx.Message.SoftDelete(ctx, messageId); err != nil {
			return err
		}
		if !message.IsRead {
			if err := tx.Conversation.SubtractUnread(ctx, conversation.ConversationId, recipientOf(message.SenderType), 1); err != nil {
				return err
			}
		}
		latest, err := tx.Message.FindLatestVisible(ctx, conversation.ConversationId)
		if err != nil {
			if !errorx.IsNotFound(err) {
				return err
			}
			return tx.Conversation.UpdateLastMessage(ctx, conversation.ConversationId, "", conversation.CreatedAt)
		}
		return tx.Conversation.UpdateLastMessage(ctx, conversation.ConversationId, preview(latest), latest.CreatedAt)
	})
	if err != nil {
		zap.L().Error("删除消息失败",
			zap.String("conversation_id", conversation.ConversationId),
			zap.String("message_id", messageId),
			zap.Error(err),
		)
		return nil, errorx.ErrServerBusy
	}

	s.publish(ctx, event.MessageDeleted, event.ConversationTopic(conversation.ConversationId), conversation.ConversationId, result)
	s.publishConversationUpdated(ctx, conversation.ConversationId)
	return result, nil
}

// GetMessages 分页获取消息
// 数据库按创建时间倒序取一页，返回前翻转为正序
func (s *conversationService) GetMessages(ctx context.Context, identity model.Identity, conversationId string, req request.PageRequest) (*respond.MessageListRespond, error) {
	conversation, err := s.loadAuthorized(ctx, identity, conversationId)
	if err != nil {
		return nil, err
	}
	page, limit := s.normalizePage(req, s.opts.MessagePageSize)
	offset := (page - 1) * limit

	total, err := s.repos.Message.CountVisible(ctx, conversation.ConversationId)
	if err != nil {
		zap.L().Error("统计消息数量失败", zap.String("conversation_id", conversationId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	messages, err := s.repos.Message.FindPage(ctx, conversation.ConversationId, offset, limit)
	if err != nil {
		zap.L().Error("分页查询消息失败", zap.String("conversation_id", conversationId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	profiles := s.senderProfiles(ctx, messages)
	list := make([]respond.MessageRespond, len(messages))
	for i := range messages {
		list[len(messages)-1-i] = s.toMessageRespond(&messages[i], profiles)
	}
	return &respond.MessageListRespond{
		Conversation: s.enrich(ctx, conversation),
		Messages:     list,
		Pagination:   newPagination(page, limit, offset, len(messages), total),
	}, nil
}

// MarkAsRead 将对方发送的未读消息标记为已读，己方未读数按实际标记条数扣减
// 批量过滤更新，可重复执行
func (s *conversationService) MarkAsRead(ctx context.Context, identity model.Identity, conversationId string) (*respond.MarkReadRespond, error) {
	conversation, err := s.loadAuthorized(ctx, identity, conversationId)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	readerId := s.senderId(identity)
	var updated int64
	err = s.repos.Transaction(ctx, func(tx *mysql.Repositories) error {
		n, err := tx.Message.MarkRead(ctx, conversation.ConversationId, readerId, now)
		if err != nil {
			return err
		}
		updated = n
		if n == 0 {
			return nil
		}
		return tx.Conversation.SubtractUnread(ctx, conversation.ConversationId, identity.Role, n)
	})
	if err != nil {
		zap.L().Error("标记消息已读失败", zap.String("conversation_id", conversationId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	result := &respond.MarkReadRespond{
		ConversationId:  conversation.ConversationId,
		ReaderType:      string(identity.Role),
		ReaderId:        readerId,
		ReadAt:          now,
		MessagesUpdated: updated,
	}
	s.publish(ctx, event.MessagesRead, event.ConversationTopic(conversation.ConversationId), conversation.ConversationId, result)
	if identity.IsAdmin() {
		s.publishConversationUpdated(ctx, conversation.ConversationId)
		s.publishStats(ctx)
	}
	return result, nil
}

// GetAllConversations 管理员分页查询会话列表
// 客户资料解析失败时使用占位资料，不影响整页结果
func (s *conversationService) GetAllConversations(ctx context.Context, identity model.Identity, req request.ConversationListRequest) (*respond.ConversationListRespond, error) {
	if err := requireAdmin(identity, "get_all_conversations"); err != nil {
		return nil, err
	}
	status := req.Status
	switch status {
	case "", "all":
		status = ""
	case model.ConversationActive, model.ConversationClosed:
	default:
		return nil, errorx.Newf(errorx.CodeInvalidParam, "不支持的会话状态 %s", req.Status)
	}
	page, limit := s.normalizePage(req.PageRequest, s.opts.ConversationPageSize)
	offset := (page - 1) * limit

	conversations, total, err := s.repos.Conversation.List(ctx, status, offset, limit)
	if err != nil {
		zap.L().Error("分页查询会话失败", zap.String("status", status), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	customerIds := make([]string, len(conversations))
	for i := range conversations {
		customerIds[i] = conversations[i].CustomerId
	}
	profiles := s.profiles.Customers(ctx, customerIds)

	list := make([]respond.ConversationRespond, len(conversations))
	for i := range conversations {
		p := profiles[conversations[i].CustomerId]
		list[i] = *toConversationRespond(&conversations[i], &p)
	}
	return &respond.ConversationListRespond{
		Conversations: list,
		Pagination:    newPagination(page, limit, offset, len(conversations), total),
	}, nil
}

// CloseConversation 管理员关闭会话，已关闭的会话直接返回
func (s *conversationService) CloseConversation(ctx context.Context, identity model.Identity, conversationId string) (*respond.ConversationRespond, error) {
	if err := requireAdmin(identity, "close_conversation"); err != nil {
		return nil, err
	}
	conversation, err := s.findConversation(ctx, conversationId)
	if err != nil {
		return nil, err
	}
	if !conversation.IsActive() {
		return s.enrich(ctx, conversation), nil
	}

	rows, err := s.repos.Conversation.Close(ctx, conversationId)
	if err != nil {
		zap.L().Error("关闭会话失败", zap.String("conversation_id", conversationId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	closed, err := s.findConversation(ctx, conversationId)
	if err != nil {
		return nil, err
	}
	result := s.enrich(ctx, closed)
	if rows == 0 {
		return result, nil
	}

	zap.L().Info("关闭会话",
		zap.String("conversation_id", conversationId),
		zap.String("admin_id", identity.Id),
	)
	s.publish(ctx, event.ConversationClosed, event.ConversationTopic(conversationId), conversationId, result)
	s.publish(ctx, event.ConversationUpdated, event.AdminTopic, conversationId, result)
	s.publishStats(ctx)
	return result, nil
}

// GetChatStats 管理员统计，每次实时计算
func (s *conversationService) GetChatStats(ctx context.Context, identity model.Identity) (*respond.ChatStatsRespond, error) {
	if err := requireAdmin(identity, "get_chat_stats"); err != nil {
		return nil, err
	}
	stats, err := s.computeStats(ctx)
	if err != nil {
		zap.L().Error("统计会话数据失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return stats, nil
}

// NotifyTyping 广播输入状态
func (s *conversationService) NotifyTyping(ctx context.Context, identity model.Identity, conversationId string, isTyping bool) error {
	conversation, err := s.loadAuthorized(ctx, identity, conversationId)
	if err != nil {
		return err
	}
	s.publish(ctx, event.UserTyping, event.ConversationTopic(conversation.ConversationId), conversation.ConversationId, respond.TypingRespond{
		ConversationId: conversation.ConversationId,
		UserId:         s.senderId(identity),
		SenderType:     string(identity.Role),
		IsTyping:       isTyping,
	})
	return nil
}

// CheckAccess 校验身份能否访问会话，订阅会话房间前调用
func (s *conversationService) CheckAccess(ctx context.Context, identity model.Identity, conversationId string) error {
	_, err := s.loadAuthorized(ctx, identity, conversationId)
	return err
}

// computeStats 并发执行各项统计
func (s *conversationService) computeStats(ctx context.Context) (*respond.ChatStatsRespond, error) {
	var stats respond.ChatStatsRespond
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalConversations, err = s.repos.Conversation.CountByStatus(gctx, "")
		return
	})
	g.Go(func() (err error) {
		stats.ActiveConversations, err = s.repos.Conversation.CountByStatus(gctx, model.ConversationActive)
		return
	})
	g.Go(func() (err error) {
		stats.TotalMessages, err = s.repos.Message.CountAll(gctx)
		return
	})
	g.Go(func() (err error) {
		stats.UnreadMessages, err = s.repos.Conversation.SumUnreadAdmin(gctx)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats.ClosedConversations = stats.TotalConversations - stats.ActiveConversations
	return &stats, nil
}

// ==================== 内部辅助 ====================

// findConversation 查询会话并转换错误
func (s *conversationService) findConversation(ctx context.Context, conversationId string) (*model.Conversation, error) {
	if conversationId == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "会话 id 不能为空")
	}
	conversation, err := s.repos.Conversation.FindByConversationId(ctx, conversationId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
		}
		zap.L().Error("查询会话失败", zap.String("conversation_id", conversationId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return conversation, nil
}

// loadAuthorized 查询会话并校验访问权限
// 客户只能访问自己的会话，管理员可以访问全部会话
func (s *conversationService) loadAuthorized(ctx context.Context, identity model.Identity, conversationId string) (*model.Conversation, error) {
	conversation, err := s.findConversation(ctx, conversationId)
	if err != nil {
		return nil, err
	}
	if !identity.IsAdmin() && conversation.CustomerId != identity.Id {
		zap.L().Warn("越权访问会话",
			zap.String("requester", identity.Id),
			zap.String("conversation_id", conversationId),
		)
		return nil, errorx.ErrForbidden
	}
	return conversation, nil
}

func requireAdmin(identity model.Identity, operation string) error {
	if identity.IsAdmin() {
		return nil
	}
	zap.L().Warn("非管理员调用管理接口",
		zap.String("requester", identity.Id),
		zap.String("operation", operation),
	)
	return errorx.ErrForbidden
}

// senderId 管理员统一使用哨兵 id
func (s *conversationService) senderId(identity model.Identity) string {
	if identity.IsAdmin() {
		return s.opts.AdminSentinelId
	}
	return identity.Id
}

// recipientOf 返回发送方对应的接收方角色
func recipientOf(sender model.Role) model.Role {
	if sender == model.RoleAdmin {
		return model.RoleCustomer
	}
	return model.RoleAdmin
}

// preview 会话列表中展示的消息摘要
func preview(m *model.Message) string {
	if m.Content != "" {
		return m.Content
	}
	if m.HasAttachment() {
		return constants.ATTACHMENT_PREVIEW_PREFIX + m.FileName
	}
	return ""
}

func (s *conversationService) normalizePage(req request.PageRequest, defaultLimit int) (int, int) {
	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}
	return page, limit
}

func newPagination(page, limit, offset, returned int, total int64) respond.PaginationRespond {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return respond.PaginationRespond{
		CurrentPage: page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: int64(offset+returned) < total,
		HasPrevPage: page > 1,
	}
}

// enrich 附带客户资料
func (s *conversationService) enrich(ctx context.Context, conversation *model.Conversation) *respond.ConversationRespond {
	p := s.profiles.Customers(ctx, []string{conversation.CustomerId})[conversation.CustomerId]
	return toConversationRespond(conversation, &p)
}

// senderProfiles 解析一批消息中客户发送者的资料
func (s *conversationService) senderProfiles(ctx context.Context, messages []model.Message) map[string]respond.ProfileRespond {
	var ids []string
	for i := range messages {
		if messages[i].SenderType != model.RoleAdmin {
			ids = append(ids, messages[i].SenderId)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return s.profiles.Customers(ctx, ids)
}

func (s *conversationService) toMessageRespond(m *model.Message, customers map[string]respond.ProfileRespond) respond.MessageRespond {
	var sender respond.ProfileRespond
	if m.SenderType == model.RoleAdmin {
		sender = s.profiles.Admin(m.SenderId)
	} else if p, ok := customers[m.SenderId]; ok {
		sender = p
	} else {
		sender = profile.Placeholder(m.SenderId)
	}

	result := respond.MessageRespond{
		MessageId:      m.MessageId,
		ConversationId: m.ConversationId,
		SenderId:       m.SenderId,
		SenderType:     string(m.SenderType),
		Sender:         sender,
		Message:        m.Content,
		Status:         m.Status,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
	}
	if m.HasAttachment() {
		result.Attachment = &respond.AttachmentRespond{
			Url:      m.Url,
			FileType: m.FileType,
			FileName: m.FileName,
			FileSize: m.FileSize,
		}
	}
	if m.ReadAt.Valid {
		readAt := m.ReadAt.Time
		result.ReadAt = &readAt
	}
	return result
}

func toConversationRespond(c *model.Conversation, customer *respond.ProfileRespond) *respond.ConversationRespond {
	return &respond.ConversationRespond{
		ConversationId:    c.ConversationId,
		CustomerId:        c.CustomerId,
		Customer:          customer,
		Status:            c.Status,
		LastMessage:       c.LastMessage,
		LastMessageAt:     c.LastMessageAt,
		UnreadCountAdmin:  c.UnreadCountAdmin,
		UnreadCountClient: c.UnreadCountClient,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ==================== 事件发布 ====================

// publish 发布事件，失败只记录日志
func (s *conversationService) publish(ctx context.Context, name, topic, conversationId string, payload any) {
	if s.publisher == nil {
		return
	}
	evt, err := event.New(name, topic, conversationId, payload)
	if err != nil {
		zap.L().Warn("序列化事件失败", zap.String("event", name), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		zap.L().Warn("发布事件失败",
			zap.String("event", name),
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}

// publishConversationUpdated 读取最新会话并推送到管理员主题
func (s *conversationService) publishConversationUpdated(ctx context.Context, conversationId string) {
	conversation, err := s.repos.Conversation.FindByConversationId(ctx, conversationId)
	if err != nil {
		zap.L().Warn("读取会话失败，跳过 conversation_updated", zap.String("conversation_id", conversationId), zap.Error(err))
		return
	}
	s.publish(ctx, event.ConversationUpdated, event.AdminTopic, conversationId, s.enrich(ctx, conversation))
}

func (s *conversationService) publishStats(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	stats, err := s.computeStats(ctx)
	if err != nil {
		zap.L().Warn("统计失败，跳过 chat_stats_updated", zap.Error(err))
		return
	}
	s.publish(ctx, event.ChatStatsUpdated, event.AdminTopic, "", stats)
}
