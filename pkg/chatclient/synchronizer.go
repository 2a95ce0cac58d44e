package chatclient

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

const (
	DefaultPollInterval      = 30 * time.Second
	DefaultPageSize          = 20
	DefaultConversationLimit = 50
	// DefaultAdminSentinel 管理员发出的事件里统一使用的发送者 id
	DefaultAdminSentinel = "admin"
)

// ErrNoActiveConversation 尚未选中会话
var ErrNoActiveConversation = errors.New("chatclient: no active conversation")

// API 同步器依赖的接口，*Client 实现了它
type API interface {
	GetOrCreateConversation(ctx context.Context, customerId string) (*Conversation, error)
	GetMessages(ctx context.Context, conversationId string, page, limit int) (*MessagePage, error)
	SendMessage(ctx context.Context, in SendMessageInput) (*Message, error)
	MarkAsRead(ctx context.Context, conversationId string) (int64, error)
	GetAllConversations(ctx context.Context, q ConversationQuery) (*ConversationPage, error)
	GetChatStats(ctx context.Context) (*Stats, error)
}

// State 同步器的只读快照
type State struct {
	Conversations []Conversation // 按最近消息时间倒序
	Active        *Conversation
	Messages      []Message // 按时间正序
	Page          int       // 已加载到的页码
	HasMore       bool
	Typing        []string // 当前会话中正在输入的用户
	Stats         *Stats
	UnreadTotal   int
}

// SyncOption 同步器配置项
type SyncOption func(*Synchronizer)

// WithPollInterval 兜底轮询间隔
func WithPollInterval(d time.Duration) SyncOption {
	return func(s *Synchronizer) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithPageSize 消息分页大小
func WithPageSize(n int) SyncOption {
	return func(s *Synchronizer) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock 替换时钟，用于输入状态过期判断
func WithClock(now func() time.Time) SyncOption {
	return func(s *Synchronizer) {
		s.now = now
	}
}

// WithOnChange 状态变化回调，在锁外调用
func WithOnChange(fn func(State)) SyncOption {
	return func(s *Synchronizer) {
		s.onChange = fn
	}
}

// WithAdminSentinel 服务端配置的管理员共享 id
func WithAdminSentinel(id string) SyncOption {
	return func(s *Synchronizer) {
		if id != "" {
			s.adminSentinel = id
		}
	}
}

// WithLogger 日志
func WithLogger(logger *zap.Logger) SyncOption {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// Synchronizer 把分页接口数据与实时事件合并成一份本地视图
// 消息按 id 取并集，重复事件与轮询结果不会产生重复消息
type Synchronizer struct {
	api           API
	identity      Identity
	adminSentinel string
	pageSize      int
	pollInterval  time.Duration
	now           func() time.Time
	onChange      func(State)
	logger        *zap.Logger
	typing        *TypingTracker

	mu            sync.Mutex
	generation    uint64 // 每次切换会话自增，丢弃过期的请求结果
	conversations []Conversation
	active        *Conversation
	messages      map[string]Message
	page          int
	hasMore       bool
	stats         *Stats
	lastTyping    []string
}

// NewSynchronizer 创建同步器
func NewSynchronizer(api API, identity Identity, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{
		api:           api,
		identity:      identity,
		adminSentinel: DefaultAdminSentinel,
		pageSize:      DefaultPageSize,
		pollInterval:  DefaultPollInterval,
		now:           time.Now,
		logger:        zap.NewNop(),
		messages:      make(map[string]Message),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.typing = NewTypingTracker(DefaultTypingTimeout, s.now)
	return s
}

// Init 管理员加载会话列表，客户打开自己的活跃会话
func (s *Synchronizer) Init(ctx context.Context) error {
	if s.identity.IsAdmin() {
		_, err := s.Poll(ctx)
		return err
	}
	conv, err := s.api.GetOrCreateConversation(ctx, s.identity.Id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conversations = []Conversation{*conv}
	s.mu.Unlock()
	return s.SelectConversation(ctx, *conv)
}

// SelectConversation 切换当前会话
// 丢弃已缓存的消息，重新加载第一页后标记已读
func (s *Synchronizer) SelectConversation(ctx context.Context, conv Conversation) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	active := conv
	s.active = &active
	s.messages = make(map[string]Message)
	s.page = 0
	s.hasMore = false
	s.mu.Unlock()
	s.typing.Reset()
	s.notify()

	page, err := s.api.GetMessages(ctx, conv.ConversationId, 1, s.pageSize)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return nil
	}
	for _, msg := range page.Messages {
		s.upsertMessageLocked(msg)
	}
	s.page = 1
	s.hasMore = page.Pagination.HasNextPage
	s.mu.Unlock()
	s.notify()

	if _, err := s.api.MarkAsRead(ctx, conv.ConversationId); err != nil {
		return err
	}
	s.mu.Lock()
	changed := gen == s.generation && s.applyReadLocked(conv.ConversationId, s.identity.Role, s.now())
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return nil
}

// LoadOlder 加载下一页更早的消息
func (s *Synchronizer) LoadOlder(ctx context.Context) error {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return ErrNoActiveConversation
	}
	if !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	gen, conversationId, next := s.generation, s.active.ConversationId, s.page+1
	s.mu.Unlock()

	page, err := s.api.GetMessages(ctx, conversationId, next, s.pageSize)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return nil
	}
	for _, msg := range page.Messages {
		s.upsertMessageLocked(msg)
	}
	s.page = next
	s.hasMore = page.Pagination.HasNextPage
	s.mu.Unlock()
	s.notify()
	return nil
}

// Send 在当前会话发送消息，成功后立即并入本地视图
func (s *Synchronizer) Send(ctx context.Context, text string, attachment *Attachment) (*Message, error) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveConversation
	}
	conversationId := s.active.ConversationId
	s.mu.Unlock()

	msg, err := s.api.SendMessage(ctx, SendMessageInput{
		ConversationId: conversationId,
		Message:        text,
		Attachment:     attachment,
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	changed := s.applyMessageLocked(*msg)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return msg, nil
}

// ApplyEvent 合并一条实时事件，返回本地视图是否变化
// 未知事件直接忽略
func (s *Synchronizer) ApplyEvent(evt Event) bool {
	s.mu.Lock()
	changed := s.applyEventLocked(evt)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return changed
}

func (s *Synchronizer) applyEventLocked(evt Event) bool {
	switch evt.Name {
	case EventNewMessage:
		var msg Message
		if err := evt.Decode(&msg); err != nil {
			return false
		}
		s.typing.Signal(msg.SenderId, false)
		return s.applyMessageLocked(msg)
	case EventMessageDeleted:
		var p MessageDeleted
		if err := evt.Decode(&p); err != nil || !s.isActiveLocked(p.ConversationId) {
			return false
		}
		if _, ok := s.messages[p.MessageId]; !ok {
			return false
		}
		delete(s.messages, p.MessageId)
		return true
	case EventMessagesRead:
		var r ReadReceipt
		if err := evt.Decode(&r); err != nil {
			return false
		}
		return s.applyReadLocked(r.ConversationId, r.ReaderType, r.ReadAt)
	case EventConversationUpdated, EventConversationClosed:
		var conv Conversation
		if err := evt.Decode(&conv); err != nil || conv.ConversationId == "" {
			return false
		}
		return s.upsertConversationLocked(conv)
	case EventChatStatsUpdated:
		var st Stats
		if err := evt.Decode(&st); err != nil {
			return false
		}
		if s.stats != nil && *s.stats == st {
			return false
		}
		s.stats = &st
		return true
	case EventUserTyping:
		var t Typing
		if err := evt.Decode(&t); err != nil {
			return false
		}
		if s.isSelf(t.UserId, t.SenderType) || !s.isActiveLocked(t.ConversationId) {
			return false
		}
		s.typing.Signal(t.UserId, t.IsTyping)
		return true
	}
	return false
}

// isSelf 管理员一侧共用哨兵 id，任一管理员的输入都属于己方
func (s *Synchronizer) isSelf(userId, senderType string) bool {
	if s.identity.IsAdmin() {
		return senderType == RoleAdmin || userId == s.adminSentinel
	}
	return userId == s.identity.Id
}

// Poll 兜底刷新：管理员刷新会话列表与统计，当前会话刷新第一页消息及会话状态
// 只有可比较的内容发生变化时才提交并通知
func (s *Synchronizer) Poll(ctx context.Context) (bool, error) {
	var (
		convPage *ConversationPage
		stats    *Stats
		msgPage  *MessagePage
		err      error
	)
	if s.identity.IsAdmin() {
		if convPage, err = s.api.GetAllConversations(ctx, ConversationQuery{Page: 1, Limit: DefaultConversationLimit}); err != nil {
			return false, err
		}
		if stats, err = s.api.GetChatStats(ctx); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	gen := s.generation
	var conversationId string
	if s.active != nil {
		conversationId = s.active.ConversationId
	}
	s.mu.Unlock()
	if conversationId != "" {
		if msgPage, err = s.api.GetMessages(ctx, conversationId, 1, s.pageSize); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	changed := false
	if convPage != nil {
		next := slices.Clone(convPage.Conversations)
		sortConversations(next)
		if !cmp.Equal(conversationKeys(s.conversations), conversationKeys(next)) {
			s.conversations = next
			changed = true
		}
		if s.active != nil {
			if i := indexConversation(next, s.active.ConversationId); i >= 0 && !cmp.Equal(keyOf(*s.active), keyOf(next[i])) {
				active := next[i]
				s.active = &active
				changed = true
			}
		}
	}
	if stats != nil && (s.stats == nil || *s.stats != *stats) {
		s.stats = stats
		changed = true
	}
	if msgPage != nil && gen == s.generation {
		next := s.reconcileLocked(msgPage.Messages)
		if !cmp.Equal(messageKeys(s.messages), messageKeys(next)) {
			s.messages = next
			changed = true
		}
		if s.page == 0 {
			s.page = 1
			s.hasMore = msgPage.Pagination.HasNextPage
		}
		// 漏掉的关闭与已读事件由分页结果里的会话状态补齐
		if conv := msgPage.Conversation; conv != nil && s.isActiveLocked(conv.ConversationId) && s.upsertConversationLocked(*conv) {
			changed = true
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return changed, nil
}

// Run 消费实时事件并定时轮询，直到 ctx 结束
// events 被关闭后继续只靠轮询同步
func (s *Synchronizer) Run(ctx context.Context, events <-chan Event) error {
	pollTicker := time.NewTicker(s.pollInterval)
	defer pollTicker.Stop()
	typingTicker := time.NewTicker(DefaultTypingTimeout / 4)
	defer typingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				s.logger.Warn("实时连接已断开，仅依赖轮询同步")
				events = nil
				continue
			}
			if evt.Name == EventError {
				var p ErrorPayload
				_ = evt.Decode(&p)
				s.logger.Warn("服务端拒绝了请求", zap.Int("code", p.Code), zap.String("message", p.Message))
				continue
			}
			s.ApplyEvent(evt)
		case <-pollTicker.C:
			if _, err := s.Poll(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("轮询失败", zap.Error(err))
			}
		case <-typingTicker.C:
			s.expireTyping()
		}
	}
}

// Snapshot 返回当前状态的副本
func (s *Synchronizer) Snapshot() State {
	typing := s.typing.Active()
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Conversations: slices.Clone(s.conversations),
		Page:          s.page,
		HasMore:       s.hasMore,
		Typing:        typing,
		Messages:      make([]Message, 0, len(s.messages)),
	}
	if s.active != nil {
		active := *s.active
		st.Active = &active
	}
	if s.stats != nil {
		stats := *s.stats
		st.Stats = &stats
	}
	for _, msg := range s.messages {
		st.Messages = append(st.Messages, msg)
	}
	sortMessages(st.Messages)
	for _, c := range s.conversations {
		if s.identity.IsAdmin() {
			st.UnreadTotal += c.UnreadCountAdmin
		} else {
			st.UnreadTotal += c.UnreadCountClient
		}
	}
	return st
}

func (s *Synchronizer) notify() {
	snap := s.Snapshot()
	s.mu.Lock()
	s.lastTyping = snap.Typing
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(snap)
	}
}

func (s *Synchronizer) expireTyping() {
	active := s.typing.Active()
	s.mu.Lock()
	changed := !slices.Equal(active, s.lastTyping)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Synchronizer) isActiveLocked(conversationId string) bool {
	return s.active != nil && s.active.ConversationId == conversationId
}

// applyMessageLocked 并入当前会话的消息，并刷新会话的最后一条消息
func (s *Synchronizer) applyMessageLocked(msg Message) bool {
	changed := false
	if s.isActiveLocked(msg.ConversationId) {
		changed = s.upsertMessageLocked(msg)
	}
	if i := indexConversation(s.conversations, msg.ConversationId); i >= 0 {
		c := &s.conversations[i]
		if msg.CreatedAt.After(c.LastMessageAt) {
			c.LastMessage = msg.Message
			c.LastMessageAt = msg.CreatedAt
			sortConversations(s.conversations)
			changed = true
		}
	}
	return changed
}

func (s *Synchronizer) upsertMessageLocked(msg Message) bool {
	if old, ok := s.messages[msg.MessageId]; ok && cmp.Equal(messageKeyOf(old), messageKeyOf(msg)) {
		return false
	}
	s.messages[msg.MessageId] = msg
	return true
}

// applyReadLocked readerType 读过对方发送的消息
func (s *Synchronizer) applyReadLocked(conversationId, readerType string, readAt time.Time) bool {
	changed := false
	if s.isActiveLocked(conversationId) {
		for id, msg := range s.messages {
			if msg.SenderType == readerType || msg.IsRead {
				continue
			}
			at := readAt
			msg.IsRead = true
			msg.ReadAt = &at
			msg.Status = "read"
			s.messages[id] = msg
			changed = true
		}
	}
	clearUnread := func(c *Conversation) bool {
		if readerType == RoleAdmin && c.UnreadCountAdmin != 0 {
			c.UnreadCountAdmin = 0
			return true
		}
		if readerType != RoleAdmin && c.UnreadCountClient != 0 {
			c.UnreadCountClient = 0
			return true
		}
		return false
	}
	if i := indexConversation(s.conversations, conversationId); i >= 0 && clearUnread(&s.conversations[i]) {
		changed = true
	}
	if s.isActiveLocked(conversationId) && clearUnread(s.active) {
		changed = true
	}
	return changed
}

func (s *Synchronizer) upsertConversationLocked(conv Conversation) bool {
	changed := false
	if i := indexConversation(s.conversations, conv.ConversationId); i >= 0 {
		if !cmp.Equal(keyOf(s.conversations[i]), keyOf(conv)) {
			s.conversations[i] = conv
			changed = true
		}
	} else if s.identity.IsAdmin() || conv.CustomerId == s.identity.Id {
		s.conversations = append(s.conversations, conv)
		changed = true
	}
	if changed {
		sortConversations(s.conversations)
	}
	if s.isActiveLocked(conv.ConversationId) && !cmp.Equal(keyOf(*s.active), keyOf(conv)) {
		active := conv
		s.active = &active
		changed = true
	}
	return changed
}

// reconcileLocked 以第一页为准合并消息
// 第一页时间范围内却不在结果中的消息视为已被删除
func (s *Synchronizer) reconcileLocked(fetched []Message) map[string]Message {
	next := make(map[string]Message, len(s.messages)+len(fetched))
	for id, msg := range s.messages {
		next[id] = msg
	}
	if len(fetched) == 0 {
		return next
	}
	seen := make(map[string]struct{}, len(fetched))
	oldest, newest := fetched[0].CreatedAt, fetched[0].CreatedAt
	for _, msg := range fetched {
		next[msg.MessageId] = msg
		seen[msg.MessageId] = struct{}{}
		if msg.CreatedAt.Before(oldest) {
			oldest = msg.CreatedAt
		}
		if msg.CreatedAt.After(newest) {
			newest = msg.CreatedAt
		}
	}
	for id, msg := range next {
		if _, ok := seen[id]; ok {
			continue
		}
		if msg.CreatedAt.After(oldest) && !msg.CreatedAt.After(newest) {
			delete(next, id)
		}
	}
	return next
}

type messageKey struct {
	Id      string
	Message string
	Status  string
	IsRead  bool
}

type conversationKey struct {
	Id                string
	Status            string
	LastMessage       string
	LastMessageAt     time.Time
	UnreadCountAdmin  int
	UnreadCountClient int
}

func messageKeyOf(m Message) messageKey {
	return messageKey{Id: m.MessageId, Message: m.Message, Status: m.Status, IsRead: m.IsRead}
}

func messageKeys(messages map[string]Message) []messageKey {
	keys := make([]messageKey, 0, len(messages))
	for _, m := range messages {
		keys = append(keys, messageKeyOf(m))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Id < keys[j].Id })
	return keys
}

func keyOf(c Conversation) conversationKey {
	return conversationKey{
		Id:                c.ConversationId,
		Status:            c.Status,
		LastMessage:       c.LastMessage,
		LastMessageAt:     c.LastMessageAt,
		UnreadCountAdmin:  c.UnreadCountAdmin,
		UnreadCountClient: c.UnreadCountClient,
	}
}

func conversationKeys(conversations []Conversation) []conversationKey {
	keys := make([]conversationKey, 0, len(conversations))
	for _, c := range conversations {
		keys = append(keys, keyOf(c))
	}
	return keys
}

func indexConversation(conversations []Conversation, conversationId string) int {
	for i := range conversations {
		if conversations[i].ConversationId == conversationId {
			return i
		}
	}
	return -1
}

func sortConversations(conversations []Conversation) {
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})
}

func sortMessages(messages []Message) {
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		}
		return messages[i].MessageId < messages[j].MessageId
	})
}
