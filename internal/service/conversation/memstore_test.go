package conversation

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"support_chat_server/internal/dao/mysql"
	"support_chat_server/internal/model"
	"support_chat_server/pkg/errorx"
)

// memStore 内存版存储，语义与 gorm 实现保持一致
type memStore struct {
	mu            sync.Mutex
	conversations map[string]*model.Conversation
	messages      []*model.Message
	customers     map[string]model.Customer
	nextId        uint
}

func newMemStore() *memStore {
	return &memStore{
		conversations: map[string]*model.Conversation{},
		customers:     map[string]model.Customer{},
	}
}

func (m *memStore) repositories() *mysql.Repositories {
	return &mysql.Repositories{
		Conversation: &memConversations{m},
		Message:      &memMessages{m},
		Customer:     &memCustomers{m},
	}
}

func (m *memStore) addCustomer(id, name string) {
	m.customers[id] = model.Customer{CustomerId: id, FullName: name, Email: id + "@example.com"}
}

func notFound(what string) error {
	return errorx.New(errorx.CodeNotFound, what+" not found")
}

type memConversations struct{ m *memStore }

func (r *memConversations) FindByConversationId(_ context.Context, id string) (*model.Conversation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.conversations[id]
	if !ok {
		return nil, notFound("conversation")
	}
	cp := *c
	return &cp, nil
}

func (r *memConversations) FindActiveByCustomerId(_ context.Context, customerId string) (*model.Conversation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.conversations {
		if c.ActiveKey.Valid && c.ActiveKey.String == customerId && c.Status == model.ConversationActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, notFound("active conversation")
}

func (r *memConversations) Create(_ context.Context, c *model.Conversation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.conversations[c.ConversationId]; ok {
		return errorx.New(errorx.CodeDBError, "duplicate conversation_id")
	}
	for _, existing := range r.m.conversations {
		if existing.ActiveKey.Valid && c.ActiveKey.Valid && existing.ActiveKey.String == c.ActiveKey.String {
			return errorx.New(errorx.CodeDBError, "duplicate active_key")
		}
	}
	r.m.nextId++
	c.ID = r.m.nextId
	cp := *c
	r.m.conversations[c.ConversationId] = &cp
	return nil
}

func (r *memConversations) ApplyNewMessage(_ context.Context, id, preview string, at time.Time, recipient model.Role) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.conversations[id]
	if !ok || c.Status != model.ConversationActive {
		return 0, nil
	}
	c.LastMessage = preview
	c.LastMessageAt = at
	if recipient == model.RoleAdmin {
		c.UnreadCountAdmin++
	} else {
		c.UnreadCountClient++
	}
	return 1, nil
}

func (r *memConversations) SubtractUnread(_ context.Context, id string, reader model.Role, n int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.conversations[id]
	if !ok {
		return nil
	}
	counter := &c.UnreadCountClient
	if reader == model.RoleAdmin {
		counter = &c.UnreadCountAdmin
	}
	*counter = max(*counter-int(n), 0)
	return nil
}

func (r *memConversations) UpdateLastMessage(_ context.Context, id, preview string, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if c, ok := r.m.conversations[id]; ok {
		c.LastMessage = preview
		c.LastMessageAt = at
	}
	return nil
}

func (r *memConversations) Close(_ context.Context, id string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.conversations[id]
	if !ok || c.Status != model.ConversationActive {
		return 0, nil
	}
	c.Status = model.ConversationClosed
	c.ActiveKey = sql.NullString{}
	return 1, nil
}

func (r *memConversations) List(_ context.Context, status string, offset, limit int) ([]model.Conversation, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var all []model.Conversation
	for _, c := range r.m.conversations {
		if status == "" || c.Status == status {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].LastMessageAt.Equal(all[j].LastMessageAt) {
			return all[i].LastMessageAt.After(all[j].LastMessageAt)
		}
		return all[i].ID > all[j].ID
	})
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memConversations) CountByStatus(_ context.Context, status string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, c := range r.m.conversations {
		if status == "" || c.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memConversations) SumUnreadAdmin(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, c := range r.m.conversations {
		n += int64(c.UnreadCountAdmin)
	}
	return n, nil
}

type memMessages struct{ m *memStore }

func (r *memMessages) Create(_ context.Context, msg *model.Message) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextId++
	msg.ID = r.m.nextId
	cp := *msg
	r.m.messages = append(r.m.messages, &cp)
	return nil
}

func (r *memMessages) FindByMessageId(_ context.Context, messageId string) (*model.Message, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, msg := range r.m.messages {
		if msg.MessageId == messageId {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, notFound("message")
}

// visibleNewestFirst 调用方需持有锁
func (r *memMessages) visibleNewestFirst(conversationId string) []model.Message {
	var out []model.Message
	for _, msg := range r.m.messages {
		if msg.ConversationId == conversationId && !msg.IsDeleted {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *memMessages) FindPage(_ context.Context, conversationId string, offset, limit int) ([]model.Message, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	all := r.visibleNewestFirst(conversationId)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memMessages) CountVisible(_ context.Context, conversationId string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.visibleNewestFirst(conversationId))), nil
}

func (r *memMessages) FindLatestVisible(_ context.Context, conversationId string) (*model.Message, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	all := r.visibleNewestFirst(conversationId)
	if len(all) == 0 {
		return nil, notFound("message")
	}
	return &all[0], nil
}

func (r *memMessages) MarkRead(_ context.Context, conversationId, readerSenderId string, at time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, msg := range r.m.messages {
		if msg.ConversationId == conversationId && msg.SenderId != readerSenderId && !msg.IsRead && !msg.IsDeleted {
			msg.IsRead = true
			msg.ReadAt = sql.NullTime{Time: at, Valid: true}
			msg.Status = model.MessageRead
			n++
		}
	}
	return n, nil
}

func (r *memMessages) SoftDelete(_ context.Context, messageId string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, msg := range r.m.messages {
		if msg.MessageId == messageId {
			msg.IsDeleted = true
		}
	}
	return nil
}

func (r *memMessages) CountAll(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, msg := range r.m.messages {
		if !msg.IsDeleted {
			n++
		}
	}
	return n, nil
}

type memCustomers struct{ m *memStore }

func (r *memCustomers) FindByCustomerId(_ context.Context, customerId string) (*model.Customer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.customers[customerId]
	if !ok {
		return nil, notFound("customer")
	}
	return &c, nil
}

func (r *memCustomers) FindByCustomerIds(_ context.Context, ids []string) ([]model.Customer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.Customer
	for _, id := range ids {
		if c, ok := r.m.customers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// unreadFrom 统计某一方发送、尚未被对方读取的可见消息
func (m *memStore) unreadFrom(conversationId string, sender model.Role) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if msg.ConversationId == conversationId && msg.SenderType == sender && !msg.IsRead && !msg.IsDeleted {
			n++
		}
	}
	return n
}
