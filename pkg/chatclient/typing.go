package chatclient

import (
	"sort"
	"sync"
	"time"
)

// DefaultTypingTimeout 最后一次输入信号后多久视为停止输入
const DefaultTypingTimeout = 2 * time.Second

// TypingTracker 按用户记录正在输入状态
type TypingTracker struct {
	mu      sync.Mutex
	timeout time.Duration
	now     func() time.Time
	last    map[string]time.Time
}

// NewTypingTracker now 为 nil 时使用 time.Now
func NewTypingTracker(timeout time.Duration, now func() time.Time) *TypingTracker {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &TypingTracker{
		timeout: timeout,
		now:     now,
		last:    make(map[string]time.Time),
	}
}

// Signal 记录一次输入信号，isTyping 为 false 时立即清除
func (t *TypingTracker) Signal(userId string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if isTyping {
		t.last[userId] = t.now()
		return
	}
	delete(t.last, userId)
}

// Active 返回仍在输入的用户，按 id 排序，顺带清理过期记录
func (t *TypingTracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	users := make([]string, 0, len(t.last))
	for id, at := range t.last {
		if now.Sub(at) >= t.timeout {
			delete(t.last, id)
			continue
		}
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

// Reset 清空全部记录，切换会话时使用
func (t *TypingTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.last)
}
