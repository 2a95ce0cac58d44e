package chatclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultCookieName 服务端默认读取的 Cookie 名称
const DefaultCookieName = "authToken"

// APIError 服务端返回的业务错误
type APIError struct {
	Status  int    // HTTP 状态码
	Code    int    // 业务错误码
	Message string // 错误提示
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat api error (status %d, code %d): %s", e.Status, e.Code, e.Message)
}

type errorBody struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Client 客服聊天 HTTP 客户端
type Client struct {
	http       *resty.Client
	baseURL    string
	token      string
	cookieName string
}

// Option 客户端配置项
type Option func(*Client)

// WithToken 使用 JWT 认证，Token 以 Cookie 形式携带
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithCookieName 修改携带 Token 的 Cookie 名称
func WithCookieName(name string) Option {
	return func(c *Client) {
		c.cookieName = name
	}
}

// WithTimeout 请求超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// New 创建客户端
// baseURL 为接口前缀，例如 http://localhost:8000/api/chat
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetHeader("User-Agent", "support-chat-client/1.0").
			SetTimeout(15 * time.Second),
		baseURL:    strings.TrimRight(baseURL, "/"),
		cookieName: DefaultCookieName,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.SetBaseURL(c.baseURL)
	if c.token != "" {
		c.http.SetCookie(&http.Cookie{Name: c.cookieName, Value: c.token})
	}
	return c
}

// do 发送请求并把成功响应解析到 out，失败时返回 *APIError
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetError(&errorBody{})
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode()}
		if e, ok := resp.Error().(*errorBody); ok {
			apiErr.Code = e.Code
			apiErr.Message = e.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = resp.Status()
		}
		return apiErr
	}
	return nil
}

// GetOrCreateConversation 获取或创建客户的活跃会话
func (c *Client) GetOrCreateConversation(ctx context.Context, customerId string) (*Conversation, error) {
	var out struct {
		Conversation Conversation `json:"conversation"`
	}
	if err := c.do(ctx, http.MethodGet, "/conversation/"+url.PathEscape(customerId), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Conversation, nil
}

// AdminGetOrCreateConversation 管理员为客户打开会话
func (c *Client) AdminGetOrCreateConversation(ctx context.Context, customerId string) (*Conversation, error) {
	var out struct {
		Conversation Conversation `json:"conversation"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/conversation/"+url.PathEscape(customerId), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Conversation, nil
}

// SendMessage 发送消息
func (c *Client) SendMessage(ctx context.Context, in SendMessageInput) (*Message, error) {
	var out struct {
		Message Message `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/message", nil, in, &out); err != nil {
		return nil, err
	}
	return &out.Message, nil
}

// DeleteMessage 删除自己发送的消息
func (c *Client) DeleteMessage(ctx context.Context, messageId string) (*MessageDeleted, error) {
	var out MessageDeleted
	if err := c.do(ctx, http.MethodDelete, "/message/"+url.PathEscape(messageId), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMessages 分页获取消息，page 与 limit 为 0 时使用服务端默认值
func (c *Client) GetMessages(ctx context.Context, conversationId string, page, limit int) (*MessagePage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out MessagePage
	if err := c.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(conversationId), query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkAsRead 标记对方消息已读，返回更新的消息数
func (c *Client) MarkAsRead(ctx context.Context, conversationId string) (int64, error) {
	var out struct {
		MessagesUpdated int64 `json:"messagesUpdated"`
	}
	if err := c.do(ctx, http.MethodPut, "/read/"+url.PathEscape(conversationId), nil, nil, &out); err != nil {
		return 0, err
	}
	return out.MessagesUpdated, nil
}

// GetAllConversations 管理员分页查询会话
func (c *Client) GetAllConversations(ctx context.Context, q ConversationQuery) (*ConversationPage, error) {
	query := url.Values{}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Status != "" {
		query.Set("status", q.Status)
	}
	var out ConversationPage
	if err := c.do(ctx, http.MethodGet, "/admin/conversations", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CloseConversation 管理员关闭会话
func (c *Client) CloseConversation(ctx context.Context, conversationId string) (*Conversation, error) {
	var out struct {
		Conversation Conversation `json:"conversation"`
	}
	if err := c.do(ctx, http.MethodPut, "/admin/close/"+url.PathEscape(conversationId), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Conversation, nil
}

// GetChatStats 管理员统计
func (c *Client) GetChatStats(ctx context.Context) (*Stats, error) {
	var out struct {
		Stats Stats `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Stats, nil
}

// DialRealtime 建立 WebSocket 连接，认证信息与 HTTP 请求一致
func (c *Client) DialRealtime(ctx context.Context) (*Realtime, error) {
	wsURL, err := realtimeURL(c.baseURL)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if c.token != "" {
		header.Set("Cookie", (&http.Cookie{Name: c.cookieName, Value: c.token}).String())
	}
	return DialRealtime(ctx, wsURL, header)
}

func realtimeURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}
