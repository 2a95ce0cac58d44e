package constants

const (
	CHANNEL_SIZE              = 100 // 通道大小
	WS_SEND_BUFFER_SIZE       = 64  // 单个 WebSocket 连接的下行缓冲
	REDIS_TIMEOUT             = 10  // redis 缓存默认过期时间（分钟）
	CACHE_WORKER_NUM          = 15  // 缓存 Worker 数量
	CACHE_TASK_BUFFER         = 3000
	MESSAGE_MAX_LENGTH        = 1000 // 单条消息最大字符数
	MESSAGE_PAGE_SIZE         = 50   // 消息分页默认大小
	CONVERSATION_PAGE_SIZE    = 20   // 会话列表分页默认大小
	MAX_PAGE_SIZE             = 100  // 分页上限
	ADMIN_SENTINEL_ID         = "admin"
	ADMIN_DISPLAY_NAME        = "在线客服"
	AUTH_COOKIE_NAME          = "authToken"
	CONVERSATION_ID_PREFIX    = "chat_"
	CUSTOMER_PROFILE_KEY      = "customer_profile_" // 客户资料缓存 key 前缀
	UNKNOWN_CUSTOMER_NAME     = "未知客户"
	ATTACHMENT_PREVIEW_PREFIX = "[附件] "
	CTX_IDENTITY              = "identity" // gin 上下文中保存当前身份的 key
)
