// Package redis 定义缓存服务接口
// Service 层依赖此接口而非具体 Redis 实现
package redis

import (
	"context"
	"time"
)

// CacheService 缓存服务接口
type CacheService interface {
	// Set 设置键值对并指定过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// MGet 批量获取，返回值与 keys 一一对应，不存在的键对应空字符串
	MGet(ctx context.Context, keys ...string) ([]string, error)
}

// AsyncCacheService 异步缓存服务接口
// 资料回填不阻塞请求，写入交给 Worker 执行
type AsyncCacheService interface {
	CacheService
	// SubmitTask 提交异步缓存任务，队列满时同步执行
	SubmitTask(action func())
}
