// Package redis 提供 Redis 缓存操作的封装
// 本文件仅包含 Redis 连接初始化逻辑
// 使用 github.com/redis/go-redis/v9 作为底层客户端
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"support_chat_server/internal/config"
	"support_chat_server/pkg/constants"

	"github.com/redis/go-redis/v9"
)

// redisClient 全局 Redis 客户端实例（包内可见）
var redisClient *redis.Client

// cacheService 全局缓存服务实例
var cacheService *RedisCache

// Init 初始化 Redis 连接并启动缓存 Worker Pool
func Init() error {
	conf := config.GetConfig()
	addr := conf.RedisConfig.Host + ":" + strconv.Itoa(conf.RedisConfig.Port)

	redisClient = redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     conf.RedisConfig.Password,
		DB:           conf.RedisConfig.Db,
		PoolSize:     50,                         // 最大连接数
		MinIdleConns: constants.CACHE_WORKER_NUM, // 最小空闲连接，与 Worker 数量匹配
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis %s: %w", addr, err)
	}

	cacheService = NewRedisCache(redisClient, constants.CACHE_WORKER_NUM, constants.CACHE_TASK_BUFFER)
	return nil
}

// GetCacheService 获取缓存服务实例
// 未初始化时返回 nil 接口，调用方据此降级为直接查库
func GetCacheService() AsyncCacheService {
	if cacheService == nil {
		return nil
	}
	return cacheService
}

// GetClient 获取底层客户端，供 Pub/Sub 事件分发使用
func GetClient() *redis.Client {
	return redisClient
}

// Close 停止 Worker 并关闭连接
func Close() error {
	if cacheService != nil {
		cacheService.Stop()
	}
	if redisClient == nil {
		return nil
	}
	return redisClient.Close()
}
