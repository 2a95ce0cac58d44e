package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dao "support_chat_server/internal/dao/mysql"
	myredis "support_chat_server/internal/dao/redis"
	"support_chat_server/internal/handler"
	"support_chat_server/internal/https_server"
	"support_chat_server/internal/service"
	"support_chat_server/internal/service/chat"
	"support_chat_server/pkg/util/jwt"
	"support_chat_server/pkg/util/snowflake"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 与 WebSocket 服务",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	// 1. 配置与日志
	conf, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = zap.L().Sync() }()

	if conf.JWTConfig.Secret == "" {
		return errors.New("jwtConfig.secret 未配置")
	}
	snowflake.Init(conf.SnowflakeConfig.MachineID)
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)

	// 2. 数据库
	repos, err := dao.Init()
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if sqlDB, dbErr := repos.DB().DB(); dbErr == nil {
		defer sqlDB.Close()
	}

	// 3. Redis，不可用时资料缓存降级为直接查库
	var (
		cache       myredis.AsyncCacheService
		redisClient *redis.Client
	)
	if err := myredis.Init(); err != nil {
		zap.L().Warn("Redis 不可用，关闭资料缓存", zap.Error(err))
		_ = myredis.Close()
	} else {
		cache = myredis.GetCacheService()
		redisClient = myredis.GetClient()
		defer myredis.Close()
		zap.L().Info("Redis 初始化成功")
	}

	// 4. 实时推送
	chatServer, err := chat.NewChatServer(chat.ChatServerConfig{
		Kafka:       conf.KafkaConfig,
		RedisClient: redisClient,
	})
	if err != nil {
		return fmt.Errorf("init chat server: %w", err)
	}
	chatServer.Start()
	defer func() {
		if err := chatServer.Close(); err != nil {
			zap.L().Warn("关闭实时服务失败", zap.Error(err))
		}
	}()

	// 5. Service / Handler / 路由
	services := service.NewServices(repos, cache, chatServer, conf.ChatConfig)
	gateway := chat.NewGateway(chatServer.Hub, services.Conversation, conf.CorsConfig.AllowOrigins, conf.ChatConfig.TypingRatePerSecond)
	if err := handler.InitTrans("zh"); err != nil {
		return fmt.Errorf("init validator translator: %w", err)
	}
	engine := https_server.Init(conf, handler.NewHandlers(services, gateway))

	// 6. 启动并等待退出信号
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("服务启动", zap.String("addr", srv.Addr), zap.String("event_mode", chatServer.Mode()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		zap.L().Info("关闭服务器...")
	case err := <-errCh:
		return fmt.Errorf("server running fault: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("服务器关闭超时", zap.Error(err))
	}
	zap.L().Info("服务器已关闭")
	return nil
}
