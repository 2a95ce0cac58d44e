// Package https_server 提供 HTTP/HTTPS 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件和路由
package https_server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"support_chat_server/internal/config"
	"support_chat_server/internal/handler"
	"support_chat_server/internal/infrastructure/logger"
	"support_chat_server/internal/infrastructure/metrics"
	"support_chat_server/internal/infrastructure/middleware"
	"support_chat_server/internal/router"
)

// Init 初始化 Gin 引擎
// 配置顺序：日志 -> 恢复 -> 指标 -> CORS -> TLS(可选) -> 业务路由
func Init(conf *config.Config, handlers *handler.Handlers) *gin.Engine {
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))
	engine.Use(metrics.GinMiddleware())

	// Cookie 鉴权需要 AllowCredentials，来源必须显式列出
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = conf.CorsConfig.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// 由 Nginx 终止 TLS 时保持关闭
	if conf.TlsConfig.Enable {
		engine.Use(middleware.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port, gin.IsDebugging()))
	}

	rt := router.NewRouter(handlers, conf.JWTConfig.CookieName)
	rt.RegisterRoutes(engine)

	return engine
}
