// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找，并允许通过环境变量（含 .env 文件）覆盖
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/BurntSushi/toml"   // TOML 配置文件解析库
	"github.com/caarlos0/env/v10" // 环境变量覆盖
	"github.com/joho/godotenv"    // .env 文件加载

	"support_chat_server/pkg/constants"
)

// EnvPrefix 环境变量前缀，例如 SUPPORT_CHAT_MYSQL_HOST
const EnvPrefix = "SUPPORT_CHAT_"

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName string `toml:"appName" env:"APP_NAME"` // 应用名称，用于日志标识等
	Host    string `toml:"host" env:"HOST"`        // 服务器监听地址，如 "0.0.0.0"
	Port    int    `toml:"port" env:"PORT"`        // 服务器监听端口，如 8000
	Mode    string `toml:"mode" env:"MODE"`        // 运行模式：debug / release / test
}

// MysqlConfig 关系型数据库连接配置
type MysqlConfig struct {
	Driver       string `toml:"driver" env:"DB_DRIVER"`     // mysql 或 postgres
	Host         string `toml:"host" env:"DB_HOST"`         // 数据库地址
	Port         int    `toml:"port" env:"DB_PORT"`         // 端口
	User         string `toml:"user" env:"DB_USER"`         // 用户名
	Password     string `toml:"password" env:"DB_PASSWORD"` // 密码
	DatabaseName string `toml:"databaseName" env:"DB_NAME"` // 数据库名称
	SslMode      string `toml:"sslMode" env:"DB_SSLMODE"`   // postgres sslmode
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `toml:"host" env:"REDIS_HOST"`         // Redis 服务器地址
	Port     int    `toml:"port" env:"REDIS_PORT"`         // Redis 端口，默认 6379
	Password string `toml:"password" env:"REDIS_PASSWORD"` // Redis 密码，无密码留空
	Db       int    `toml:"db" env:"REDIS_DB"`             // Redis 数据库编号，默认 0
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath" env:"LOG_PATH"`  // 日志文件存储目录
	FileName   string `toml:"fileName" env:"LOG_FILE"` // 日志文件名
	MaxSize    int    `toml:"maxSize"`                 // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"`              // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`                  // 保留旧日志文件的最大天数
	Level      string `toml:"level" env:"LOG_LEVEL"`   // 日志级别：debug, info, warn, error
}

// KafkaConfig 实时事件分发配置
type KafkaConfig struct {
	MessageMode string        `toml:"messageMode" env:"MESSAGE_MODE"` // "channel"、"kafka" 或 "redis"
	HostPort    string        `toml:"hostPort" env:"KAFKA_HOST_PORT"` // Kafka 地址，如 "localhost:9092"
	EventTopic  string        `toml:"eventTopic" env:"EVENT_TOPIC"`   // 事件主题（Kafka topic / Redis channel）
	Partition   int           `toml:"partition"`                      // 创建 Kafka topic 时的分区数
	Timeout     time.Duration `toml:"timeout"`                        // 超时时间（秒）
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret            string `toml:"secret" env:"JWT_SECRET"`     // JWT 签名密钥
	CookieName        string `toml:"cookieName" env:"JWT_COOKIE"` // 携带凭证的 Cookie 名称
	AccessTokenExpiry int    `toml:"accessTokenExpiry"`           // Token 有效期（分钟），仅 token 子命令使用
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId" env:"MACHINE_ID"` // 节点 ID，范围 0-1023
}

// ChatConfig 客服会话相关配置
type ChatConfig struct {
	AdminSentinelId      string `toml:"adminSentinelId"`      // 管理员消息统一使用的发送者 ID
	AdminDisplayName     string `toml:"adminDisplayName"`     // 管理员展示名称
	MessageMaxLength     int    `toml:"messageMaxLength"`     // 单条消息最大字符数
	MessagePageSize      int    `toml:"messagePageSize"`      // 消息默认分页大小
	ConversationPageSize int    `toml:"conversationPageSize"` // 会话列表默认分页大小
	MaxPageSize          int    `toml:"maxPageSize"`          // 分页上限
	ProfileCacheTTL      int    `toml:"profileCacheTTL"`      // 客户资料缓存时间（分钟）
	TypingRatePerSecond  int    `toml:"typingRatePerSecond"`  // 每个连接每秒允许的 typing 帧数
}

// CorsConfig 跨域配置
// Cookie 鉴权要求 AllowCredentials，因此不能使用 "*"
type CorsConfig struct {
	AllowOrigins []string `toml:"allowOrigins" env:"CORS_ORIGINS" envSeparator:","`
}

// TlsConfig HTTPS 重定向配置
type TlsConfig struct {
	Enable bool `toml:"enable" env:"TLS_ENABLE"`
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`      // 主配置
	MysqlConfig     `toml:"mysqlConfig"`     // 数据库配置
	RedisConfig     `toml:"redisConfig"`     // Redis 配置
	LogConfig       `toml:"logConfig"`       // 日志配置
	KafkaConfig     `toml:"kafkaConfig"`     // 事件分发配置
	JWTConfig       `toml:"jwtConfig"`       // JWT 配置
	SnowflakeConfig `toml:"snowflakeConfig"` // 雪花算法配置
	ChatConfig      `toml:"chatConfig"`      // 客服会话配置
	CorsConfig      `toml:"corsConfig"`      // 跨域配置
	TlsConfig       `toml:"tlsConfig"`       // TLS 配置
}

var (
	config   *Config
	configMu sync.Mutex
)

// searchPaths 候选配置文件路径（优先加载本地配置）
var searchPaths = []string{
	"configs/config_local.toml",
	"configs/config.toml",
	"../../configs/config_local.toml", // 从子目录运行时的路径
	"../../configs/config.toml",
}

// LoadConfig 加载配置文件
// path 非空时只加载该文件；否则按 searchPaths 顺序查找第一个可用的配置文件
// 加载顺序：TOML 文件 -> .env -> 环境变量 -> 默认值补齐
func LoadConfig(path string) (*Config, error) {
	cfg := new(Config)
	var fileErr error
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	} else {
		fileErr = fmt.Errorf("could not find configuration file in any of the search paths")
		for _, p := range searchPaths {
			if _, err := toml.DecodeFile(p, cfg); err == nil {
				fileErr = nil
				break
			}
		}
	}

	// .env 不存在时忽略
	_ = godotenv.Load()
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, fileErr
}

// applyDefaults 为未配置的字段补齐默认值
func (c *Config) applyDefaults() {
	if c.MainConfig.AppName == "" {
		c.MainConfig.AppName = "support_chat_server"
	}
	if c.MainConfig.Host == "" {
		c.MainConfig.Host = "0.0.0.0"
	}
	if c.MainConfig.Port == 0 {
		c.MainConfig.Port = 8000
	}
	if c.MainConfig.Mode == "" {
		c.MainConfig.Mode = "debug"
	}
	if c.MysqlConfig.Driver == "" {
		c.MysqlConfig.Driver = "mysql"
	}
	if c.MysqlConfig.SslMode == "" {
		c.MysqlConfig.SslMode = "disable"
	}
	if c.RedisConfig.Host == "" {
		c.RedisConfig.Host = "127.0.0.1"
	}
	if c.RedisConfig.Port == 0 {
		c.RedisConfig.Port = 6379
	}
	if c.LogConfig.LogPath == "" {
		c.LogConfig.LogPath = "./logs"
	}
	if c.KafkaConfig.MessageMode == "" {
		c.KafkaConfig.MessageMode = "channel"
	}
	if c.KafkaConfig.EventTopic == "" {
		c.KafkaConfig.EventTopic = "support_chat_events"
	}
	if c.KafkaConfig.Partition == 0 {
		c.KafkaConfig.Partition = 1
	}
	if c.KafkaConfig.Timeout == 0 {
		c.KafkaConfig.Timeout = 1
	}
	if c.JWTConfig.CookieName == "" {
		c.JWTConfig.CookieName = constants.AUTH_COOKIE_NAME
	}
	if c.JWTConfig.AccessTokenExpiry == 0 {
		c.JWTConfig.AccessTokenExpiry = 60 * 24
	}
	if c.ChatConfig.AdminSentinelId == "" {
		c.ChatConfig.AdminSentinelId = constants.ADMIN_SENTINEL_ID
	}
	if c.ChatConfig.AdminDisplayName == "" {
		c.ChatConfig.AdminDisplayName = constants.ADMIN_DISPLAY_NAME
	}
	if c.ChatConfig.MessageMaxLength == 0 {
		c.ChatConfig.MessageMaxLength = constants.MESSAGE_MAX_LENGTH
	}
	if c.ChatConfig.MessagePageSize == 0 {
		c.ChatConfig.MessagePageSize = constants.MESSAGE_PAGE_SIZE
	}
	if c.ChatConfig.ConversationPageSize == 0 {
		c.ChatConfig.ConversationPageSize = constants.CONVERSATION_PAGE_SIZE
	}
	if c.ChatConfig.MaxPageSize == 0 {
		c.ChatConfig.MaxPageSize = constants.MAX_PAGE_SIZE
	}
	if c.ChatConfig.ProfileCacheTTL == 0 {
		c.ChatConfig.ProfileCacheTTL = constants.REDIS_TIMEOUT
	}
	if c.ChatConfig.TypingRatePerSecond == 0 {
		c.ChatConfig.TypingRatePerSecond = 2
	}
	if len(c.CorsConfig.AllowOrigins) == 0 {
		c.CorsConfig.AllowOrigins = []string{"http://localhost:5173"}
	}
}

// SetConfig 替换全局配置实例，供命令行 --config 参数和测试使用
func SetConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	config = cfg
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件，找不到文件时使用默认值
func GetConfig() *Config {
	configMu.Lock()
	defer configMu.Unlock()
	if config == nil {
		// 找不到配置文件时 LoadConfig 仍返回补齐默认值的配置
		cfg, _ := LoadConfig("")
		if cfg == nil {
			// 环境变量格式错误
			cfg = new(Config)
			cfg.applyDefaults()
		}
		config = cfg
	}
	return config
}
