package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"support_chat_server/internal/config"
	"support_chat_server/internal/infrastructure/logger"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "support_chat_server",
	Short: "客服聊天服务",
	Long: `support_chat_server 提供客户与客服之间的会话、消息和实时推送接口。

Examples:
  support_chat_server serve --config configs/config.toml
  support_chat_server migrate
  support_chat_server token --id cus_1 --role Customer`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)

	rootCmd.PersistentFlags().String("config", "", "配置文件路径，留空时按默认路径查找")
}

// bootstrap 加载配置并初始化日志
func bootstrap(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	conf, err := config.LoadConfig(path)
	if conf == nil {
		return nil, err
	}
	config.SetConfig(conf)

	switch conf.MainConfig.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(conf.MainConfig.Mode)
	default:
		return nil, fmt.Errorf("未知的运行模式: %s", conf.MainConfig.Mode)
	}

	if lErr := logger.Init(&conf.LogConfig, conf.MainConfig.Mode, conf.MainConfig.AppName); lErr != nil {
		return nil, fmt.Errorf("init logger: %w", lErr)
	}
	// 找不到配置文件时使用默认值和环境变量
	if err != nil {
		zap.L().Warn("未找到配置文件，使用默认配置", zap.Error(err))
	}
	return conf, nil
}
