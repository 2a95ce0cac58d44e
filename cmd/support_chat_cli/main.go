package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"support_chat_server/pkg/chatclient"
	"support_chat_server/pkg/util/jwt"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "support_chat_cli",
	Short: "客服聊天命令行客户端",
	Long: `support_chat_cli 通过 HTTP 接口与 WebSocket 连接客服聊天服务。

Examples:
  support_chat_cli watch --token $TOKEN
  support_chat_cli watch --token $ADMIN_TOKEN --customer cus_1
  support_chat_cli send --token $TOKEN "你好，我的订单还没发货"
  support_chat_cli stats --token $ADMIN_TOKEN`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		cfg := zap.NewDevelopmentConfig()
		if !verbose {
			cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		}
		logger, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(statsCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("base-url", envOr("SUPPORT_CHAT_URL", "http://localhost:8000/api/chat"), "接口前缀")
	flags.String("token", os.Getenv("SUPPORT_CHAT_TOKEN"), "JWT，默认读取 SUPPORT_CHAT_TOKEN")
	flags.String("cookie-name", chatclient.DefaultCookieName, "携带 Token 的 Cookie 名称")
	flags.Duration("timeout", 15*time.Second, "单次请求超时")
	flags.Bool("verbose", false, "输出调试日志")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// session 由全局参数得到的客户端与当前身份
type session struct {
	client   *chatclient.Client
	identity chatclient.Identity
}

func newSession(cmd *cobra.Command) (*session, error) {
	flags := cmd.Flags()
	baseURL, _ := flags.GetString("base-url")
	token, _ := flags.GetString("token")
	cookieName, _ := flags.GetString("cookie-name")
	timeout, _ := flags.GetDuration("timeout")
	if token == "" {
		return nil, errors.New("缺少 --token")
	}

	claims, err := jwt.PeekClaims(token)
	if err != nil {
		return nil, fmt.Errorf("无法解析 token: %w", err)
	}
	if claims.Id == "" || (claims.UserType != chatclient.RoleCustomer && claims.UserType != chatclient.RoleAdmin) {
		return nil, fmt.Errorf("token 中的身份无效: id=%q userType=%q", claims.Id, claims.UserType)
	}

	return &session{
		client: chatclient.New(baseURL,
			chatclient.WithToken(token),
			chatclient.WithCookieName(cookieName),
			chatclient.WithTimeout(timeout)),
		identity: chatclient.Identity{Id: claims.Id, Role: claims.UserType},
	}, nil
}
