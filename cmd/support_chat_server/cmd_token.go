package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"support_chat_server/internal/model"
	"support_chat_server/pkg/util/jwt"
)

// token 命令用于本地调试，线上 Token 由主站签发
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "签发调试用的 JWT",
	Example: `  support_chat_server token --id cus_1 --role Customer
  support_chat_server token --id ops_1 --role admin --email ops@example.com`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("id", "", "用户 id")
	tokenCmd.Flags().String("role", string(model.RoleCustomer), "用户类型：Customer 或 admin")
	tokenCmd.Flags().String("email", "", "邮箱")
	_ = tokenCmd.MarkFlagRequired("id")
}

func runToken(cmd *cobra.Command, _ []string) error {
	conf, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	if conf.JWTConfig.Secret == "" {
		return errors.New("jwtConfig.secret 未配置")
	}

	id, _ := cmd.Flags().GetString("id")
	role, _ := cmd.Flags().GetString("role")
	email, _ := cmd.Flags().GetString("email")
	if !model.Role(role).Valid() {
		return fmt.Errorf("未知的用户类型: %s", role)
	}

	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)
	token, err := jwt.GenerateToken(id, role, email)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
