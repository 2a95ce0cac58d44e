package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dao "support_chat_server/internal/dao/mysql"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移",
	Long:  `根据模型自动创建或补齐 customer、conversation、message 表，不会删除已有字段。`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		conf, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		db, err := dao.Open(&conf.MysqlConfig)
		if err != nil {
			return err
		}
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			defer sqlDB.Close()
		}
		if err := dao.Migrate(db); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		zap.L().Info("数据库迁移完成", zap.String("driver", conf.MysqlConfig.Driver))
		return nil
	},
}
