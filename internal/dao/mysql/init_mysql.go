// Package mysql 提供数据访问层的初始化
// 负责建立数据库连接（MySQL 或 PostgreSQL）、自动迁移表结构、初始化 Repository 层
package mysql

import (
	"fmt"

	"support_chat_server/internal/config"
	"support_chat_server/internal/model"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open 根据配置选择驱动并建立连接
func Open(cfg *config.MysqlConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.DatabaseName, cfg.Port, cfg.SslMode)
		dialector = postgres.Open(dsn)
	case "mysql", "":
		// 格式：user:password@tcp(host:port)/database?params
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DatabaseName)
		dialector = mysqldriver.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// Migrate 自动迁移表结构
// 只创建缺失的表和字段，不会删除已有字段或数据
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Customer{},     // 客户资料表
		&model.Conversation{}, // 会话表
		&model.Message{},      // 消息表
	)
}

// Init 初始化数据库连接并返回 Repository 层实例
//  1. 从配置读取连接信息并打开连接
//  2. 执行 AutoMigrate
//  3. 创建并返回 Repository 实例
func Init() (*Repositories, error) {
	conf := config.GetConfig()

	db, err := Open(&conf.MysqlConfig)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	zap.L().Info("数据库初始化成功",
		zap.String("driver", conf.MysqlConfig.Driver),
		zap.String("database", conf.MysqlConfig.DatabaseName),
	)
	return NewRepositories(db), nil
}
