// Package internal 定义数据访问层内部共享的辅助函数
// 提供数据库错误包装等工具函数，供各个 repository 子包使用
package internal

import (
	"errors"

	"support_chat_server/internal/model"
	"support_chat_server/pkg/errorx"

	"gorm.io/gorm"
)

// WrapDBError 包装数据库错误
//   - ErrRecordNotFound -> CodeNotFound
//   - 其他错误 -> CodeDBError
func WrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrap(err, errorx.CodeNotFound, msg)
	}
	return errorx.Wrap(err, errorx.CodeDBError, msg)
}

// WrapDBErrorf 功能同 WrapDBError，支持格式化消息
func WrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrapf(err, errorx.CodeNotFound, format, args...)
	}
	return errorx.Wrapf(err, errorx.CodeDBError, format, args...)
}

// UnreadColumn 返回某一方角色对应的未读计数列
func UnreadColumn(reader model.Role) string {
	if reader == model.RoleAdmin {
		return "unread_count_admin"
	}
	return "unread_count_client"
}
