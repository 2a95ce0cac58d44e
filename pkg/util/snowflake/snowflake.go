// Package snowflake 生成消息 id
package snowflake

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
)

// Init 初始化雪花算法节点，只有第一次调用生效
// machineID 超出 0-1023 时使用 1
func Init(machineID int64) {
	nodeOnce.Do(func() {
		if machineID < 0 || machineID > 1023 {
			zap.L().Warn("雪花算法节点 ID 非法，使用默认值 1", zap.Int64("machineID", machineID))
			machineID = 1
		}
		var err error
		node, err = snowflake.NewNode(machineID)
		if err != nil {
			zap.L().Fatal("初始化雪花算法节点失败", zap.Error(err))
		}
		zap.L().Info("雪花算法节点已初始化", zap.Int64("machineID", machineID))
	})
}

// GenerateIDString 生成雪花 ID 字符串
// 以字符串形式下发，避免 JavaScript 精度丢失
func GenerateIDString() string {
	Init(1)
	return node.Generate().String()
}
