//go:build integration

// 需要真实数据库：
//
//	SUPPORT_CHAT_DB_DRIVER=mysql SUPPORT_CHAT_DB_HOST=127.0.0.1 SUPPORT_CHAT_DB_PORT=3306 \
//	SUPPORT_CHAT_DB_USER=root SUPPORT_CHAT_DB_PASSWORD=secret SUPPORT_CHAT_DB_NAME=support_chat \
//	go test -tags integration ./internal/dao/mysql/...
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support_chat_server/internal/config"
	"support_chat_server/internal/model"
	"support_chat_server/pkg/constants"
	"support_chat_server/pkg/errorx"
)

// openTestRepos 按环境变量连接数据库并迁移，未配置时跳过
func openTestRepos(t *testing.T) *Repositories {
	t.Helper()
	var cfg config.MysqlConfig
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Prefix: config.EnvPrefix}))
	if cfg.Host == "" {
		t.Skip(config.EnvPrefix + "DB_HOST 未设置")
	}
	db, err := Open(&cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return NewRepositories(db)
}

// seedConversation 创建一个活跃会话，测试结束时物理删除相关数据
func seedConversation(t *testing.T, repos *Repositories, customerId string) *model.Conversation {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	conv := &model.Conversation{
		ConversationId: fmt.Sprintf("chat_%s_%d", customerId, now.UnixNano()),
		CustomerId:     customerId,
		Status:         model.ConversationActive,
		ActiveKey:      sql.NullString{String: customerId, Valid: true},
		LastMessageAt:  now,
	}
	require.NoError(t, repos.Conversation.Create(context.Background(), conv))
	t.Cleanup(func() {
		repos.DB().Unscoped().Where("conversation_id = ?", conv.ConversationId).Delete(&model.Message{})
		repos.DB().Unscoped().Where("customer_id = ?", customerId).Delete(&model.Conversation{})
	})
	return conv
}

func uniqueCustomer(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}

func TestIntegrationUnreadCounterArithmetic(t *testing.T) {
	repos := openTestRepos(t)
	ctx := context.Background()
	conv := seedConversation(t, repos, uniqueCustomer("it_unread_"))
	id := conv.ConversationId

	before, err := repos.Conversation.SumUnreadAdmin(ctx)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		n, err := repos.Conversation.ApplyNewMessage(ctx, id, "hi", time.Now(), model.RoleAdmin)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	}
	sum, err := repos.Conversation.SumUnreadAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+3, sum)

	require.NoError(t, repos.Conversation.SubtractUnread(ctx, id, model.RoleAdmin, 2))
	got, err := repos.Conversation.FindByConversationId(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UnreadCountAdmin)

	// 扣减量超过当前值时停在 0
	require.NoError(t, repos.Conversation.SubtractUnread(ctx, id, model.RoleAdmin, 5))
	require.NoError(t, repos.Conversation.SubtractUnread(ctx, id, model.RoleCustomer, 1))
	got, err = repos.Conversation.FindByConversationId(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, got.UnreadCountAdmin)
	assert.Zero(t, got.UnreadCountClient)
}

func TestIntegrationCloseReleasesActiveKey(t *testing.T) {
	repos := openTestRepos(t)
	ctx := context.Background()
	customerId := uniqueCustomer("it_close_")
	first := seedConversation(t, repos, customerId)

	// 唯一索引拒绝同一客户的第二个活跃会话
	dup := &model.Conversation{
		ConversationId: first.ConversationId + "_dup",
		CustomerId:     customerId,
		Status:         model.ConversationActive,
		ActiveKey:      sql.NullString{String: customerId, Valid: true},
		LastMessageAt:  time.Now(),
	}
	err := repos.Conversation.Create(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, errorx.CodeDBError, errorx.GetCode(err))

	n, err := repos.Conversation.Close(ctx, first.ConversationId)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = repos.Conversation.Close(ctx, first.ConversationId)
	require.NoError(t, err)
	assert.Zero(t, n)

	closed, err := repos.Conversation.FindByConversationId(ctx, first.ConversationId)
	require.NoError(t, err)
	assert.Equal(t, model.ConversationClosed, closed.Status)
	assert.False(t, closed.ActiveKey.Valid)

	_, err = repos.Conversation.FindActiveByCustomerId(ctx, customerId)
	assert.True(t, errorx.IsNotFound(err))

	// 关闭后的会话不再接收新消息
	n, err = repos.Conversation.ApplyNewMessage(ctx, first.ConversationId, "late", time.Now(), model.RoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, n)

	dup.ID = 0
	require.NoError(t, repos.Conversation.Create(ctx, dup))
	active, err := repos.Conversation.FindActiveByCustomerId(ctx, customerId)
	require.NoError(t, err)
	assert.Equal(t, dup.ConversationId, active.ConversationId)
}

func TestIntegrationMarkReadInTransaction(t *testing.T) {
	repos := openTestRepos(t)
	ctx := context.Background()
	customerId := uniqueCustomer("it_read_")
	conv := seedConversation(t, repos, customerId)
	id := conv.ConversationId

	send := func(messageId string, deleted bool) {
		require.NoError(t, repos.Message.Create(ctx, &model.Message{
			MessageId:      fmt.Sprintf("%s_%d", messageId, time.Now().UnixNano()),
			ConversationId: id,
			SenderId:       customerId,
			SenderType:     model.RoleCustomer,
			Content:        messageId,
			Status:         model.MessageSent,
			IsDeleted:      deleted,
		}))
		if !deleted {
			_, err := repos.Conversation.ApplyNewMessage(ctx, id, messageId, time.Now(), model.RoleAdmin)
			require.NoError(t, err)
		}
	}
	send("one", false)
	send("two", false)
	send("gone", true)

	total, err := repos.Message.CountVisible(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	var updated int64
	err = repos.Transaction(ctx, func(tx *Repositories) error {
		n, err := tx.Message.MarkRead(ctx, id, constants.ADMIN_SENTINEL_ID, time.Now())
		if err != nil {
			return err
		}
		updated = n
		return tx.Conversation.SubtractUnread(ctx, id, model.RoleAdmin, n)
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	got, err := repos.Conversation.FindByConversationId(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, got.UnreadCountAdmin)

	n, err := repos.Message.MarkRead(ctx, id, constants.ADMIN_SENTINEL_ID, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}
