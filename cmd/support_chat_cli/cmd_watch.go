package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"support_chat_server/pkg/chatclient"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "打开会话并持续输出新消息",
	Long: `客户打开自己的活跃会话；管理员加载会话列表，指定 --customer 时打开该客户的会话。
实时连接断开后继续按 --poll 间隔轮询。`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("customer", "", "管理员打开指定客户的会话")
	watchCmd.Flags().Duration("poll", chatclient.DefaultPollInterval, "兜底轮询间隔")
	watchCmd.Flags().Int("page-size", chatclient.DefaultPageSize, "每页消息数")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	sess, err := newSession(cmd)
	if err != nil {
		return err
	}
	customer, _ := cmd.Flags().GetString("customer")
	poll, _ := cmd.Flags().GetDuration("poll")
	pageSize, _ := cmd.Flags().GetInt("page-size")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printer := newStatePrinter(cmd.OutOrStdout())
	synchronizer := chatclient.NewSynchronizer(sess.client, sess.identity,
		chatclient.WithPollInterval(poll),
		chatclient.WithPageSize(pageSize),
		chatclient.WithLogger(zap.L()),
		chatclient.WithOnChange(printer.print),
	)
	if err := synchronizer.Init(ctx); err != nil {
		return fmt.Errorf("初始化会话: %w", err)
	}
	if customer != "" {
		if !sess.identity.IsAdmin() {
			return errors.New("--customer 仅管理员可用")
		}
		conv, err := sess.client.AdminGetOrCreateConversation(ctx, customer)
		if err != nil {
			return err
		}
		if err := synchronizer.SelectConversation(ctx, *conv); err != nil {
			return err
		}
	}

	var events <-chan chatclient.Event
	rt, err := sess.client.DialRealtime(ctx)
	if err != nil {
		zap.L().Warn("实时连接失败，仅使用轮询", zap.Error(err))
	} else {
		defer rt.Close()
		if st := synchronizer.Snapshot(); st.Active != nil {
			if err := rt.Join(st.Active.ConversationId); err != nil {
				zap.L().Warn("加入会话房间失败", zap.Error(err))
			}
		}
		events = rt.Events()
	}

	zap.L().Info("开始同步", zap.String("user", sess.identity.Id), zap.String("role", sess.identity.Role))
	if err := synchronizer.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// statePrinter 只输出尚未打印过的消息
type statePrinter struct {
	out     io.Writer
	printed map[string]struct{}
	typing  []string
	active  string
}

func newStatePrinter(out io.Writer) *statePrinter {
	return &statePrinter{out: out, printed: make(map[string]struct{})}
}

func (p *statePrinter) print(st chatclient.State) {
	if st.Active != nil && st.Active.ConversationId != p.active {
		p.active = st.Active.ConversationId
		fmt.Fprintf(p.out, "== 会话 %s (%s) ==\n", st.Active.ConversationId, st.Active.Status)
	}
	for _, m := range st.Messages {
		if _, ok := p.printed[m.MessageId]; ok {
			continue
		}
		p.printed[m.MessageId] = struct{}{}
		name := m.Sender.FullName
		if name == "" {
			name = m.SenderId
		}
		fmt.Fprintf(p.out, "[%s] %s: %s\n", m.CreatedAt.Local().Format(time.DateTime), name, m.Message)
		if m.Attachment != nil {
			fmt.Fprintf(p.out, "    附件: %s\n", m.Attachment.Url)
		}
	}
	if !slices.Equal(st.Typing, p.typing) {
		p.typing = st.Typing
		if len(st.Typing) > 0 {
			fmt.Fprintf(p.out, "... %v 正在输入\n", st.Typing)
		}
	}
	zap.L().Debug("状态已更新",
		zap.Int("conversations", len(st.Conversations)),
		zap.Int("messages", len(st.Messages)),
		zap.Int("unread", st.UnreadTotal),
		zap.Bool("hasMore", st.HasMore))
}
