package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "查看会话统计（管理员）",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		st, err := sess.client.GetChatStats(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "会话总数  %d\n", st.TotalConversations)
		fmt.Fprintf(out, "进行中    %d\n", st.ActiveConversations)
		fmt.Fprintf(out, "已关闭    %d\n", st.ClosedConversations)
		fmt.Fprintf(out, "消息总数  %d\n", st.TotalMessages)
		fmt.Fprintf(out, "未读消息  %d\n", st.UnreadMessages)
		return nil
	},
}
