package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"support_chat_server/pkg/chatclient"
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "发送一条消息",
	Long:  `客户发送到自己的活跃会话；管理员需要通过 --conversation 指定会话。`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().String("conversation", "", "会话 id")
	sendCmd.Flags().String("attachment", "", "附件地址")
}

func runSend(cmd *cobra.Command, args []string) error {
	sess, err := newSession(cmd)
	if err != nil {
		return err
	}
	conversationId, _ := cmd.Flags().GetString("conversation")
	attachmentURL, _ := cmd.Flags().GetString("attachment")

	ctx := cmd.Context()
	if conversationId == "" {
		if sess.identity.IsAdmin() {
			return errors.New("管理员发送消息需要 --conversation")
		}
		conv, err := sess.client.GetOrCreateConversation(ctx, sess.identity.Id)
		if err != nil {
			return err
		}
		conversationId = conv.ConversationId
	}

	in := chatclient.SendMessageInput{
		ConversationId: conversationId,
		Message:        strings.Join(args, " "),
	}
	if attachmentURL != "" {
		in.Attachment = &chatclient.Attachment{Url: attachmentURL}
	}
	msg, err := sess.client.SendMessage(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", msg.MessageId, msg.CreatedAt.Local().Format("15:04:05"))
	return nil
}
