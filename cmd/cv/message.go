package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conclave-hq/conclave/internal/collab"
	"github.com/conclave-hq/conclave/internal/models"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Session message commands",
	}

	cmd.AddCommand(newMessageSendCmd())
	return cmd
}

func newMessageSendCmd() *cobra.Command {
	var (
		configPath string
		sessionID  string
		from       string
		to         string
		content    string
		msgType    string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Append a message to a session ledger",
		Long:  "Sends a typed message from one agent. Omit --to for a broadcast to all participants.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMessageSend(cmd, configPath, collab.SendMessageOpts{
				SessionID: sessionID,
				FromAgent: from,
				ToAgent:   to,
				Content:   content,
				Type:      msgType,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	cmd.Flags().StringVar(&sessionID, "session", "", "session ID (required)")
	cmd.Flags().StringVar(&from, "from", "", "sending agent ID (required)")
	cmd.Flags().StringVar(&to, "to", "", "recipient agent ID (empty = broadcast)")
	cmd.Flags().StringVar(&content, "content", "", "message content (required)")
	cmd.Flags().StringVar(&msgType, "type", models.MessageText, "message type (text, task, result, question, approval_request)")
	cmd.MarkFlagRequired("session")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("content")
	return cmd
}

func runMessageSend(cmd *cobra.Command, configPath string, opts collab.SendMessageOpts) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	engine := collab.NewEngine(collab.EngineOpts{DB: gormDB})
	msg, err := engine.SendMessage(cmd.Context(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if msg.Broadcast() {
		fmt.Fprintf(out, "Sent %s broadcast %s from %s\n", msg.Type, msg.ID, msg.FromAgent)
	} else {
		fmt.Fprintf(out, "Sent %s message %s from %s to %s\n", msg.Type, msg.ID, msg.FromAgent, msg.ToAgent)
	}
	return nil
}
