package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/depotlink/depotctl/internal/api"
	"github.com/depotlink/depotctl/internal/conversation"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		configPath  string
		fromMessage string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Show the conversation with your officer",
		Long: `Prints the message history with your assigned officer, grouped by day.
By default the officer is resolved from the portal's availability endpoint;
--from-message resolves the counterpart from an existing inbox message instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			profile, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}

			sync, err := newChatSync(a, profile, fromMessage, cmd)
			if err != nil {
				return err
			}
			if err := sync.Load(cmd.Context()); err != nil {
				return fmt.Errorf("load conversation: %w", err)
			}

			renderTimeline(cmd, sync, profile.User.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	cmd.Flags().StringVar(&fromMessage, "from-message", "", "resolve the officer from this message ID")
	cmd.AddCommand(newChatSendCmd())
	return cmd
}

func newChatSendCmd() *cobra.Command {
	var (
		configPath  string
		fromMessage string
		retries     int
	)

	cmd := &cobra.Command{
		Use:   "send <text...>",
		Short: "Send a message to your officer",
		Long: `Sends a message to the assigned officer. On failure the message is kept
with its content intact and resubmitted up to --retries times.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			profile, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}

			sync, err := newChatSync(a, profile, fromMessage, cmd)
			if err != nil {
				return err
			}

			content := strings.Join(args, " ")
			msg, err := sync.Send(cmd.Context(), content)
			if errors.Is(err, conversation.ErrEmptyContent) {
				return fmt.Errorf("nothing to send")
			}
			if err != nil && msg == nil {
				return err
			}

			// The failed placeholder keeps its content, so each retry
			// resubmits the identical text.
			for attempt := 0; err != nil && attempt < retries; attempt++ {
				fmt.Fprintf(cmd.OutOrStdout(), "send failed (%v), retrying...\n", err)
				msg, err = sync.Retry(cmd.Context(), msg.ID)
			}
			if err != nil {
				return fmt.Errorf("send failed after %d retries: %w", retries, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sent message %s to %s\n", msg.ID, sync.Counterpart().Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	cmd.Flags().StringVar(&fromMessage, "from-message", "", "resolve the officer from this message ID")
	cmd.Flags().IntVar(&retries, "retries", 1, "resubmission attempts after a failed send")
	return cmd
}

// newChatSync builds a conversation sync and resolves its counterpart,
// either from an existing message or from the available-officer endpoint.
func newChatSync(a *app, profile *api.Profile, fromMessage string, cmd *cobra.Command) (*conversation.Sync, error) {
	sync, err := conversation.New(conversation.Opts{Portal: a.client, SelfID: profile.User.ID})
	if err != nil {
		return nil, err
	}
	if fromMessage != "" {
		if _, err := sync.ResolveFromMessage(cmd.Context(), fromMessage); err != nil {
			return nil, fmt.Errorf("resolve officer from message %s: %w", fromMessage, err)
		}
		return sync, nil
	}
	if _, err := sync.ResolveCounterpart(cmd.Context()); err != nil {
		return nil, fmt.Errorf("no officer available to chat with: %w", err)
	}
	return sync, nil
}

func renderTimeline(cmd *cobra.Command, sync *conversation.Sync, selfID int) {
	out := cmd.OutOrStdout()
	entries := sync.Timeline()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No messages yet.")
		return
	}

	cp := sync.Counterpart()
	for _, e := range entries {
		if e.Separator {
			fmt.Fprintf(out, "--- %s ---\n", e.Label)
			continue
		}
		m := e.Message
		who := cp.Name
		if m.Sender == selfID {
			who = "me"
		}
		status := ""
		if m.Sender == selfID && m.Status != "" && m.Status != api.StatusSent {
			status = fmt.Sprintf(" [%s]", m.Status)
		}
		fmt.Fprintf(out, "%s  %s: %s%s\n", m.Timestamp.Format(time.Kitchen), who, m.Content, status)
	}
}
