package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/depotlink/depotctl/internal/api"
	"github.com/depotlink/depotctl/internal/feed"
	"github.com/spf13/cobra"
)

func newInboxCmd() *cobra.Command {
	var (
		configPath string
		page       int
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List portal messages",
		Long:  "Lists your depot inbox, newest first. Unread messages are marked with *.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			inbox := newInboxFeed(a)
			if err := loadFeed(cmd.Context(), inbox, page, all); err != nil {
				return fmt.Errorf("load inbox: %w", err)
			}

			renderInbox(cmd, inbox.Items(), inbox.HasMore())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	cmd.Flags().IntVar(&page, "page", 1, "page number to load")
	cmd.Flags().BoolVar(&all, "all", false, "keep loading until the last page")
	cmd.AddCommand(newInboxReadCmd())
	cmd.AddCommand(newInboxUnreadCmd())
	return cmd
}

func newInboxReadCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "read <message-id>",
		Short: "Show a message and mark it read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			id := args[0]

			msg, err := a.client.GetMessage(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "From: %s\n", msg.SenderName)
			fmt.Fprintf(out, "Date: %s\n", msg.Timestamp.Format(time.RFC1123))
			if msg.IsAnnouncement {
				fmt.Fprintln(out, "Type: announcement")
			}
			fmt.Fprintf(out, "\n%s\n", msg.Content)

			// Read receipt is best-effort: the local flip happens regardless
			// and the next refresh reconciles with the portal.
			if !msg.IsRead {
				inbox := newInboxFeed(a)
				if err := inbox.Refresh(cmd.Context()); err == nil {
					inbox.MarkRead(cmd.Context(),
						func(m api.Message) bool { return m.ID == id },
						func(m *api.Message) { m.IsRead = true },
						func(ctx context.Context) error { return a.client.MarkMessageRead(ctx, id) },
					)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	return cmd
}

func newInboxUnreadCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "unread",
		Short: "List unread messages only",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			msgs, err := a.client.GetUnreadMessages(cmd.Context())
			if err != nil {
				return err
			}
			renderInbox(cmd, msgs, false)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	return cmd
}

// newInboxFeed builds the paginated inbox feed over the portal client.
func newInboxFeed(a *app) *feed.Feed[api.Message] {
	return feed.New(func(ctx context.Context, page int) (api.Page[api.Message], error) {
		return a.client.GetMessages(ctx, page)
	})
}

func renderInbox(cmd *cobra.Command, msgs []api.Message, hasMore bool) {
	out := cmd.OutOrStdout()
	if len(msgs) == 0 {
		fmt.Fprintln(out, "No messages.")
		return
	}

	now := time.Now()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFROM\tWHEN\tCONTENT")
	for _, m := range msgs {
		marker := " "
		if !m.IsRead {
			marker = "*"
		}
		kind := ""
		if m.IsAnnouncement {
			kind = " [announcement]"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\t%s%s\n",
			marker, m.ID, m.SenderName, messageDate(m.Timestamp, now), truncate(m.Content, 60), kind)
	}
	w.Flush()

	if hasMore {
		fmt.Fprintln(out, "(more pages available: use --all or --page)")
	}
}
