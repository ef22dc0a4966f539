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

func newSchedulesCmd() *cobra.Command {
	var (
		configPath string
		page       int
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "List depot transport schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			f := feed.New(func(ctx context.Context, page int) (api.Page[api.Schedule], error) {
				return a.client.GetSchedules(ctx, page)
			})
			if err := loadFeed(cmd.Context(), f, page, all); err != nil {
				return fmt.Errorf("load schedules: %w", err)
			}

			out := cmd.OutOrStdout()
			items := f.Items()
			if len(items) == 0 {
				fmt.Fprintln(out, "No schedules.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tDEPARTURE\tARRIVAL\tSTATUS")
			for _, s := range items {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					s.ID, s.Title,
					s.Departure.Format("Jan 2 15:04"),
					s.Arrival.Format("Jan 2 15:04"),
					s.Status)
			}
			w.Flush()
			if f.HasMore() {
				fmt.Fprintln(out, "(more pages available: use --all or --page)")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	cmd.Flags().IntVar(&page, "page", 1, "page number to load")
	cmd.Flags().BoolVar(&all, "all", false, "keep loading until the last page")
	return cmd
}

func newAnnouncementsCmd() *cobra.Command {
	var (
		configPath string
		page       int
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "announcements",
		Short: "List portal announcements",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			f := feed.New(func(ctx context.Context, page int) (api.Page[api.Announcement], error) {
				return a.client.GetAnnouncements(ctx, page)
			})
			if err := loadFeed(cmd.Context(), f, page, all); err != nil {
				return fmt.Errorf("load announcements: %w", err)
			}

			out := cmd.OutOrStdout()
			items := f.Items()
			if len(items) == 0 {
				fmt.Fprintln(out, "No announcements.")
				return nil
			}
			now := time.Now()
			for _, an := range items {
				fmt.Fprintf(out, "[%s] %s (%s)\n", an.CreatedAt.Format("Jan 2, 2006"), an.Title, timeAgo(an.CreatedAt, now))
				fmt.Fprintf(out, "    %s\n", truncate(an.Content, 100))
			}
			if f.HasMore() {
				fmt.Fprintln(out, "(more pages available: use --all or --page)")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	cmd.Flags().IntVar(&page, "page", 1, "page number to load")
	cmd.Flags().BoolVar(&all, "all", false, "keep loading until the last page")
	return cmd
}

// loadFeed loads the requested page, then optionally walks the remaining
// pages. hasMore gating makes the trailing loop terminate without an extra
// network call once the portal reports the last page.
func loadFeed[T any](ctx context.Context, f *feed.Feed[T], page int, all bool) error {
	if err := f.LoadPage(ctx, page, false); err != nil {
		return err
	}
	if !all {
		return nil
	}
	for f.HasMore() {
		if err := f.LoadMore(ctx); err != nil {
			return err
		}
	}
	return nil
}
