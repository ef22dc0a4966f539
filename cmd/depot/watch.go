package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/depotlink/depotctl/internal/dashboard"
	"github.com/depotlink/depotctl/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		configPath string
		interval   time.Duration
		cronExpr   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch for new unread messages",
		Long: `Polls the portal for new unread messages and prints each arrival.
The first poll seeds a baseline, so only messages arriving after the watch
started are reported. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			if interval <= 0 {
				interval = a.cfg.Poll()
			}
			w, err := watch.New(watch.Opts{
				Source:       a.client,
				PollInterval: interval,
				CronExpr:     cronExpr,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Watching for new messages (Ctrl-C to stop)...")

			go func() {
				for ev := range w.Events() {
					m := ev.Message
					kind := "message"
					if m.IsAnnouncement {
						kind = "announcement"
					}
					fmt.Fprintf(out, "[%s] new %s from %s: %s\n",
						ev.DetectedAt.Format("15:04:05"), kind, m.SenderName, truncate(m.Content, 80))
				}
			}()

			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default from config)")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "5-field cron schedule instead of a fixed interval")
	return cmd
}

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve a local web dashboard",
		Long:  "Serves a read-only web view of unread messages, schedules, and announcements. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			if port == 0 {
				port = a.cfg.DashboardPort
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return dashboard.Start(ctx, dashboard.StartOpts{
				Portal: a.client,
				Port:   port,
				Out:    cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	cmd.Flags().IntVar(&port, "port", 0, "dashboard port (default from config)")
	return cmd
}
