// Package watch polls the portal for newly arrived unread messages. It
// stands in for server push: a repeating, cancelable task tied to the
// lifetime of whatever invoked it, so no timer outlives its consumer.
package watch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/depotlink/depotctl/internal/api"
)

// DefaultPollInterval matches the portal screens' one-minute refresh.
const DefaultPollInterval = 60 * time.Second

// UnreadSource abstracts the api.Client unread fetch for testability.
type UnreadSource interface {
	GetUnreadMessages(ctx context.Context) ([]api.Message, error)
}

// Event is a newly detected unread message.
type Event struct {
	Message    api.Message
	DetectedAt time.Time
}

// Watcher re-fetches the unread listing on a schedule and emits an Event
// for each message it has not seen before. The first successful poll seeds
// the baseline without emitting, so a fresh watcher does not replay the
// whole backlog.
type Watcher struct {
	source   UnreadSource
	interval time.Duration
	cronExpr string // when set, schedules by cron expression instead

	mu     sync.Mutex
	seen   map[string]struct{}
	seeded bool

	events chan Event
}

// Opts holds parameters for creating a Watcher.
type Opts struct {
	Source       UnreadSource
	PollInterval time.Duration // defaults to DefaultPollInterval
	CronExpr     string        // optional 5-field cron schedule
}

// New creates a Watcher.
func New(opts Opts) (*Watcher, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("watch: source is required")
	}
	if opts.CronExpr != "" && !ValidCron(opts.CronExpr) {
		return nil, fmt.Errorf("watch: invalid cron expression %q", opts.CronExpr)
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		source:   opts.Source,
		interval: interval,
		cronExpr: opts.CronExpr,
		seen:     make(map[string]struct{}),
		events:   make(chan Event, 64),
	}, nil
}

// Events returns the channel of detected events. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run polls until ctx is cancelled. Poll failures are logged and retried on
// the next tick; they never stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	// Seed the baseline immediately rather than waiting out the first tick.
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.nextWait()):
			w.poll(ctx)
		}
	}
}

// nextWait returns the delay before the next poll.
func (w *Watcher) nextWait() time.Duration {
	if w.cronExpr != "" {
		if d := nextCronDuration(w.cronExpr); d > 0 {
			return d
		}
	}
	return w.interval
}

// poll fetches the unread listing once and emits events for new arrivals.
func (w *Watcher) poll(ctx context.Context) {
	msgs, err := w.source.GetUnreadMessages(ctx)
	if err != nil {
		log.Printf("watch: poll failed: %v", err)
		return
	}

	w.mu.Lock()
	seeding := !w.seeded
	w.seeded = true
	var fresh []api.Message
	for _, m := range msgs {
		if _, ok := w.seen[m.ID]; ok {
			continue
		}
		w.seen[m.ID] = struct{}{}
		if !seeding {
			fresh = append(fresh, m)
		}
	}
	w.mu.Unlock()

	now := time.Now()
	for _, m := range fresh {
		select {
		case w.events <- Event{Message: m, DetectedAt: now}:
		case <-ctx.Done():
			return
		}
	}
}
