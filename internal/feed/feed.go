// Package feed reconciles paged fetches, pull-style refresh, and polling
// re-fetches into one consistent item sequence for any of the portal's
// paginated listings (inbox, schedules, announcements, dashboard previews).
package feed

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/depotlink/depotctl/internal/api"
)

// ErrBusy means a load was skipped because another load is in flight.
// Overlapping loads are deduplicated rather than raced.
var ErrBusy = errors.New("feed: load already in flight")

// FetchFunc retrieves one page of items from the portal.
type FetchFunc[T any] func(ctx context.Context, page int) (api.Page[T], error)

// Feed is a paginated, refreshable item sequence. A failed fetch never
// alters the items already held: page 1 data survives a page 2 failure,
// and the error is surfaced through Err for a retry affordance.
type Feed[T any] struct {
	fetch FetchFunc[T]

	mu         sync.Mutex
	items      []T
	page       int
	hasMore    bool
	loading    bool // a page-1 fetch is in flight
	refreshing bool
	inFlight   bool
	err        error
}

// New creates a Feed over the given fetch function. The feed starts empty
// with more pages assumed until the portal says otherwise.
func New[T any](fetch FetchFunc[T]) *Feed[T] {
	return &Feed[T]{fetch: fetch, hasMore: true}
}

// LoadPage fetches the given page. Page 1 and refreshes replace the item
// sequence wholesale; later pages append. hasMore tracks whether the
// response advertised a further page.
func (f *Feed[T]) LoadPage(ctx context.Context, page int, isRefresh bool) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrBusy
	}
	f.inFlight = true
	f.loading = page == 1
	f.err = nil
	f.mu.Unlock()

	resp, err := f.fetch(ctx, page)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	f.loading = false
	if err != nil {
		f.err = err
		return err
	}
	if page == 1 || isRefresh {
		f.items = resp.Results
	} else {
		f.items = append(f.items, resp.Results...)
	}
	f.hasMore = resp.Next != nil
	f.page = page
	return nil
}

// Refresh replaces the sequence with a fresh page 1. The refreshing flag
// is cleared on completion whether the fetch succeeded or not.
func (f *Feed[T]) Refresh(ctx context.Context) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrBusy
	}
	f.refreshing = true
	f.mu.Unlock()

	err := f.LoadPage(ctx, 1, true)

	f.mu.Lock()
	f.refreshing = false
	f.mu.Unlock()
	return err
}

// LoadMore fetches the next page. It is a no-op (no network call) when the
// portal has said there are no further pages or a load is in flight.
func (f *Feed[T]) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if !f.hasMore || f.inFlight {
		f.mu.Unlock()
		return nil
	}
	next := f.page + 1
	f.mu.Unlock()

	err := f.LoadPage(ctx, next, false)
	if errors.Is(err, ErrBusy) {
		return nil
	}
	return err
}

// MarkRead optimistically applies flip to every item matching match, then
// issues the confirming portal call. The receipt is best-effort: a confirm
// failure is logged, never rolled back; the next full refresh reconciles.
func (f *Feed[T]) MarkRead(ctx context.Context, match func(T) bool, flip func(*T), confirm func(context.Context) error) {
	f.mu.Lock()
	for i := range f.items {
		if match(f.items[i]) {
			flip(&f.items[i])
		}
	}
	f.mu.Unlock()

	if confirm == nil {
		return
	}
	if err := confirm(ctx); err != nil {
		log.Printf("feed: mark read confirm failed (ignored): %v", err)
	}
}

// Items returns a copy of the current sequence.
func (f *Feed[T]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]T, len(f.items))
	copy(out, f.items)
	return out
}

// Page returns the last successfully loaded page number.
func (f *Feed[T]) Page() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

// HasMore reports whether the portal advertised a further page.
func (f *Feed[T]) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// Loading reports whether a page-1 fetch is in flight.
func (f *Feed[T]) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Refreshing reports whether a refresh is in flight.
func (f *Feed[T]) Refreshing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshing
}

// Err returns the error from the most recent failed fetch, cleared by the
// next attempt.
func (f *Feed[T]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
