// Package conversation maintains one counterpart's message history with
// optimistic send and retry. A locally-authored message appears in the
// sequence immediately with a temporary ID, is replaced in place by the
// server's canonical record on ack, and stays visible as failed (content
// intact) when the send errors so it can be retried verbatim.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/depotlink/depotctl/internal/api"
	"github.com/google/uuid"
)

var (
	// ErrNoCounterpart means no officer has been resolved for this
	// conversation yet.
	ErrNoCounterpart = errors.New("conversation: no counterpart")
	// ErrEmptyContent rejects a send whose trimmed content is empty.
	ErrEmptyContent = errors.New("conversation: empty content")
	// ErrNotFailed rejects a retry of a message not in the failed state.
	ErrNotFailed = errors.New("conversation: message is not failed")
	// ErrUnknownMessage means the referenced message is not in the sequence.
	ErrUnknownMessage = errors.New("conversation: unknown message")
)

// Portal abstracts the api.Client methods the sync uses.
type Portal interface {
	GetConversation(ctx context.Context, counterpartID int) ([]api.Message, error)
	SendToOfficer(ctx context.Context, content string, receiverID int) (*api.Message, error)
	AvailableOfficer(ctx context.Context) (*api.Officer, error)
	GetMessage(ctx context.Context, id string) (*api.Message, error)
}

// Entry is one element of the display timeline: either a message or a
// synthetic date separator. Separators are presentation markers only,
// recomputed on every Timeline call and never persisted.
type Entry struct {
	Separator bool
	Label     string // separator day label: "Today", "Yesterday", or a date
	Message   api.Message
}

// Sync reconciles a single conversation. Sends for one conversation are
// serialized: the optimistic placeholder is appended immediately, but the
// network round-trips queue so acks land in submission order.
type Sync struct {
	portal Portal
	selfID int

	mu          sync.RWMutex
	counterpart *api.Officer
	messages    []api.Message

	sendMu sync.Mutex // serializes send/retry round-trips
}

// Opts holds parameters for creating a Sync.
type Opts struct {
	Portal Portal
	SelfID int // the depot user's own user ID
}

// New creates a Sync.
func New(opts Opts) (*Sync, error) {
	if opts.Portal == nil {
		return nil, fmt.Errorf("conversation: portal is required")
	}
	return &Sync{portal: opts.Portal, selfID: opts.SelfID}, nil
}

// SetCounterpart fixes the officer this conversation is with.
func (s *Sync) SetCounterpart(o api.Officer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counterpart = &o
}

// Counterpart returns the resolved officer, or nil.
func (s *Sync) Counterpart() *api.Officer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counterpart
}

// ResolveCounterpart asks the portal for the currently available officer
// (the compose flow, when no prior conversation exists).
func (s *Sync) ResolveCounterpart(ctx context.Context) (*api.Officer, error) {
	o, err := s.portal.AvailableOfficer(ctx)
	if err != nil {
		return nil, err
	}
	s.SetCounterpart(*o)
	return o, nil
}

// ResolveFromMessage derives the counterpart from an existing message (the
// open-from-inbox flow): whichever participant is not the depot user.
func (s *Sync) ResolveFromMessage(ctx context.Context, messageID string) (*api.Officer, error) {
	m, err := s.portal.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	o := api.Officer{ID: m.Sender, Name: m.SenderName}
	if m.Sender == s.selfID {
		o = api.Officer{ID: m.Receiver, Name: m.ReceiverName}
	}
	s.SetCounterpart(o)
	return &o, nil
}

// Load fetches the full history with the counterpart and replaces the
// confirmed sequence. A fetch failure leaves the already-loaded messages
// untouched.
func (s *Sync) Load(ctx context.Context) error {
	s.mu.RLock()
	cp := s.counterpart
	s.mu.RUnlock()
	if cp == nil {
		return ErrNoCounterpart
	}

	msgs, err := s.portal.GetConversation(ctx, cp.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.messages = msgs
	s.mu.Unlock()
	return nil
}

// Send submits new message content. The placeholder is appended before any
// network I/O so the caller sees the message immediately; the returned
// record reflects the final state (sent or failed). Empty content and a
// missing counterpart are rejected without a network call.
func (s *Sync) Send(ctx context.Context, content string) (*api.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	s.mu.RLock()
	cp := s.counterpart
	s.mu.RUnlock()
	if cp == nil {
		return nil, ErrNoCounterpart
	}

	placeholder := api.Message{
		ID:        "temp-" + uuid.NewString(),
		Sender:    s.selfID,
		Receiver:  cp.ID,
		Content:   content,
		Timestamp: time.Now(),
		Status:    api.StatusSending,
	}
	s.mu.Lock()
	s.messages = append(s.messages, placeholder)
	s.mu.Unlock()

	return s.roundTrip(ctx, placeholder.ID, content, cp.ID)
}

// Retry resubmits a failed message with its original content and receiver.
// Only messages currently in the failed state are eligible.
func (s *Sync) Retry(ctx context.Context, messageID string) (*api.Message, error) {
	s.mu.Lock()
	idx := s.indexOf(messageID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, ErrUnknownMessage
	}
	if s.messages[idx].Status != api.StatusFailed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s is %q", ErrNotFailed, messageID, s.messages[idx].Status)
	}
	s.messages[idx].Status = api.StatusSending
	content := s.messages[idx].Content
	receiver := s.messages[idx].Receiver
	s.mu.Unlock()

	return s.roundTrip(ctx, messageID, content, receiver)
}

// roundTrip performs the send call for the placeholder with the given ID
// and reconciles the result into the sequence: ack replaces the record in
// place, error flips it to failed with content retained.
func (s *Sync) roundTrip(ctx context.Context, placeholderID, content string, receiverID int) (*api.Message, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	confirmed, err := s.portal.SendToOfficer(ctx, content, receiverID)

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(placeholderID)
	if idx < 0 {
		// Sequence was reloaded underneath us; nothing left to reconcile.
		if err != nil {
			return nil, err
		}
		return confirmed, nil
	}
	if err != nil {
		s.messages[idx].Status = api.StatusFailed
		failed := s.messages[idx]
		return &failed, err
	}
	sent := *confirmed
	sent.Status = api.StatusSent
	s.messages[idx] = sent
	return &sent, nil
}

// Messages returns a copy of the current message sequence.
func (s *Sync) Messages() []api.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Timeline returns the display sequence: the messages in order, with a
// date separator inserted before the first message of each calendar day.
func (s *Sync) Timeline() []Entry {
	msgs := s.Messages()
	return buildTimeline(msgs, time.Now())
}

// buildTimeline derives the separator-annotated sequence relative to now
// (injected for testability of the Today/Yesterday labels).
func buildTimeline(msgs []api.Message, now time.Time) []Entry {
	var out []Entry
	var lastDay string
	for _, m := range msgs {
		day := m.Timestamp.Format("2006-01-02")
		if day != lastDay {
			lastDay = day
			out = append(out, Entry{Separator: true, Label: dayLabel(m.Timestamp, now)})
		}
		out = append(out, Entry{Message: m})
	}
	return out
}

// dayLabel renders a calendar day as Today, Yesterday, or a full date.
func dayLabel(t, now time.Time) string {
	y, m, d := t.Date()
	ny, nm, nd := now.Date()
	if y == ny && m == nm && d == nd {
		return "Today"
	}
	yest := now.AddDate(0, 0, -1)
	yy, ym, yd := yest.Date()
	if y == yy && m == ym && d == yd {
		return "Yesterday"
	}
	return t.Format("Jan 2, 2006")
}

// indexOf finds a message by ID; callers must hold mu.
func (s *Sync) indexOf(id string) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}
