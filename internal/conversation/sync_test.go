package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/depotlink/depotctl/internal/api"
)

// mockPortal scripts conversation endpoint responses.
type mockPortal struct {
	mu           sync.Mutex
	history      []api.Message
	historyErr   error
	sendResult   *api.Message
	sendErr      error
	sendCalls    int
	sentContents []string
	officer      *api.Officer
	officerErr   error
	message      *api.Message
	messageErr   error
}

func (m *mockPortal) GetConversation(_ context.Context, _ int) ([]api.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history, m.historyErr
}

func (m *mockPortal) SendToOfficer(_ context.Context, content string, _ int) (*api.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCalls++
	m.sentContents = append(m.sentContents, content)
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	return m.sendResult, nil
}

func (m *mockPortal) AvailableOfficer(_ context.Context) (*api.Officer, error) {
	return m.officer, m.officerErr
}

func (m *mockPortal) GetMessage(_ context.Context, _ string) (*api.Message, error) {
	return m.message, m.messageErr
}

func newTestSync(t *testing.T, portal *mockPortal) *Sync {
	t.Helper()
	s, err := New(Opts{Portal: portal, SelfID: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.SetCounterpart(api.Officer{ID: 7, Name: "Officer Vance"})
	return s
}

func TestSend_OptimisticRoundTrip(t *testing.T) {
	portal := &mockPortal{
		sendResult: &api.Message{ID: "42", Sender: 3, Receiver: 7, Content: "hello", Timestamp: time.Now()},
	}
	s := newTestSync(t, portal)

	msg, err := s.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.ID != "42" || msg.Status != api.StatusSent {
		t.Errorf("final record = %+v, want id 42 status sent", msg)
	}

	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("sequence length = %d, want 1 (no duplicate)", len(msgs))
	}
	last := msgs[len(msgs)-1]
	if last.ID != "42" || last.Status != api.StatusSent || last.Content != "hello" {
		t.Errorf("last = %+v, want confirmed record in place", last)
	}
}

func TestSend_PlaceholderVisibleBeforeAck(t *testing.T) {
	// Block the ack until we have observed the placeholder.
	release := make(chan struct{})
	portal := &mockPortal{
		sendResult: &api.Message{ID: "42", Sender: 3, Receiver: 7, Content: "hello"},
	}
	s := newTestSync(t, portal)

	observed := make(chan api.Message, 1)
	s.portal = blockingPortal{mockPortal: portal, release: release}

	done := make(chan struct{})
	go func() {
		s.Send(context.Background(), "hello")
		close(done)
	}()

	// Poll until the optimistic placeholder appears.
	deadline := time.After(2 * time.Second)
	for {
		if msgs := s.Messages(); len(msgs) == 1 {
			observed <- msgs[0]
			break
		}
		select {
		case <-deadline:
			t.Fatal("placeholder never appeared")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(release)
	<-done

	ph := <-observed
	if ph.Status != api.StatusSending {
		t.Errorf("placeholder status = %q, want sending", ph.Status)
	}
	if ph.Content != "hello" {
		t.Errorf("placeholder content = %q, want hello", ph.Content)
	}
	if !strings.HasPrefix(ph.ID, "temp-") {
		t.Errorf("placeholder ID = %q, want temp- prefix", ph.ID)
	}
}

// blockingPortal delays the send ack until release is closed.
type blockingPortal struct {
	*mockPortal
	release chan struct{}
}

func (b blockingPortal) SendToOfficer(ctx context.Context, content string, receiverID int) (*api.Message, error) {
	<-b.release
	return b.mockPortal.SendToOfficer(ctx, content, receiverID)
}

func TestSend_FailureRetainsContentForRetry(t *testing.T) {
	portal := &mockPortal{sendErr: fmt.Errorf("portal unreachable")}
	s := newTestSync(t, portal)

	msg, err := s.Send(context.Background(), "important text")
	if err == nil {
		t.Fatal("expected send error")
	}
	if msg.Status != api.StatusFailed {
		t.Errorf("status = %q, want failed", msg.Status)
	}
	if msg.Content != "important text" {
		t.Errorf("content = %q, want retained original", msg.Content)
	}
	if len(s.Messages()) != 1 {
		t.Fatalf("failed send dropped from sequence")
	}

	// Retry resubmits the identical content and reaches sent.
	portal.mu.Lock()
	portal.sendErr = nil
	portal.sendResult = &api.Message{ID: "43", Sender: 3, Receiver: 7, Content: "important text"}
	portal.mu.Unlock()

	retried, err := s.Retry(context.Background(), msg.ID)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if retried.ID != "43" || retried.Status != api.StatusSent {
		t.Errorf("retried = %+v, want id 43 status sent", retried)
	}
	if got := portal.sentContents; len(got) != 2 || got[0] != got[1] {
		t.Errorf("sent contents = %v, want identical resubmission", got)
	}
	if len(s.Messages()) != 1 {
		t.Errorf("sequence length = %d after retry, want 1", len(s.Messages()))
	}
}

func TestRetry_OnlyFailedMessages(t *testing.T) {
	portal := &mockPortal{
		sendResult: &api.Message{ID: "42", Content: "ok"},
	}
	s := newTestSync(t, portal)
	msg, err := s.Send(context.Background(), "ok")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if _, err := s.Retry(context.Background(), msg.ID); !errors.Is(err, ErrNotFailed) {
		t.Errorf("Retry on sent message = %v, want ErrNotFailed", err)
	}
	if _, err := s.Retry(context.Background(), "nope"); !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("Retry on unknown message = %v, want ErrUnknownMessage", err)
	}
}

func TestSend_RejectsEmptyAndMissingCounterpart(t *testing.T) {
	portal := &mockPortal{}
	s := newTestSync(t, portal)

	if _, err := s.Send(context.Background(), "   \n "); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("empty send = %v, want ErrEmptyContent", err)
	}

	bare, _ := New(Opts{Portal: portal, SelfID: 3})
	if _, err := bare.Send(context.Background(), "hi"); !errors.Is(err, ErrNoCounterpart) {
		t.Errorf("counterpart-less send = %v, want ErrNoCounterpart", err)
	}
	if portal.sendCalls != 0 {
		t.Errorf("rejected sends made %d network calls, want 0", portal.sendCalls)
	}
}

func TestLoad_FailureKeepsMessages(t *testing.T) {
	portal := &mockPortal{history: []api.Message{{ID: "m1"}, {ID: "m2"}}}
	s := newTestSync(t, portal)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Messages()) != 2 {
		t.Fatalf("messages = %d, want 2", len(s.Messages()))
	}

	portal.mu.Lock()
	portal.historyErr = fmt.Errorf("timeout")
	portal.mu.Unlock()
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if len(s.Messages()) != 2 {
		t.Errorf("failed load cleared messages: %d left", len(s.Messages()))
	}
}

func TestResolveFromMessage(t *testing.T) {
	portal := &mockPortal{
		message: &api.Message{ID: "m1", Sender: 9, SenderName: "Officer Ruiz", Receiver: 3, ReceiverName: "North Depot"},
	}
	s, _ := New(Opts{Portal: portal, SelfID: 3})

	o, err := s.ResolveFromMessage(context.Background(), "m1")
	if err != nil {
		t.Fatalf("ResolveFromMessage: %v", err)
	}
	if o.ID != 9 || o.Name != "Officer Ruiz" {
		t.Errorf("counterpart = %+v, want sender (not self)", o)
	}

	// Self-sent message: counterpart is the receiver.
	portal.message = &api.Message{ID: "m2", Sender: 3, SenderName: "North Depot", Receiver: 9, ReceiverName: "Officer Ruiz"}
	o, err = s.ResolveFromMessage(context.Background(), "m2")
	if err != nil {
		t.Fatalf("ResolveFromMessage: %v", err)
	}
	if o.ID != 9 {
		t.Errorf("counterpart ID = %d, want receiver 9", o.ID)
	}
}

func TestTimeline_DateSeparators(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	day := func(offset int, hour int) time.Time {
		return now.AddDate(0, 0, offset).Truncate(24 * time.Hour).Add(time.Duration(hour) * time.Hour)
	}
	msgs := []api.Message{
		{ID: "a", Timestamp: day(-5, 9)},
		{ID: "b", Timestamp: day(-5, 17)},
		{ID: "c", Timestamp: day(-1, 8)},
		{ID: "d", Timestamp: day(0, 10)},
		{ID: "e", Timestamp: day(0, 11)},
	}

	entries := buildTimeline(msgs, now)

	var seps []string
	var order []string
	for _, e := range entries {
		if e.Separator {
			seps = append(seps, e.Label)
			order = append(order, "|")
		} else {
			order = append(order, e.Message.ID)
		}
	}

	if len(seps) != 3 {
		t.Fatalf("separators = %d, want 3 (one per distinct day)", len(seps))
	}
	if seps[1] != "Yesterday" || seps[2] != "Today" {
		t.Errorf("labels = %v, want [date, Yesterday, Today]", seps)
	}
	if seps[0] != day(-5, 9).Format("Jan 2, 2006") {
		t.Errorf("oldest label = %q, want formatted date", seps[0])
	}
	want := "| a b | c | d e"
	if got := strings.Join(order, " "); got != want {
		t.Errorf("timeline order = %q, want %q", got, want)
	}
}

func TestTimeline_Empty(t *testing.T) {
	if entries := buildTimeline(nil, time.Now()); len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}
