package main

import (
	"testing"
	"time"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"just now", now.Add(-30 * time.Second), "just now"},
		{"one minute", now.Add(-90 * time.Second), "1 minute ago"},
		{"minutes", now.Add(-10 * time.Minute), "10 minutes ago"},
		{"one hour", now.Add(-1 * time.Hour), "1 hour ago"},
		{"hours", now.Add(-5 * time.Hour), "5 hours ago"},
		{"one day", now.Add(-25 * time.Hour), "1 day ago"},
		{"days", now.Add(-3 * 24 * time.Hour), "3 days ago"},
		{"weeks", now.Add(-15 * 24 * time.Hour), "2 weeks ago"},
		{"months", now.Add(-70 * 24 * time.Hour), "2 months ago"},
		{"years", now.Add(-800 * 24 * time.Hour), "2 years ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := timeAgo(tt.t, now); got != tt.want {
				t.Errorf("timeAgo = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageDate(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)

	if got := messageDate(now.Add(-2*time.Hour), now); got != "1:30 PM" {
		t.Errorf("same day = %q, want 1:30 PM", got)
	}
	if got := messageDate(now.AddDate(0, 0, -1), now); got != "Yesterday" {
		t.Errorf("yesterday = %q, want Yesterday", got)
	}
	if got := messageDate(time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC), now); got != "Mar 5" {
		t.Errorf("older = %q, want Mar 5", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a very long message body", 10); got != "a very ..." {
		t.Errorf("truncate = %q, want %q", got, "a very ...")
	}
	if got := truncate("exactly10!", 10); got != "exactly10!" {
		t.Errorf("truncate at limit = %q", got)
	}
}
