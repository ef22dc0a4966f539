package main

import (
	"fmt"
	"time"
)

// timeAgo renders how long ago a timestamp was (e.g. "2 hours ago",
// "just now").
func timeAgo(t, now time.Time) string {
	seconds := int(now.Sub(t).Seconds())
	if seconds < 60 {
		return "just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return plural(minutes, "minute") + " ago"
	}
	hours := minutes / 60
	if hours < 24 {
		return plural(hours, "hour") + " ago"
	}
	days := hours / 24
	if days < 7 {
		return plural(days, "day") + " ago"
	}
	weeks := days / 7
	if weeks < 4 {
		return plural(weeks, "week") + " ago"
	}
	months := days / 30
	if months < 12 {
		return plural(months, "month") + " ago"
	}
	years := days / 365
	return plural(years, "year") + " ago"
}

// messageDate renders a message timestamp for list display: clock time for
// today, "Yesterday", or a short date.
func messageDate(t, now time.Time) string {
	if sameDay(t, now) {
		return t.Format("3:04 PM")
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	return t.Format("Jan 2")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// truncate shortens s to at most n runes for one-line list rendering.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
