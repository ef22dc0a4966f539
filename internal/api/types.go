package api

import "time"

// Message status values tracked by the client for self-sent messages.
// Inbound messages carry the server's is_read flag instead.
const (
	StatusSending   = "sending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
)

// User identifies an account on the portal.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Profile is the authenticated depot user's identity record.
type Profile struct {
	User    User   `json:"user"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
	DepotID string `json:"depot_id"`
}

// Officer is a portal staff member a depot user can chat with.
type Officer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Message is a direct or broadcast message between a depot user and an
// officer. Status is client-assigned for locally-authored messages and
// empty on records that came from the server.
type Message struct {
	ID             string    `json:"id"`
	Sender         int       `json:"sender"`
	SenderName     string    `json:"sender_name"`
	Receiver       int       `json:"receiver"`
	ReceiverName   string    `json:"receiver_name"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	IsRead         bool      `json:"is_read"`
	IsAnnouncement bool      `json:"is_announcement"`
	Status         string    `json:"status,omitempty"`
}

// Schedule is a depot transport schedule entry.
type Schedule struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Departure   time.Time `json:"departure_time"`
	Arrival     time.Time `json:"arrival_time"`
	Status      string    `json:"status"`
}

// Announcement is a broadcast notice published by the portal.
type Announcement struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is one page of a paginated portal listing. Next is nil on the
// last page.
type Page[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}
