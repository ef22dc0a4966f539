// Package api implements the REST client for the depot communications
// portal. All durable message, schedule, and announcement state lives on
// the portal; this package only moves it over the wire.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the per-request timeout applied when Opts.Timeout is
// unset. Matches the portal's documented client timeout.
const DefaultTimeout = 10 * time.Second

// TokenSource supplies the current auth token for outgoing requests.
// An empty return means unauthenticated: no Authorization header is sent.
type TokenSource func() string

// StatusError is a non-2xx portal response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: portal returned %d: %s", e.Code, e.Body)
}

// Unauthorized reports whether the response was an authorization rejection.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized
}

// Opts holds parameters for creating a Client.
type Opts struct {
	BaseURL        string
	Timeout        time.Duration       // defaults to DefaultTimeout
	TokenSource    TokenSource         // required for authenticated endpoints
	OnUnauthorized func()              // invoked once per 401 response
	Transport      http.RoundTripper   // for testing; defaults to http.DefaultTransport
}

// Client is the portal REST client. Credentials are injected by an
// interceptor transport so call sites never manage the header themselves;
// a 401 on any endpoint fires the OnUnauthorized hook centrally.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client.
func New(opts Opts) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api: base URL is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &authTransport{
				base:           base,
				tokens:         opts.TokenSource,
				onUnauthorized: opts.OnUnauthorized,
			},
		},
	}, nil
}

// authTransport injects the Authorization header from the token source and
// detects authorization rejections on the way back.
type authTransport struct {
	base           http.RoundTripper
	tokens         TokenSource
	onUnauthorized func()
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.tokens != nil {
		if tok := t.tokens(); tok != "" {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Token "+tok)
		}
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && t.onUnauthorized != nil {
		t.onUnauthorized()
	}
	return resp, nil
}

// Login exchanges credentials for a token. It is the only endpoint that
// does not require an existing session.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.post(ctx, "/api-token-auth/", body, &out); err != nil {
		return "", fmt.Errorf("api: login: %w", err)
	}
	return out.Token, nil
}

// GetProfile fetches the authenticated depot user's profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "/api/v1/depots/me/", &p); err != nil {
		return nil, fmt.Errorf("api: get profile: %w", err)
	}
	return &p, nil
}

// UpdateLoginStatus pings the portal's login heartbeat. The portal also
// treats a successful ping as proof the token is still valid, so restore
// uses this as its session probe.
func (c *Client) UpdateLoginStatus(ctx context.Context) error {
	if err := c.post(ctx, "/api/v1/depots/update_login/", nil, nil); err != nil {
		return fmt.Errorf("api: update login status: %w", err)
	}
	return nil
}

// GetMessages fetches one page of the inbox listing.
func (c *Client) GetMessages(ctx context.Context, page int) (Page[Message], error) {
	var out Page[Message]
	if err := c.get(ctx, fmt.Sprintf("/api/v1/messages/?page=%d", page), &out); err != nil {
		return Page[Message]{}, fmt.Errorf("api: get messages page %d: %w", page, err)
	}
	return out, nil
}

// GetUnreadMessages fetches all currently unread messages.
func (c *Client) GetUnreadMessages(ctx context.Context) ([]Message, error) {
	var out []Message
	if err := c.get(ctx, "/api/v1/messages/unread/", &out); err != nil {
		return nil, fmt.Errorf("api: get unread messages: %w", err)
	}
	return out, nil
}

// GetMessage fetches a single message by ID.
func (c *Client) GetMessage(ctx context.Context, id string) (*Message, error) {
	var m Message
	if err := c.get(ctx, "/api/v1/messages/"+id+"/", &m); err != nil {
		return nil, fmt.Errorf("api: get message %s: %w", id, err)
	}
	return &m, nil
}

// GetConversation fetches the full message history with one counterpart,
// in server chronological order.
func (c *Client) GetConversation(ctx context.Context, counterpartID int) ([]Message, error) {
	var out []Message
	path := fmt.Sprintf("/api/v1/messages/conversation/%d/", counterpartID)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("api: get conversation %d: %w", counterpartID, err)
	}
	return out, nil
}

// SendToOfficer submits a new message and returns the server's canonical
// record for it.
func (c *Client) SendToOfficer(ctx context.Context, content string, receiverID int) (*Message, error) {
	body := map[string]any{"content": content, "receiver_id": receiverID}
	var m Message
	if err := c.post(ctx, "/api/v1/messages/send_to_officer/", body, &m); err != nil {
		return nil, fmt.Errorf("api: send to officer %d: %w", receiverID, err)
	}
	return &m, nil
}

// MarkMessageRead records a read receipt for a message.
func (c *Client) MarkMessageRead(ctx context.Context, id string) error {
	if err := c.post(ctx, "/api/v1/messages/"+id+"/mark_as_read/", nil, nil); err != nil {
		return fmt.Errorf("api: mark message %s read: %w", id, err)
	}
	return nil
}

// GetSchedules fetches one page of the schedule listing.
func (c *Client) GetSchedules(ctx context.Context, page int) (Page[Schedule], error) {
	var out Page[Schedule]
	if err := c.get(ctx, fmt.Sprintf("/api/v1/schedules/?page=%d", page), &out); err != nil {
		return Page[Schedule]{}, fmt.Errorf("api: get schedules page %d: %w", page, err)
	}
	return out, nil
}

// GetAnnouncements fetches one page of the announcement listing.
func (c *Client) GetAnnouncements(ctx context.Context, page int) (Page[Announcement], error) {
	var out Page[Announcement]
	if err := c.get(ctx, fmt.Sprintf("/api/v1/announcements/?page=%d", page), &out); err != nil {
		return Page[Announcement]{}, fmt.Errorf("api: get announcements page %d: %w", page, err)
	}
	return out, nil
}

// AvailableOfficer returns the officer currently assigned to handle new
// depot conversations.
func (c *Client) AvailableOfficer(ctx context.Context) (*Officer, error) {
	var o Officer
	if err := c.get(ctx, "/api/v1/officers/available/", &o); err != nil {
		return nil, fmt.Errorf("api: available officer: %w", err)
	}
	return &o, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
