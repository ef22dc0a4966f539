// Package session is the single source of truth for "am I logged in, and
// as whom". It persists the token and profile in the local state database
// and tears both down when the portal rejects the credentials.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/depotlink/depotctl/internal/api"
	"github.com/depotlink/depotctl/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sessionRowID is the fixed primary key of the single persisted session.
const sessionRowID = 1

// Preference keys owned by the profile settings surface.
const (
	PrefNotifications = "notifications_enabled"
	PrefDarkMode      = "dark_mode_enabled"
)

// ErrNoSession means no valid session exists; the caller must go through
// the login flow.
var ErrNoSession = errors.New("session: not logged in")

// AuthError is a failed login attempt: rejected credentials or any network
// failure before the session was established. User-facing, never fatal.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("session: authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Portal abstracts the api.Client methods the store uses, enabling test
// mocks.
type Portal interface {
	Login(ctx context.Context, username, password string) (string, error)
	GetProfile(ctx context.Context) (*api.Profile, error)
	UpdateLoginStatus(ctx context.Context) error
}

// Store holds the authenticated user's token and profile, backed by the
// state database. Only the store mutates the token; every outgoing request
// reads it through Token, which is wired into the api.Client interceptor.
type Store struct {
	db     *gorm.DB
	portal Portal

	mu      sync.RWMutex
	token   string
	profile *api.Profile
}

// Opts holds parameters for creating a Store.
type Opts struct {
	DB     *gorm.DB
	Portal Portal
}

// New creates a Store.
func New(opts Opts) (*Store, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("session: db is required")
	}
	if opts.Portal == nil {
		return nil, fmt.Errorf("session: portal is required")
	}
	return &Store{db: opts.DB, portal: opts.Portal}, nil
}

// Token returns the current auth token, or "" when logged out. It is the
// TokenSource for the shared api.Client.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Profile returns the current profile, or nil when logged out.
func (s *Store) Profile() *api.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// LoggedIn reports whether an authenticated session is held in memory.
func (s *Store) LoggedIn() bool {
	return s.Token() != ""
}

// Login authenticates against the portal, fetches the profile with the new
// token, and persists both. A failure at any required step returns
// *AuthError and restores the in-memory state without touching whatever
// session was previously persisted. The mark-login ping is best-effort.
func (s *Store) Login(ctx context.Context, username, password string) (*api.Profile, error) {
	token, err := s.portal.Login(ctx, username, password)
	if err != nil {
		return nil, &AuthError{Err: err}
	}

	// Stage the token so the dependent profile fetch is attributed to it,
	// reverting if the fetch fails.
	s.mu.Lock()
	prevToken, prevProfile := s.token, s.profile
	s.token = token
	s.mu.Unlock()

	profile, err := s.portal.GetProfile(ctx)
	if err != nil {
		s.mu.Lock()
		s.token, s.profile = prevToken, prevProfile
		s.mu.Unlock()
		return nil, &AuthError{Err: err}
	}

	if err := s.persist(token, profile); err != nil {
		s.mu.Lock()
		s.token, s.profile = prevToken, prevProfile
		s.mu.Unlock()
		return nil, &AuthError{Err: err}
	}

	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()

	if err := s.portal.UpdateLoginStatus(ctx); err != nil {
		log.Printf("session: mark login failed (ignored): %v", err)
	}

	return profile, nil
}

// Restore loads the persisted session at startup. A persisted token is
// revalidated with the login-status probe; any probe failure invalidates
// the session, clearing it from memory and disk. An expired token is not a
// user-facing error: the caller just sees ErrNoSession.
func (s *Store) Restore(ctx context.Context) (*api.Profile, error) {
	var rec models.SessionRecord
	err := s.db.First(&rec, sessionRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("session: read persisted session: %w", err)
	}

	var profile api.Profile
	if rec.Profile != "" {
		if err := json.Unmarshal([]byte(rec.Profile), &profile); err != nil {
			log.Printf("session: discarding unreadable persisted profile: %v", err)
		}
	}

	s.mu.Lock()
	s.token = rec.Token
	s.profile = &profile
	s.mu.Unlock()

	if err := s.portal.UpdateLoginStatus(ctx); err != nil {
		s.teardown()
		return nil, fmt.Errorf("session: token revalidation failed (%v): %w", err, ErrNoSession)
	}

	return s.Profile(), nil
}

// Logout clears the session from memory and disk unconditionally. No
// portal call is made: logging out must always succeed locally.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.profile = nil
	s.mu.Unlock()

	if err := s.db.Delete(&models.SessionRecord{}, sessionRowID).Error; err != nil {
		return fmt.Errorf("session: clear persisted session: %w", err)
	}
	return nil
}

// HandleUnauthorized is the api.Client OnUnauthorized hook: an
// authorization rejection on any endpoint tears the session down.
func (s *Store) HandleUnauthorized() {
	log.Printf("session: portal rejected credentials, clearing session")
	s.teardown()
}

// SetPreference stores a client preference flag.
func (s *Store) SetPreference(key string, value bool) error {
	pref := models.Preference{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&pref).Error
	if err != nil {
		return fmt.Errorf("session: set preference %q: %w", key, err)
	}
	return nil
}

// Preference reads a client preference flag, defaulting to false.
func (s *Store) Preference(key string) (bool, error) {
	var pref models.Preference
	err := s.db.First(&pref, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session: read preference %q: %w", key, err)
	}
	return pref.Value, nil
}

// persist upserts the single session row.
func (s *Store) persist(token string, profile *api.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("session: marshal profile: %w", err)
	}
	rec := models.SessionRecord{ID: sessionRowID, Token: token, Profile: string(data)}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "profile", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("session: persist session: %w", err)
	}
	return nil
}

// teardown clears the in-memory and persisted session. Best-effort on the
// disk side: a failed delete still leaves the process logged out.
func (s *Store) teardown() {
	s.mu.Lock()
	s.token = ""
	s.profile = nil
	s.mu.Unlock()

	if err := s.db.Delete(&models.SessionRecord{}, sessionRowID).Error; err != nil {
		log.Printf("session: clear persisted session: %v", err)
	}
}
