// Package session holds the bearer credential of one browser.  A Store is
// the owned handle the request gateway reads and clears; the Backend behind
// it decides where the record lives (process memory, Redis or MySQL).
package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/admission-portal/internal/model"
)

// ErrNotFound is returned by a Backend when no live record exists for an id.
var ErrNotFound = errors.New("session: not found")

// Record is the persisted state of one browser session.  Token is the only
// field that decides authentication; the others are kept for refresh and
// display.
type Record struct {
	Token     string    `json:"token"`
	Refresh   string    `json:"refresh,omitempty"`
	Username  string    `json:"username,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Backend persists records keyed by session id.  Load must not return
// records whose ExpiresAt has passed.
type Backend interface {
	Load(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, id string, rec Record) error
	Delete(ctx context.Context, id string) error
}

// Store is the credential holder of a single browser session.  It holds at
// most one token at a time.
type Store struct {
	backend Backend
	id      string
	ttl     time.Duration
}

// NewStore binds a session id to a backend.  ttl bounds records whose token
// carries no readable expiry.
func NewStore(backend Backend, id string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{backend: backend, id: id, ttl: ttl}
}

// ID returns the session id the store is bound to.
func (s *Store) ID() string { return s.id }

// Set replaces the stored token.
func (s *Store) Set(ctx context.Context, token string) error {
	return s.SetPair(ctx, model.TokenPair{Access: token})
}

// SetPair stores the tokens returned by a login.  An empty refresh token
// keeps the one already stored.
func (s *Store) SetPair(ctx context.Context, pair model.TokenPair) error {
	rec := Record{Token: pair.Access, Refresh: pair.Refresh, Username: pair.Username}
	if prev, err := s.backend.Load(ctx, s.id); err == nil {
		if rec.Refresh == "" {
			rec.Refresh = prev.Refresh
		}
		if rec.Username == "" {
			rec.Username = prev.Username
		}
	}
	rec.ExpiresAt = time.Now().UTC().Add(s.ttl)
	if exp, ok := TokenExpiry(pair.Access); ok && exp.Before(rec.ExpiresAt) {
		rec.ExpiresAt = exp
	}
	return s.backend.Save(ctx, s.id, rec)
}

// Get returns the stored token, or "" when the session holds none.  Backend
// failures are logged and read as "no token".
func (s *Store) Get(ctx context.Context) string {
	rec, ok := s.Record(ctx)
	if !ok {
		return ""
	}
	return rec.Token
}

// Record returns the full stored record.
func (s *Store) Record(ctx context.Context) (Record, bool) {
	rec, err := s.backend.Load(ctx, s.id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[session] load id=%s failed: %v", short(s.id), err)
		}
		return Record{}, false
	}
	if rec.Token == "" {
		return Record{}, false
	}
	return rec, true
}

// Clear removes the token.  It is idempotent.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	return s.Get(ctx) != ""
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
