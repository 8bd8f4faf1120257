package session

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps records in process memory.  Records survive page
// reloads but not a server restart.
type MemoryBackend struct {
	mu   sync.RWMutex
	recs map[string]Record
	now  func() time.Time
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{recs: make(map[string]Record), now: time.Now}
}

func (m *MemoryBackend) Load(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	rec, ok := m.recs[id]
	m.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	if !rec.ExpiresAt.IsZero() && !m.now().Before(rec.ExpiresAt) {
		m.mu.Lock()
		delete(m.recs, id)
		m.mu.Unlock()
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryBackend) Save(_ context.Context, id string, rec Record) error {
	m.mu.Lock()
	m.recs[id] = rec
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.recs, id)
	m.mu.Unlock()
	return nil
}

// Purge drops expired records and returns how many were removed.
func (m *MemoryBackend) Purge(_ context.Context) (int64, error) {
	now := m.now()
	var n int64
	m.mu.Lock()
	for id, rec := range m.recs {
		if !rec.ExpiresAt.IsZero() && !now.Before(rec.ExpiresAt) {
			delete(m.recs, id)
			n++
		}
	}
	m.mu.Unlock()
	return n, nil
}
