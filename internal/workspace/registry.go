package workspace

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/session"
)

// Registry maps session ids to workspaces.
type Registry struct {
	mu        sync.RWMutex
	items     map[string]*Workspace
	transport *gateway.Transport
	backend   session.Backend
	ttl       time.Duration
	idle      time.Duration
	now       func() time.Time
}

// NewRegistry builds workspaces on demand.  Session records live in backend
// with ttl; workspaces unused for idle are dropped by Sweep.  The session
// record itself survives a sweep.
func NewRegistry(t *gateway.Transport, backend session.Backend, ttl, idle time.Duration) *Registry {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Registry{
		items:     map[string]*Workspace{},
		transport: t,
		backend:   backend,
		ttl:       ttl,
		idle:      idle,
		now:       time.Now,
	}
}

// Get returns the workspace of a session id, creating it when needed.
func (r *Registry) Get(id string) *Workspace {
	now := r.now()
	r.mu.RLock()
	w, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if w, ok = r.items[id]; !ok {
			w = newWorkspace(r.transport, session.NewStore(r.backend, id, r.ttl))
			r.items[id] = w
		}
		r.mu.Unlock()
	}
	w.touch(now)
	return w
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Sweep drops workspaces idle for longer than the configured limit and
// returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idle)
	var stale []*Workspace
	r.mu.Lock()
	for id, w := range r.items {
		if w.idleSince().Before(cutoff) {
			stale = append(stale, w)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()
	for _, w := range stale {
		w.Close()
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.  Memory session backends are
// purged of expired records on the same tick.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				log.Printf("[workspace] swept %d idle workspaces", n)
			}
			if p, ok := r.backend.(interface {
				Purge(context.Context) (int64, error)
			}); ok {
				if n, err := p.Purge(ctx); err != nil {
					log.Printf("[workspace] purge sessions: %v", err)
				} else if n > 0 {
					log.Printf("[workspace] purged %d expired sessions", n)
				}
			}
		}
	}
}
