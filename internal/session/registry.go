// Package session keeps the open routine editing sessions. Each session owns
// one routine.Store for as long as its editor is open; closing the session
// or leaving it idle past the TTL discards the routine.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/rutinas/internal/routine"
	"github.com/google/uuid"
)

type entry struct {
	owner    string
	store    *routine.Store
	lastUsed time.Time
}

// Registry maps session IDs to their stores.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
	ttl      time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// NewRegistry creates an empty registry. A ttl of zero disables expiry.
func NewRegistry(ttl time.Duration, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		sessions: make(map[uuid.UUID]*entry),
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

// Open starts a session for owner holding a fresh default routine.
func (r *Registry) Open(owner string) (uuid.UUID, *routine.Store) {
	return r.OpenWith(owner, routine.New())
}

// OpenWith starts a session for owner holding initial.
func (r *Registry) OpenWith(owner string, initial routine.Routine) (uuid.UUID, *routine.Store) {
	id := uuid.New()
	log := r.log.With("session", id.String())
	store := routine.NewStore(initial, log)
	store.Subscribe(func(next routine.Routine) {
		r.touch(id)
		log.Debug("routine changed", "name", next.Name, "exercises", next.Exercises.Len())
	})

	r.mu.Lock()
	r.sessions[id] = &entry{owner: owner, store: store, lastUsed: r.now()}
	n := len(r.sessions)
	r.mu.Unlock()

	r.log.Info("session opened", "session", id, "owner", owner, "open", n)
	return id, store
}

// Get returns the store of session id and marks the session as used.
// Sessions belonging to another owner are reported as missing.
func (r *Registry) Get(id uuid.UUID, owner string) (*routine.Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok || e.owner != owner {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.store, true
}

// Close discards session id of owner. It reports whether the session existed.
func (r *Registry) Close(id uuid.UUID, owner string) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	ok = ok && e.owner == owner
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		r.log.Info("session closed", "session", id)
	}
	return ok
}

// touch marks session id as used. Every routine change counts as use, so a
// store held past its Get is not swept while it is being edited.
func (r *Registry) touch(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.lastUsed = r.now()
	}
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep discards sessions idle for longer than the TTL as of now and
// returns how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.sessions {
		if now.Sub(e.lastUsed) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if n := r.Sweep(t); n > 0 {
				r.log.Info("expired idle sessions", "removed", n, "open", r.Len())
			}
		}
	}
}
