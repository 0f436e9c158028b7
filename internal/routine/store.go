package routine

import (
	"errors"
	"log/slog"
	"sync"
)

// Store holds the current routine of one editing session and applies
// actions to it. Reads and dispatches are serialised, so a Store can be
// shared by concurrent request handlers.
type Store struct {
	// notifyMu is taken before mu is released so observers see snapshots in
	// the order they were installed. Lock order: mu, then notifyMu.
	notifyMu  sync.Mutex
	mu        sync.Mutex
	current   Routine
	observers map[int]func(Routine)
	order     []int
	nextID    int
	log       *slog.Logger
}

// NewStore creates a Store holding initial.
func NewStore(initial Routine, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Store{
		current:   initial,
		observers: make(map[int]func(Routine)),
		log:       log,
	}
}

// Current returns the current snapshot. The returned value must be treated
// as read-only; its sequences may be shared with later snapshots.
func (s *Store) Current() Routine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Dispatch applies action, replaces the current routine with the result and
// returns it. A contract violation (unknown action, missing field, invalid
// section) leaves the routine untouched and is returned to the caller.
func (s *Store) Dispatch(action Action) (Routine, error) {
	s.mu.Lock()
	next, err := Transition(s.current, action)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrUnknownAction) || errors.Is(err, ErrMissingField) {
			s.log.Error("rejected action", "error", err)
		} else {
			s.log.Warn("rejected action", "error", err)
		}
		return next, err
	}
	s.current = next
	s.publish(next)

	s.log.Debug("action applied", "type", action.Type(), "exercises", next.Exercises.Len())
	return next, nil
}

// AssignID records the identifier given to the routine by the library that
// persisted it and returns the updated routine. Observers are notified like
// after a dispatch.
func (s *Store) AssignID(id string) Routine {
	s.mu.Lock()
	s.current.ID = &id
	next := s.current
	s.publish(next)
	return next
}

// publish hands next to the observers. It is called with s.mu held and
// releases it; notifyMu is acquired first so a later snapshot cannot be
// delivered before this one. Observers must not call back into the Store.
func (s *Store) publish(next Routine) {
	observers := s.snapshotObservers()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	notify(observers, next)
}

// Subscribe registers fn to be called with every new snapshot, in
// subscription order and in the order the snapshots were installed. fn must
// not call back into the Store. The returned function removes the
// subscription.
func (s *Store) Subscribe(fn func(Routine)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers, id)
			for i, o := range s.order {
				if o == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// snapshotObservers copies the observer list. Callers hold s.mu.
func (s *Store) snapshotObservers() []func(Routine) {
	fns := make([]func(Routine), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.observers[id])
	}
	return fns
}

func notify(fns []func(Routine), r Routine) {
	for _, fn := range fns {
		fn(r)
	}
}
