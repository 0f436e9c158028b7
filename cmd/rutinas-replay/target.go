package main

import (
	"context"
	"log/slog"

	"github.com/claude/rutinas/internal/client"
	"github.com/claude/rutinas/internal/routine"
	"github.com/google/uuid"
)

// replayer applies encoded actions to a routine held somewhere.
type replayer interface {
	apply(ctx context.Context, action []byte) error
	current(ctx context.Context) (routine.Routine, error)
	close(ctx context.Context) error
}

// local replays into an in-process store.
type local struct {
	store *routine.Store
}

func newLocal(log *slog.Logger) *local {
	return &local{store: routine.NewStore(routine.New(), log)}
}

func (l *local) apply(_ context.Context, data []byte) error {
	action, err := routine.DecodeAction(data)
	if err != nil {
		return err
	}
	if action, err = routine.Guard(action); err != nil {
		return err
	}
	_, err = l.store.Dispatch(action)
	return err
}

func (l *local) current(context.Context) (routine.Routine, error) {
	return l.store.Current(), nil
}

func (l *local) close(context.Context) error { return nil }

// remote replays into a session on a rutinas server.
type remote struct {
	c       *client.Client
	session uuid.UUID
	last    routine.Routine
}

func newRemote(ctx context.Context, c *client.Client) (*remote, error) {
	s, err := c.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	return &remote{c: c, session: s.ID, last: s.Routine}, nil
}

func (r *remote) apply(ctx context.Context, data []byte) error {
	s, err := r.c.Dispatch(ctx, r.session, data)
	if err != nil {
		return err
	}
	r.last = s.Routine
	return nil
}

func (r *remote) current(ctx context.Context) (routine.Routine, error) {
	s, err := r.c.Get(ctx, r.session)
	if err != nil {
		return r.last, err
	}
	return s.Routine, nil
}

func (r *remote) close(ctx context.Context) error {
	return r.c.Close(ctx, r.session)
}

func (r *remote) save(ctx context.Context) (routine.Routine, error) {
	s, err := r.c.Save(ctx, r.session)
	if err != nil {
		return routine.Routine{}, err
	}
	return s.Routine, nil
}
