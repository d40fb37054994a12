package agent

import (
	"context"
	"fmt"
)

// Store namespaces conversation state by session id on top of a Cache.
type Store struct {
	core      Cache[*State]
	namespace string
}

func NewStore(core Cache[*State], namespace string) *Store {
	return &Store{
		core:      core,
		namespace: namespace,
	}
}

func (s *Store) key(id string) string {
	if s.namespace == "" {
		return id
	}
	return s.namespace + ":" + id
}

func (s *Store) Create(ctx context.Context, id string, state *State) error {
	added, err := s.core.Add(ctx, s.key(id), state.Clone())
	if err != nil {
		return fmt.Errorf("create session %s: %w", id, err)
	}
	if !added {
		return fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	return nil
}

// Get returns a copy of the stored state, or false for an unknown or
// expired session.
func (s *Store) Get(ctx context.Context, id string) (*State, bool, error) {
	state, ok, err := s.core.Get(ctx, s.key(id))
	if err != nil {
		return nil, false, fmt.Errorf("get session %s: %w", id, err)
	}
	if !ok || state == nil {
		return nil, false, nil
	}
	return state.Clone(), true, nil
}

func (s *Store) Update(ctx context.Context, id string, state *State) error {
	exists, err := s.core.Exists(ctx, s.key(id))
	if err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := s.core.Set(ctx, s.key(id), state.Clone()); err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.core.Del(ctx, s.key(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
