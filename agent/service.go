package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/tbxark/voiceform/metrics"
	"github.com/tbxark/voiceform/stt"
)

// Service runs conversations that span several requests, one audio upload
// per request. Turns of the same session never overlap.
type Service struct {
	flow  *Flow
	store *Store
	locks keyedMutex
	newID func() string
}

func NewService(flow *Flow, store *Store) *Service {
	return &Service{
		flow:  flow,
		store: store,
		newID: uuid.NewString,
	}
}

// Start runs the first turn. A session is opened only when the record is
// still incomplete; its id is in the response.
func (s *Service) Start(ctx context.Context, audio stt.Audio) (*Response, error) {
	state := NewState()
	resp, err := s.flow.Turn(ctx, state, audio)
	if err != nil {
		return nil, err
	}
	if resp.Complete() {
		return resp, nil
	}
	id := s.newID()
	if err := s.store.Create(ctx, id, state); err != nil {
		metrics.CollaboratorFailures.WithLabelValues(metrics.StageStore).Inc()
		return nil, err
	}
	metrics.OpenSessions.Inc()
	slog.Info("Session opened", "session_id", id, "missing", resp.MissingFields)
	resp.SessionID = id
	return resp, nil
}

// Continue runs the next turn of an open session. The session is deleted once
// the record is complete.
func (s *Service) Continue(ctx context.Context, id string, audio stt.Audio) (*Response, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	state, ok, err := s.store.Get(ctx, id)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues(metrics.StageStore).Inc()
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	resp, err := s.flow.Turn(ctx, state, audio)
	if err != nil {
		return nil, err
	}
	if resp.Complete() {
		if err := s.store.Delete(ctx, id); err != nil {
			slog.Warn("Failed to delete finished session", "session_id", id, "error", err)
		}
		metrics.OpenSessions.Dec()
		slog.Info("Session completed", "session_id", id, "turns", resp.Turn)
		return resp, nil
	}
	if err := s.store.Update(ctx, id, state); err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			metrics.CollaboratorFailures.WithLabelValues(metrics.StageStore).Inc()
		}
		return nil, err
	}
	resp.SessionID = id
	return resp, nil
}

// keyedMutex serializes work per key. Entries are dropped once no goroutine
// holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*keyedLock{}
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
