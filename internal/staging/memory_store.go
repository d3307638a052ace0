package staging

import (
	"context"
	"sync"
	"time"

	"matchmaker/internal/domain"
)

type memoryEntry struct {
	state     domain.SessionState
	expiresAt time.Time
}

// MemoryStore guarda estados en proceso. Es el backend por defecto sin Redis.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]memoryEntry
	ttl    time.Duration
	hub    *Hub
	now    func() time.Time
}

func NewMemoryStore(hub *Hub, ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MemoryStore{
		states: make(map[string]memoryEntry),
		ttl:    ttl,
		hub:    hub,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(ctx context.Context, sessionID string) (domain.SessionState, error) {
	return s.Update(ctx, sessionID, func(*domain.SessionState) error { return nil })
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.states[sessionID]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.states, sessionID)
		return domain.SessionState{}, ErrSessionNotFound
	}
	return entry.state.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, sessionID string, fn UpdateFunc) (domain.SessionState, error) {
	s.mu.Lock()
	now := s.now()
	s.sweepLocked(now)

	entry, ok := s.states[sessionID]
	state := entry.state.Clone()
	if !ok {
		state = domain.NewSessionState(sessionID)
	}
	if err := fn(&state); err != nil {
		s.mu.Unlock()
		return domain.SessionState{}, err
	}
	state.SessionID = sessionID
	state.Version++
	state.UpdatedAt = now
	s.states[sessionID] = memoryEntry{state: state, expiresAt: now.Add(s.ttl)}
	out := state.Clone()
	s.mu.Unlock()

	s.hub.Notify(out)
	return out, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, sessionID string) (<-chan domain.SessionState, func(), error) {
	return subscribeWithCurrent(ctx, s.hub, s, sessionID)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for id, entry := range s.states {
		if now.After(entry.expiresAt) {
			delete(s.states, id)
		}
	}
}
