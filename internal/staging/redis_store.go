package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"matchmaker/internal/domain"
)

const redisOpTimeout = 500 * time.Millisecond

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore guarda el estado serializado en Redis con TTL y lo difunde por el Bus
// para que los suscriptores de otras instancias tambien se enteren.
type RedisStore struct {
	client redisKV
	bus    Bus
	hub    *Hub
	prefix string
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	locksMu sync.Mutex
	locks   map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewRedisStore(client redisKV, bus Bus, hub *Hub, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		bus:    bus,
		hub:    hub,
		prefix: "matchmaker:session:",
		ttl:    ttl,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		locks:  make(map[string]*keyLock),
	}
}

func (s *RedisStore) Create(ctx context.Context, sessionID string) (domain.SessionState, error) {
	return s.Update(ctx, sessionID, func(*domain.SessionState) error { return nil })
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (domain.SessionState, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	raw, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionState{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("redis get session: %w", err)
	}
	var state domain.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.SessionState{}, fmt.Errorf("decode session state: %w", err)
	}
	return state, nil
}

// Update serializa escrituras por sesion dentro de la instancia. El agregador de una
// sesion corre en una sola instancia, asi que no hace falta WATCH/MULTI.
func (s *RedisStore) Update(ctx context.Context, sessionID string, fn UpdateFunc) (domain.SessionState, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	state, err := s.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		state = domain.NewSessionState(sessionID)
	} else if err != nil {
		return domain.SessionState{}, err
	}
	if err := fn(&state); err != nil {
		return domain.SessionState{}, err
	}
	state.SessionID = sessionID
	state.Version++
	state.UpdatedAt = s.now()

	raw, err := json.Marshal(state)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("encode session state: %w", err)
	}
	setCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := s.client.Set(setCtx, s.prefix+sessionID, raw, s.ttl).Err(); err != nil {
		return domain.SessionState{}, fmt.Errorf("redis set session: %w", err)
	}

	s.hub.Notify(state)
	if s.bus != nil {
		if err := s.bus.Publish(setCtx, state); err != nil {
			s.logger.Warn("session broadcast failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return state.Clone(), nil
}

func (s *RedisStore) Subscribe(ctx context.Context, sessionID string) (<-chan domain.SessionState, func(), error) {
	return subscribeWithCurrent(ctx, s.hub, s, sessionID)
}

func (s *RedisStore) lock(sessionID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &keyLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.locksMu.Unlock()
	}
}
