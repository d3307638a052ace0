package staging

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"matchmaker/internal/domain"
)

type subscriber struct {
	ch     chan domain.SessionState
	last   int64
	lastAt time.Time
}

// Hub reparte estados a los suscriptores locales de cada sesion.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		logger: logger,
	}
}

func (h *Hub) subscribe(sessionID string) (*subscriber, func()) {
	sub := &subscriber{ch: make(chan domain.SessionState, 1)}

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[sessionID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, sessionID)
				}
			}
			close(sub.ch)
		})
	}
	return sub, cancel
}

// Notify entrega el estado a los suscriptores de su sesion. Versiones ya vistas se descartan,
// asi un mismo cambio que llega por el bus y por la via local se entrega una sola vez.
func (h *Hub) Notify(state domain.SessionState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[state.SessionID] {
		h.offerLocked(sub, state)
	}
}

func (h *Hub) offer(sub *subscriber, state domain.SessionState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[state.SessionID]; !ok {
		return
	} else if _, ok := set[sub]; !ok {
		return
	}
	h.offerLocked(sub, state)
}

func (h *Hub) offerLocked(sub *subscriber, state domain.SessionState) {
	// Una sesion recreada vuelve a version 1; su UpdatedAt posterior la distingue de un duplicado.
	if state.Version <= sub.last && !state.UpdatedAt.After(sub.lastAt) {
		return
	}
	sub.last = state.Version
	sub.lastAt = state.UpdatedAt
	select {
	case sub.ch <- state.Clone():
		return
	default:
	}
	// Buffer lleno: se reemplaza el estado pendiente por el mas nuevo.
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- state.Clone():
	default:
		h.logger.Warn("dropping session notification", zap.String("session_id", state.SessionID))
	}
}

// Subscribers devuelve cuantos suscriptores locales tiene la sesion.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}
