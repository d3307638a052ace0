// Package staging guarda el estado de cada sesion y notifica a quien lo observa.
package staging

import (
	"context"
	"errors"

	"matchmaker/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// UpdateFunc modifica el estado en sitio. Si devuelve error no se guarda ni se notifica.
type UpdateFunc func(state *domain.SessionState) error

// Store es el area de staging: un registro tipado por sesion con get/set/subscribe.
// Cada Update exitoso incrementa Version y produce exactamente una notificacion.
type Store interface {
	Create(ctx context.Context, sessionID string) (domain.SessionState, error)
	Get(ctx context.Context, sessionID string) (domain.SessionState, error)
	Update(ctx context.Context, sessionID string, fn UpdateFunc) (domain.SessionState, error)
	// Subscribe entrega primero el estado actual (si existe) y luego cada cambio.
	// Un suscriptor lento recibe siempre el ultimo estado, no la cola completa.
	Subscribe(ctx context.Context, sessionID string) (<-chan domain.SessionState, func(), error)
}

type getter interface {
	Get(ctx context.Context, sessionID string) (domain.SessionState, error)
}

func subscribeWithCurrent(ctx context.Context, hub *Hub, store getter, sessionID string) (<-chan domain.SessionState, func(), error) {
	sub, cancel := hub.subscribe(sessionID)
	current, err := store.Get(ctx, sessionID)
	switch {
	case err == nil:
		hub.offer(sub, current)
	case errors.Is(err, ErrSessionNotFound):
	default:
		cancel()
		return nil, nil, err
	}
	return sub.ch, cancel, nil
}
