package staging

import (
	"testing"
	"time"

	"matchmaker/internal/domain"
)

func TestHub_DropsAlreadySeenVersions(t *testing.T) {
	hub := NewHub(nil)
	sub, cancel := hub.subscribe("s1")
	defer cancel()

	st := domain.SessionState{SessionID: "s1", Version: 3}
	hub.Notify(st)
	hub.Notify(st)
	hub.Notify(domain.SessionState{SessionID: "s1", Version: 2})

	if got := recvState(t, sub.ch); got.Version != 3 {
		t.Fatalf("expected version 3, got %d", got.Version)
	}
	expectNoState(t, sub.ch)
}

func TestHub_IsolatesSessions(t *testing.T) {
	hub := NewHub(nil)
	a, cancelA := hub.subscribe("a")
	defer cancelA()
	_, cancelB := hub.subscribe("b")

	hub.Notify(domain.SessionState{SessionID: "b", Version: 1})
	expectNoState(t, a.ch)

	if hub.Subscribers("b") != 1 {
		t.Fatalf("expected 1 subscriber for b")
	}
	cancelB()
	cancelB()
	if hub.Subscribers("b") != 0 {
		t.Fatalf("expected no subscribers after cancel")
	}
}

func TestHub_DeliversRecreatedSession(t *testing.T) {
	hub := NewHub(nil)
	sub, cancel := hub.subscribe("s1")
	defer cancel()

	t0 := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	hub.Notify(domain.SessionState{SessionID: "s1", Version: 5, UpdatedAt: t0})
	if got := recvState(t, sub.ch); got.Version != 5 {
		t.Fatalf("expected version 5, got %d", got.Version)
	}

	// expiro y se creo de nuevo: la version reinicia
	hub.Notify(domain.SessionState{SessionID: "s1", Version: 1, UpdatedAt: t0.Add(time.Second)})
	if got := recvState(t, sub.ch); got.Version != 1 {
		t.Fatalf("expected recreated version 1, got %d", got.Version)
	}

	hub.Notify(domain.SessionState{SessionID: "s1", Version: 1, UpdatedAt: t0.Add(time.Second)})
	expectNoState(t, sub.ch)
}
