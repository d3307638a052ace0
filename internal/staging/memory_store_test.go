package staging

import (
	"context"
	"errors"
	"testing"
	"time"

	"matchmaker/internal/domain"
)

func recvState(t *testing.T, ch <-chan domain.SessionState) domain.SessionState {
	t.Helper()
	select {
	case st, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed")
		}
		return st
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for state")
	}
	return domain.SessionState{}
}

func expectNoState(t *testing.T, ch <-chan domain.SessionState) {
	t.Helper()
	select {
	case st := <-ch:
		t.Fatalf("unexpected state version %d", st.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryStore_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(NewHub(nil), time.Hour)

	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	st, err := store.Create(ctx, "s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st.Version != 1 || st.Secondary.State != domain.SecondaryNotStarted || st.Phase() != domain.PhaseLoading {
		t.Fatalf("unexpected initial state: %+v", st)
	}

	st, err = store.Update(ctx, "s1", func(s *domain.SessionState) error {
		s.Result = &domain.ResultSet{Kind: domain.ResultPeople}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if st.Version != 2 || st.Phase() != domain.PhaseReady {
		t.Fatalf("unexpected updated state: %+v", st)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil || got.Version != 2 {
		t.Fatalf("expected version 2, got %+v, %v", got, err)
	}
}

func TestMemoryStore_UpdateErrorLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(NewHub(nil), time.Hour)
	_, _ = store.Create(ctx, "s1")

	ch, cancel, err := store.Subscribe(ctx, "s1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	recvState(t, ch)

	boom := errors.New("boom")
	if _, err := store.Update(ctx, "s1", func(s *domain.SessionState) error {
		s.Error = "should not stick"
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	expectNoState(t, ch)

	got, _ := store.Get(ctx, "s1")
	if got.Error != "" || got.Version != 1 {
		t.Fatalf("state changed on failed update: %+v", got)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(NewHub(nil), time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, _ = store.Create(ctx, "s1")
	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestMemoryStore_SubscribeCurrentThenOneNotificationPerChange(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(NewHub(nil), time.Hour)
	_, _ = store.Create(ctx, "s1")

	ch, cancel, err := store.Subscribe(ctx, "s1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if st := recvState(t, ch); st.Version != 1 {
		t.Fatalf("expected current state first, got version %d", st.Version)
	}

	_, _ = store.Update(ctx, "s1", func(s *domain.SessionState) error {
		s.Secondary.State = domain.SecondaryInProgress
		return nil
	})
	st := recvState(t, ch)
	if st.Version != 2 || st.Secondary.State != domain.SecondaryInProgress {
		t.Fatalf("unexpected notification: %+v", st)
	}
	expectNoState(t, ch)
}

func TestMemoryStore_SlowSubscriberSeesLatest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(NewHub(nil), time.Hour)

	ch, cancel, err := store.Subscribe(ctx, "s1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	for i := 0; i < 5; i++ {
		_, _ = store.Update(ctx, "s1", func(s *domain.SessionState) error {
			s.Secondary.Count++
			return nil
		})
	}

	st := recvState(t, ch)
	if st.Version != 5 || st.Secondary.Count != 5 {
		t.Fatalf("expected latest state, got %+v", st)
	}
	expectNoState(t, ch)
}

func TestMemoryStore_SubscribeBeforeCreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(NewHub(nil), time.Hour)

	ch, cancel, err := store.Subscribe(ctx, "later")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	expectNoState(t, ch)

	_, _ = store.Create(ctx, "later")
	if st := recvState(t, ch); st.Version != 1 {
		t.Fatalf("expected version 1, got %d", st.Version)
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
}
