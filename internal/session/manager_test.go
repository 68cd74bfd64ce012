package session

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager(testDeadline, zerolog.Nop())

	s := m.Create()
	t.Cleanup(s.Close)
	if s.ID() == "" {
		t.Fatal("created session has empty ID")
	}

	got, err := m.Get(s.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Error("Get returned a different session")
	}
	if _, err := m.Get("no-such-game"); !errors.Is(err, ErrUnknownGame) {
		t.Errorf("expected ErrUnknownGame, got %v", err)
	}
}

func TestManagerGeneratesDistinctIDs(t *testing.T) {
	m := NewManager(testDeadline, zerolog.Nop())
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		s := m.Create()
		t.Cleanup(s.Close)
		if seen[s.ID()] {
			t.Fatalf("duplicate game ID %q", s.ID())
		}
		seen[s.ID()] = true
	}
	if m.Count() != 20 {
		t.Errorf("Count = %d, want 20", m.Count())
	}
}

func TestManagerReapsClosedSessions(t *testing.T) {
	m := NewManager(testDeadline, zerolog.Nop())
	s := m.Create()

	_, out := attach(t, s, "alice")
	recv(t, out, TypeFullHistory)
	s.Deliver("alice", Envelope{Type: TypeResign})

	deadline := time.After(time.Second)
	for {
		if _, err := m.Get(s.ID()); errors.Is(err, ErrUnknownGame) {
			return
		}
		select {
		case <-deadline:
			t.Fatal("terminal session was never reaped")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
