package session

import (
	"errors"
	"testing"
	"time"

	"github.com/netchess/netchess/internal/chess"
)

func TestMirrorLoadHistory(t *testing.T) {
	canonical := chess.NewGame()
	var moves []MoveWire
	for _, uci := range []string{"e2e4", "c7c5", "g1f3"} {
		m, err := chess.ParseUCIMove(uci)
		if err != nil {
			t.Fatalf("parse %s: %v", uci, err)
		}
		resolved, err := canonical.Apply(m)
		if err != nil {
			t.Fatalf("apply %s: %v", uci, err)
		}
		moves = append(moves, WireMove(resolved))
	}

	m := NewMirror()
	err := m.LoadHistory(FullHistory{
		Color:       "black",
		Moves:       moves,
		Status:      WireStatus(canonical.Status()),
		Ply:         canonical.Ply(),
		Fingerprint: canonical.Fingerprint(),
	})
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if m.Color() != chess.Black {
		t.Errorf("color = %s, want black", m.Color())
	}
	if m.Game().Board() != canonical.Board() {
		t.Error("replayed position differs from canonical")
	}
	if sync := m.Sync(); sync.Ply != 3 || sync.Fingerprint != canonical.Fingerprint() {
		t.Errorf("unexpected sync report: %+v", sync)
	}
}

func TestMirrorLoadHistoryDetectsBadFingerprint(t *testing.T) {
	m := NewMirror()
	err := m.LoadHistory(FullHistory{
		Color:       "white",
		Moves:       []MoveWire{{From: "e2", To: "e4"}},
		Ply:         1,
		Fingerprint: 99999,
	})
	if !errors.Is(err, ErrDesync) {
		t.Fatalf("expected ErrDesync, got %v", err)
	}
}

func TestMirrorApplyAccepted(t *testing.T) {
	canonical := chess.NewGame()
	m := NewMirror()
	if err := m.LoadHistory(FullHistory{Color: "white", Fingerprint: canonical.Fingerprint()}); err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}

	move, _ := chess.ParseUCIMove("e2e4")
	resolved, err := canonical.Apply(move)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	err = m.ApplyAccepted(MoveAccepted{
		Move:        WireMove(resolved),
		SAN:         "e4",
		Ply:         canonical.Ply(),
		Status:      WireStatus(canonical.Status()),
		Fingerprint: canonical.Fingerprint(),
	})
	if err != nil {
		t.Fatalf("ApplyAccepted: %v", err)
	}
	if m.Game().Board() != canonical.Board() {
		t.Error("mirror position differs after accepted move")
	}
}

func TestMirrorApplyAcceptedLeavesReplicaOnDesync(t *testing.T) {
	m := NewMirror()
	if err := m.LoadHistory(FullHistory{Color: "white", Fingerprint: chess.StartingBoard().Fingerprint()}); err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	before := m.Game().Board()

	err := m.ApplyAccepted(MoveAccepted{
		Move:        MoveWire{From: "e2", To: "e4"},
		Ply:         1,
		Fingerprint: 42, // wrong
	})
	if !errors.Is(err, ErrDesync) {
		t.Fatalf("expected ErrDesync, got %v", err)
	}
	if m.Game().Board() != before {
		t.Error("replica mutated despite desync")
	}
	if m.Sync().Ply != 0 {
		t.Errorf("replica advanced despite desync: ply %d", m.Sync().Ply)
	}
}

func TestMirrorCarriesRemoteResignation(t *testing.T) {
	m := NewMirror()
	if err := m.LoadHistory(FullHistory{Color: "white", Fingerprint: chess.StartingBoard().Fingerprint()}); err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	canonical := chess.NewGame()
	move, _ := chess.ParseUCIMove("e2e4")
	resolved, _ := canonical.Apply(move)
	_ = canonical.Resign(chess.Black)

	err := m.ApplyAccepted(MoveAccepted{
		Move:        WireMove(resolved),
		Ply:         1,
		Status:      WireStatus(canonical.Status()),
		Fingerprint: canonical.Fingerprint(),
	})
	if err != nil {
		t.Fatalf("ApplyAccepted: %v", err)
	}
	status := m.Game().Status()
	if status.Kind != chess.StatusResignation || status.Loser != chess.Black {
		t.Errorf("resignation not mirrored: %+v", status)
	}
}

// Drives a live session and a mirror per seat end to end: every broadcast is
// applied locally and the resulting sync reports always match the authority.
func TestMirrorStaysInSyncWithSession(t *testing.T) {
	s := newTestSession(t)
	_, whiteOut := attach(t, s, "alice")
	_, blackOut := attach(t, s, "bob")

	mirrors := map[string]*Mirror{"alice": NewMirror(), "bob": NewMirror()}
	outs := map[string]chan Envelope{"alice": whiteOut, "bob": blackOut}
	for name, out := range outs {
		var history FullHistory
		env := recv(t, out, TypeFullHistory)
		if err := env.Decode(&history); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if err := mirrors[name].LoadHistory(history); err != nil {
			t.Fatalf("%s LoadHistory: %v", name, err)
		}
	}

	plies := []struct{ client, from, to string }{
		{"alice", "e2", "e4"}, {"bob", "e7", "e5"},
		{"alice", "g1", "f3"}, {"bob", "b8", "c6"},
	}
	for _, p := range plies {
		submit(s, p.client, p.from, p.to)
		for name, out := range outs {
			var accepted MoveAccepted
			env := recv(t, out, TypeMoveAccepted)
			if err := env.Decode(&accepted); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if err := mirrors[name].ApplyAccepted(accepted); err != nil {
				t.Fatalf("%s fell out of sync after %s%s: %v", name, p.from, p.to, err)
			}
			// A matching report draws no response from the session.
			s.Deliver(name, MustEnvelope(TypeSyncStatus, mirrors[name].Sync()))
		}
	}

	for _, out := range outs {
		select {
		case env := <-out:
			t.Fatalf("unexpected %s after matching sync reports", env.Type)
		case <-time.After(20 * time.Millisecond):
		}
	}
}
