package session

import (
	"errors"
	"fmt"

	"github.com/netchess/netchess/internal/chess"
)

// ErrDesync means the local replica no longer matches the canonical game.
// The caller should report a SyncStatus and wait for a fresh FullHistory.
var ErrDesync = errors.New("replica diverged from canonical game")

// Mirror is a client's local replica of a session's game. It is rebuilt by
// replaying the full history on connect and advanced one accepted move at a
// time afterwards, verifying the server's fingerprint at every step.
type Mirror struct {
	color chess.Color
	game  *chess.Game
}

// NewMirror returns an empty replica awaiting its first FullHistory.
func NewMirror() *Mirror {
	return &Mirror{game: chess.NewGame()}
}

// Color is the seat this replica plays.
func (m *Mirror) Color() chess.Color { return m.color }

// Game exposes the replica for display and local move legality checks.
func (m *Mirror) Game() *chess.Game { return m.game }

// LoadHistory rebuilds the replica from scratch by replaying every move.
func (m *Mirror) LoadHistory(msg FullHistory) error {
	color, ok := chess.ParseColor(msg.Color)
	if !ok {
		return fmt.Errorf("load history: bad color %q", msg.Color)
	}
	moves := make([]chess.Move, len(msg.Moves))
	for i, w := range msg.Moves {
		var err error
		if moves[i], err = w.ToMove(); err != nil {
			return fmt.Errorf("load history: move %d: %w", i, err)
		}
	}
	game, err := chess.Replay(moves)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if game.Ply() != msg.Ply || game.Fingerprint() != msg.Fingerprint {
		return fmt.Errorf("load history: %w", ErrDesync)
	}
	m.color = color
	m.game = game
	m.applyRemoteStatus(msg.Status)
	return nil
}

// ApplyAccepted advances the replica by one broadcast move. A fingerprint or
// ply mismatch afterwards means the replica diverged; the replica is left
// untouched in that case so a later FullHistory can rebuild it.
func (m *Mirror) ApplyAccepted(msg MoveAccepted) error {
	move, err := msg.Move.ToMove()
	if err != nil {
		return fmt.Errorf("apply accepted: %w", err)
	}
	next := m.game.Clone()
	if _, err := next.Apply(move); err != nil {
		return fmt.Errorf("apply accepted: %w: %v", ErrDesync, err)
	}
	if next.Ply() != msg.Ply || next.Fingerprint() != msg.Fingerprint {
		return fmt.Errorf("apply accepted: %w", ErrDesync)
	}
	m.game = next
	m.applyRemoteStatus(msg.Status)
	return nil
}

// applyRemoteStatus carries server-decided outcomes (resignation,
// abandonment, abort) into the replica. Board-derived outcomes are already
// identical by replay.
func (m *Mirror) applyRemoteStatus(w StatusWire) {
	if m.game.Status().Terminal() {
		return
	}
	switch w.Kind {
	case chess.StatusResignation.String():
		if loser, ok := chess.ParseColor(w.Loser); ok {
			_ = m.game.Resign(loser)
		}
	case chess.StatusAbandonment.String():
		if loser, ok := chess.ParseColor(w.Loser); ok {
			_ = m.game.Abandon(loser)
		}
	case chess.StatusAborted.String():
		m.game.Abort()
	}
}

// Sync reports the replica's current position for server-side verification.
func (m *Mirror) Sync() SyncStatus {
	return SyncStatus{Ply: m.game.Ply(), Fingerprint: m.game.Fingerprint()}
}
