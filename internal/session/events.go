package session

import (
	"encoding/json"
	"fmt"

	"github.com/netchess/netchess/internal/chess"
)

// MessageType discriminates the wire envelope.
type MessageType string

// Client to server.
const (
	TypeSubmitMove       MessageType = "submit_move"
	TypeResign           MessageType = "resign"
	TypeClaimAbandonment MessageType = "claim_abandonment"
	TypeSyncStatus       MessageType = "sync_status"
)

// Server to client.
const (
	TypeMoveAccepted         MessageType = "move_accepted"
	TypeMoveRejected         MessageType = "move_rejected"
	TypeFullHistory          MessageType = "full_history"
	TypeOpponentDisconnected MessageType = "opponent_disconnected"
	TypeOpponentReconnected  MessageType = "opponent_reconnected"
	TypeOpponentAbandoned    MessageType = "opponent_abandoned"
	TypeGameEnded            MessageType = "game_ended"
)

// Envelope is the framing for every protocol message: a type tag and a
// JSON payload. It travels over an ordered, reliable stream (one websocket
// text frame per envelope).
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MustEnvelope marshals a payload into an envelope. Payload types here are
// all plain structs, so marshaling cannot fail at runtime.
func MustEnvelope(t MessageType, payload any) Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("marshal %s payload: %v", t, err))
	}
	return Envelope{Type: t, Data: data}
}

// Decode unmarshals the envelope payload into out.
func (e Envelope) Decode(out any) error {
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// MoveWire is a move as submitted or broadcast: coordinates plus an optional
// promotion piece ("q", "r", "b", "n"). The move-kind tag never travels on
// the wire; the server re-derives it on every submission.
type MoveWire struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// ToMove converts wire coordinates into an engine move.
func (w MoveWire) ToMove() (chess.Move, error) {
	uci := w.From + w.To
	switch w.Promotion {
	case "", "q", "r", "b", "n":
		uci += w.Promotion
	default:
		return chess.Move{}, fmt.Errorf("invalid promotion %q", w.Promotion)
	}
	return chess.ParseUCIMove(uci)
}

// WireMove converts an engine move to its wire form.
func WireMove(m chess.Move) MoveWire {
	w := MoveWire{From: m.From.String(), To: m.To.String()}
	switch m.Promotion {
	case chess.Queen:
		w.Promotion = "q"
	case chess.Rook:
		w.Promotion = "r"
	case chess.Bishop:
		w.Promotion = "b"
	case chess.Knight:
		w.Promotion = "n"
	}
	return w
}

// StatusWire is the terminal-status field in transit.
type StatusWire struct {
	Kind   string `json:"kind"`
	Loser  string `json:"loser,omitempty"`
	Result string `json:"result"`
}

// WireStatus converts an engine status to its wire form.
func WireStatus(s chess.Status) StatusWire {
	w := StatusWire{Kind: s.Kind.String(), Result: s.Result()}
	switch s.Kind {
	case chess.StatusCheckmate, chess.StatusResignation, chess.StatusAbandonment:
		w.Loser = s.Loser.String()
	}
	return w
}

// SubmitMove asks the session to play a move for the submitting client.
type SubmitMove struct {
	Move MoveWire `json:"move"`
}

// SyncStatus reports a client's replayed position so the server can detect
// replica divergence.
type SyncStatus struct {
	Ply         int    `json:"ply"`
	Fingerprint uint64 `json:"fingerprint"`
}

// MoveAccepted broadcasts a move applied to the canonical game.
type MoveAccepted struct {
	Move        MoveWire   `json:"move"`
	SAN         string     `json:"san"`
	Ply         int        `json:"ply"`
	Status      StatusWire `json:"status"`
	Fingerprint uint64     `json:"fingerprint"`
}

// MoveRejected is returned only to the submitting client.
type MoveRejected struct {
	Reason string `json:"reason"`
	Code   string `json:"code"` // "illegal_move", "not_your_turn", "session_terminal"
}

// FullHistory carries the complete move log for replay. It is sent on every
// connect and reconnect; the protocol never sends partial catch-ups.
type FullHistory struct {
	Color       string     `json:"color"`
	Moves       []MoveWire `json:"moves"`
	Status      StatusWire `json:"status"`
	Ply         int        `json:"ply"`
	Fingerprint uint64     `json:"fingerprint"`
}

// OpponentDisconnected notifies that the other seat dropped; the seat is held
// until the deadline passes.
type OpponentDisconnected struct {
	DeadlineSeconds int `json:"deadlineSeconds"`
}

// OpponentAbandoned notifies that the reconnection deadline passed. The
// remaining player may claim the win or keep waiting; nothing is forced.
type OpponentAbandoned struct{}

// GameEnded carries the final status once the session is terminal.
type GameEnded struct {
	Status StatusWire `json:"status"`
}
