package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/netchess/netchess/internal/chess"
)

var (
	// ErrSessionFull rejects a third distinct client.
	ErrSessionFull = errors.New("session already has two players")

	// ErrSessionClosed rejects operations on a finished session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrSeatTaken rejects a reconnect for a seat that is still connected.
	ErrSeatTaken = errors.New("seat is already connected")
)

// Rejection codes surfaced in MoveRejected messages.
const (
	codeIllegalMove     = "illegal_move"
	codeNotYourTurn     = "not_your_turn"
	codeSessionTerminal = "session_terminal"
	codeBadMessage      = "bad_message"
)

// seatState tracks connection liveness per player.
type seatState int

const (
	seatEmpty seatState = iota
	seatConnected
	seatPendingReconnect
	seatAbandoned
)

type seat struct {
	clientID  string
	state     seatState
	out       chan<- Envelope
	desyncs   int
	timer     *time.Timer
	wasOnline bool
}

// Session is the single source of truth for one networked game. A run-loop
// goroutine exclusively owns the game state; connection handlers talk to it
// through the inbox channel, so move application is serialized by
// construction and no two submissions ever interleave.
type Session struct {
	id       string
	game     *chess.Game
	inbox    chan func()
	done     chan struct{}
	seats    [2]seat
	deadline time.Duration
	log      zerolog.Logger

	// fingerprints[p] is the position fingerprint after ply p, so sync
	// reports that raced a broadcast can be told apart from real divergence.
	fingerprints []uint64
}

// New creates a session for the given game ID. Run must be started on its
// own goroutine before any client attaches.
func New(id string, reconnectDeadline time.Duration, log zerolog.Logger) *Session {
	game := chess.NewGame()
	return &Session{
		id:           id,
		game:         game,
		inbox:        make(chan func(), 32),
		done:         make(chan struct{}),
		deadline:     reconnectDeadline,
		log:          log.With().Str("session", id).Logger(),
		fingerprints: []uint64{game.Fingerprint()},
	}
}

// ID returns the session's game ID.
func (s *Session) ID() string { return s.id }

// Done is closed once the session is terminal and torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close aborts the game if it is still running and tears the session down.
// Used on server shutdown; in normal play the session closes itself once the
// game is terminal.
func (s *Session) Close() {
	s.post(func() {
		s.game.Abort()
		s.finishIfTerminal()
	})
}

// Run executes commands until the session closes. All game mutation happens
// here; network I/O never does.
func (s *Session) Run() {
	for {
		select {
		case cmd := <-s.inbox:
			cmd()
		case <-s.done:
			return
		}
	}
}

// call runs fn on the session goroutine and waits for it.
func (s *Session) call(fn func()) error {
	doneCh := make(chan struct{})
	select {
	case s.inbox <- func() { fn(); close(doneCh) }:
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case <-doneCh:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// post runs fn on the session goroutine without waiting.
func (s *Session) post(fn func()) {
	select {
	case s.inbox <- fn:
	case <-s.done:
	}
}

// Reserve claims a seat for clientID without connecting, so a join endpoint
// can assign a color and mint a token before the websocket arrives. The seat
// is held under the usual reconnect deadline; a client that never connects
// frees it the same way a dropped one does.
func (s *Session) Reserve(clientID string) (chess.Color, error) {
	var color chess.Color
	var reserveErr error
	err := s.call(func() { color, reserveErr = s.reserve(clientID) })
	if err != nil {
		return chess.White, err
	}
	return color, reserveErr
}

func (s *Session) reserve(clientID string) (chess.Color, error) {
	if c, ok := s.seatOf(clientID); ok {
		return c, nil
	}
	for c := range s.seats {
		if s.seats[c].state != seatEmpty {
			continue
		}
		color := chess.Color(c)
		s.seats[c] = seat{clientID: clientID, state: seatPendingReconnect}
		s.seats[c].timer = time.AfterFunc(s.deadline, func() {
			s.post(func() { s.abandonDeadline(color) })
		})
		s.log.Info().Str("client", clientID).Str("color", color.String()).Msg("seat reserved")
		return color, nil
	}
	return chess.White, ErrSessionFull
}

// Snapshot is a read-only view of the session's game.
type Snapshot struct {
	GameID string     `json:"gameId"`
	Ply    int        `json:"ply"`
	FEN    string     `json:"fen"`
	Status StatusWire `json:"status"`
	Moves  []MoveWire `json:"moves"`
}

// Snapshot captures the current game state for spectating over plain HTTP.
func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.call(func() {
		history := s.game.History()
		moves := make([]MoveWire, len(history))
		for i, m := range history {
			moves[i] = WireMove(m)
		}
		snap = Snapshot{
			GameID: s.id,
			Ply:    s.game.Ply(),
			FEN:    s.game.Board().FEN(),
			Status: WireStatus(s.game.Status()),
			Moves:  moves,
		}
	})
	return snap, err
}

// Attach connects a client to the session. The first two distinct client IDs
// take the white and black seats in order; a known client ID reclaims its
// seat after a disconnect. The caller receives the seat color, and the full
// move history is queued on out so the client can rebuild by replay.
func (s *Session) Attach(clientID string, out chan<- Envelope) (chess.Color, error) {
	var color chess.Color
	var attachErr error
	err := s.call(func() { color, attachErr = s.attach(clientID, out) })
	if err != nil {
		return chess.White, err
	}
	return color, attachErr
}

func (s *Session) attach(clientID string, out chan<- Envelope) (chess.Color, error) {
	// Reconnect path: a known client reclaims its seat.
	for c := range s.seats {
		st := &s.seats[c]
		if st.state == seatEmpty || st.clientID != clientID {
			continue
		}
		if st.state == seatConnected {
			return chess.White, ErrSeatTaken
		}
		st.stopTimer()
		st.state = seatConnected
		st.out = out
		st.desyncs = 0
		color := chess.Color(c)
		if st.wasOnline {
			s.log.Info().Str("client", clientID).Str("color", color.String()).Msg("client reconnected")
			s.sendTo(color.Other(), MustEnvelope(TypeOpponentReconnected, struct{}{}))
		} else {
			s.log.Info().Str("client", clientID).Str("color", color.String()).Msg("client joined")
		}
		st.wasOnline = true
		s.sendTo(color, s.fullHistory(color))
		return color, nil
	}

	for c := range s.seats {
		st := &s.seats[c]
		if st.state != seatEmpty {
			continue
		}
		color := chess.Color(c)
		*st = seat{clientID: clientID, state: seatConnected, out: out, wasOnline: true}
		s.log.Info().Str("client", clientID).Str("color", color.String()).Msg("client joined")
		s.sendTo(color, s.fullHistory(color))
		return color, nil
	}
	return chess.White, ErrSessionFull
}

// Detach marks a client's seat as pending reconnect and arms the abandonment
// deadline. The opponent is notified but the game stays open.
func (s *Session) Detach(clientID string) {
	s.post(func() {
		color, ok := s.seatOf(clientID)
		if !ok || s.seats[color].state != seatConnected {
			return
		}
		st := &s.seats[color]
		st.state = seatPendingReconnect
		st.out = nil
		s.log.Info().Str("client", clientID).Str("color", color.String()).Msg("client disconnected")

		if s.game.Status().Terminal() {
			s.maybeClose()
			return
		}
		st.timer = time.AfterFunc(s.deadline, func() {
			s.post(func() { s.abandonDeadline(color) })
		})
		s.sendTo(color.Other(), MustEnvelope(TypeOpponentDisconnected, OpponentDisconnected{
			DeadlineSeconds: int(s.deadline / time.Second),
		}))
	})
}

// Deliver dispatches a raw client envelope to the session goroutine.
func (s *Session) Deliver(clientID string, env Envelope) {
	s.post(func() { s.handle(clientID, env) })
}

func (s *Session) handle(clientID string, env Envelope) {
	color, ok := s.seatOf(clientID)
	if !ok {
		s.log.Warn().Str("client", clientID).Msg("message from unknown client dropped")
		return
	}
	switch env.Type {
	case TypeSubmitMove:
		var msg SubmitMove
		if err := env.Decode(&msg); err != nil {
			s.reject(color, codeBadMessage, err.Error())
			return
		}
		s.submitMove(color, msg.Move)
	case TypeResign:
		s.resign(color)
	case TypeClaimAbandonment:
		s.claimAbandonment(color)
	case TypeSyncStatus:
		var msg SyncStatus
		if err := env.Decode(&msg); err != nil {
			s.reject(color, codeBadMessage, err.Error())
			return
		}
		s.checkSync(color, msg)
	default:
		s.log.Warn().Str("type", string(env.Type)).Msg("unexpected message type from client")
	}
}

// submitMove validates and applies a client move. Legality is always
// re-derived here; the session never trusts client-reported move kinds.
func (s *Session) submitMove(color chess.Color, wire MoveWire) {
	if s.game.Status().Terminal() {
		s.reject(color, codeSessionTerminal, fmt.Sprintf("game is over: %s", s.game.Status().Kind))
		return
	}
	if s.game.Board().Turn != color {
		s.reject(color, codeNotYourTurn, "it is not your turn")
		return
	}
	move, err := wire.ToMove()
	if err != nil {
		s.reject(color, codeIllegalMove, err.Error())
		return
	}
	resolved, err := s.game.Apply(move)
	if err != nil {
		s.reject(color, codeIllegalMove, err.Error())
		return
	}

	s.fingerprints = append(s.fingerprints, s.game.Fingerprint())

	san := lastMoveSAN(s.game)
	s.log.Info().
		Str("color", color.String()).
		Str("move", resolved.UCI()).
		Str("san", san).
		Int("ply", s.game.Ply()).
		Msg("move accepted")

	s.broadcast(MustEnvelope(TypeMoveAccepted, MoveAccepted{
		Move:        WireMove(resolved),
		SAN:         san,
		Ply:         s.game.Ply(),
		Status:      WireStatus(s.game.Status()),
		Fingerprint: s.game.Fingerprint(),
	}))
	s.finishIfTerminal()
}

func (s *Session) resign(color chess.Color) {
	if err := s.game.Resign(color); err != nil {
		s.reject(color, codeSessionTerminal, err.Error())
		return
	}
	s.log.Info().Str("color", color.String()).Msg("player resigned")
	s.finishIfTerminal()
}

// claimAbandonment lets the remaining player convert an abandoned opponent
// seat into a win. The claim is explicit; the session never auto-resigns a
// player for a network blip.
func (s *Session) claimAbandonment(color chess.Color) {
	opponent := color.Other()
	if s.seats[opponent].state != seatAbandoned {
		s.reject(color, codeBadMessage, "opponent has not abandoned the game")
		return
	}
	if err := s.game.Abandon(opponent); err != nil {
		s.reject(color, codeSessionTerminal, err.Error())
		return
	}
	s.log.Info().Str("winner", color.String()).Msg("win by abandonment claimed")
	s.finishIfTerminal()
}

// abandonDeadline fires when a disconnected player's reconnect window
// closes. If the game ended in the meantime (say, by resignation) the timer
// result is discarded: the run loop guarantees a single terminal outcome.
func (s *Session) abandonDeadline(color chess.Color) {
	st := &s.seats[color]
	if st.state != seatPendingReconnect || s.game.Status().Terminal() {
		return
	}
	st.state = seatAbandoned
	s.log.Info().Str("color", color.String()).Msg("reconnect deadline passed, seat abandoned")
	s.sendTo(color.Other(), MustEnvelope(TypeOpponentAbandoned, OpponentAbandoned{}))

	if s.seats[color.Other()].state != seatConnected && s.seats[color.Other()].state != seatPendingReconnect {
		// Nobody left to claim anything.
		s.game.Abort()
		s.finishIfTerminal()
	}
}

// checkSync compares a client's replayed fingerprint with the canonical one
// at the reported ply. A report that trails the current ply is fine as long
// as it matched the position back then; a broadcast may still be in flight.
// A mismatch forces a fresh full-history resend; a second consecutive
// mismatch is unrecoverable and aborts the session with both clients
// notified. Matching reports reset the counter.
func (s *Session) checkSync(color chess.Color, msg SyncStatus) {
	if msg.Ply >= 0 && msg.Ply < len(s.fingerprints) && s.fingerprints[msg.Ply] == msg.Fingerprint {
		s.seats[color].desyncs = 0
		return
	}
	st := &s.seats[color]
	st.desyncs++
	s.log.Warn().
		Str("color", color.String()).
		Int("clientPly", msg.Ply).
		Int("serverPly", s.game.Ply()).
		Int("desyncs", st.desyncs).
		Msg("client replica diverged from canonical game")

	if st.desyncs >= 2 {
		s.log.Error().Str("color", color.String()).Msg("desync recurred, aborting session")
		s.game.Abort()
		s.finishIfTerminal()
		return
	}
	s.sendTo(color, s.fullHistory(color))
}

func (s *Session) fullHistory(color chess.Color) Envelope {
	history := s.game.History()
	moves := make([]MoveWire, len(history))
	for i, m := range history {
		moves[i] = WireMove(m)
	}
	return MustEnvelope(TypeFullHistory, FullHistory{
		Color:       color.String(),
		Moves:       moves,
		Status:      WireStatus(s.game.Status()),
		Ply:         s.game.Ply(),
		Fingerprint: s.game.Fingerprint(),
	})
}

func (s *Session) reject(color chess.Color, code, reason string) {
	s.sendTo(color, MustEnvelope(TypeMoveRejected, MoveRejected{Reason: reason, Code: code}))
}

// sendTo queues an envelope on one seat's FIFO. A client that cannot keep up
// overflows its buffer and is treated as disconnected rather than allowed to
// stall the session.
func (s *Session) sendTo(color chess.Color, env Envelope) {
	st := &s.seats[color]
	if st.state != seatConnected || st.out == nil {
		return
	}
	select {
	case st.out <- env:
	default:
		s.log.Warn().Str("color", color.String()).Msg("outbound buffer full, dropping client")
		st.out = nil
		st.state = seatPendingReconnect
		st.timer = time.AfterFunc(s.deadline, func() {
			s.post(func() { s.abandonDeadline(color) })
		})
	}
}

func (s *Session) broadcast(env Envelope) {
	s.sendTo(chess.White, env)
	s.sendTo(chess.Black, env)
}

// finishIfTerminal broadcasts the final status and closes the session once
// the game is over.
func (s *Session) finishIfTerminal() {
	status := s.game.Status()
	if !status.Terminal() {
		return
	}
	s.broadcast(MustEnvelope(TypeGameEnded, GameEnded{Status: WireStatus(status)}))
	s.log.Info().Str("status", status.Kind.String()).Msg("game ended")
	s.maybeClose()
}

func (s *Session) maybeClose() {
	for c := range s.seats {
		s.seats[c].stopTimer()
	}
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Session) seatOf(clientID string) (chess.Color, bool) {
	for c := range s.seats {
		if s.seats[c].state != seatEmpty && s.seats[c].clientID == clientID {
			return chess.Color(c), true
		}
	}
	return chess.White, false
}

func (st *seat) stopTimer() {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
}

// lastMoveSAN renders the most recent history entry in SAN by replaying the
// prefix before it.
func lastMoveSAN(g *chess.Game) string {
	history := g.History()
	if len(history) == 0 {
		return ""
	}
	b := chess.StartingBoard()
	for _, m := range history[:len(history)-1] {
		b = b.Apply(m)
	}
	return chess.EncodeSAN(b, history[len(history)-1])
}
