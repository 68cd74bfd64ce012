package chess

import "fmt"

// StatusKind classifies the game outcome.
type StatusKind int8

const (
	StatusOngoing StatusKind = iota
	StatusCheckmate
	StatusStalemate
	StatusDrawFiftyMove
	StatusDrawRepetition
	StatusDrawInsufficient
	StatusResignation
	StatusAbandonment
	StatusAborted
)

func (k StatusKind) String() string {
	switch k {
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	case StatusDrawFiftyMove:
		return "draw-fifty-move"
	case StatusDrawRepetition:
		return "draw-repetition"
	case StatusDrawInsufficient:
		return "draw-insufficient-material"
	case StatusResignation:
		return "resignation"
	case StatusAbandonment:
		return "abandonment"
	case StatusAborted:
		return "aborted"
	}
	return "ongoing"
}

// Status is the terminal-state field of a game. Loser identifies the mated,
// resigning, or abandoning side and is meaningful only for those kinds.
type Status struct {
	Kind  StatusKind
	Loser Color
}

// Terminal reports whether no further moves are accepted.
func (s Status) Terminal() bool { return s.Kind != StatusOngoing }

// Result returns the PGN result token for the status.
func (s Status) Result() string {
	switch s.Kind {
	case StatusOngoing, StatusAborted:
		return "*"
	case StatusCheckmate, StatusResignation, StatusAbandonment:
		if s.Loser == White {
			return "0-1"
		}
		return "1-0"
	}
	return "1/2-1/2"
}

// Game is the state machine for one chess game: a board, the append-only
// move history, the repetition counter, and the terminal status. It owns its
// Board exclusively; history entries are never mutated once appended.
//
// Fifty-move and threefold-repetition draws are auto-declared the moment the
// threshold is reached; no explicit claim is required.
type Game struct {
	board   Board
	history []Move
	seen    map[uint64]int
	status  Status
}

// NewGame starts a game from the standard initial position.
func NewGame() *Game {
	return GameFromBoard(StartingBoard())
}

// GameFromBoard starts a game from an arbitrary (e.g. FEN-loaded) position.
func GameFromBoard(b Board) *Game {
	g := &Game{
		board: b,
		seen:  map[uint64]int{b.Fingerprint(): 1},
	}
	g.status = g.evaluate()
	return g
}

// Clone returns an independent copy of the game. Mutating the clone never
// affects the original.
func (g *Game) Clone() *Game {
	c := &Game{
		board:   g.board,
		history: append([]Move(nil), g.history...),
		seen:    make(map[uint64]int, len(g.seen)),
		status:  g.status,
	}
	for k, v := range g.seen {
		c.seen[k] = v
	}
	return c
}

// Board returns a copy of the current position.
func (g *Game) Board() Board { return g.board }

// Status returns the current terminal-status field.
func (g *Game) Status() Status { return g.status }

// History returns the applied moves in order. The caller must not modify
// the returned slice.
func (g *Game) History() []Move { return g.history }

// Ply returns the number of applied moves.
func (g *Game) Ply() int { return len(g.history) }

// LegalMoves returns the legal moves of the current position.
func (g *Game) LegalMoves() []Move { return LegalMoves(g.board) }

// Fingerprint returns the current position's fingerprint.
func (g *Game) Fingerprint() uint64 { return g.board.Fingerprint() }

// Resolve matches a submitted (from, to, promotion) triple against the
// current legal moves, returning the fully-derived move. The move-kind tag is
// always re-derived here, so malformed tags can never be injected.
func (g *Game) Resolve(m Move) (Move, error) {
	for _, legal := range g.LegalMoves() {
		if legal.matches(m.From, m.To, m.Promotion) {
			return legal, nil
		}
	}
	return Move{}, fmt.Errorf("%w: %s", ErrIllegalMove, m.UCI())
}

// Apply resolves and plays a move, then re-evaluates the terminal status.
// Terminal conditions are checked in priority order: checkmate, stalemate,
// threefold repetition, fifty-move rule, insufficient material. On error the
// game is left unchanged. The resolved move is returned.
func (g *Game) Apply(m Move) (Move, error) {
	if g.status.Terminal() {
		return Move{}, fmt.Errorf("%w: status %s", ErrGameOver, g.status.Kind)
	}
	resolved, err := g.Resolve(m)
	if err != nil {
		return Move{}, err
	}
	g.board = g.board.Apply(resolved)
	g.history = append(g.history, resolved)
	g.seen[g.board.Fingerprint()]++
	g.status = g.evaluate()
	return resolved, nil
}

// Resign ends the game immediately in favor of color's opponent, bypassing
// move legality.
func (g *Game) Resign(color Color) error {
	if g.status.Terminal() {
		return fmt.Errorf("%w: status %s", ErrGameOver, g.status.Kind)
	}
	g.status = Status{Kind: StatusResignation, Loser: color}
	return nil
}

// Abandon ends the game against color, used when a disconnected player's
// opponent claims the win past the reconnection deadline.
func (g *Game) Abandon(color Color) error {
	if g.status.Terminal() {
		return fmt.Errorf("%w: status %s", ErrGameOver, g.status.Kind)
	}
	g.status = Status{Kind: StatusAbandonment, Loser: color}
	return nil
}

// Abort terminates the game with no winner, used when a session must be torn
// down (e.g. an unrecoverable replica divergence).
func (g *Game) Abort() {
	if !g.status.Terminal() {
		g.status = Status{Kind: StatusAborted}
	}
}

// evaluate derives the status of the current position.
func (g *Game) evaluate() Status {
	if len(LegalMoves(g.board)) == 0 {
		if g.board.InCheck(g.board.Turn) {
			return Status{Kind: StatusCheckmate, Loser: g.board.Turn}
		}
		return Status{Kind: StatusStalemate}
	}
	if g.seen[g.board.Fingerprint()] >= 3 {
		return Status{Kind: StatusDrawRepetition}
	}
	if g.board.Halfmove >= 100 {
		return Status{Kind: StatusDrawFiftyMove}
	}
	if insufficientMaterial(g.board) {
		return Status{Kind: StatusDrawInsufficient}
	}
	return Status{Kind: StatusOngoing}
}

// insufficientMaterial recognizes dead positions: king vs king, king and one
// minor piece vs king, and king and bishop vs king and bishop with both
// bishops on the same square color.
func insufficientMaterial(b Board) bool {
	var counts [2]int
	var minors [2]int
	var bishopSquares [2]Square
	for sq := Square(0); sq < 64; sq++ {
		p := b.Pieces[sq]
		if p.IsEmpty() {
			continue
		}
		counts[p.Color]++
		switch p.Kind {
		case Knight:
			minors[p.Color]++
		case Bishop:
			minors[p.Color]++
			bishopSquares[p.Color] = sq
		case Pawn, Rook, Queen:
			return false
		}
	}
	w, bk := counts[White], counts[Black]
	switch {
	case w == 1 && bk == 1:
		return true
	case w == 2 && bk == 1 && minors[White] == 1:
		return true
	case w == 1 && bk == 2 && minors[Black] == 1:
		return true
	case w == 2 && bk == 2 && minors[White] == 1 && minors[Black] == 1:
		wb, bb := bishopSquares[White], bishopSquares[Black]
		if b.Pieces[wb].Kind == Bishop && b.Pieces[bb].Kind == Bishop {
			return (wb.File()+wb.Rank())%2 == (bb.File()+bb.Rank())%2
		}
	}
	return false
}

// Replay rebuilds a game by applying a move history from the starting
// position. It fails on the first move that is not legal at its ply.
func Replay(history []Move) (*Game, error) {
	g := NewGame()
	for i, m := range history {
		if _, err := g.Apply(m); err != nil {
			return nil, fmt.Errorf("replay failed at ply %d (%s): %w", i+1, m.UCI(), err)
		}
	}
	return g, nil
}
