package chess

import "fmt"

// MoveKind disambiguates how a move mutates the board. It is always derived
// by the engine when a move is resolved against the legal-move set, never
// taken from user or network input.
type MoveKind int8

const (
	MoveNormal MoveKind = iota
	MoveCapture
	MoveCastleKingside
	MoveCastleQueenside
	MoveEnPassant
	MoveDoublePawnPush
)

func (k MoveKind) String() string {
	switch k {
	case MoveCapture:
		return "capture"
	case MoveCastleKingside:
		return "castle-kingside"
	case MoveCastleQueenside:
		return "castle-queenside"
	case MoveEnPassant:
		return "en-passant"
	case MoveDoublePawnPush:
		return "double-pawn-push"
	}
	return "normal"
}

// Move describes a single ply. Promotion is NoKind except when a pawn
// reaches the last rank.
type Move struct {
	From      Square
	To        Square
	Promotion PieceKind
	Kind      MoveKind
}

// UCI returns coordinate notation such as "e2e4" or "e7e8q".
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	switch m.Promotion {
	case Knight:
		s += "n"
	case Bishop:
		s += "b"
	case Rook:
		s += "r"
	case Queen:
		s += "q"
	}
	return s
}

func (m Move) String() string { return m.UCI() }

// ParseUCIMove parses coordinate notation ("e2e4", "a7a8n"). The returned
// move carries no Kind; it must be resolved against the legal moves of a
// position before it can be applied.
func ParseUCIMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("invalid move notation %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, err
	}
	promo := NoKind
	if len(s) == 5 {
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return Move{}, fmt.Errorf("invalid promotion piece %q", s[4:])
		}
	}
	return Move{From: from, To: to, Promotion: promo}, nil
}

// matches reports whether a submitted (from, to, promotion) triple resolves
// to this fully-derived move.
func (m Move) matches(from, to Square, promo PieceKind) bool {
	return m.From == from && m.To == to && m.Promotion == promo
}
