package chess

import "hash/fnv"

// CastleRights is a bitmask of the four independent castling permissions.
type CastleRights uint8

const (
	CastleWhiteKingside CastleRights = 1 << iota
	CastleWhiteQueenside
	CastleBlackKingside
	CastleBlackQueenside
)

// Has reports whether every right in r is present.
func (c CastleRights) Has(r CastleRights) bool { return c&r == r }

func (c CastleRights) String() string {
	if c == 0 {
		return "-"
	}
	s := ""
	if c.Has(CastleWhiteKingside) {
		s += "K"
	}
	if c.Has(CastleWhiteQueenside) {
		s += "Q"
	}
	if c.Has(CastleBlackKingside) {
		s += "k"
	}
	if c.Has(CastleBlackQueenside) {
		s += "q"
	}
	return s
}

// Board is the full per-ply position: piece placement plus the auxiliary
// state needed to generate moves. It is a value type; Apply returns a new
// Board and never mutates the receiver, so each ply's position is immutable
// once produced.
type Board struct {
	Pieces    [64]Piece
	Turn      Color
	Rights    CastleRights
	EnPassant Square // NoSquare when no double push happened last ply
	Halfmove  int    // plies since the last pawn move or capture
	Fullmove  int    // starts at 1, increments after Black moves
}

// StartingBoard returns the standard initial position.
func StartingBoard() Board {
	b := Board{
		Turn:      White,
		Rights:    CastleWhiteKingside | CastleWhiteQueenside | CastleBlackKingside | CastleBlackQueenside,
		EnPassant: NoSquare,
		Fullmove:  1,
	}
	back := [8]PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for file := 0; file < 8; file++ {
		b.Pieces[square(file, 0)] = Piece{Kind: back[file], Color: White}
		b.Pieces[square(file, 1)] = Piece{Kind: Pawn, Color: White}
		b.Pieces[square(file, 6)] = Piece{Kind: Pawn, Color: Black}
		b.Pieces[square(file, 7)] = Piece{Kind: back[file], Color: Black}
	}
	return b
}

// PieceAt returns the piece on sq, or the zero Piece for an empty square.
func (b Board) PieceAt(sq Square) Piece {
	if !sq.valid() {
		return Piece{}
	}
	return b.Pieces[sq]
}

// KingSquare locates c's king. Reachable boards always have exactly one king
// per color; NoSquare is returned only for hand-built invalid positions.
func (b Board) KingSquare(c Color) Square {
	for sq := Square(0); sq < 64; sq++ {
		if p := b.Pieces[sq]; p.Kind == King && p.Color == c {
			return sq
		}
	}
	return NoSquare
}

// Apply plays a fully-derived move and returns the resulting position. The
// move must come from LegalMoves of this board; Apply trusts its Kind tag.
func (b Board) Apply(m Move) Board {
	next := b
	mover := b.Pieces[m.From]
	captured := !b.Pieces[m.To].IsEmpty() || m.Kind == MoveEnPassant

	next.Pieces[m.From] = Piece{}
	next.Pieces[m.To] = mover
	if m.Promotion != NoKind {
		next.Pieces[m.To] = Piece{Kind: m.Promotion, Color: mover.Color}
	}

	switch m.Kind {
	case MoveEnPassant:
		// The captured pawn sits behind the target square.
		if mover.Color == White {
			next.Pieces[m.To-8] = Piece{}
		} else {
			next.Pieces[m.To+8] = Piece{}
		}
	case MoveCastleKingside:
		rank := m.From.Rank()
		next.Pieces[square(5, rank)] = next.Pieces[square(7, rank)]
		next.Pieces[square(7, rank)] = Piece{}
	case MoveCastleQueenside:
		rank := m.From.Rank()
		next.Pieces[square(3, rank)] = next.Pieces[square(0, rank)]
		next.Pieces[square(0, rank)] = Piece{}
	}

	// The en passant window lasts exactly one ply.
	next.EnPassant = NoSquare
	if m.Kind == MoveDoublePawnPush {
		next.EnPassant = (m.From + m.To) / 2
	}

	next.Rights = b.Rights &^ (rightsLostFrom(m.From) | rightsLostFrom(m.To))

	if mover.Kind == Pawn || captured {
		next.Halfmove = 0
	} else {
		next.Halfmove = b.Halfmove + 1
	}
	if b.Turn == Black {
		next.Fullmove = b.Fullmove + 1
	}
	next.Turn = b.Turn.Other()
	return next
}

// rightsLostFrom maps a square to the castling rights that vanish when a
// piece moves from it or is captured on it (king and rook home squares).
func rightsLostFrom(sq Square) CastleRights {
	switch sq {
	case square(4, 0):
		return CastleWhiteKingside | CastleWhiteQueenside
	case square(0, 0):
		return CastleWhiteQueenside
	case square(7, 0):
		return CastleWhiteKingside
	case square(4, 7):
		return CastleBlackKingside | CastleBlackQueenside
	case square(0, 7):
		return CastleBlackQueenside
	case square(7, 7):
		return CastleBlackKingside
	}
	return 0
}

// String renders an ASCII diagram with rank 8 at the top, for terminal
// display and test failure output.
func (b Board) String() string {
	var sb []byte
	for rank := 7; rank >= 0; rank-- {
		sb = append(sb, byte('1'+rank), ' ')
		for file := 0; file < 8; file++ {
			p := b.Pieces[square(file, rank)]
			if p.IsEmpty() {
				sb = append(sb, '.', ' ')
			} else {
				sb = append(sb, p.fenLetter(), ' ')
			}
		}
		sb = append(sb, '\n')
	}
	sb = append(sb, []byte("  a b c d e f g h\n")...)
	return string(sb)
}

// Fingerprint is a canonical hash of placement, side to move, castling
// rights, and en passant target: the identity used for threefold-repetition
// counting and for detecting replica divergence across the network.
func (b Board) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte(b.positionFEN()))
	return h.Sum64()
}
