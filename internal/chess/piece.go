package chess

// Color is the side a piece belongs to.
type Color int8

const (
	White Color = iota
	Black
)

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ParseColor converts "white" or "black" into a Color.
func ParseColor(s string) (Color, bool) {
	switch s {
	case "white":
		return White, true
	case "black":
		return Black, true
	}
	return White, false
}

// PieceKind is a piece's movement class. The zero value means no piece.
type PieceKind int8

const (
	NoKind PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

func (k PieceKind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "none"
}

// sanLetter is the SAN piece letter; empty for pawns.
func (k PieceKind) sanLetter() string {
	switch k {
	case Knight:
		return "N"
	case Bishop:
		return "B"
	case Rook:
		return "R"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	return ""
}

// Piece is a plain tagged value, not a polymorphic object; move generation is
// a pure function over board data. The zero Piece is an empty square.
type Piece struct {
	Kind  PieceKind
	Color Color
}

// IsEmpty reports whether the value represents an empty square.
func (p Piece) IsEmpty() bool { return p.Kind == NoKind }

// fenLetter returns the FEN letter for the piece: uppercase for white.
func (p Piece) fenLetter() byte {
	var b byte
	switch p.Kind {
	case Pawn:
		b = 'p'
	case Knight:
		b = 'n'
	case Bishop:
		b = 'b'
	case Rook:
		b = 'r'
	case Queen:
		b = 'q'
	case King:
		b = 'k'
	default:
		return ' '
	}
	if p.Color == White {
		b -= 'a' - 'A'
	}
	return b
}

func pieceFromFENLetter(b byte) (Piece, bool) {
	color := Black
	if b >= 'A' && b <= 'Z' {
		color = White
		b += 'a' - 'A'
	}
	var kind PieceKind
	switch b {
	case 'p':
		kind = Pawn
	case 'n':
		kind = Knight
	case 'b':
		kind = Bishop
	case 'r':
		kind = Rook
	case 'q':
		kind = Queen
	case 'k':
		kind = King
	default:
		return Piece{}, false
	}
	return Piece{Kind: kind, Color: color}, true
}
