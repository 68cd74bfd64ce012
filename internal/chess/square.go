package chess

import "fmt"

// Square identifies one of the 64 board squares. a1 is 0, b1 is 1, h8 is 63.
type Square int8

// NoSquare marks the absence of a square, e.g. no en passant target.
const NoSquare Square = -1

// NewSquare builds a Square from zero-based file (0=a) and rank (0=rank 1)
// indices. Off-board coordinates are rejected.
func NewSquare(file, rank int) (Square, error) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("square coordinates out of range: file %d, rank %d", file, rank)
	}
	return Square(rank*8 + file), nil
}

// ParseSquare parses algebraic coordinates like "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square notation %q", s)
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	sq, err := NewSquare(file, rank)
	if err != nil {
		return NoSquare, fmt.Errorf("invalid square notation %q", s)
	}
	return sq, nil
}

// File returns the zero-based file index (0=a .. 7=h).
func (s Square) File() int { return int(s) % 8 }

// Rank returns the zero-based rank index (0=rank 1 .. 7=rank 8).
func (s Square) Rank() int { return int(s) / 8 }

func (s Square) valid() bool { return s >= 0 && s < 64 }

func (s Square) String() string {
	if !s.valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

func square(file, rank int) Square { return Square(rank*8 + file) }
