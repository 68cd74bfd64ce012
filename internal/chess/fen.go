package chess

import (
	"fmt"
	"strconv"
	"strings"
)

// StartingFEN is the standard initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a six-field FEN record into a Board. Beyond syntax it
// enforces the board invariants: eight files per rank, exactly one king per
// color, and no pawn on the first or last rank.
func ParseFEN(text string) (Board, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) != 6 {
		return Board{}, fmt.Errorf("%w: expected 6 fields, got %d", ErrMalformedFEN, len(fields))
	}

	b := Board{EnPassant: NoSquare}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return Board{}, fmt.Errorf("%w: expected 8 ranks in piece placement, got %d", ErrMalformedFEN, len(ranks))
	}
	var kings [2]int
	for i, rankStr := range ranks {
		rank := 7 - i // FEN lists rank 8 first
		file := 0
		for j := 0; j < len(rankStr); j++ {
			ch := rankStr[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			piece, ok := pieceFromFENLetter(ch)
			if !ok {
				return Board{}, fmt.Errorf("%w: unrecognized piece letter %q", ErrMalformedFEN, string(ch))
			}
			if file > 7 {
				return Board{}, fmt.Errorf("%w: rank %d overflows 8 files", ErrMalformedFEN, rank+1)
			}
			if piece.Kind == Pawn && (rank == 0 || rank == 7) {
				return Board{}, fmt.Errorf("%w: pawn on rank %d", ErrMalformedFEN, rank+1)
			}
			if piece.Kind == King {
				kings[piece.Color]++
			}
			b.Pieces[square(file, rank)] = piece
			file++
		}
		if file != 8 {
			return Board{}, fmt.Errorf("%w: rank %d sums to %d files, want 8", ErrMalformedFEN, rank+1, file)
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return Board{}, fmt.Errorf("%w: need exactly one king per color, got %d white and %d black", ErrMalformedFEN, kings[White], kings[Black])
	}

	switch fields[1] {
	case "w":
		b.Turn = White
	case "b":
		b.Turn = Black
	default:
		return Board{}, fmt.Errorf("%w: side to move must be w or b, got %q", ErrMalformedFEN, fields[1])
	}

	if fields[2] != "-" {
		for i := 0; i < len(fields[2]); i++ {
			switch fields[2][i] {
			case 'K':
				b.Rights |= CastleWhiteKingside
			case 'Q':
				b.Rights |= CastleWhiteQueenside
			case 'k':
				b.Rights |= CastleBlackKingside
			case 'q':
				b.Rights |= CastleBlackQueenside
			default:
				return Board{}, fmt.Errorf("%w: unrecognized castling token %q", ErrMalformedFEN, string(fields[2][i]))
			}
		}
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return Board{}, fmt.Errorf("%w: bad en passant square %q", ErrMalformedFEN, fields[3])
		}
		if r := sq.Rank(); r != 2 && r != 5 {
			return Board{}, fmt.Errorf("%w: en passant square %s not on rank 3 or 6", ErrMalformedFEN, sq)
		}
		b.EnPassant = sq
	}

	halfmove, err := strconv.Atoi(fields[4])
	if err != nil || halfmove < 0 {
		return Board{}, fmt.Errorf("%w: halfmove clock %q", ErrMalformedFEN, fields[4])
	}
	b.Halfmove = halfmove

	fullmove, err := strconv.Atoi(fields[5])
	if err != nil || fullmove < 1 {
		return Board{}, fmt.Errorf("%w: fullmove number %q", ErrMalformedFEN, fields[5])
	}
	b.Fullmove = fullmove

	return b, nil
}

// FEN serializes the board as a six-field FEN record. It is the inverse of
// ParseFEN for every reachable board.
func (b Board) FEN() string {
	return fmt.Sprintf("%s %d %d", b.positionFEN(), b.Halfmove, b.Fullmove)
}

// positionFEN is the first four FEN fields: placement, side to move,
// castling rights, en passant target. This prefix is the repetition and
// fingerprint identity of a position.
func (b Board) positionFEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := b.Pieces[square(file, rank)]
			if p.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.fenLetter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	side := "w"
	if b.Turn == Black {
		side = "b"
	}
	return fmt.Sprintf("%s %s %s %s", sb.String(), side, b.Rights, b.EnPassant)
}
