package chess

import (
	"fmt"
	"strings"
)

// EncodeSAN renders a fully-derived legal move of b in standard algebraic
// notation, with minimal disambiguation: a file or rank qualifier is added
// only when another piece of the same kind could reach the same destination.
// Check and mate suffixes are derived from the resulting position.
func EncodeSAN(b Board, m Move) string {
	var sb strings.Builder

	switch m.Kind {
	case MoveCastleKingside:
		sb.WriteString("O-O")
	case MoveCastleQueenside:
		sb.WriteString("O-O-O")
	default:
		piece := b.PieceAt(m.From)
		capture := m.Kind == MoveCapture || m.Kind == MoveEnPassant

		if piece.Kind == Pawn {
			if capture {
				sb.WriteByte(byte('a' + m.From.File()))
			}
		} else {
			sb.WriteString(piece.Kind.sanLetter())
			sb.WriteString(disambiguator(b, m, piece.Kind))
		}
		if capture {
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.Promotion != NoKind {
			sb.WriteByte('=')
			sb.WriteString(m.Promotion.sanLetter())
		}
	}

	next := b.Apply(m)
	if next.InCheck(next.Turn) {
		if len(LegalMoves(next)) == 0 {
			sb.WriteByte('#')
		} else {
			sb.WriteByte('+')
		}
	}
	return sb.String()
}

// disambiguator finds the minimal source qualifier for a non-pawn move.
func disambiguator(b Board, m Move, kind PieceKind) string {
	sameFile, sameRank, rivals := false, false, false
	for _, other := range LegalMoves(b) {
		if other.From == m.From || other.To != m.To {
			continue
		}
		if b.PieceAt(other.From).Kind != kind {
			continue
		}
		rivals = true
		if other.From.File() == m.From.File() {
			sameFile = true
		}
		if other.From.Rank() == m.From.Rank() {
			sameRank = true
		}
	}
	switch {
	case !rivals:
		return ""
	case !sameFile:
		return string([]byte{byte('a' + m.From.File())})
	case !sameRank:
		return string([]byte{byte('1' + m.From.Rank())})
	default:
		return m.From.String()
	}
}

// DecodeSAN resolves a SAN token against the legal moves of b. A token that
// matches zero or more than one legal move fails. Check (+), mate (#), and
// capture (x) markers are advisory: they are accepted but never verified, as
// PGN sources are frequently informal about them.
func DecodeSAN(b Board, token string) (Move, error) {
	raw := token
	token = strings.TrimRight(token, "+#!?")
	if token == "" {
		return Move{}, fmt.Errorf("%w: empty move token %q", ErrMalformedPGN, raw)
	}

	if side, ok := castlingToken(token); ok {
		for _, m := range LegalMoves(b) {
			if m.Kind == side {
				return m, nil
			}
		}
		return Move{}, fmt.Errorf("%w: %q is not legal here", ErrMalformedPGN, raw)
	}

	promo := NoKind
	if i := strings.IndexByte(token, '='); i >= 0 {
		if i+1 >= len(token) {
			return Move{}, fmt.Errorf("%w: dangling promotion in %q", ErrMalformedPGN, raw)
		}
		promo = kindFromLetter(token[i+1])
		if promo == NoKind || promo == King || promo == Pawn {
			return Move{}, fmt.Errorf("%w: invalid promotion piece in %q", ErrMalformedPGN, raw)
		}
		token = token[:i]
	}

	kind := Pawn
	if len(token) > 0 {
		if k := kindFromLetter(token[0]); k != NoKind {
			kind = k
			token = token[1:]
		}
	}

	var coords []byte
	for i := 0; i < len(token); i++ {
		ch := token[i]
		switch {
		case ch >= 'a' && ch <= 'h', ch >= '1' && ch <= '8':
			coords = append(coords, ch)
		case ch == 'x':
			// advisory capture marker
		default:
			return Move{}, fmt.Errorf("%w: unexpected character %q in %q", ErrMalformedPGN, string(ch), raw)
		}
	}

	var dst Square
	var srcFile, srcRank = -1, -1
	var err error
	switch len(coords) {
	case 2:
		dst, err = ParseSquare(string(coords))
	case 3:
		dst, err = ParseSquare(string(coords[1:]))
		if c := coords[0]; c >= 'a' && c <= 'h' {
			srcFile = int(c - 'a')
		} else {
			srcRank = int(c - '1')
		}
	case 4:
		dst, err = ParseSquare(string(coords[2:]))
		srcFile = int(coords[0] - 'a')
		srcRank = int(coords[1] - '1')
	default:
		return Move{}, fmt.Errorf("%w: cannot read a destination square from %q", ErrMalformedPGN, raw)
	}
	if err != nil {
		return Move{}, fmt.Errorf("%w: bad square in %q", ErrMalformedPGN, raw)
	}

	var match Move
	found := 0
	for _, m := range LegalMoves(b) {
		if m.To != dst || m.Promotion != promo {
			continue
		}
		if b.PieceAt(m.From).Kind != kind {
			continue
		}
		if srcFile >= 0 && m.From.File() != srcFile {
			continue
		}
		if srcRank >= 0 && m.From.Rank() != srcRank {
			continue
		}
		match = m
		found++
	}
	switch found {
	case 0:
		return Move{}, fmt.Errorf("%w: %q matches no legal move", ErrMalformedPGN, raw)
	case 1:
		return match, nil
	default:
		return Move{}, fmt.Errorf("%w: %q is ambiguous (%d candidates)", ErrMalformedPGN, raw, found)
	}
}

func castlingToken(token string) (MoveKind, bool) {
	switch token {
	case "O-O-O", "0-0-0":
		return MoveCastleQueenside, true
	case "O-O", "0-0":
		return MoveCastleKingside, true
	}
	return MoveNormal, false
}

func kindFromLetter(b byte) PieceKind {
	switch b {
	case 'N':
		return Knight
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'Q':
		return Queen
	case 'K':
		return King
	}
	return NoKind
}
