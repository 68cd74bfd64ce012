package chess

import "sort"

var (
	knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	bishopRays    = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	rookRays      = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
)

// promotionKinds is the canonical ordering of promotion variants.
var promotionKinds = [4]PieceKind{Knight, Bishop, Rook, Queen}

// LegalMoves generates every legal move for the side to move, in canonical
// order: ascending by from-square, then to-square, then promotion kind.
// Callers must not rely on any finer ordering.
func LegalMoves(b Board) []Move {
	pseudo := pseudoMoves(b)
	legal := pseudo[:0]
	for _, m := range pseudo {
		if !b.Apply(m).InCheck(b.Turn) {
			legal = append(legal, m)
		}
	}
	sort.Slice(legal, func(i, j int) bool {
		if legal[i].From != legal[j].From {
			return legal[i].From < legal[j].From
		}
		if legal[i].To != legal[j].To {
			return legal[i].To < legal[j].To
		}
		return legal[i].Promotion < legal[j].Promotion
	})
	return legal
}

// InCheck reports whether c's king is attacked by the opponent.
func (b Board) InCheck(c Color) bool {
	king := b.KingSquare(c)
	if king == NoSquare {
		return false
	}
	return b.attacked(king, c.Other())
}

// attacked reports whether `by` has any piece whose pseudo-legal attack set
// covers sq. It scans attack patterns directly instead of generating moves,
// so check detection never recurses into the king-safety filter.
func (b Board) attacked(sq Square, by Color) bool {
	file, rank := sq.File(), sq.Rank()

	// Pawn attacks converge on sq from the rank behind it (relative to `by`).
	pawnRank := rank - 1
	if by == Black {
		pawnRank = rank + 1
	}
	for _, df := range [2]int{-1, 1} {
		if f := file + df; f >= 0 && f < 8 && pawnRank >= 0 && pawnRank < 8 {
			if p := b.Pieces[square(f, pawnRank)]; p.Kind == Pawn && p.Color == by {
				return true
			}
		}
	}

	for _, o := range knightOffsets {
		f, r := file+o[0], rank+o[1]
		if f < 0 || f > 7 || r < 0 || r > 7 {
			continue
		}
		if p := b.Pieces[square(f, r)]; p.Kind == Knight && p.Color == by {
			return true
		}
	}

	for _, o := range kingOffsets {
		f, r := file+o[0], rank+o[1]
		if f < 0 || f > 7 || r < 0 || r > 7 {
			continue
		}
		if p := b.Pieces[square(f, r)]; p.Kind == King && p.Color == by {
			return true
		}
	}

	if b.rayHits(file, rank, bishopRays[:], by, Bishop) {
		return true
	}
	return b.rayHits(file, rank, rookRays[:], by, Rook)
}

// rayHits walks sliding rays outward from (file, rank) and reports whether
// the first piece met on any ray is an enemy slider of the given kind or a
// queen.
func (b Board) rayHits(file, rank int, rays [][2]int, by Color, kind PieceKind) bool {
	for _, ray := range rays {
		f, r := file+ray[0], rank+ray[1]
		for f >= 0 && f < 8 && r >= 0 && r < 8 {
			p := b.Pieces[square(f, r)]
			if !p.IsEmpty() {
				if p.Color == by && (p.Kind == kind || p.Kind == Queen) {
					return true
				}
				break
			}
			f += ray[0]
			r += ray[1]
		}
	}
	return false
}

// pseudoMoves generates every move obeying piece-movement rules for the side
// to move, before the king-safety filter.
func pseudoMoves(b Board) []Move {
	moves := make([]Move, 0, 48)
	for from := Square(0); from < 64; from++ {
		p := b.Pieces[from]
		if p.IsEmpty() || p.Color != b.Turn {
			continue
		}
		switch p.Kind {
		case Pawn:
			moves = b.pawnMoves(moves, from)
		case Knight:
			moves = b.stepMoves(moves, from, knightOffsets[:])
		case Bishop:
			moves = b.slideMoves(moves, from, bishopRays[:])
		case Rook:
			moves = b.slideMoves(moves, from, rookRays[:])
		case Queen:
			moves = b.slideMoves(moves, from, bishopRays[:])
			moves = b.slideMoves(moves, from, rookRays[:])
		case King:
			moves = b.stepMoves(moves, from, kingOffsets[:])
			moves = b.castlingMoves(moves, from)
		}
	}
	return moves
}

func (b Board) pawnMoves(moves []Move, from Square) []Move {
	color := b.Pieces[from].Color
	dir, startRank, promoRank := 1, 1, 7
	if color == Black {
		dir, startRank, promoRank = -1, 6, 0
	}
	file, rank := from.File(), from.Rank()

	// Single push, expanding into the four promotion variants on the last rank.
	if to := square(file, rank+dir); b.Pieces[to].IsEmpty() {
		moves = appendPawnMove(moves, from, to, MoveNormal, (rank+dir) == promoRank)
		// Double push only from the starting rank, through an empty square.
		if rank == startRank {
			if to2 := square(file, rank+2*dir); b.Pieces[to2].IsEmpty() {
				moves = append(moves, Move{From: from, To: to2, Kind: MoveDoublePawnPush})
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		f := file + df
		if f < 0 || f > 7 {
			continue
		}
		to := square(f, rank+dir)
		target := b.Pieces[to]
		if !target.IsEmpty() && target.Color != color {
			moves = appendPawnMove(moves, from, to, MoveCapture, (rank+dir) == promoRank)
		} else if to == b.EnPassant {
			moves = append(moves, Move{From: from, To: to, Kind: MoveEnPassant})
		}
	}
	return moves
}

func appendPawnMove(moves []Move, from, to Square, kind MoveKind, promotes bool) []Move {
	if !promotes {
		return append(moves, Move{From: from, To: to, Kind: kind})
	}
	for _, pk := range promotionKinds {
		moves = append(moves, Move{From: from, To: to, Kind: kind, Promotion: pk})
	}
	return moves
}

func (b Board) stepMoves(moves []Move, from Square, offsets [][2]int) []Move {
	color := b.Pieces[from].Color
	file, rank := from.File(), from.Rank()
	for _, o := range offsets {
		f, r := file+o[0], rank+o[1]
		if f < 0 || f > 7 || r < 0 || r > 7 {
			continue
		}
		to := square(f, r)
		target := b.Pieces[to]
		switch {
		case target.IsEmpty():
			moves = append(moves, Move{From: from, To: to, Kind: MoveNormal})
		case target.Color != color:
			moves = append(moves, Move{From: from, To: to, Kind: MoveCapture})
		}
	}
	return moves
}

func (b Board) slideMoves(moves []Move, from Square, rays [][2]int) []Move {
	color := b.Pieces[from].Color
	file, rank := from.File(), from.Rank()
	for _, ray := range rays {
		f, r := file+ray[0], rank+ray[1]
		for f >= 0 && f < 8 && r >= 0 && r < 8 {
			to := square(f, r)
			target := b.Pieces[to]
			if target.IsEmpty() {
				moves = append(moves, Move{From: from, To: to, Kind: MoveNormal})
			} else {
				if target.Color != color {
					moves = append(moves, Move{From: from, To: to, Kind: MoveCapture})
				}
				break
			}
			f += ray[0]
			r += ray[1]
		}
	}
	return moves
}

// castlingMoves gates castling on all four conditions: the rights flag is
// still held, the squares between king and rook are empty, and the king is
// not in check, does not pass through an attacked square, and does not land
// on one.
func (b Board) castlingMoves(moves []Move, from Square) []Move {
	color := b.Pieces[from].Color
	rank := 0
	kingside, queenside := CastleWhiteKingside, CastleWhiteQueenside
	if color == Black {
		rank = 7
		kingside, queenside = CastleBlackKingside, CastleBlackQueenside
	}
	if from != square(4, rank) {
		return moves
	}
	enemy := color.Other()

	if b.Rights.Has(kingside) &&
		b.Pieces[square(5, rank)].IsEmpty() && b.Pieces[square(6, rank)].IsEmpty() &&
		!b.attacked(square(4, rank), enemy) && !b.attacked(square(5, rank), enemy) && !b.attacked(square(6, rank), enemy) {
		moves = append(moves, Move{From: from, To: square(6, rank), Kind: MoveCastleKingside})
	}
	if b.Rights.Has(queenside) &&
		b.Pieces[square(1, rank)].IsEmpty() && b.Pieces[square(2, rank)].IsEmpty() && b.Pieces[square(3, rank)].IsEmpty() &&
		!b.attacked(square(4, rank), enemy) && !b.attacked(square(3, rank), enemy) && !b.attacked(square(2, rank), enemy) {
		moves = append(moves, Move{From: from, To: square(2, rank), Kind: MoveCastleQueenside})
	}
	return moves
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
// Used only to validate the generator against published reference values.
func Perft(b Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := LegalMoves(b)
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		nodes += Perft(b.Apply(m), depth-1)
	}
	return nodes
}
