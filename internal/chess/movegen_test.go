package chess

import (
	"sort"
	"testing"
)

func mustParseFEN(t *testing.T, fen string) Board {
	t.Helper()
	b, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q) failed: %v", fen, err)
	}
	return b
}

func containsMove(moves []Move, uci string) bool {
	for _, m := range moves {
		if m.UCI() == uci {
			return true
		}
	}
	return false
}

func TestLegalMovesCanonicalOrder(t *testing.T) {
	moves := LegalMoves(StartingBoard())
	if len(moves) != 20 {
		t.Fatalf("expected 20 moves from the start position, got %d", len(moves))
	}
	sorted := sort.SliceIsSorted(moves, func(i, j int) bool {
		if moves[i].From != moves[j].From {
			return moves[i].From < moves[j].From
		}
		if moves[i].To != moves[j].To {
			return moves[i].To < moves[j].To
		}
		return moves[i].Promotion < moves[j].Promotion
	})
	if !sorted {
		t.Error("legal moves are not in canonical from/to/promotion order")
	}
}

func TestCastlingGating(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		kingside  bool
		queenside bool
	}{
		{"both available", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", true, true},
		{"rights revoked", "r3k2r/8/8/8/8/8/8/R3K2R w - - 0 1", false, false},
		{"kingside right only", "r3k2r/8/8/8/8/8/8/R3K2R w K - 0 1", true, false},
		{"queenside blocked by knight", "r3k2r/8/8/8/8/8/8/RN2K2R w KQkq - 0 1", true, false},
		{"kingside blocked by bishop", "r3k2r/8/8/8/8/8/8/R3KB1R w KQkq - 0 1", false, true},
		{"king in check", "r3k2r/8/8/8/4r3/8/8/R3K2R w KQkq - 0 1", false, false},
		{"king passes through attack", "r3k2r/8/8/8/5r2/8/8/R3K2R w KQkq - 0 1", false, true},
		{"king lands on attack", "r3k2r/8/8/8/6r1/8/8/R3K2R w KQkq - 0 1", false, true},
		{"queenside path attacked", "r3k2r/8/8/8/3r4/8/8/R3K2R w KQkq - 0 1", true, false},
		{"rook path attacked is fine", "r3k2r/8/8/8/1r6/8/8/R3K2R w KQkq - 0 1", true, true},
		{"black both available", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", true, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := mustParseFEN(t, test.fen)
			moves := LegalMoves(b)
			kingside, queenside := "e1g1", "e1c1"
			if b.Turn == Black {
				kingside, queenside = "e8g8", "e8c8"
			}
			if got := containsMove(moves, kingside); got != test.kingside {
				t.Errorf("kingside castle present = %v, want %v", got, test.kingside)
			}
			if got := containsMove(moves, queenside); got != test.queenside {
				t.Errorf("queenside castle present = %v, want %v", got, test.queenside)
			}
		})
	}
}

func TestCastlingRightsLostByMovingAndCapture(t *testing.T) {
	b := mustParseFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")

	kingMove, err := resolveOn(b, mustUCI(t, "e1e2"))
	if err != nil {
		t.Fatal(err)
	}
	if got := b.Apply(kingMove).Rights; got.Has(CastleWhiteKingside) || got.Has(CastleWhiteQueenside) {
		t.Errorf("king move should drop both white rights, got %s", got)
	}

	rookMove, err := resolveOn(b, mustUCI(t, "a1a4"))
	if err != nil {
		t.Fatal(err)
	}
	after := b.Apply(rookMove)
	if after.Rights.Has(CastleWhiteQueenside) {
		t.Errorf("a1 rook move should drop white queenside, got %s", after.Rights)
	}
	if !after.Rights.Has(CastleWhiteKingside) {
		t.Errorf("a1 rook move should keep white kingside, got %s", after.Rights)
	}

	// Capturing a rook on its home square removes the opponent's right.
	capture := mustParseFEN(t, "r3k2r/8/8/8/8/8/6p1/R3K2R b KQkq - 0 1")
	capMove, err := resolveOn(capture, mustUCI(t, "g2h1q"))
	if err != nil {
		t.Fatal(err)
	}
	got := capture.Apply(capMove).Rights
	if got.Has(CastleWhiteKingside) {
		t.Errorf("capturing the h1 rook should drop white kingside, got %s", got)
	}
	if !got.Has(CastleWhiteQueenside) {
		t.Errorf("capturing the h1 rook should keep white queenside, got %s", got)
	}
}

func mustUCI(t *testing.T, s string) Move {
	t.Helper()
	m, err := ParseUCIMove(s)
	if err != nil {
		t.Fatalf("bad move literal %q: %v", s, err)
	}
	return m
}

func TestEnPassantWindow(t *testing.T) {
	// Black pawn on d4; a white double push to e4 opens the window on e3.
	b := mustParseFEN(t, "rnbqkbnr/ppp1pppp/8/8/3p4/8/PPPPPPPP/RNBQKBNR w KQkq - 0 3")

	push, err := resolveOn(b, mustUCI(t, "e2e4"))
	if err != nil {
		t.Fatal(err)
	}
	if push.Kind != MoveDoublePawnPush {
		t.Fatalf("e2e4 should be tagged double-pawn-push, got %s", push.Kind)
	}
	afterPush := b.Apply(push)
	if afterPush.EnPassant.String() != "e3" {
		t.Fatalf("en passant target = %s, want e3", afterPush.EnPassant)
	}

	moves := LegalMoves(afterPush)
	if !containsMove(moves, "d4e3") {
		t.Fatal("en passant capture d4e3 must be legal immediately after the double push")
	}
	ep, err := resolveOn(afterPush, mustUCI(t, "d4e3"))
	if err != nil {
		t.Fatal(err)
	}
	if ep.Kind != MoveEnPassant {
		t.Errorf("d4e3 should be tagged en-passant, got %s", ep.Kind)
	}
	afterEP := afterPush.Apply(ep)
	if !afterEP.PieceAt(mustSquare(t, "e4")).IsEmpty() {
		t.Error("en passant capture must remove the pawn on e4")
	}

	// One ply later the window is closed.
	skip, err := resolveOn(afterPush, mustUCI(t, "a7a6"))
	if err != nil {
		t.Fatal(err)
	}
	reply, err := resolveOn(afterPush.Apply(skip), mustUCI(t, "a2a3"))
	if err != nil {
		t.Fatal(err)
	}
	later := afterPush.Apply(skip).Apply(reply)
	if containsMove(LegalMoves(later), "d4e3") {
		t.Error("en passant capture must expire after one ply")
	}
}

func mustSquare(t *testing.T, s string) Square {
	t.Helper()
	sq, err := ParseSquare(s)
	if err != nil {
		t.Fatalf("bad square literal %q: %v", s, err)
	}
	return sq
}

func TestPromotionGeneratesFourVariants(t *testing.T) {
	b := mustParseFEN(t, "1n5k/P7/8/8/8/8/8/K7 w - - 0 1")
	moves := LegalMoves(b)

	var pushes, captures int
	for _, m := range moves {
		if m.From != mustSquare(t, "a7") {
			continue
		}
		if m.Promotion == NoKind {
			t.Errorf("pawn move to the last rank without promotion: %s", m.UCI())
		}
		switch m.To {
		case mustSquare(t, "a8"):
			pushes++
		case mustSquare(t, "b8"):
			captures++
		}
	}
	if pushes != 4 {
		t.Errorf("expected 4 promotion pushes, got %d", pushes)
	}
	if captures != 4 {
		t.Errorf("expected 4 promotion captures, got %d", captures)
	}
	if !containsMove(moves, "a7a8n") || !containsMove(moves, "a7b8r") {
		t.Error("under-promotions must be generated")
	}
}

// Applying any generated legal move must never leave the mover's own king
// attacked.
func TestCheckSafety(t *testing.T) {
	fens := []string{
		StartingFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"rnb2k1r/pp1Pbppp/2p5/q7/2B5/8/PPPQNnPP/RNB1K2R w KQ - 3 9",
	}
	for _, fen := range fens {
		b := mustParseFEN(t, fen)
		for _, m := range LegalMoves(b) {
			if b.Apply(m).InCheck(b.Turn) {
				t.Errorf("%s: move %s leaves the mover in check", fen, m.UCI())
			}
		}
		// Recurse one ply to cover replies as well.
		for _, m := range LegalMoves(b) {
			next := b.Apply(m)
			for _, r := range LegalMoves(next) {
				if next.Apply(r).InCheck(next.Turn) {
					t.Errorf("%s after %s: reply %s leaves the mover in check", fen, m.UCI(), r.UCI())
				}
			}
		}
	}
}

func TestPinnedEnPassantIsIllegal(t *testing.T) {
	// Capturing en passant would clear rank 4 and expose the black king on h4
	// to the white rook on b4.
	b := mustParseFEN(t, "8/8/8/KP5r/1R3p1k/8/4P3/8 w - - 0 1")
	push, err := resolveOn(b, mustUCI(t, "e2e4"))
	if err != nil {
		t.Fatal(err)
	}
	after := b.Apply(push)
	if containsMove(LegalMoves(after), "f4e3") {
		t.Error("en passant capture must be rejected when it exposes the king")
	}
}
