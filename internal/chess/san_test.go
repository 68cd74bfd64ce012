package chess

import (
	"errors"
	"testing"
)

func TestEncodeSAN(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		uci  string
		san  string
	}{
		{"pawn push", StartingFEN, "e2e4", "e4"},
		{"knight development", StartingFEN, "g1f3", "Nf3"},
		{"pawn capture", "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2", "e4d5", "exd5"},
		{"kingside castle", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"queenside castle", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", "O-O-O"},
		{"file disambiguation", "1k6/8/8/8/8/4K3/8/R6R w - - 0 1", "a1d1", "Rad1"},
		{"rank disambiguation", "R7/8/8/8/8/8/8/R3K2k w - - 0 1", "a1a4", "R1a4"},
		{"promotion", "1n5k/P7/8/8/8/8/8/K7 w - - 0 1", "a7a8q", "a8=Q"},
		{"capture promotion check", "1n5k/P7/8/8/8/8/8/K7 w - - 0 1", "a7b8q", "axb8=Q+"},
		{"checkmate suffix", "6k1/5ppp/8/8/8/8/8/4R2K w - - 0 1", "e1e8", "Re8#"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := mustParseFEN(t, test.fen)
			m, err := resolveOn(b, mustUCI(t, test.uci))
			if err != nil {
				t.Fatalf("move %s is not legal in %q: %v", test.uci, test.fen, err)
			}
			if got := EncodeSAN(b, m); got != test.san {
				t.Errorf("EncodeSAN(%s) = %q, want %q", test.uci, got, test.san)
			}
		})
	}
}

func TestDecodeSAN(t *testing.T) {
	b := StartingBoard()

	m, err := DecodeSAN(b, "e4")
	if err != nil {
		t.Fatalf("DecodeSAN(e4) failed: %v", err)
	}
	if m.UCI() != "e2e4" {
		t.Errorf("expected e2e4, got %s", m.UCI())
	}

	if _, err := DecodeSAN(b, "e5"); !errors.Is(err, ErrMalformedPGN) {
		t.Errorf("expected ErrMalformedPGN for unreachable square, got %v", err)
	}
	if _, err := DecodeSAN(b, "Qxf7"); !errors.Is(err, ErrMalformedPGN) {
		t.Errorf("expected ErrMalformedPGN for impossible capture, got %v", err)
	}
}

func TestDecodeSANAmbiguity(t *testing.T) {
	b := mustParseFEN(t, "1k6/8/8/8/8/4K3/8/R6R w - - 0 1")

	if _, err := DecodeSAN(b, "Rd1"); !errors.Is(err, ErrMalformedPGN) {
		t.Fatalf("expected ambiguity error for Rd1, got %v", err)
	}
	m, err := DecodeSAN(b, "Rad1")
	if err != nil {
		t.Fatalf("DecodeSAN(Rad1) failed: %v", err)
	}
	if m.UCI() != "a1d1" {
		t.Errorf("expected a1d1, got %s", m.UCI())
	}
}

// Check and mate suffixes are advisory on input: a wrong suffix is ignored
// rather than rejected.
func TestDecodeSANSuffixesAdvisory(t *testing.T) {
	b := StartingBoard()
	m, err := DecodeSAN(b, "e4+")
	if err != nil {
		t.Fatalf("advisory suffix must not fail the parse: %v", err)
	}
	if m.UCI() != "e2e4" {
		t.Errorf("expected e2e4, got %s", m.UCI())
	}
}

func TestSANRoundTripThroughGame(t *testing.T) {
	g := NewGame()
	for _, uci := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "g8f6", "e1g1", "f6e4", "f1e1", "e4d6", "f3e5", "f8e7"} {
		b := g.Board()
		resolved, err := g.Resolve(mustUCI(t, uci))
		if err != nil {
			t.Fatalf("move %s is not legal: %v", uci, err)
		}
		san := EncodeSAN(b, resolved)
		decoded, err := DecodeSAN(b, san)
		if err != nil {
			t.Fatalf("decode of own encoding %q failed: %v", san, err)
		}
		if decoded != resolved {
			t.Fatalf("round trip of %q: got %s, want %s", san, decoded.UCI(), resolved.UCI())
		}
		if _, err := g.Apply(resolved); err != nil {
			t.Fatalf("apply %s: %v", uci, err)
		}
	}
}
