package chess

import "errors"

var (
	// ErrIllegalMove rejects a move absent from the legal-move set of the
	// current position. The game state is left untouched.
	ErrIllegalMove = errors.New("illegal move")

	// ErrGameOver rejects moves and resignations once a game has reached a
	// terminal status.
	ErrGameOver = errors.New("game is already over")

	// ErrMalformedFEN marks unparseable FEN input; the wrapped message names
	// the offending field or token.
	ErrMalformedFEN = errors.New("malformed FEN")

	// ErrMalformedPGN marks unparseable PGN input, including SAN tokens that
	// match zero or more than one legal move.
	ErrMalformedPGN = errors.New("malformed PGN")
)
