package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/netchess/netchess/internal/chess"
)

// ErrBadToken covers expired, tampered, or otherwise unusable seat tokens.
var ErrBadToken = errors.New("invalid seat token")

// SeatClaims binds a client to its seat in one game. The token is issued on
// join and presented on reconnect, so a returning client can reclaim its
// color without the server trusting a self-reported identity.
type SeatClaims struct {
	GameID   string `json:"game"`
	ClientID string `json:"client"`
	Color    string `json:"color"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies seat tokens with a shared HMAC secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer. Tokens expire after ttl; a reconnect past
// expiry is treated like a brand-new client.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a seat token for clientID playing color in gameID.
func (ti *TokenIssuer) Issue(gameID, clientID string, color chess.Color) (string, error) {
	now := time.Now()
	claims := SeatClaims{
		GameID:   gameID,
		ClientID: clientID,
		Color:    color.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign seat token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a seat token, returning its claims.
func (ti *TokenIssuer) Verify(token string) (*SeatClaims, error) {
	claims := &SeatClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	if !parsed.Valid || claims.GameID == "" || claims.ClientID == "" {
		return nil, ErrBadToken
	}
	if _, ok := chess.ParseColor(claims.Color); !ok {
		return nil, fmt.Errorf("%w: bad color %q", ErrBadToken, claims.Color)
	}
	return claims, nil
}
