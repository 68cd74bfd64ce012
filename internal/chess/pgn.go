package chess

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// tagRoster is the seven-tag roster ordering that leads PGN output.
var tagRoster = []string{"Event", "Site", "Date", "Round", "White", "Black", "Result"}

var resultTokens = map[string]bool{"1-0": true, "0-1": true, "1/2-1/2": true, "*": true}

// ParsePGN parses a single PGN game: bracketed tag pairs followed by
// movetext. Every SAN token is resolved against the legal moves of the game
// so far, so an unreadable or ambiguous token aborts the parse. A result
// token that contradicts the derived status is tolerated with a warning,
// since PGN sources are frequently informal.
func ParsePGN(text string) (*Game, map[string]string, error) {
	tags := make(map[string]string)
	var movetext strings.Builder

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			name, value, ok := parseTagPair(trimmed)
			if !ok {
				return nil, nil, fmt.Errorf("%w: bad tag pair %q", ErrMalformedPGN, trimmed)
			}
			tags[name] = value
			continue
		}
		movetext.WriteString(line)
		movetext.WriteByte('\n')
	}

	g := NewGame()
	result := ""
	for _, token := range tokenizeMovetext(movetext.String()) {
		if resultTokens[token] {
			result = token
			continue
		}
		move, err := DecodeSAN(g.Board(), token)
		if err != nil {
			return nil, nil, fmt.Errorf("at ply %d: %w", g.Ply()+1, err)
		}
		if _, err := g.Apply(move); err != nil {
			return nil, nil, fmt.Errorf("at ply %d: %w", g.Ply()+1, err)
		}
	}

	if tagged, ok := tags["Result"]; ok && result == "" {
		result = tagged
	}
	if result != "" && g.Status().Terminal() && result != g.Status().Result() {
		log.Warn().
			Str("declared", result).
			Str("derived", g.Status().Result()).
			Msg("PGN result token contradicts the derived game status")
	}
	return g, tags, nil
}

func parseTagPair(line string) (string, string, bool) {
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return "", "", false
	}
	body := line[1 : len(line)-1]
	space := strings.IndexByte(body, ' ')
	if space < 0 {
		return "", "", false
	}
	name := body[:space]
	value := strings.TrimSpace(body[space+1:])
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return "", "", false
	}
	return name, value[1 : len(value)-1], true
}

// tokenizeMovetext strips brace comments and numeric annotation glyphs, then
// splits the remainder into SAN and result tokens. Move-number prefixes like
// "1." and "3..." are dropped from their tokens.
func tokenizeMovetext(text string) []string {
	var cleaned strings.Builder
	inComment := false
	for _, ch := range text {
		switch {
		case ch == '{':
			inComment = true
		case ch == '}':
			inComment = false
		case !inComment:
			cleaned.WriteRune(ch)
		}
	}

	var tokens []string
	for _, field := range strings.Fields(cleaned.String()) {
		if strings.HasPrefix(field, "$") {
			continue
		}
		if resultTokens[field] {
			tokens = append(tokens, field)
			continue
		}
		// "12.e4" and "12...Qf6" carry the move in their last dot segment.
		if i := strings.LastIndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		if field == "" || isMoveNumber(field) {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

func isMoveNumber(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// WritePGN serializes the game as a PGN record: the seven-tag roster first,
// remaining tags alphabetically, then numbered movetext with a line break
// every ten full moves and the result token derived from the game status.
func WritePGN(g *Game, tags map[string]string) string {
	var sb strings.Builder

	status := g.Status()
	written := make(map[string]bool)
	for _, name := range tagRoster {
		value, ok := tags[name]
		if name == "Result" {
			value, ok = status.Result(), true
		}
		if ok {
			fmt.Fprintf(&sb, "[%s \"%s\"]\n", name, value)
			written[name] = true
		}
	}
	var rest []string
	for name := range tags {
		if !written[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		fmt.Fprintf(&sb, "[%s \"%s\"]\n", name, tags[name])
	}
	sb.WriteByte('\n')

	replay := StartingBoard()
	for i, m := range g.History() {
		if i%2 == 0 {
			fmt.Fprintf(&sb, "%d. ", i/2+1)
		}
		sb.WriteString(EncodeSAN(replay, m))
		sb.WriteByte(' ')
		if i%2 == 1 && (i/2)%10 == 9 {
			sb.WriteByte('\n')
		}
		replay = replay.Apply(m)
	}
	sb.WriteString(status.Result())
	sb.WriteByte('\n')
	return sb.String()
}
