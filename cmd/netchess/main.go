package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"

	"github.com/netchess/netchess/internal/chess"
	"github.com/netchess/netchess/internal/session"
)

var (
	promptColor = color.New(color.FgCyan)
	goodColor   = color.New(color.FgGreen)
	badColor    = color.New(color.FgRed)
	noteColor   = color.New(color.FgYellow)
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Game server base URL")
	flag.Parse()

	switch flag.Arg(0) {
	case "local":
		runLocal()
	case "create":
		gameID, err := createGame(*serverURL)
		if err != nil {
			badColor.Fprintf(os.Stderr, "create failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Game created: %s\n", gameID)
		fmt.Println("Share this ID with your opponent, then wait for them to join.")
		if err := playRemote(*serverURL, gameID); err != nil {
			badColor.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	case "join":
		gameID := flag.Arg(1)
		if gameID == "" {
			fmt.Fprintln(os.Stderr, "usage: netchess join <game-id>")
			os.Exit(2)
		}
		if err := playRemote(*serverURL, gameID); err != nil {
			badColor.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: netchess [-server URL] local|create|join <game-id>")
		os.Exit(2)
	}
}

// runLocal plays a hotseat game on one terminal. Moves are entered in SAN;
// "pgn" dumps the game so far, "resign" and "quit" do what they say.
func runLocal() {
	game := chess.NewGame()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println()
		fmt.Println(game.Board())
		if game.Status().Terminal() {
			printOutcome(game.Status())
			return
		}

		promptColor.Printf("%s> ", game.Board().Turn)
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "quit":
			return
		case "resign":
			_ = game.Resign(game.Board().Turn)
			continue
		case "pgn":
			fmt.Print(chess.WritePGN(game, map[string]string{"Event": "Hotseat"}))
			continue
		}

		move, err := chess.DecodeSAN(game.Board(), input)
		if err != nil {
			badColor.Printf("bad move %q: %v\n", input, err)
			continue
		}
		if _, err := game.Apply(move); err != nil {
			badColor.Printf("illegal: %v\n", err)
		}
	}
}

func createGame(serverURL string) (string, error) {
	resp, err := http.Post(serverURL+"/api/games", "application/json", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server said %s", resp.Status)
	}
	var body struct {
		GameID string `json:"gameId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.GameID, nil
}

func joinGame(serverURL, gameID string) (clientID, colorName, token string, err error) {
	resp, err := http.Post(serverURL+"/api/games/"+gameID+"/join", "application/json", nil)
	if err != nil {
		return "", "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", "", fmt.Errorf("join refused: %s", resp.Status)
	}
	var body struct {
		ClientID string `json:"clientId"`
		Color    string `json:"color"`
		Token    string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", "", err
	}
	return body.ClientID, body.Color, body.Token, nil
}

// playRemote joins a game and runs the interactive loop: server envelopes on
// one channel, stdin lines on another. The local mirror replays everything
// the server broadcasts and reports its fingerprint back after every move.
func playRemote(serverURL, gameID string) error {
	_, colorName, token, err := joinGame(serverURL, gameID)
	if err != nil {
		return err
	}
	fmt.Printf("Joined %s as %s\n", gameID, colorName)

	wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	envelopes := make(chan session.Envelope)
	readErr := make(chan error, 1)
	go func() {
		defer close(envelopes)
		for {
			var env session.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				readErr <- err
				return
			}
			envelopes <- env
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	mirror := session.NewMirror()
	for {
		select {
		case env, ok := <-envelopes:
			if !ok {
				return fmt.Errorf("connection lost: %w", <-readErr)
			}
			done, err := handleEnvelope(conn, mirror, env)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := handleInput(conn, mirror, line); err != nil {
				return err
			}
		}
	}
}

func handleEnvelope(conn *websocket.Conn, mirror *session.Mirror, env session.Envelope) (bool, error) {
	switch env.Type {
	case session.TypeFullHistory:
		var history session.FullHistory
		if err := env.Decode(&history); err != nil {
			return false, err
		}
		if err := mirror.LoadHistory(history); err != nil {
			return false, fmt.Errorf("history replay failed: %w", err)
		}
		showBoard(mirror)

	case session.TypeMoveAccepted:
		var accepted session.MoveAccepted
		if err := env.Decode(&accepted); err != nil {
			return false, err
		}
		if err := mirror.ApplyAccepted(accepted); err != nil {
			if errors.Is(err, session.ErrDesync) {
				noteColor.Println("position out of sync, requesting replay...")
				return false, conn.WriteJSON(session.MustEnvelope(session.TypeSyncStatus, mirror.Sync()))
			}
			return false, err
		}
		goodColor.Printf("%s\n", accepted.SAN)
		showBoard(mirror)
		// Confirm our replica after every ply.
		if err := conn.WriteJSON(session.MustEnvelope(session.TypeSyncStatus, mirror.Sync())); err != nil {
			return false, err
		}

	case session.TypeMoveRejected:
		var rejected session.MoveRejected
		if err := env.Decode(&rejected); err != nil {
			return false, err
		}
		badColor.Printf("rejected (%s): %s\n", rejected.Code, rejected.Reason)

	case session.TypeOpponentDisconnected:
		var note session.OpponentDisconnected
		_ = env.Decode(&note)
		noteColor.Printf("opponent disconnected; they have %ds to return\n", note.DeadlineSeconds)

	case session.TypeOpponentReconnected:
		noteColor.Println("opponent reconnected")

	case session.TypeOpponentAbandoned:
		noteColor.Println("opponent abandoned the game; type \"claim\" to take the win or keep waiting")

	case session.TypeGameEnded:
		var ended session.GameEnded
		if err := env.Decode(&ended); err != nil {
			return false, err
		}
		fmt.Printf("game over: %s (%s)\n", ended.Status.Kind, ended.Status.Result)
		return true, nil
	}
	return false, nil
}

func handleInput(conn *websocket.Conn, mirror *session.Mirror, line string) error {
	switch line {
	case "":
		return nil
	case "resign":
		return conn.WriteJSON(session.Envelope{Type: session.TypeResign})
	case "claim":
		return conn.WriteJSON(session.Envelope{Type: session.TypeClaimAbandonment})
	case "board":
		showBoard(mirror)
		return nil
	}

	if mirror.Game().Board().Turn != mirror.Color() {
		noteColor.Println("not your turn")
		return nil
	}
	move, err := chess.DecodeSAN(mirror.Game().Board(), line)
	if err != nil {
		badColor.Printf("bad move %q: %v\n", line, err)
		return nil
	}
	return conn.WriteJSON(session.MustEnvelope(session.TypeSubmitMove, session.SubmitMove{
		Move: session.WireMove(move),
	}))
}

func showBoard(mirror *session.Mirror) {
	fmt.Println()
	fmt.Println(mirror.Game().Board())
	if !mirror.Game().Status().Terminal() {
		promptColor.Printf("%s to move (you are %s)\n", mirror.Game().Board().Turn, mirror.Color())
	}
}

func printOutcome(status chess.Status) {
	switch status.Kind {
	case chess.StatusCheckmate:
		goodColor.Printf("checkmate, %s wins (%s)\n", status.Loser.Other(), status.Result())
	case chess.StatusResignation:
		goodColor.Printf("%s resigned (%s)\n", status.Loser, status.Result())
	default:
		noteColor.Printf("draw: %s (%s)\n", status.Kind, status.Result())
	}
}
