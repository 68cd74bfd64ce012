package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/netchess/netchess/internal/config"
	"github.com/netchess/netchess/internal/session"
)

type Service struct {
	sessions *session.Manager
	tokens   *session.TokenIssuer
	config   *config.Config
}

func NewService(sessions *session.Manager, cfg *config.Config) *Service {
	return &Service{
		sessions: sessions,
		tokens:   session.NewTokenIssuer(cfg.Auth.TokenSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour),
		config:   cfg,
	}
}

// RegisterRoutes wires all HTTP endpoints onto the router.
func (s *Service) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", s.HealthHandler).Methods("GET")
	router.HandleFunc("/api/games", s.CreateGameHandler).Methods("POST")
	router.HandleFunc("/api/games/{id}/join", s.JoinGameHandler).Methods("POST")
	router.HandleFunc("/api/games/{id}", s.GetGameHandler).Methods("GET")
	router.HandleFunc("/ws", s.WebSocketHandler).Methods("GET")
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"games":  s.sessions.Count(),
	})
}

type CreateGameResponse struct {
	GameID string `json:"gameId"`
}

func (s *Service) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	log.Info().Str("gameID", sess.ID()).Msg("Game created")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(CreateGameResponse{GameID: sess.ID()})
}

type JoinGameResponse struct {
	GameID   string `json:"gameId"`
	ClientID string `json:"clientId"`
	Color    string `json:"color"`
	Token    string `json:"token"`
}

// JoinGameHandler reserves a seat and mints the token the websocket endpoint
// requires. The first joiner plays white, the second black.
func (s *Service) JoinGameHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sess, err := s.sessions.Get(vars["id"])
	if err != nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	clientID := uuid.NewString()
	color, err := sess.Reserve(clientID)
	if err != nil {
		if errors.Is(err, session.ErrSessionFull) {
			http.Error(w, "Game already has two players", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to join game", http.StatusInternalServerError)
		return
	}

	token, err := s.tokens.Issue(sess.ID(), clientID, color)
	if err != nil {
		log.Error().Err(err).Str("gameID", sess.ID()).Msg("Failed to issue seat token")
		http.Error(w, "Failed to issue seat token", http.StatusInternalServerError)
		return
	}

	log.Info().Str("gameID", sess.ID()).Str("color", color.String()).Msg("Player joined game")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(JoinGameResponse{
		GameID:   sess.ID(),
		ClientID: clientID,
		Color:    color.String(),
		Token:    token,
	})
}

// GetGameHandler returns a point-in-time snapshot for spectators and polling
// clients. Players use the websocket instead.
func (s *Service) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sess, err := s.sessions.Get(vars["id"])
	if err != nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}
	snap, err := sess.Snapshot()
	if err != nil {
		http.Error(w, "Game is shutting down", http.StatusGone)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}
