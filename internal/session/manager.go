package session

import (
	"errors"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/rs/zerolog"
)

// ErrUnknownGame means no live session exists for the requested ID.
var ErrUnknownGame = errors.New("no such game")

// Manager owns every live session. Creation, lookup, and teardown are
// serialized under one mutex; everything per-game happens on the session's
// own goroutine.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	deadline time.Duration
	log      zerolog.Logger
}

// NewManager creates an empty session registry. reconnectDeadline is how
// long a dropped seat is held before the opponent may claim abandonment.
func NewManager(reconnectDeadline time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		deadline: reconnectDeadline,
		log:      log,
	}
}

// Create starts a new session under a fresh human-readable game ID.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	var id string
	for {
		id = petname.Generate(3, "-")
		if _, taken := m.sessions[id]; !taken {
			break
		}
	}
	s := New(id, m.deadline, m.log)
	m.sessions[id] = s
	go s.Run()
	go m.reap(s)

	m.log.Info().Str("session", id).Msg("session created")
	return s
}

// Get returns the live session for id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrUnknownGame
	}
	return s, nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// reap removes the session from the registry once it closes.
func (m *Manager) reap(s *Session) {
	<-s.Done()
	m.mu.Lock()
	delete(m.sessions, s.ID())
	m.mu.Unlock()
	m.log.Info().Str("session", s.ID()).Msg("session reaped")
}
