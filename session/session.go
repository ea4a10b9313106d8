// Package session tracks who is attached to which game: opaque session
// tokens with heartbeat liveness, and a connection monitor that grants a
// reconnect grace period before handing an abandoned seat to the AI.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rachel-multiverse/rachel-web-sub001/clock"
)

// TTL is how long a session stays alive without a heartbeat
const TTL = 5 * time.Minute

// Session ties an opaque token to a seat in a game
type Session struct {
	Token         string
	GameID        string
	PlayerID      string
	DisplayName   string
	LastHeartbeat time.Time
}

// Manager issues and validates session tokens
type Manager struct {
	mu       sync.RWMutex
	clk      clock.Clock
	ttl      time.Duration
	sessions map[string]*Session
}

// NewManager creates a session manager; a nil clock means the system clock
func NewManager(clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.System()
	}
	return &Manager{
		clk:      clk,
		ttl:      TTL,
		sessions: make(map[string]*Session),
	}
}

// Create issues a fresh token for the seat
func (m *Manager) Create(gameID, playerID, displayName string) Session {
	s := &Session{
		Token:         uuid.NewString(),
		GameID:        gameID,
		PlayerID:      playerID,
		DisplayName:   displayName,
		LastHeartbeat: m.clk.Now(),
	}

	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return *s
}

// Validate returns the session for a token if it is still alive, refreshing
// its heartbeat. Validation and heartbeat are idempotent.
func (m *Manager) Validate(token string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return Session{}, false
	}
	if m.clk.Now().Sub(s.LastHeartbeat) > m.ttl {
		delete(m.sessions, token)
		return Session{}, false
	}

	s.LastHeartbeat = m.clk.Now()
	return *s, true
}

// Heartbeat refreshes the liveness clock for a token
func (m *Manager) Heartbeat(token string) bool {
	_, ok := m.Validate(token)
	return ok
}

// Remove forgets a token
func (m *Manager) Remove(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// PruneExpired drops every session past its TTL and reports how many went
func (m *Manager) PruneExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	pruned := 0
	for token, s := range m.sessions {
		if now.Sub(s.LastHeartbeat) > m.ttl {
			delete(m.sessions, token)
			pruned++
		}
	}
	return pruned
}
