package session

import (
	"sync"
	"time"

	"github.com/rachel-multiverse/rachel-web-sub001/clock"
	"github.com/rachel-multiverse/rachel-web-sub001/game"
)

// ReconnectGrace is how long a disconnected player has to come back before
// their seat times out
const ReconnectGrace = 30 * time.Second

// GameNotifier is the slice of the game engine the monitor talks to
type GameNotifier interface {
	SetConnection(playerID string, status game.ConnectionStatus)
	PlayerTimeout(playerID string)
}

// Resolver finds the engine for a game id
type Resolver func(gameID string) (GameNotifier, bool)

type watch struct {
	session  Session
	status   game.ConnectionStatus
	gen      uint64
	lastSeen time.Time
	grace    clock.Timer
	// release tears down the previous observer attachment, preventing
	// monitor leaks when the same token reconnects
	release func()
}

// Monitor tracks the observer connection behind each session token and
// escalates a missed reconnect window to the game engine exactly once.
type Monitor struct {
	mu      sync.Mutex
	clk     clock.Clock
	resolve Resolver
	grace   time.Duration
	watches map[string]*watch
}

// NewMonitor creates a connection monitor; a nil clock means the system clock
func NewMonitor(clk clock.Clock, resolve Resolver) *Monitor {
	if clk == nil {
		clk = clock.System()
	}
	return &Monitor{
		clk:     clk,
		resolve: resolve,
		grace:   ReconnectGrace,
		watches: make(map[string]*watch),
	}
}

// Attach registers (or re-registers) the observer behind a token. Any
// previous attachment for the token is released first, and a pending grace
// timer is cancelled. The returned generation identifies this attachment;
// Disconnect calls carrying a superseded generation are ignored.
func (m *Monitor) Attach(s Session, release func()) uint64 {
	m.mu.Lock()

	gen := uint64(1)
	if old, ok := m.watches[s.Token]; ok {
		gen = old.gen + 1
		if old.grace != nil {
			old.grace.Stop()
			old.grace = nil
		}
		if old.release != nil {
			old.release()
		}
	}

	m.watches[s.Token] = &watch{
		session:  s,
		status:   game.Connected,
		gen:      gen,
		lastSeen: m.clk.Now(),
		release:  release,
	}
	m.mu.Unlock()

	if engine, ok := m.resolve(s.GameID); ok {
		engine.SetConnection(s.PlayerID, game.Connected)
	}
	return gen
}

// Heartbeat resets the liveness clock for a token
func (m *Monitor) Heartbeat(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.watches[token]; ok {
		w.lastSeen = m.clk.Now()
	}
}

// Disconnect marks the observer gone and starts the reconnect grace timer.
// The teardown of a connection that has already been replaced arrives with a
// stale generation and must not disturb the live attachment.
func (m *Monitor) Disconnect(token string, gen uint64) {
	m.mu.Lock()
	w, ok := m.watches[token]
	if !ok || w.gen != gen || w.status != game.Connected {
		m.mu.Unlock()
		return
	}

	w.status = game.Disconnected
	w.release = nil
	w.grace = m.clk.AfterFunc(m.grace, func() {
		m.timeout(token)
	})
	session := w.session
	m.mu.Unlock()

	if engine, ok := m.resolve(session.GameID); ok {
		engine.SetConnection(session.PlayerID, game.Disconnected)
	}
}

// timeout fires when the grace window closes without a reconnect
func (m *Monitor) timeout(token string) {
	m.mu.Lock()
	w, ok := m.watches[token]
	if !ok || w.status != game.Disconnected {
		m.mu.Unlock()
		return
	}
	w.status = game.TimedOut
	w.grace = nil
	session := w.session
	m.mu.Unlock()

	if engine, ok := m.resolve(session.GameID); ok {
		engine.PlayerTimeout(session.PlayerID)
	}
}

// Status reports the tracked connection status for a token
func (m *Monitor) Status(token string) (game.ConnectionStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.watches[token]
	if !ok {
		return "", false
	}
	return w.status, true
}

// Forget drops a token entirely, cancelling any pending grace timer
func (m *Monitor) Forget(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.watches[token]; ok {
		if w.grace != nil {
			w.grace.Stop()
		}
		if w.release != nil {
			w.release()
		}
		delete(m.watches, token)
	}
}
