package engine

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rachel-multiverse/rachel-web-sub001/clock"
	"github.com/rachel-multiverse/rachel-web-sub001/events"
	"github.com/rachel-multiverse/rachel-web-sub001/game"
	"github.com/rachel-multiverse/rachel-web-sub001/store"
)

// Registry maps game ids to their live engines. Reads are concurrent, writes
// serialised; registrations disappear when the actor terminates.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*Engine
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*Engine)}
}

// Lookup returns the engine for a game id
func (r *Registry) Lookup(gameID string) (*Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[gameID]
	return e, ok
}

// IDs returns the ids of all registered games
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.engines))
	for id := range r.engines {
		out = append(out, id)
	}
	return out
}

func (r *Registry) register(e *Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.GameID()] = e
}

func (r *Registry) deregister(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, gameID)
}

// Supervisor owns the fleet: it creates engines on demand, restores
// non-finished games from the store on boot, and restarts actors that die
// abnormally unless their game is corrupted.
type Supervisor struct {
	registry *Registry
	clk      clock.Clock
	st       store.Store
	broker   *events.Broker
	grace    time.Duration
}

// NewSupervisor wires a supervisor over the shared collaborators
func NewSupervisor(clk clock.Clock, st store.Store, broker *events.Broker) *Supervisor {
	if clk == nil {
		clk = clock.System()
	}
	return &Supervisor{
		registry: NewRegistry(),
		clk:      clk,
		st:       st,
		broker:   broker,
		grace:    DefaultFinishedGrace,
	}
}

// SetFinishedGrace tunes how long finished games stay resident
func (s *Supervisor) SetFinishedGrace(d time.Duration) {
	s.grace = d
}

// Registry exposes the name lookup
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

func (s *Supervisor) options() Options {
	return Options{
		Clock:         s.clk,
		Store:         s.st,
		Broker:        s.broker,
		FinishedGrace: s.grace,
		OnTerminate:   s.registry.deregister,
		OnCrash:       s.restart,
	}
}

// CreateGame starts a fresh waiting game and returns its engine
func (s *Supervisor) CreateGame(deckCount int) *Engine {
	e := New(uuid.NewString(), deckCount, s.options())
	s.registry.register(e)
	e.Run()
	return e
}

// Lookup returns the engine for a game id, or game_not_found
func (s *Supervisor) Lookup(gameID string) (*Engine, error) {
	e, ok := s.registry.Lookup(gameID)
	if !ok {
		return nil, &game.Error{Code: game.ErrGameNotFound}
	}
	return e, nil
}

// RestoreAll loads every non-finished game from the store and brings its
// actor back up. Corrupted games stay down.
func (s *Supervisor) RestoreAll() error {
	for _, status := range []game.Status{game.StatusWaiting, game.StatusPlaying} {
		states, err := s.st.ListByStatus(status)
		if err != nil {
			return err
		}
		for _, state := range states {
			if _, ok := s.registry.Lookup(state.ID); ok {
				continue
			}
			e := NewFromState(state, s.options())
			s.registry.register(e)
			e.Run()
			log.Printf("game %s: restored (%s, %d players)", state.ID, state.Status, len(state.Players))
		}
	}
	return nil
}

// restart is the transient restart policy: reload the last checkpoint and
// bring the actor back, unless the game was corrupted
func (s *Supervisor) restart(gameID string, cause any) {
	state, err := s.st.Load(gameID)
	if err != nil {
		log.Printf("game %s: not restarting, no checkpoint: %v", gameID, err)
		return
	}
	if state.Status == game.StatusCorrupted || state.Status == game.StatusFinished {
		log.Printf("game %s: not restarting (%s)", gameID, state.Status)
		return
	}

	log.Printf("game %s: restarting after crash: %v", gameID, cause)
	e := NewFromState(state, s.options())
	s.registry.register(e)
	e.Run()
}

// StopGame stops one engine and drops it from the registry
func (s *Supervisor) StopGame(gameID string) {
	if e, ok := s.registry.Lookup(gameID); ok {
		e.Stop()
	}
}

// Shutdown stops every engine
func (s *Supervisor) Shutdown() {
	for _, id := range s.registry.IDs() {
		s.StopGame(id)
	}
}
