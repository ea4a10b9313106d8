package store

import (
	"sync"
	"time"

	"github.com/rachel-multiverse/rachel-web-sub001/game"
)

// MemoryStore is an in-memory implementation of Store, used in tests and for
// running without a database
type MemoryStore struct {
	mu             sync.RWMutex
	games          map[string]game.State
	participations []Participation
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]game.State)}
}

// Save upserts a deep copy of the snapshot
func (s *MemoryStore) Save(state game.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[state.ID] = state.Clone()
	return nil
}

// Load returns a deep copy of the stored snapshot
func (s *MemoryStore) Load(gameID string) (game.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.games[gameID]
	if !ok {
		return game.State{}, ErrNotFound
	}
	return state.Clone(), nil
}

// Delete removes the row
func (s *MemoryStore) Delete(gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[gameID]; !ok {
		return ErrNotFound
	}
	delete(s.games, gameID)
	return nil
}

// ListByStatus returns copies of every game with the given status
func (s *MemoryStore) ListByStatus(status game.Status) ([]game.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []game.State
	for _, state := range s.games {
		if state.Status == status {
			out = append(out, state.Clone())
		}
	}
	return out, nil
}

// ListStale returns ids of games idle past their status threshold
func (s *MemoryStore) ListStale(now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for id, state := range s.games {
		if now.Sub(state.LastActionAt) > StaleThreshold(state.Status) {
			out = append(out, id)
		}
	}
	return out, nil
}

// RecordUserParticipation appends the per-user result rows
func (s *MemoryStore) RecordUserParticipation(state game.State) error {
	rows := ParticipationRows(state)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.participations = append(s.participations, rows...)
	return nil
}

// Participations returns a copy of all recorded rows
func (s *MemoryStore) Participations() []Participation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Participation(nil), s.participations...)
}
