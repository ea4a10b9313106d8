// Package store persists game snapshots. The interface is narrow by design:
// each game owns its row and every write is an unconditional upsert keyed by
// game id.
package store

import (
	"errors"
	"sort"
	"time"

	"github.com/rachel-multiverse/rachel-web-sub001/game"
)

// ErrNotFound is returned when no row exists for a game id
var ErrNotFound = errors.New("game not found")

// Idle thresholds after which a game is considered abandoned
const (
	StaleFinished = 1 * time.Hour
	StaleWaiting  = 30 * time.Minute
	StalePlaying  = 2 * time.Hour
)

// Store is the persistence contract for the game fleet
type Store interface {
	// Save upserts the snapshot by game id
	Save(state game.State) error
	// Load returns the snapshot for a game id, or ErrNotFound
	Load(gameID string) (game.State, error)
	// Delete removes the row, returning ErrNotFound if absent
	Delete(gameID string) error
	// ListByStatus returns every snapshot with the given status
	ListByStatus(status game.Status) ([]game.State, error)
	// ListStale returns ids of games idle past their status threshold
	ListStale(now time.Time) ([]string, error)
	// RecordUserParticipation appends per-user result rows for a finished game
	RecordUserParticipation(state game.State) error
}

// Participation is one denormalised per-user result row
type Participation struct {
	UserID     string
	GameID     string
	FinalRank  int
	TurnsTaken int
}

// StaleThreshold returns the idle threshold for a status. Corrupted games get
// the playing threshold so they stay inspectable for a while.
func StaleThreshold(status game.Status) time.Duration {
	switch status {
	case game.StatusFinished:
		return StaleFinished
	case game.StatusWaiting:
		return StaleWaiting
	default:
		return StalePlaying
	}
}

// ParticipationRows computes the final ranking of a finished game. Winners
// keep their position in the winners list; everyone else is ranked by
// ascending hand size after them. Players without an external user id (AI,
// anonymous) produce no row.
func ParticipationRows(state game.State) []Participation {
	rank := map[string]int{}
	for i, id := range state.Winners {
		rank[id] = i + 1
	}

	var losers []game.Player
	for _, p := range state.Players {
		if _, won := rank[p.ID]; !won {
			losers = append(losers, p)
		}
	}
	sort.SliceStable(losers, func(i, j int) bool {
		return len(losers[i].Hand) < len(losers[j].Hand)
	})
	for i, p := range losers {
		rank[p.ID] = len(state.Winners) + i + 1
	}

	var rows []Participation
	for _, p := range state.Players {
		if p.UserID == "" {
			continue
		}
		rows = append(rows, Participation{
			UserID:     p.UserID,
			GameID:     state.ID,
			FinalRank:  rank[p.ID],
			TurnsTaken: p.TurnsTaken,
		})
	}
	return rows
}
