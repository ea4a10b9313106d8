package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/rachel-multiverse/rachel-web-sub001/cards"
	"github.com/rachel-multiverse/rachel-web-sub001/game"
)

// PostgresStore persists games in two tables: one row per game with the card
// collections as JSON columns, and a denormalised participation table.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to the database and ensures the schema exists
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing connection without touching the schema
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			game_id              TEXT PRIMARY KEY,
			status               TEXT NOT NULL,
			current_player_index INTEGER NOT NULL,
			direction            TEXT NOT NULL,
			pending_attack_kind  TEXT,
			pending_attack_count INTEGER,
			pending_skips        INTEGER NOT NULL,
			nominated_suit       TEXT,
			turn_count           INTEGER NOT NULL,
			deck_count           INTEGER NOT NULL,
			expected_total_cards INTEGER NOT NULL,
			players              JSONB NOT NULL,
			deck                 JSONB NOT NULL,
			discard_pile         JSONB NOT NULL,
			winners              JSONB NOT NULL,
			last_action_at       TIMESTAMPTZ NOT NULL,
			inserted_at          TIMESTAMPTZ NOT NULL,
			updated_at           TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS game_participations (
			id          SERIAL PRIMARY KEY,
			user_id     TEXT NOT NULL,
			game_id     TEXT NOT NULL,
			final_rank  INTEGER NOT NULL,
			turns_taken INTEGER NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS games_status_idx ON games (status);
		CREATE INDEX IF NOT EXISTS game_participations_user_idx ON game_participations (user_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Save upserts the snapshot by game id
func (s *PostgresStore) Save(state game.State) error {
	players, err := json.Marshal(state.Players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}
	deck, err := json.Marshal(state.Deck)
	if err != nil {
		return fmt.Errorf("failed to marshal deck: %w", err)
	}
	discard, err := json.Marshal(state.DiscardPile)
	if err != nil {
		return fmt.Errorf("failed to marshal discard pile: %w", err)
	}
	winners, err := json.Marshal(state.Winners)
	if err != nil {
		return fmt.Errorf("failed to marshal winners: %w", err)
	}

	var attackKind sql.NullString
	var attackCount sql.NullInt64
	if state.PendingAttack != nil {
		attackKind = sql.NullString{String: string(state.PendingAttack.Kind), Valid: true}
		attackCount = sql.NullInt64{Int64: int64(state.PendingAttack.Count), Valid: true}
	}
	var nominated sql.NullString
	if state.NominatedSuit != "" {
		nominated = sql.NullString{String: string(state.NominatedSuit), Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT INTO games (
			game_id, status, current_player_index, direction,
			pending_attack_kind, pending_attack_count, pending_skips,
			nominated_suit, turn_count, deck_count, expected_total_cards,
			players, deck, discard_pile, winners,
			last_action_at, inserted_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now())
		ON CONFLICT (game_id) DO UPDATE SET
			status = EXCLUDED.status,
			current_player_index = EXCLUDED.current_player_index,
			direction = EXCLUDED.direction,
			pending_attack_kind = EXCLUDED.pending_attack_kind,
			pending_attack_count = EXCLUDED.pending_attack_count,
			pending_skips = EXCLUDED.pending_skips,
			nominated_suit = EXCLUDED.nominated_suit,
			turn_count = EXCLUDED.turn_count,
			deck_count = EXCLUDED.deck_count,
			expected_total_cards = EXCLUDED.expected_total_cards,
			players = EXCLUDED.players,
			deck = EXCLUDED.deck,
			discard_pile = EXCLUDED.discard_pile,
			winners = EXCLUDED.winners,
			last_action_at = EXCLUDED.last_action_at,
			updated_at = now()
	`,
		state.ID, string(state.Status), state.CurrentPlayerIndex, string(state.Direction),
		attackKind, attackCount, state.PendingSkips,
		nominated, state.TurnCount, state.DeckCount, state.ExpectedTotalCards,
		players, deck, discard, winners,
		state.LastActionAt, state.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", state.ID, err)
	}
	return nil
}

const gameColumns = `
	game_id, status, current_player_index, direction,
	pending_attack_kind, pending_attack_count, pending_skips,
	nominated_suit, turn_count, deck_count, expected_total_cards,
	players, deck, discard_pile, winners, last_action_at, inserted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (game.State, error) {
	var state game.State
	var status, direction string
	var attackKind, nominated sql.NullString
	var attackCount sql.NullInt64
	var players, deck, discard, winners []byte

	err := row.Scan(
		&state.ID, &status, &state.CurrentPlayerIndex, &direction,
		&attackKind, &attackCount, &state.PendingSkips,
		&nominated, &state.TurnCount, &state.DeckCount, &state.ExpectedTotalCards,
		&players, &deck, &discard, &winners, &state.LastActionAt, &state.CreatedAt,
	)
	if err != nil {
		return game.State{}, err
	}

	state.Status = game.Status(status)
	state.Direction = game.Direction(direction)
	if attackKind.Valid {
		state.PendingAttack = &game.Attack{
			Kind:  game.AttackKind(attackKind.String),
			Count: int(attackCount.Int64),
		}
	}
	if nominated.Valid {
		state.NominatedSuit = cards.Suit(nominated.String)
	}

	if err := json.Unmarshal(players, &state.Players); err != nil {
		return game.State{}, fmt.Errorf("failed to unmarshal players: %w", err)
	}
	if err := json.Unmarshal(deck, &state.Deck); err != nil {
		return game.State{}, fmt.Errorf("failed to unmarshal deck: %w", err)
	}
	if err := json.Unmarshal(discard, &state.DiscardPile); err != nil {
		return game.State{}, fmt.Errorf("failed to unmarshal discard pile: %w", err)
	}
	if err := json.Unmarshal(winners, &state.Winners); err != nil {
		return game.State{}, fmt.Errorf("failed to unmarshal winners: %w", err)
	}
	return state, nil
}

// Load returns the snapshot for a game id
func (s *PostgresStore) Load(gameID string) (game.State, error) {
	row := s.db.QueryRow(`SELECT `+gameColumns+` FROM games WHERE game_id = $1`, gameID)

	state, err := scanGame(row)
	if err == sql.ErrNoRows {
		return game.State{}, ErrNotFound
	}
	if err != nil {
		return game.State{}, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	return state, nil
}

// Delete removes the game row
func (s *PostgresStore) Delete(gameID string) error {
	res, err := s.db.Exec(`DELETE FROM games WHERE game_id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", gameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStatus returns every snapshot with the given status
func (s *PostgresStore) ListByStatus(status game.Status) ([]game.State, error) {
	rows, err := s.db.Query(`SELECT `+gameColumns+` FROM games WHERE status = $1`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list games by status: %w", err)
	}
	defer rows.Close()

	var out []game.State
	for rows.Next() {
		state, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		out = append(out, state)
	}
	return out, rows.Err()
}

// ListStale returns ids of games idle past their status threshold
func (s *PostgresStore) ListStale(now time.Time) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT game_id FROM games
		WHERE (status = 'finished' AND last_action_at < $1 - interval '1 hour')
		   OR (status = 'waiting'  AND last_action_at < $1 - interval '30 minutes')
		   OR (status NOT IN ('finished', 'waiting') AND last_action_at < $1 - interval '2 hours')
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale games: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// RecordUserParticipation appends per-user result rows for a finished game
func (s *PostgresStore) RecordUserParticipation(state game.State) error {
	rows := ParticipationRows(state)
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO game_participations (user_id, game_id, final_rank, turns_taken)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row.UserID, row.GameID, row.FinalRank, row.TurnsTaken); err != nil {
			return fmt.Errorf("failed to insert participation for %s: %w", row.UserID, err)
		}
	}
	return tx.Commit()
}
