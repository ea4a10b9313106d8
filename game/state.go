package game

import (
	"math/rand"
	"time"

	"github.com/rachel-multiverse/rachel-web-sub001/cards"
)

// Status is the lifecycle status of a game
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusPlaying   Status = "playing"
	StatusFinished  Status = "finished"
	StatusCorrupted Status = "corrupted"
)

// Direction is the direction of turn rotation
type Direction string

const (
	Clockwise        Direction = "clockwise"
	CounterClockwise Direction = "counter_clockwise"
)

// Flip returns the opposite direction
func (d Direction) Flip() Direction {
	if d == Clockwise {
		return CounterClockwise
	}
	return Clockwise
}

// PlayerKind distinguishes humans from AI players
type PlayerKind string

const (
	KindHuman PlayerKind = "human"
	KindAI    PlayerKind = "ai"
)

// Difficulty tunes the AI player
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// PlayerStatus is playing until the player sheds their last card
type PlayerStatus string

const (
	PlayerPlaying PlayerStatus = "playing"
	PlayerWon     PlayerStatus = "won"
)

// ConnectionStatus is maintained by the connection monitor; it never affects
// the rules
type ConnectionStatus string

const (
	Connected    ConnectionStatus = "connected"
	Disconnected ConnectionStatus = "disconnected"
	TimedOut     ConnectionStatus = "timed_out"
)

// DrawReason says why a player is drawing
type DrawReason string

const (
	DrawCannotPlay DrawReason = "cannot_play"
	DrawAttack     DrawReason = "attack"
	DrawVoluntary  DrawReason = "voluntary"
)

// MaxPlayers is the largest table the rules support
const MaxPlayers = 8

// MinPlayers is the smallest table the rules support
const MinPlayers = 2

// Player is a seat at the table
type Player struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id,omitempty"`
	Name       string           `json:"name"`
	Kind       PlayerKind       `json:"kind"`
	Difficulty Difficulty       `json:"difficulty,omitempty"`
	Hand       cards.Cards      `json:"hand"`
	Status     PlayerStatus     `json:"status"`
	Connection ConnectionStatus `json:"connection"`
	TurnsTaken int              `json:"turns_taken"`
}

// Clone returns an independent copy of the player
func (p Player) Clone() Player {
	out := p
	out.Hand = p.Hand.Clone()
	return out
}

// State is the authoritative snapshot of one game. It is a value type: all
// transitions operate on a deep copy and return the new state.
type State struct {
	ID                 string      `json:"id"`
	Status             Status      `json:"status"`
	Players            []Player    `json:"players"`
	Deck               cards.Cards `json:"deck"`
	DiscardPile        cards.Cards `json:"discard_pile"`
	CurrentPlayerIndex int         `json:"current_player_index"`
	Direction          Direction   `json:"direction"`
	PendingAttack      *Attack     `json:"pending_attack,omitempty"`
	PendingSkips       int         `json:"pending_skips"`
	NominatedSuit      cards.Suit  `json:"nominated_suit,omitempty"`
	Winners            []string    `json:"winners"`
	TurnCount          int         `json:"turn_count"`
	DeckCount          int         `json:"deck_count"`
	ExpectedTotalCards int         `json:"expected_total_cards"`
	CreatedAt          time.Time   `json:"created_at"`
	LastActionAt       time.Time   `json:"last_action_at"`
}

// New constructs a fresh waiting game with no players
func New(id string, deckCount int) State {
	if deckCount < 1 {
		deckCount = 1
	}
	now := time.Now().UTC()
	return State{
		ID:                 id,
		Status:             StatusWaiting,
		Direction:          Clockwise,
		DeckCount:          deckCount,
		ExpectedTotalCards: deckCount * cards.DeckSize,
		CreatedAt:          now,
		LastActionAt:       now,
	}
}

// Clone returns a deep copy of the state
func (s State) Clone() State {
	out := s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = p.Clone()
	}
	out.Deck = s.Deck.Clone()
	out.DiscardPile = s.DiscardPile.Clone()
	if s.PendingAttack != nil {
		attack := *s.PendingAttack
		out.PendingAttack = &attack
	}
	out.Winners = append([]string(nil), s.Winners...)
	return out
}

// PlayerIndex returns the seat index for a player id, or -1
func (s State) PlayerIndex(playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// CurrentPlayer returns the player whose turn it is
func (s State) CurrentPlayer() Player {
	return s.Players[s.CurrentPlayerIndex]
}

// TopCard returns the top of the discard pile
func (s State) TopCard() cards.Card {
	return s.DiscardPile[0]
}

// PlayingCount returns the number of players still in the game
func (s State) PlayingCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Status == PlayerPlaying {
			n++
		}
	}
	return n
}

// AddPlayer seats a player while the game is waiting
func (s State) AddPlayer(player Player) (State, error) {
	if s.Status != StatusWaiting {
		return s, &Error{Code: ErrCannotJoin, Reason: "already_started"}
	}
	if len(s.Players) >= MaxPlayers {
		return s, &Error{Code: ErrCannotJoin, Reason: "game_full"}
	}

	next := s.Clone()
	player.Status = PlayerPlaying
	if player.Connection == "" {
		player.Connection = Connected
	}
	next.Players = append(next.Players, player)
	next.LastActionAt = time.Now().UTC()
	return next, nil
}

// RemovePlayer unseats a player; only legal while waiting
func (s State) RemovePlayer(playerID string) (State, error) {
	if s.Status != StatusWaiting {
		return s, &Error{Code: ErrInvalidStatus, Status: s.Status, Expected: StatusWaiting}
	}
	idx := s.PlayerIndex(playerID)
	if idx < 0 {
		return s, &Error{Code: ErrPlayerNotFound}
	}

	next := s.Clone()
	next.Players = append(next.Players[:idx], next.Players[idx+1:]...)
	next.LastActionAt = time.Now().UTC()
	return next, nil
}

// Start deals the opening hands, seeds the discard pile and picks a random
// first player
func (s State) Start(rng *rand.Rand) (State, error) {
	if s.Status != StatusWaiting {
		return s, &Error{Code: ErrInvalidStatus, Status: s.Status, Expected: StatusWaiting}
	}

	perPlayer, err := CardsPerPlayer(len(s.Players))
	if err != nil {
		return s, &Error{Code: ErrCannotJoin, Reason: err.Error()}
	}

	next := s.Clone()
	deck := cards.Shuffle(cards.NewDecks(next.DeckCount), rng)

	for i := range next.Players {
		var hand cards.Cards
		hand, deck = cards.DealCards(deck, perPlayer)
		next.Players[i].Hand = hand
		next.Players[i].Status = PlayerPlaying
	}

	// The seed card may itself be a special card; the rules do not guard
	// against that
	seed, deck := cards.DealCards(deck, 1)
	next.DiscardPile = seed
	next.Deck = deck

	next.Status = StatusPlaying
	next.Direction = Clockwise
	next.CurrentPlayerIndex = rng.Intn(len(next.Players))
	next.TurnCount = 0
	next.LastActionAt = time.Now().UTC()
	return next, nil
}

// Play validates and applies a play of one or more same-rank cards
func (s State) Play(playerID string, played cards.Cards, nominated cards.Suit) (State, error) {
	if err := s.ValidatePlay(playerID, played); err != nil {
		return s, err
	}

	next := s.Clone()
	idx := next.PlayerIndex(playerID)

	// The nomination from the previous turn is consumed by this action;
	// a fresh nomination from this play is applied below and survives.
	next.NominatedSuit = ""

	players, err := RemoveFromHand(next.Players, idx, played)
	if err != nil {
		return s, &Error{Code: ErrCardsNotInHand, Missing: played}
	}
	next.Players = players
	next.DiscardPile = append(played.Clone(), next.DiscardPile...)

	applyEffects(&next, played, nominated)
	checkWinner(&next, idx)

	// A play of sevens passes the skip along: the next seat gets a chance to
	// counter, so this advance moves one seat and leaves the counter intact.
	advanceTurn(&next, played[0].Rank != cards.Seven)

	if shouldEnd(next) {
		next.Status = StatusFinished
	}

	next.TurnCount++
	next.Players[idx].TurnsTaken++
	next.LastActionAt = time.Now().UTC()
	return next, nil
}

// Draw validates and applies a draw. Under a pending attack the draw resolves
// the attack and the turn stays with the drawer; otherwise one card is drawn
// and the turn advances.
func (s State) Draw(playerID string, reason DrawReason, rng *rand.Rand) (State, error) {
	if err := s.ValidateDraw(playerID); err != nil {
		return s, err
	}

	idx := s.PlayerIndex(playerID)

	if s.PendingAttack == nil && reason == DrawCannotPlay {
		playable := PlayableCards(s.Players[idx].Hand, s.TopCard(), s.NominatedSuit, nil, s.PendingSkips)
		if len(playable) > 0 {
			return s, &Error{Code: ErrMustPlay, Playable: playable}
		}
	}

	next := s.Clone()
	next.NominatedSuit = ""

	if next.PendingAttack != nil {
		// Any permitted draw under an attack takes the whole penalty,
		// clears it, and keeps the turn
		count := next.PendingAttack.Count
		drawn, deck, discard := DrawFromDeck(next.Deck, next.DiscardPile, count, rng)
		next.Deck, next.DiscardPile = deck, discard
		next.Players = AddToHand(next.Players, idx, drawn)
		next.PendingAttack = nil
		next.LastActionAt = time.Now().UTC()
		return next, nil
	}

	drawn, deck, discard := DrawFromDeck(next.Deck, next.DiscardPile, 1, rng)
	next.Deck, next.DiscardPile = deck, discard
	next.Players = AddToHand(next.Players, idx, drawn)

	advanceTurn(&next, true)

	if shouldEnd(next) {
		next.Status = StatusFinished
	}

	next.TurnCount++
	next.Players[idx].TurnsTaken++
	next.LastActionAt = time.Now().UTC()
	return next, nil
}
