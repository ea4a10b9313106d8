package events

import (
	"github.com/rachel-multiverse/rachel-web-sub001/cards"
	"github.com/rachel-multiverse/rachel-web-sub001/game"
)

// Event is the interface all game events implement
type Event interface {
	EventName() string
}

// Topic returns the broadcast topic for a game
func Topic(gameID string) string {
	return "game:" + gameID
}

// GameStarted is published when a game leaves the waiting room
type GameStarted struct {
	GameID string `json:"game_id"`
}

func (GameStarted) EventName() string { return "game_started" }

// PlayerJoined is published for each player seated while waiting
type PlayerJoined struct {
	GameID string      `json:"game_id"`
	Player game.Player `json:"player"`
}

func (PlayerJoined) EventName() string { return "player_joined" }

// CardsPlayed is published after a successful play
type CardsPlayed struct {
	GameID   string      `json:"game_id"`
	PlayerID string      `json:"player_id"`
	Cards    cards.Cards `json:"cards"`
}

func (CardsPlayed) EventName() string { return "cards_played" }

// CardsDrawn is published after a successful draw
type CardsDrawn struct {
	GameID   string          `json:"game_id"`
	PlayerID string          `json:"player_id"`
	Reason   game.DrawReason `json:"reason"`
	Count    int             `json:"count"`
}

func (CardsDrawn) EventName() string { return "cards_drawn" }

// AIPlayed is published when an AI turn was executed
type AIPlayed struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

func (AIPlayed) EventName() string { return "ai_played" }

// PlayerStatusChanged is published by the connection monitor
type PlayerStatusChanged struct {
	GameID     string                `json:"game_id"`
	PlayerID   string                `json:"player_id"`
	Connection game.ConnectionStatus `json:"connection"`
}

func (PlayerStatusChanged) EventName() string { return "player_status" }

// GameOver is published once with the final finishing order
type GameOver struct {
	GameID  string   `json:"game_id"`
	Winners []string `json:"winners"`
}

func (GameOver) EventName() string { return "game_over" }

// GameCorrupted is published when the integrity tripwire fires
type GameCorrupted struct {
	GameID string `json:"game_id"`
}

func (GameCorrupted) EventName() string { return "game_corrupted" }
