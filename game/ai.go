package game

import (
	"math/rand"

	"github.com/rachel-multiverse/rachel-web-sub001/cards"
)

// ActionType says whether the AI wants to play or draw
type ActionType string

const (
	ActionPlay ActionType = "play"
	ActionDraw ActionType = "draw"
)

// Action is the AI's chosen move
type Action struct {
	Type          ActionType
	Cards         cards.Cards
	NominatedSuit cards.Suit
	Reason        DrawReason
}

// ChooseAction picks a legal move for the player. It is a pure function of
// the visible state, the difficulty tag and the supplied randomness; the
// returned action always passes validation against the same state.
func ChooseAction(s State, playerID string, difficulty Difficulty, rng *rand.Rand) Action {
	idx := s.PlayerIndex(playerID)
	if idx < 0 {
		return Action{Type: ActionDraw, Reason: DrawCannotPlay}
	}
	hand := s.Players[idx].Hand

	playable := PlayableCards(hand, s.TopCard(), s.NominatedSuit, s.PendingAttack, s.PendingSkips)
	if len(playable) == 0 {
		reason := DrawCannotPlay
		if s.PendingAttack != nil {
			reason = DrawAttack
		}
		return Action{Type: ActionDraw, Reason: reason}
	}

	lead := pickLead(playable, difficulty, rng)
	stack := buildStack(hand, lead, s, difficulty)

	action := Action{Type: ActionPlay, Cards: stack}
	if lead.Rank == cards.Ace {
		action.NominatedSuit = pickSuit(hand, stack, rng)
	}
	return action
}

// pickLead chooses which playable card leads the move
func pickLead(playable cards.Cards, difficulty Difficulty, rng *rand.Rand) cards.Card {
	switch difficulty {
	case DifficultyEasy:
		return playable[rng.Intn(len(playable))]

	case DifficultyHard:
		// Offense first, then anything ordinary, aces last
		for _, c := range playable {
			if c.Rank == cards.Two || c.IsBlackJack() {
				return c
			}
		}
		for _, c := range playable {
			if c.Rank != cards.Ace {
				return c
			}
		}
		return playable[0]

	default:
		// Medium holds its aces when it can
		for _, c := range playable {
			if c.Rank != cards.Ace {
				return c
			}
		}
		return playable[0]
	}
}

// buildStack collects the cards of the lead's rank to play together. Easy
// plays a single card; the others shed every copy they legally can.
func buildStack(hand cards.Cards, lead cards.Card, s State, difficulty Difficulty) cards.Cards {
	if difficulty == DifficultyEasy {
		return cards.Cards{lead}
	}

	counteringBlackJacks := s.PendingAttack != nil && s.PendingAttack.Kind == AttackBlackJack

	stack := cards.Cards{lead}
	leadConsumed := false
	for _, c := range hand {
		if c.Rank != lead.Rank {
			continue
		}
		if c.Equals(lead) && !leadConsumed {
			// This occurrence is the lead itself
			leadConsumed = true
			continue
		}
		// Mixing jack colours while countering a black-jack attack would
		// turn the whole play into a red-jack cancellation
		if counteringBlackJacks && c.IsRedJack() != lead.IsRedJack() {
			continue
		}
		stack = append(stack, c)
	}
	return stack
}

// pickSuit nominates the suit the AI holds the most of after this play
func pickSuit(hand, played cards.Cards, rng *rand.Rand) cards.Suit {
	remaining := hand.Clone()
	for _, c := range played {
		for i, h := range remaining {
			if h.Equals(c) {
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}

	counts := map[cards.Suit]int{}
	for _, c := range remaining {
		counts[c.Suit]++
	}

	best := played[0].Suit
	bestCount := -1
	for _, suit := range cards.Suits {
		if counts[suit] > bestCount {
			best = suit
			bestCount = counts[suit]
		}
	}
	if bestCount <= 0 {
		return played[0].Suit
	}
	return best
}
