package game

import (
	"fmt"

	"github.com/rachel-multiverse/rachel-web-sub001/cards"
)

// AttackKind identifies the family of a pending attack
type AttackKind string

const (
	AttackTwos      AttackKind = "twos"
	AttackBlackJack AttackKind = "black_jacks"
)

// Attack is a pending penalty the next non-countering player must draw
type Attack struct {
	Kind  AttackKind `json:"kind"`
	Count int        `json:"count"`
}

// Effects is the outcome of playing a stack of same-rank cards
type Effects struct {
	Attack       *Attack
	SkipCount    int
	Reverse      bool
	NominateSuit bool
}

// Matches reports whether two cards match by suit or rank
func Matches(a, b cards.Card) bool {
	return a.Suit == b.Suit || a.Rank == b.Rank
}

// CanPlay reports whether card is a legal play on top. When a suit is
// nominated only that suit is legal, except that an ace on an ace is always
// a rank match.
func CanPlay(card, top cards.Card, nominated cards.Suit) bool {
	if nominated != "" {
		if card.Rank == cards.Ace && top.Rank == cards.Ace {
			return true
		}
		return card.Suit == nominated
	}
	return Matches(card, top)
}

// ValidStack reports whether the cards form a playable stack: non-empty and
// all of one rank
func ValidStack(stack cards.Cards) bool {
	if len(stack) == 0 {
		return false
	}
	rank := stack[0].Rank
	for _, c := range stack[1:] {
		if c.Rank != rank {
			return false
		}
	}
	return true
}

// CanCounterAttack reports whether card counters an attack of the given kind
func CanCounterAttack(card cards.Card, kind AttackKind) bool {
	switch kind {
	case AttackTwos:
		return card.Rank == cards.Two
	case AttackBlackJack:
		return card.IsBlackJack() || card.IsRedJack()
	}
	return false
}

// CanCounterSkip reports whether card counters a pending skip
func CanCounterSkip(card cards.Card) bool {
	return card.Rank == cards.Seven
}

// CalculateEffects computes the effects of a valid stack. The nominated suit
// for aces is supplied by the caller at apply time.
func CalculateEffects(stack cards.Cards) Effects {
	if len(stack) == 0 {
		return Effects{}
	}

	switch stack[0].Rank {
	case cards.Two:
		return Effects{Attack: &Attack{Kind: AttackTwos, Count: 2 * len(stack)}}
	case cards.Seven:
		return Effects{SkipCount: len(stack)}
	case cards.Queen:
		return Effects{Reverse: len(stack)%2 == 1}
	case cards.Ace:
		return Effects{NominateSuit: true}
	case cards.Jack:
		for _, c := range stack {
			if !c.IsBlackJack() {
				return Effects{}
			}
		}
		return Effects{Attack: &Attack{Kind: AttackBlackJack, Count: 5 * len(stack)}}
	}
	return Effects{}
}

// ReduceAttack cancels 5 points of a black-jack attack per red jack played.
// It returns nil when the attack is fully cancelled. Attacks of other kinds
// are returned unchanged.
func ReduceAttack(attack *Attack, redJacks int) *Attack {
	if attack == nil || attack.Kind != AttackBlackJack {
		return attack
	}
	remaining := attack.Count - 5*redJacks
	if remaining <= 0 {
		return nil
	}
	return &Attack{Kind: AttackBlackJack, Count: remaining}
}

// HasValidPlay reports whether the hand holds any card that could legally be
// played right now. Used for the mandatory-play rule.
func HasValidPlay(hand cards.Cards, top cards.Card, nominated cards.Suit, attack *Attack, pendingSkips int) bool {
	return len(PlayableCards(hand, top, nominated, attack, pendingSkips)) > 0
}

// PlayableCards returns every card in the hand that could legally lead a play
// right now, honouring pending skips and attacks first.
func PlayableCards(hand cards.Cards, top cards.Card, nominated cards.Suit, attack *Attack, pendingSkips int) cards.Cards {
	var playable cards.Cards
	for _, c := range hand {
		switch {
		case pendingSkips > 0:
			if CanCounterSkip(c) {
				playable = append(playable, c)
			}
		case attack != nil:
			if CanCounterAttack(c, attack.Kind) {
				playable = append(playable, c)
			}
		default:
			if CanPlay(c, top, nominated) {
				playable = append(playable, c)
			}
		}
	}
	return playable
}

// NextIndex steps the turn cursor from current by 1+skipCount seats in the
// given direction, wrapping around the table
func NextIndex(current, numPlayers int, direction Direction, skipCount int) int {
	if numPlayers <= 0 {
		return 0
	}
	step := 1 + skipCount
	if direction == CounterClockwise {
		step = -step
	}
	next := (current + step) % numPlayers
	if next < 0 {
		next += numPlayers
	}
	return next
}

// CardsPerPlayer returns the deal size for the player count
func CardsPerPlayer(numPlayers int) (int, error) {
	switch {
	case numPlayers >= 2 && numPlayers <= 5:
		return 7, nil
	case numPlayers == 6 || numPlayers == 7:
		return 6, nil
	case numPlayers == 8:
		return 5, nil
	}
	return 0, fmt.Errorf("unsupported player count: %d", numPlayers)
}
