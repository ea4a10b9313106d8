package game

import (
	"fmt"
	"math/rand"

	"github.com/rachel-multiverse/rachel-web-sub001/cards"
)

// DrawFromDeck draws up to count cards, reshuffling the discard pile (minus
// its top card) back into the deck when the deck runs dry. It never fails;
// when both piles are exhausted it returns fewer cards than asked.
func DrawFromDeck(deck, discard cards.Cards, count int, rng *rand.Rand) (drawn, newDeck, newDiscard cards.Cards) {
	if count <= 0 {
		return nil, deck, discard
	}

	if len(deck) >= count {
		drawn, newDeck = cards.DealCards(deck, count)
		return drawn, newDeck, discard
	}

	first, rest := cards.DealCards(deck, len(deck))
	needed := count - len(first)

	if len(discard) <= 1 {
		// Nothing left to recycle
		return first, rest, discard
	}

	// Keep the top of the discard pile, shuffle the remainder into a new deck
	top := discard[0]
	recycled := cards.Shuffle(discard[1:].Clone(), rng)

	second, remaining := cards.DealCards(recycled, needed)

	drawn = append(first, second...)
	return drawn, remaining, cards.Cards{top}
}

// AddToHand appends the cards to players[i]'s hand in order
func AddToHand(players []Player, i int, add cards.Cards) []Player {
	players[i].Hand = append(players[i].Hand, add...)
	return players
}

// RemoveFromHand removes each requested card from players[i]'s hand by first
// matching occurrence, preserving duplicates under multi-deck play. It errors
// if any card is not present.
func RemoveFromHand(players []Player, i int, remove cards.Cards) ([]Player, error) {
	hand := players[i].Hand.Clone()

	for _, card := range remove {
		found := -1
		for j, held := range hand {
			if held.Equals(card) {
				found = j
				break
			}
		}
		if found < 0 {
			return players, fmt.Errorf("card %s not in hand", card)
		}
		hand = append(hand[:found], hand[found+1:]...)
	}

	players[i].Hand = hand
	return players, nil
}

// ValidateCardCount checks the card conservation invariant
func ValidateCardCount(players []Player, deck, discard cards.Cards, expected int) error {
	total := len(deck) + len(discard)
	for _, p := range players {
		total += len(p.Hand)
	}
	if total != expected {
		return &Error{
			Code:   ErrInvalidState,
			Detail: fmt.Sprintf("have %d cards, expected %d (delta %d)", total, expected, total-expected),
		}
	}
	return nil
}
