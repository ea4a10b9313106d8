package cards

import "math/rand"

// DeckSize is the number of cards in a single deck
const DeckSize = 52

// NewDeck52 creates a standard deck of 52 cards
func NewDeck52() Cards {
	var deck Cards
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			deck = append(deck, Card{Suit: suit, Rank: rank})
		}
	}
	return deck
}

// NewDecks creates count merged 52-card decks
func NewDecks(count int) Cards {
	if count < 1 {
		count = 1
	}
	var deck Cards
	for i := 0; i < count; i++ {
		deck = append(deck, NewDeck52()...)
	}
	return deck
}

// Shuffle shuffles a deck of cards with the supplied source of randomness
func Shuffle(deck Cards, rng *rand.Rand) Cards {
	shuffled := make(Cards, len(deck))
	copy(shuffled, deck)

	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled
}

// DealCards deals count cards from the front and returns them with the rest
func DealCards(deck Cards, count int) (Cards, Cards) {
	if count > len(deck) {
		count = len(deck)
	}
	if count < 0 {
		count = 0
	}

	dealt := make(Cards, count)
	copy(dealt, deck[:count])

	return dealt, deck[count:]
}
