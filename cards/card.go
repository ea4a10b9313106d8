package cards

import "fmt"

// Suit represents a card suit
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists the four suits in a fixed order
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Symbol returns the one-rune suit symbol
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	}
	return "?"
}

// Valid reports whether the suit is one of the four known suits
func (s Suit) Valid() bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}

// Rank represents a card rank; 11=J, 12=Q, 13=K, 14=A
type Rank int

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// String returns the short rank label, e.g. "J" or "10"
func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// Card represents a playing card
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// String returns the string representation of a card, e.g. "J♥"
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit.Symbol())
}

// Equals checks if two cards are equal
func (c Card) Equals(other Card) bool {
	return c.Suit == other.Suit && c.Rank == other.Rank
}

// IsBlackJack reports whether the card is a jack of clubs or spades
func (c Card) IsBlackJack() bool {
	return c.Rank == Jack && (c.Suit == Clubs || c.Suit == Spades)
}

// IsRedJack reports whether the card is a jack of hearts or diamonds
func (c Card) IsRedJack() bool {
	return c.Rank == Jack && (c.Suit == Hearts || c.Suit == Diamonds)
}

// FromString creates a card from a shorthand like "10S", "JH" or "2d".
// The rank comes first, the suit letter last.
func FromString(s string) (Card, error) {
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card shorthand: %q", s)
	}

	var suit Suit
	switch s[len(s)-1:] {
	case "h", "H":
		suit = Hearts
	case "d", "D":
		suit = Diamonds
	case "c", "C":
		suit = Clubs
	case "s", "S":
		suit = Spades
	default:
		return Card{}, fmt.Errorf("invalid card suit: %s", s[len(s)-1:])
	}

	var rank Rank
	switch s[:len(s)-1] {
	case "A":
		rank = Ace
	case "K":
		rank = King
	case "Q":
		rank = Queen
	case "J":
		rank = Jack
	case "10":
		rank = Ten
	case "9":
		rank = Nine
	case "8":
		rank = Eight
	case "7":
		rank = Seven
	case "6":
		rank = Six
	case "5":
		rank = Five
	case "4":
		rank = Four
	case "3":
		rank = Three
	case "2":
		rank = Two
	default:
		return Card{}, fmt.Errorf("invalid card rank: %s", s[:len(s)-1])
	}

	return Card{Suit: suit, Rank: rank}, nil
}

// MustFromString is FromString that panics on bad input; intended for tests
func MustFromString(s string) Card {
	c, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Cards is an ordered sequence of cards
type Cards []Card

// Strings renders every card as its shorthand
func (cs Cards) Strings() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

// Contains reports whether the sequence holds at least one equal card
func (cs Cards) Contains(card Card) bool {
	for _, c := range cs {
		if c.Equals(card) {
			return true
		}
	}
	return false
}

// Count returns how many copies of card the sequence holds
func (cs Cards) Count(card Card) int {
	n := 0
	for _, c := range cs {
		if c.Equals(card) {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the sequence
func (cs Cards) Clone() Cards {
	if cs == nil {
		return nil
	}
	out := make(Cards, len(cs))
	copy(out, cs)
	return out
}
