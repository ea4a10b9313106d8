package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachel-multiverse/rachel-web-sub001/cards"
)

func TestChooseActionDrawsWhenStuck(t *testing.T) {
	s := playing("6C", hand("9H", "4S"), hand("8D"))
	s.CurrentPlayerIndex = 0

	action := ChooseAction(s, "p0", DifficultyMedium, rng())
	assert.Equal(t, ActionDraw, action.Type)
	assert.Equal(t, DrawCannotPlay, action.Reason)
}

func TestChooseActionDrawsUnderAttack(t *testing.T) {
	s := playing("2C", hand("9H", "4S"), hand("8D"))
	s.CurrentPlayerIndex = 0
	s.PendingAttack = &Attack{Kind: AttackTwos, Count: 2}

	action := ChooseAction(s, "p0", DifficultyMedium, rng())
	assert.Equal(t, ActionDraw, action.Type)
	assert.Equal(t, DrawAttack, action.Reason)
}

func TestChooseActionNominatesOnAce(t *testing.T) {
	s := playing("6C", hand("AC", "9H", "4H"), hand("8D"))
	s.CurrentPlayerIndex = 0

	action := ChooseAction(s, "p0", DifficultyEasy, rng())
	require.Equal(t, ActionPlay, action.Type)
	require.Equal(t, hand("AC"), action.Cards)
	assert.Equal(t, cards.Hearts, action.NominatedSuit, "most held suit after the play")
}

func TestChooseActionShedsWholeRank(t *testing.T) {
	s := playing("6C", hand("6H", "6S", "9D"), hand("8D"))
	s.CurrentPlayerIndex = 0

	action := ChooseAction(s, "p0", DifficultyMedium, rng())
	require.Equal(t, ActionPlay, action.Type)
	assert.Len(t, action.Cards, 2)
	assert.NoError(t, s.ValidatePlay("p0", action.Cards))
}

func TestChooseActionKeepsJackColoursApart(t *testing.T) {
	s := playing("5S", hand("JH", "JS", "9D"), hand("8D"))
	s.CurrentPlayerIndex = 0
	s.PendingAttack = &Attack{Kind: AttackBlackJack, Count: 5}

	for _, d := range []Difficulty{DifficultyMedium, DifficultyHard} {
		action := ChooseAction(s, "p0", d, rng())
		require.Equal(t, ActionPlay, action.Type, "difficulty %s", d)
		require.Len(t, action.Cards, 1)
		assert.NoError(t, s.ValidatePlay("p0", action.Cards))
	}
}

func TestHardPrefersOffense(t *testing.T) {
	s := playing("6C", hand("6H", "2C", "AC"), hand("8D"))
	s.CurrentPlayerIndex = 0

	action := ChooseAction(s, "p0", DifficultyHard, rng())
	require.Equal(t, ActionPlay, action.Type)
	assert.Equal(t, cards.Two, action.Cards[0].Rank)
}

func TestMediumHoldsAces(t *testing.T) {
	s := playing("6C", hand("AC", "6H"), hand("8D"))
	s.CurrentPlayerIndex = 0

	action := ChooseAction(s, "p0", DifficultyMedium, rng())
	require.Equal(t, ActionPlay, action.Type)
	assert.Equal(t, c("6H"), action.Cards[0])
}

// TestChooseActionAlwaysLegal drives randomized games forward using only the
// chooser and checks every proposed move validates against the same state.
func TestChooseActionAlwaysLegal(t *testing.T) {
	difficulties := []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

	for seed := int64(0); seed < 30; seed++ {
		r := rand.New(rand.NewSource(seed))

		s := New(fmt.Sprintf("g%d", seed), 1)
		players := 2 + r.Intn(3)
		for i := 0; i < players; i++ {
			var err error
			s, err = s.AddPlayer(Player{ID: fmt.Sprintf("p%d", i), Kind: KindAI})
			require.NoError(t, err)
		}
		s, err := s.Start(r)
		require.NoError(t, err)

		for turn := 0; turn < 200 && s.Status == StatusPlaying; turn++ {
			current := s.CurrentPlayer()
			difficulty := difficulties[r.Intn(len(difficulties))]
			action := ChooseAction(s, current.ID, difficulty, r)

			switch action.Type {
			case ActionPlay:
				require.NoError(t, s.ValidatePlay(current.ID, action.Cards),
					"seed=%d turn=%d cards=%v", seed, turn, action.Cards.Strings())
				s, err = s.Play(current.ID, action.Cards, action.NominatedSuit)
			case ActionDraw:
				s, err = s.Draw(current.ID, action.Reason, r)
			}
			require.NoError(t, err, "seed=%d turn=%d", seed, turn)
			require.NoError(t, ValidateCardCount(s.Players, s.Deck, s.DiscardPile, s.ExpectedTotalCards))
		}
	}
}
