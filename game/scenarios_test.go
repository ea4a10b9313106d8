package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachel-multiverse/rachel-web-sub001/cards"
)

func conserve(t *testing.T, s State) {
	t.Helper()
	require.NoError(t, ValidateCardCount(s.Players, s.Deck, s.DiscardPile, s.ExpectedTotalCards))
}

func TestTwoPlayerAttackStack(t *testing.T) {
	s := playing("3H", hand("2H", "2D", "KC"), hand("2S", "5D", "9C"))
	s.CurrentPlayerIndex = 0

	s, err := s.Play("p0", hand("2H"), "")
	require.NoError(t, err)
	require.NotNil(t, s.PendingAttack)
	assert.Equal(t, Attack{Kind: AttackTwos, Count: 2}, *s.PendingAttack)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	conserve(t, s)

	s, err = s.Play("p1", hand("2S"), "")
	require.NoError(t, err)
	assert.Equal(t, 4, s.PendingAttack.Count)
	assert.Equal(t, 0, s.CurrentPlayerIndex)
	conserve(t, s)

	s, err = s.Play("p0", hand("2D"), "")
	require.NoError(t, err)
	assert.Equal(t, 6, s.PendingAttack.Count)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	conserve(t, s)

	s, err = s.Draw("p1", DrawAttack, rng())
	require.NoError(t, err)
	assert.Nil(t, s.PendingAttack)
	assert.Len(t, s.Players[1].Hand, 8, "two in hand plus six drawn")
	assert.Equal(t, 1, s.CurrentPlayerIndex, "turn stays after taking the penalty")
	conserve(t, s)
}

func TestRedJackCancellation(t *testing.T) {
	s := playing("5S", hand("JH", "3D"), hand("9C"))
	s.CurrentPlayerIndex = 0
	s.PendingAttack = &Attack{Kind: AttackBlackJack, Count: 10}

	next, err := s.Play("p0", hand("JH"), "")
	require.NoError(t, err)
	require.NotNil(t, next.PendingAttack)
	assert.Equal(t, Attack{Kind: AttackBlackJack, Count: 5}, *next.PendingAttack)
	assert.Equal(t, 1, next.CurrentPlayerIndex)
}

func TestRedJackPairClearsAttack(t *testing.T) {
	s := playing("5S", hand("JH", "JD"), hand("9C", "3D"))
	s.CurrentPlayerIndex = 0
	s.PendingAttack = &Attack{Kind: AttackBlackJack, Count: 10}

	next, err := s.Play("p0", hand("JH", "JD"), "")
	require.NoError(t, err)
	assert.Nil(t, next.PendingAttack)
}

func TestAceSuitNomination(t *testing.T) {
	s := playing("6C", hand("AD", "2D", "2H"), hand("2H", "4C"))
	s.CurrentPlayerIndex = 0

	s, err := s.Play("p0", hand("AD"), cards.Hearts)
	require.NoError(t, err)
	assert.Equal(t, c("AD"), s.TopCard())
	assert.Equal(t, cards.Hearts, s.NominatedSuit)
	assert.Equal(t, 1, s.CurrentPlayerIndex)

	err = s.ValidatePlay("p1", hand("4C"))
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ErrInvalidPlay, ge.Code)
	assert.Equal(t, c("4C"), ge.Card)
	assert.Equal(t, c("AD"), ge.Top)
	assert.Equal(t, cards.Hearts, ge.NominatedSuit)

	s, err = s.Play("p1", hand("2H"), "")
	require.NoError(t, err)
	assert.Equal(t, cards.Suit(""), s.NominatedSuit, "nomination consumed")
	require.NotNil(t, s.PendingAttack)
	assert.Equal(t, Attack{Kind: AttackTwos, Count: 2}, *s.PendingAttack)
}

func TestSkipChain(t *testing.T) {
	s := playing("9C", hand("7C", "KD"), hand("7D", "KH"), hand("4S", "8D"))
	s.CurrentPlayerIndex = 0

	s, err := s.Play("p0", hand("7C"), "")
	require.NoError(t, err)
	assert.Equal(t, 1, s.PendingSkips)
	assert.Equal(t, 1, s.CurrentPlayerIndex)

	s, err = s.Play("p1", hand("7D"), "")
	require.NoError(t, err)
	assert.Equal(t, 2, s.PendingSkips)
	assert.Equal(t, 2, s.CurrentPlayerIndex)

	// p2 holds no seven, so the only move is a draw; the pending skips are
	// consumed by the advance that follows it
	s, err = s.Draw("p2", DrawCannotPlay, rng())
	require.NoError(t, err)
	assert.Equal(t, 0, s.PendingSkips)
	assert.Equal(t, 2, s.CurrentPlayerIndex, "three seats ahead of p2 wraps back to p2")
}

func TestWinnerRemovalMidGame(t *testing.T) {
	s := playing("6C", hand("6H"), hand("4S", "9D"), hand("8D", "2S"), hand("KH", "3C"))
	s.CurrentPlayerIndex = 0

	s, err := s.Play("p0", hand("6H"), "")
	require.NoError(t, err)
	assert.Equal(t, PlayerWon, s.Players[0].Status)
	assert.Equal(t, []string{"p0"}, s.Winners)
	assert.Equal(t, StatusPlaying, s.Status)
	assert.Equal(t, 1, s.CurrentPlayerIndex, "advance lands on the next playing seat")

	// With every other seat already finished, the next transition ends the game
	s.Players[1].Status = PlayerWon
	s.Winners = append(s.Winners, "p1")
	s.Players[2].Status = PlayerWon
	s.Winners = append(s.Winners, "p2")
	s.CurrentPlayerIndex = 3

	s, err = s.Draw("p3", DrawVoluntary, rng())
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, s.Status)
}
