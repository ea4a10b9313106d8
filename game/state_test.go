package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachel-multiverse/rachel-web-sub001/cards"
)

// playing builds a mid-game state with the given hands, player ids "p0",
// "p1", ... and the given top card. The deck gets a generous supply of kings
// so draws always succeed; the expected total is derived from what is dealt.
func playing(top string, hands ...cards.Cards) State {
	s := New("g-test", 1)
	total := 1
	for i, h := range hands {
		s.Players = append(s.Players, Player{
			ID:         fmt.Sprintf("p%d", i),
			Name:       fmt.Sprintf("Player %d", i),
			Kind:       KindHuman,
			Hand:       h.Clone(),
			Status:     PlayerPlaying,
			Connection: Connected,
		})
		total += len(h)
	}
	s.Status = StatusPlaying
	s.DiscardPile = hand(top)
	for i := 0; i < 10; i++ {
		s.Deck = append(s.Deck, c("KC"))
	}
	s.ExpectedTotalCards = total + len(s.Deck)
	return s
}

func rng() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestAddPlayerRules(t *testing.T) {
	s := New("g", 1)

	for i := 0; i < MaxPlayers; i++ {
		var err error
		s, err = s.AddPlayer(Player{ID: fmt.Sprintf("p%d", i), Name: "x"})
		require.NoError(t, err)
	}

	_, err := s.AddPlayer(Player{ID: "extra"})
	require.Error(t, err)
	assert.Equal(t, ErrCannotJoin, CodeOf(err))

	s.Status = StatusPlaying
	_, err = s.AddPlayer(Player{ID: "late"})
	assert.Equal(t, ErrCannotJoin, CodeOf(err))
}

func TestRemovePlayerOnlyWhileWaiting(t *testing.T) {
	s := New("g", 1)
	s, _ = s.AddPlayer(Player{ID: "a"})
	s, _ = s.AddPlayer(Player{ID: "b"})

	s, err := s.RemovePlayer("a")
	require.NoError(t, err)
	assert.Equal(t, -1, s.PlayerIndex("a"))

	_, err = s.RemovePlayer("missing")
	assert.Equal(t, ErrPlayerNotFound, CodeOf(err))

	s.Status = StatusPlaying
	_, err = s.RemovePlayer("b")
	assert.Equal(t, ErrInvalidStatus, CodeOf(err))
}

func TestStartDeals(t *testing.T) {
	for players, perPlayer := range map[int]int{2: 7, 5: 7, 6: 6, 8: 5} {
		s := New("g", 1)
		for i := 0; i < players; i++ {
			s, _ = s.AddPlayer(Player{ID: fmt.Sprintf("p%d", i)})
		}

		started, err := s.Start(rng())
		require.NoError(t, err)

		assert.Equal(t, StatusPlaying, started.Status)
		assert.Len(t, started.DiscardPile, 1)
		for _, p := range started.Players {
			assert.Len(t, p.Hand, perPlayer)
		}
		assert.Len(t, started.Deck, 52-players*perPlayer-1)
		assert.NoError(t, ValidateCardCount(started.Players, started.Deck, started.DiscardPile, 52))
		assert.Less(t, started.CurrentPlayerIndex, players)
	}
}

func TestStartRequiresEnoughPlayers(t *testing.T) {
	s := New("g", 1)
	s, _ = s.AddPlayer(Player{ID: "only"})

	_, err := s.Start(rng())
	assert.Equal(t, ErrCannotJoin, CodeOf(err))

	s.Status = StatusPlaying
	_, err = s.Start(rng())
	assert.Equal(t, ErrInvalidStatus, CodeOf(err))
}

func TestStartMultiDeck(t *testing.T) {
	s := New("g", 2)
	for i := 0; i < 4; i++ {
		s, _ = s.AddPlayer(Player{ID: fmt.Sprintf("p%d", i)})
	}

	started, err := s.Start(rng())
	require.NoError(t, err)
	assert.Equal(t, 104, started.ExpectedTotalCards)
	assert.NoError(t, ValidateCardCount(started.Players, started.Deck, started.DiscardPile, 104))
}

func TestPlaySimpleAdvancesTurn(t *testing.T) {
	s := playing("6C", hand("6H", "9D"), hand("4S"))
	s.CurrentPlayerIndex = 0

	next, err := s.Play("p0", hand("6H"), "")
	require.NoError(t, err)

	assert.Equal(t, c("6H"), next.TopCard())
	assert.Equal(t, 1, next.CurrentPlayerIndex)
	assert.Equal(t, 1, next.TurnCount)
	assert.Equal(t, 1, next.Players[0].TurnsTaken)
	assert.Equal(t, hand("9D"), next.Players[0].Hand)
}

func TestPlayDoesNotMutateReceiver(t *testing.T) {
	s := playing("6C", hand("6H", "9D"), hand("4S"))
	s.CurrentPlayerIndex = 0

	_, err := s.Play("p0", hand("6H"), "")
	require.NoError(t, err)

	assert.Equal(t, hand("6H", "9D"), s.Players[0].Hand)
	assert.Equal(t, c("6C"), s.TopCard())
	assert.Equal(t, 0, s.TurnCount)
}

func TestPlayNominationConsumedByNextPlay(t *testing.T) {
	s := playing("6C", hand("AC", "5D"), hand("9H", "4H"))
	s.CurrentPlayerIndex = 0

	next, err := s.Play("p0", hand("AC"), cards.Hearts)
	require.NoError(t, err)
	assert.Equal(t, cards.Hearts, next.NominatedSuit)

	after, err := next.Play("p1", hand("9H"), "")
	require.NoError(t, err)
	assert.Equal(t, cards.Suit(""), after.NominatedSuit)
}

func TestPlayQueenReverses(t *testing.T) {
	s := playing("QC", hand("QH", "5D"), hand("4S"), hand("8D"))
	s.CurrentPlayerIndex = 0

	next, err := s.Play("p0", hand("QH"), "")
	require.NoError(t, err)
	assert.Equal(t, CounterClockwise, next.Direction)
	assert.Equal(t, 2, next.CurrentPlayerIndex, "reversal applies to this advance")
}

func TestPlayQueenPairKeepsDirection(t *testing.T) {
	s := playing("QC", hand("QH", "QD", "5D"), hand("4S"), hand("8D"))
	s.CurrentPlayerIndex = 0

	next, err := s.Play("p0", hand("QH", "QD"), "")
	require.NoError(t, err)
	assert.Equal(t, Clockwise, next.Direction)
	assert.Equal(t, 1, next.CurrentPlayerIndex)
}

func TestDrawUnderAttackResolvesAndHoldsTurn(t *testing.T) {
	s := playing("2C", hand("9D", "4S"), hand("8D"))
	s.CurrentPlayerIndex = 0
	s.PendingAttack = &Attack{Kind: AttackTwos, Count: 4}

	next, err := s.Draw("p0", DrawAttack, rng())
	require.NoError(t, err)

	assert.Nil(t, next.PendingAttack)
	assert.Equal(t, 0, next.CurrentPlayerIndex, "turn stays with the drawer")
	assert.Len(t, next.Players[0].Hand, 6)
	assert.Equal(t, 0, next.TurnCount, "penalty draws are not turns")
}

func TestDrawMandatoryPlayRule(t *testing.T) {
	s := playing("6C", hand("6H", "9D"), hand("4S"))
	s.CurrentPlayerIndex = 0

	_, err := s.Draw("p0", DrawCannotPlay, rng())
	require.Error(t, err)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ErrMustPlay, ge.Code)
	assert.Equal(t, hand("6H"), ge.Playable)
}

func TestDrawVoluntaryAllowedDespitePlayable(t *testing.T) {
	s := playing("6C", hand("6H", "9D"), hand("4S"))
	s.CurrentPlayerIndex = 0

	next, err := s.Draw("p0", DrawVoluntary, rng())
	require.NoError(t, err)
	assert.Len(t, next.Players[0].Hand, 3)
	assert.Equal(t, 1, next.CurrentPlayerIndex)
	assert.Equal(t, 1, next.TurnCount)
}

func TestDrawWhenStuckAdvances(t *testing.T) {
	s := playing("6C", hand("9D"), hand("4S"))
	s.CurrentPlayerIndex = 0

	next, err := s.Draw("p0", DrawCannotPlay, rng())
	require.NoError(t, err)
	assert.Len(t, next.Players[0].Hand, 2)
	assert.Equal(t, 1, next.CurrentPlayerIndex)
}

func TestDrawWithExhaustedSupplyStillAdvances(t *testing.T) {
	s := playing("6C", hand("9D"), hand("4S"))
	s.CurrentPlayerIndex = 0
	s.ExpectedTotalCards -= len(s.Deck)
	s.Deck = nil

	// Empty deck and a lone discard leave nothing to draw; the turn passes
	// anyway so a stuck player cannot wedge the game
	next, err := s.Draw("p0", DrawCannotPlay, rng())
	require.NoError(t, err)

	assert.Len(t, next.Players[0].Hand, 1, "no card to take")
	assert.Len(t, next.DiscardPile, 1, "the top card stays put")
	assert.Equal(t, 1, next.CurrentPlayerIndex)
	assert.Equal(t, 1, next.TurnCount)
	assert.Equal(t, 1, next.Players[0].TurnsTaken)
}

func TestWinnerRecordedAndSkipped(t *testing.T) {
	s := playing("6C", hand("6H"), hand("4S", "9D"), hand("8D", "2S"))
	s.CurrentPlayerIndex = 0

	next, err := s.Play("p0", hand("6H"), "")
	require.NoError(t, err)

	assert.Equal(t, PlayerWon, next.Players[0].Status)
	assert.Equal(t, []string{"p0"}, next.Winners)
	assert.Equal(t, StatusPlaying, next.Status, "two players still in")
	assert.Equal(t, 1, next.CurrentPlayerIndex)
}

func TestLastOpponentEndsGame(t *testing.T) {
	s := playing("6C", hand("6H"), hand("4S", "9D"))
	s.CurrentPlayerIndex = 0

	next, err := s.Play("p0", hand("6H"), "")
	require.NoError(t, err)

	assert.Equal(t, StatusFinished, next.Status)
	assert.Equal(t, []string{"p0"}, next.Winners)
}

func TestPlayAfterWinningRejected(t *testing.T) {
	s := playing("6C", hand("6H", "9D"), hand("4S"), hand("8D"))
	s.Players[1].Status = PlayerWon
	s.CurrentPlayerIndex = 1

	_, err := s.Play("p1", hand("4S"), "")
	assert.Equal(t, ErrPlayerWon, CodeOf(err))
}

func TestAttackStacksSameKind(t *testing.T) {
	s := playing("2C", hand("2H", "9D"), hand("8D", "4S"))
	s.CurrentPlayerIndex = 0
	s.PendingAttack = &Attack{Kind: AttackTwos, Count: 2}

	next, err := s.Play("p0", hand("2H"), "")
	require.NoError(t, err)
	require.NotNil(t, next.PendingAttack)
	assert.Equal(t, 4, next.PendingAttack.Count)
	assert.Equal(t, 0, next.PendingSkips)
}

func TestSevenClearsAttackExclusivity(t *testing.T) {
	s := playing("7C", hand("7H", "9D"), hand("8D"))
	s.CurrentPlayerIndex = 0

	next, err := s.Play("p0", hand("7H"), "")
	require.NoError(t, err)
	assert.Nil(t, next.PendingAttack)
	assert.Equal(t, 1, next.PendingSkips)
	assert.Equal(t, 1, next.CurrentPlayerIndex, "a seven advances one seat, skips intact")
}

func TestCloneIsDeep(t *testing.T) {
	s := playing("6C", hand("6H", "9D"), hand("4S"))
	s.PendingAttack = &Attack{Kind: AttackTwos, Count: 2}
	s.Winners = []string{"p9"}

	clone := s.Clone()
	clone.Players[0].Hand[0] = c("AS")
	clone.Deck[0] = c("AS")
	clone.DiscardPile[0] = c("AS")
	clone.PendingAttack.Count = 99
	clone.Winners[0] = "other"

	assert.Equal(t, c("6H"), s.Players[0].Hand[0])
	assert.Equal(t, c("KC"), s.Deck[0])
	assert.Equal(t, c("6C"), s.DiscardPile[0])
	assert.Equal(t, 2, s.PendingAttack.Count)
	assert.Equal(t, []string{"p9"}, s.Winners)
}
