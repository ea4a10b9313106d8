package game

import (
	"github.com/rachel-multiverse/rachel-web-sub001/cards"
)

// ValidatePlay runs the legality checks for a play in order, returning the
// first failure as a *Error
func (s State) ValidatePlay(playerID string, played cards.Cards) error {
	if s.Status != StatusPlaying {
		return &Error{Code: ErrInvalidStatus, Status: s.Status, Expected: StatusPlaying}
	}

	idx := s.PlayerIndex(playerID)
	if idx < 0 {
		return &Error{Code: ErrPlayerNotFound}
	}

	if idx != s.CurrentPlayerIndex {
		current := s.CurrentPlayer()
		return &Error{
			Code:              ErrNotYourTurn,
			CurrentPlayerID:   current.ID,
			CurrentPlayerName: current.Name,
		}
	}

	player := s.Players[idx]
	if player.Status != PlayerPlaying {
		return &Error{Code: ErrPlayerWon}
	}

	if err := checkCardsAgainstHand(played, player.Hand); err != nil {
		return err
	}

	if !ValidStack(played) {
		return &Error{Code: ErrInvalidStack, Cards: played}
	}

	first := played[0]
	switch {
	case s.PendingSkips > 0:
		if !CanCounterSkip(first) {
			return &Error{Code: ErrInvalidCounter, CounterKind: "skips", Cards: played}
		}
	case s.PendingAttack != nil:
		if !CanCounterAttack(first, s.PendingAttack.Kind) {
			return &Error{Code: ErrInvalidCounter, CounterKind: s.PendingAttack.Kind, Cards: played}
		}
	default:
		if !CanPlay(first, s.TopCard(), s.NominatedSuit) {
			return &Error{
				Code:          ErrInvalidPlay,
				Card:          first,
				Top:           s.TopCard(),
				NominatedSuit: s.NominatedSuit,
			}
		}
	}

	return nil
}

// checkCardsAgainstHand enforces the submultiset rule: every played card must
// be in the hand, and no card may be requested more times than the hand holds
func checkCardsAgainstHand(played, hand cards.Cards) error {
	if len(played) == 0 {
		return &Error{Code: ErrInvalidStack, Cards: played}
	}

	var missing cards.Cards
	duplicated := false
	seen := map[cards.Card]bool{}

	for _, c := range played {
		if seen[c] {
			continue
		}
		seen[c] = true

		inHand := hand.Count(c)
		switch {
		case inHand == 0:
			missing = append(missing, c)
		case played.Count(c) > inHand:
			duplicated = true
		}
	}

	if len(missing) > 0 {
		return &Error{Code: ErrCardsNotInHand, Missing: missing}
	}
	if duplicated {
		return &Error{Code: ErrDuplicateCards, Cards: played}
	}
	return nil
}

// ValidateDraw checks that the player exists, it is their turn, and they are
// still in the game
func (s State) ValidateDraw(playerID string) error {
	if s.Status != StatusPlaying {
		return &Error{Code: ErrInvalidStatus, Status: s.Status, Expected: StatusPlaying}
	}

	idx := s.PlayerIndex(playerID)
	if idx < 0 {
		return &Error{Code: ErrPlayerNotFound}
	}

	if idx != s.CurrentPlayerIndex {
		current := s.CurrentPlayer()
		return &Error{
			Code:              ErrNotYourTurn,
			CurrentPlayerID:   current.ID,
			CurrentPlayerName: current.Name,
		}
	}

	if s.Players[idx].Status != PlayerPlaying {
		return &Error{Code: ErrPlayerWon}
	}

	return nil
}
