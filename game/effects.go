package game

import (
	"github.com/rachel-multiverse/rachel-web-sub001/cards"
)

// applyEffects folds the consequences of a legal play into the state.
// Red-jack cancellation of a black-jack attack takes priority over everything
// else; any non-red-jack cards in such a play are ignored for this step.
func applyEffects(s *State, played cards.Cards, nominated cards.Suit) {
	if s.PendingAttack != nil && s.PendingAttack.Kind == AttackBlackJack {
		redJacks := 0
		for _, c := range played {
			if c.IsRedJack() {
				redJacks++
			}
		}
		if redJacks > 0 {
			s.PendingAttack = ReduceAttack(s.PendingAttack, redJacks)
			return
		}
	}

	effects := CalculateEffects(played)

	if effects.Attack != nil {
		if s.PendingAttack != nil && s.PendingAttack.Kind == effects.Attack.Kind {
			s.PendingAttack.Count += effects.Attack.Count
		} else {
			// A new attack of a different kind replaces the old one
			s.PendingAttack = effects.Attack
		}
		// Attack exclusivity
		s.PendingSkips = 0
	}

	if effects.SkipCount > 0 {
		s.PendingSkips += effects.SkipCount
		s.PendingAttack = nil
	}

	if effects.Reverse {
		s.Direction = s.Direction.Flip()
	}

	if effects.NominateSuit {
		if !nominated.Valid() {
			// Callers should always supply a suit with aces; fall back to
			// the suit of the ace itself so the transition stays total
			nominated = played[0].Suit
		}
		s.NominatedSuit = nominated
	}
}
