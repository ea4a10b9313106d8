package game

import (
	"fmt"
	"strings"

	"github.com/rachel-multiverse/rachel-web-sub001/cards"
)

// ErrorCode tags every game error with a stable kind
type ErrorCode string

const (
	// Invalid request
	ErrPlayerNotFound ErrorCode = "player_not_found"
	ErrNotYourTurn    ErrorCode = "not_your_turn"
	ErrPlayerWon      ErrorCode = "player_already_won"
	ErrCardsNotInHand ErrorCode = "cards_not_in_hand"
	ErrInvalidStack   ErrorCode = "invalid_stack"
	ErrInvalidPlay    ErrorCode = "invalid_play"
	ErrInvalidCounter ErrorCode = "invalid_counter"
	ErrDuplicateCards ErrorCode = "duplicate_cards_in_play"

	// Rule constraints
	ErrMustPlay ErrorCode = "must_play"
	ErrMustDraw ErrorCode = "must_draw"

	// Lifecycle
	ErrGameNotFound  ErrorCode = "game_not_found"
	ErrCannotJoin    ErrorCode = "cannot_join"
	ErrInvalidStatus ErrorCode = "invalid_status"

	// Integrity
	ErrInvalidState    ErrorCode = "invalid_state"
	ErrOperationFailed ErrorCode = "operation_failed"
	ErrCorrupted       ErrorCode = "corrupted"
)

// Error is the structured game error. Code is always set; the detail fields
// are populated per code so callers can build a message without reparsing.
type Error struct {
	Code ErrorCode

	// not_your_turn
	CurrentPlayerID   string
	CurrentPlayerName string

	// cards_not_in_hand / invalid_stack / invalid_counter / duplicate_cards_in_play
	Cards   cards.Cards
	Missing cards.Cards

	// invalid_play
	Card          cards.Card
	Top           cards.Card
	NominatedSuit cards.Suit

	// invalid_counter
	CounterKind AttackKind

	// must_play
	Playable cards.Cards

	// must_draw
	PendingAttack *Attack

	// cannot_join
	Reason string

	// invalid_status
	Status   Status
	Expected Status

	// operation_failed / invalid_state
	Detail string
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrPlayerNotFound:
		return "player not found"
	case ErrNotYourTurn:
		return fmt.Sprintf("not your turn (current player: %s)", e.CurrentPlayerName)
	case ErrPlayerWon:
		return "player has already won"
	case ErrCardsNotInHand:
		return fmt.Sprintf("cards not in hand: %s", strings.Join(e.Missing.Strings(), ", "))
	case ErrInvalidStack:
		return fmt.Sprintf("cards must all share a rank: %s", strings.Join(e.Cards.Strings(), ", "))
	case ErrInvalidPlay:
		if e.NominatedSuit != "" {
			return fmt.Sprintf("cannot play %s on %s (nominated suit: %s)", e.Card, e.Top, e.NominatedSuit)
		}
		return fmt.Sprintf("cannot play %s on %s", e.Card, e.Top)
	case ErrInvalidCounter:
		return fmt.Sprintf("cards do not counter the pending %s", e.CounterKind)
	case ErrDuplicateCards:
		return "play requests more copies of a card than the hand holds"
	case ErrMustPlay:
		return fmt.Sprintf("a legal play exists, drawing is not allowed (playable: %s)",
			strings.Join(e.Playable.Strings(), ", "))
	case ErrMustDraw:
		return fmt.Sprintf("must draw %d cards for the pending %s attack", e.PendingAttack.Count, e.PendingAttack.Kind)
	case ErrGameNotFound:
		return "game not found"
	case ErrCannotJoin:
		return fmt.Sprintf("cannot join game: %s", e.Reason)
	case ErrInvalidStatus:
		return fmt.Sprintf("game is %s, expected %s", e.Status, e.Expected)
	case ErrInvalidState:
		return fmt.Sprintf("card count invariant violated: %s", e.Detail)
	case ErrOperationFailed:
		return fmt.Sprintf("operation failed: %s", e.Detail)
	case ErrCorrupted:
		return "game is corrupted and no longer accepts moves"
	}
	return string(e.Code)
}

// CodeOf extracts the error code from any error, or "" if it is not a game error
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if ge, ok := err.(*Error); ok {
		return ge.Code
	}
	return ""
}
