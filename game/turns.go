package game

// checkWinner marks players[i] as won when their hand is empty and records
// the finishing order
func checkWinner(s *State, i int) {
	if len(s.Players[i].Hand) != 0 || s.Players[i].Status != PlayerPlaying {
		return
	}
	s.Players[i].Status = PlayerWon
	s.Winners = append(s.Winners, s.Players[i].ID)
}

// advanceTurn moves the turn cursor. When consumeSkips is set, the pending
// skip count widens the step and is then reset. Seats that already won are
// stepped past, bounded by the table size.
func advanceTurn(s *State, consumeSkips bool) {
	n := len(s.Players)
	if n == 0 {
		return
	}

	skip := 0
	if consumeSkips {
		skip = s.PendingSkips
	}

	next := NextIndex(s.CurrentPlayerIndex, n, s.Direction, skip)
	for attempts := 0; attempts < n && s.Players[next].Status != PlayerPlaying; attempts++ {
		next = NextIndex(next, n, s.Direction, 0)
	}
	s.CurrentPlayerIndex = next

	if consumeSkips {
		s.PendingSkips = 0
	}
}

// shouldEnd reports whether at most one player is still in the game
func shouldEnd(s State) bool {
	return s.PlayingCount() <= 1
}
