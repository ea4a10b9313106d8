package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachel-multiverse/rachel-web-sub001/clock"
	"github.com/rachel-multiverse/rachel-web-sub001/events"
	"github.com/rachel-multiverse/rachel-web-sub001/game"
	"github.com/rachel-multiverse/rachel-web-sub001/store"
)

func testSupervisor(t *testing.T) (*Supervisor, *clock.Fake, *store.MemoryStore) {
	t.Helper()
	fake := clock.NewFake(time.Unix(0, 0))
	st := store.NewMemoryStore()
	sup := NewSupervisor(fake, st, events.NewBroker())
	t.Cleanup(sup.Shutdown)
	return sup, fake, st
}

func TestCreateAndLookup(t *testing.T) {
	sup, _, st := testSupervisor(t)

	e := sup.CreateGame(1)
	require.NotEmpty(t, e.GameID())

	found, err := sup.Lookup(e.GameID())
	require.NoError(t, err)
	assert.Same(t, e, found)

	_, err = sup.Lookup("missing")
	assert.Equal(t, game.ErrGameNotFound, game.CodeOf(err))

	// The first mutation checkpoints the game
	_, err = e.Join(JoinSpec{Name: "Alice"})
	require.NoError(t, err)
	saved, err := st.Load(e.GameID())
	require.NoError(t, err)
	assert.Equal(t, game.StatusWaiting, saved.Status)
}

func TestStopGameDeregisters(t *testing.T) {
	sup, _, _ := testSupervisor(t)

	e := sup.CreateGame(1)
	sup.StopGame(e.GameID())

	_, err := sup.Lookup(e.GameID())
	assert.Equal(t, game.ErrGameNotFound, game.CodeOf(err))
}

func TestRestoreAllBringsBackLiveGames(t *testing.T) {
	sup, _, st := testSupervisor(t)

	require.NoError(t, st.Save(playingState("live")))
	require.NoError(t, st.Save(game.New("lobby", 1)))

	finished := playingState("done")
	finished.Status = game.StatusFinished
	require.NoError(t, st.Save(finished))

	corrupted := playingState("broken")
	corrupted.Status = game.StatusCorrupted
	require.NoError(t, st.Save(corrupted))

	require.NoError(t, sup.RestoreAll())

	assert.ElementsMatch(t, []string{"live", "lobby"}, sup.Registry().IDs())

	e, err := sup.Lookup("live")
	require.NoError(t, err)
	state := e.GetState()
	assert.Equal(t, "pa", state.CurrentPlayer().ID)
	assert.Len(t, state.Players, 2)
}

func TestRestoreAllIsIdempotent(t *testing.T) {
	sup, _, st := testSupervisor(t)
	require.NoError(t, st.Save(playingState("live")))

	require.NoError(t, sup.RestoreAll())
	first, err := sup.Lookup("live")
	require.NoError(t, err)

	require.NoError(t, sup.RestoreAll())
	second, err := sup.Lookup("live")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestCleanupPeriodicSweep(t *testing.T) {
	sup, fake, st := testSupervisor(t)

	stale := playingState("old")
	stale.LastActionAt = fake.WallNow().Add(-store.StalePlaying - time.Hour)
	require.NoError(t, st.Save(stale))

	fresh := playingState("fresh")
	fresh.LastActionAt = fake.WallNow()
	require.NoError(t, st.Save(fresh))

	require.NoError(t, sup.RestoreAll())

	cleanup := NewCleanup(sup, st, fake, time.Minute)
	cleanup.Start()
	defer cleanup.Stop()

	fake.Advance(2 * time.Minute)

	_, err := sup.Lookup("old")
	assert.Equal(t, game.ErrGameNotFound, game.CodeOf(err))
	_, err = st.Load("old")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The fresh game survives the sweep
	_, err = sup.Lookup("fresh")
	assert.NoError(t, err)
	_, err = st.Load("fresh")
	assert.NoError(t, err)
}

func TestSweepDirect(t *testing.T) {
	sup, fake, st := testSupervisor(t)

	stale := playingState("old")
	stale.LastActionAt = fake.WallNow().Add(-store.StalePlaying - time.Hour)
	require.NoError(t, st.Save(stale))
	require.NoError(t, sup.RestoreAll())

	cleanup := NewCleanup(sup, st, fake, 0)
	cleanup.Sweep()

	_, err := st.Load("old")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = sup.Lookup("old")
	assert.Equal(t, game.ErrGameNotFound, game.CodeOf(err))
}
