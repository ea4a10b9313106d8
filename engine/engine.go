// Package engine runs one goroutine per game. The goroutine owns the game
// state outright: every mutation funnels through its command channel, so
// requests are linearised in arrival order and observers only ever see
// post-mutation snapshots.
package engine

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sanity-io/litter"

	"github.com/rachel-multiverse/rachel-web-sub001/cards"
	"github.com/rachel-multiverse/rachel-web-sub001/clock"
	"github.com/rachel-multiverse/rachel-web-sub001/events"
	"github.com/rachel-multiverse/rachel-web-sub001/game"
	"github.com/rachel-multiverse/rachel-web-sub001/store"
)

// Defaults for engine policy knobs
const (
	DefaultFinishedGrace  = 5 * time.Minute
	DefaultErrorThreshold = 10

	aiDelayEasyMin = 500 * time.Millisecond
	aiDelaySpread  = 2 * time.Second
)

// Options configures an engine. Zero values fall back to sane defaults; the
// broker and store are required.
type Options struct {
	Clock          clock.Clock
	Store          store.Store
	Broker         *events.Broker
	Seed           int64
	FinishedGrace  time.Duration
	ErrorThreshold int
	// OnTerminate is called once when the engine goroutine exits, after the
	// final checkpoint. The registry uses it to drop its reference.
	OnTerminate func(gameID string)
	// OnCrash is called when the actor goroutine dies abnormally, after
	// OnTerminate. The supervisor uses it for its restart policy.
	OnCrash func(gameID string, cause any)
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.System()
	}
	if o.FinishedGrace == 0 {
		o.FinishedGrace = DefaultFinishedGrace
	}
	if o.ErrorThreshold == 0 {
		o.ErrorThreshold = DefaultErrorThreshold
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return o
}

// JoinSpec describes who is joining a game
type JoinSpec struct {
	UserID     string
	Name       string
	Kind       game.PlayerKind
	Difficulty game.Difficulty
}

// Engine is the per-game actor
type Engine struct {
	gameID string
	state  game.State
	rng    *rand.Rand

	cmds   chan any
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	clk    clock.Clock
	st     store.Store
	broker *events.Broker

	aiTimer   clock.Timer
	termTimer clock.Timer

	errorCount     int
	errorThreshold int
	finishedGrace  time.Duration
	onTerminate    func(string)
	onCrash        func(string, any)
	gameOverSent   bool
}

type getStateReq struct{ reply chan game.State }
type startReq struct{ reply chan error }
type joinReq struct {
	spec  JoinSpec
	reply chan joinResult
}
type joinResult struct {
	playerID string
	err      error
}
type leaveReq struct {
	playerID string
	reply    chan error
}
type playReq struct {
	playerID string
	cards    cards.Cards
	suit     cards.Suit
	reply    chan error
}
type drawReq struct {
	playerID string
	reason   game.DrawReason
	reply    chan error
}
type timeoutReq struct{ playerID string }
type connectionReq struct {
	playerID string
	status   game.ConnectionStatus
}
type aiTurnMsg struct{}

// New creates an engine owning a fresh waiting game
func New(gameID string, deckCount int, opts Options) *Engine {
	return NewFromState(game.New(gameID, deckCount), opts)
}

// NewFromState creates an engine owning a restored snapshot
func NewFromState(state game.State, opts Options) *Engine {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		gameID:         state.ID,
		state:          state,
		rng:            rand.New(rand.NewSource(opts.Seed)),
		cmds:           make(chan any, 64),
		ctx:            ctx,
		cancel:         cancel,
		clk:            opts.Clock,
		st:             opts.Store,
		broker:         opts.Broker,
		errorThreshold: opts.ErrorThreshold,
		finishedGrace:  opts.FinishedGrace,
		onTerminate:    opts.OnTerminate,
		onCrash:        opts.OnCrash,
	}
	return e
}

// Run starts the actor goroutine
func (e *Engine) Run() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("game %s: actor died: %v", e.gameID, r)
				if e.onCrash != nil {
					e.onCrash(e.gameID, r)
				}
			}
		}()
		e.runLoop()
	}()
	// A restored game may already be an AI's turn
	e.enqueue(aiTurnScheduleProbe{})
}

type aiTurnScheduleProbe struct{}

// Stop shuts the actor down and waits for it to exit
func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
}

// GameID returns the id of the owned game
func (e *Engine) GameID() string {
	return e.gameID
}

func (e *Engine) runLoop() {
	defer func() {
		if e.aiTimer != nil {
			e.aiTimer.Stop()
		}
		if e.termTimer != nil {
			e.termTimer.Stop()
		}
		e.drain()
		if e.onTerminate != nil {
			e.onTerminate(e.gameID)
		}
	}()

	for {
		select {
		case <-e.ctx.Done():
			return
		case msg := <-e.cmds:
			e.handle(msg)
		}
	}
}

// drain answers requests that made it into the mailbox before shutdown so
// their callers do not block forever
func (e *Engine) drain() {
	for {
		select {
		case msg := <-e.cmds:
			down := &game.Error{Code: game.ErrGameNotFound}
			switch m := msg.(type) {
			case getStateReq:
				m.reply <- e.state.Clone()
			case joinReq:
				m.reply <- joinResult{err: down}
			case startReq:
				m.reply <- down
			case playReq:
				m.reply <- down
			case drawReq:
				m.reply <- down
			case leaveReq:
				m.reply <- down
			}
		default:
			return
		}
	}
}

func (e *Engine) handle(msg any) {
	switch m := msg.(type) {
	case getStateReq:
		m.reply <- e.state.Clone()

	case joinReq:
		m.reply <- e.handleJoin(m.spec)

	case startReq:
		m.reply <- e.handleStart()

	case playReq:
		m.reply <- e.handlePlay(m.playerID, m.cards, m.suit)

	case drawReq:
		m.reply <- e.handleDraw(m.playerID, m.reason)

	case leaveReq:
		m.reply <- e.handleLeave(m.playerID)

	case timeoutReq:
		e.handleTimeout(m.playerID)

	case connectionReq:
		e.handleConnection(m.playerID, m.status)

	case aiTurnMsg:
		e.handleAITurn()

	case aiTurnScheduleProbe:
		e.rescheduleAI()
	}
}

// enqueue delivers a message to the actor, giving up on shutdown. The done
// check comes first: a send into the buffered channel would otherwise still
// succeed after cancellation and the reply would never arrive.
func (e *Engine) enqueue(msg any) bool {
	select {
	case <-e.ctx.Done():
		return false
	default:
	}
	select {
	case e.cmds <- msg:
		return true
	case <-e.ctx.Done():
		return false
	}
}

// GetState returns an immutable copy of the current state
func (e *Engine) GetState() game.State {
	reply := make(chan game.State, 1)
	if !e.enqueue(getStateReq{reply: reply}) {
		// The actor may still be committing a final mutation; the state must
		// not be read from this goroutine until it has exited
		e.wg.Wait()
		return e.state.Clone()
	}
	return <-reply
}

// Join seats a player while the game is waiting and returns the new player id
func (e *Engine) Join(spec JoinSpec) (string, error) {
	reply := make(chan joinResult, 1)
	if !e.enqueue(joinReq{spec: spec, reply: reply}) {
		return "", &game.Error{Code: game.ErrGameNotFound}
	}
	res := <-reply
	return res.playerID, res.err
}

// Start transitions the game from waiting to playing
func (e *Engine) Start() error {
	reply := make(chan error, 1)
	if !e.enqueue(startReq{reply: reply}) {
		return &game.Error{Code: game.ErrGameNotFound}
	}
	return <-reply
}

// Play submits a play for the player
func (e *Engine) Play(playerID string, played cards.Cards, suit cards.Suit) error {
	reply := make(chan error, 1)
	if !e.enqueue(playReq{playerID: playerID, cards: played, suit: suit, reply: reply}) {
		return &game.Error{Code: game.ErrGameNotFound}
	}
	return <-reply
}

// Draw submits a draw for the player
func (e *Engine) Draw(playerID string, reason game.DrawReason) error {
	reply := make(chan error, 1)
	if !e.enqueue(drawReq{playerID: playerID, reason: reason, reply: reply}) {
		return &game.Error{Code: game.ErrGameNotFound}
	}
	return <-reply
}

// Leave removes a waiting player, or marks a playing one disconnected
func (e *Engine) Leave(playerID string) error {
	reply := make(chan error, 1)
	if !e.enqueue(leaveReq{playerID: playerID, reply: reply}) {
		return &game.Error{Code: game.ErrGameNotFound}
	}
	return <-reply
}

// PlayerTimeout is invoked by the connection monitor when a player's
// reconnect grace expires. The engine takes over their turns with the AI.
func (e *Engine) PlayerTimeout(playerID string) {
	e.enqueue(timeoutReq{playerID: playerID})
}

// SetConnection records a connection status change for a player
func (e *Engine) SetConnection(playerID string, status game.ConnectionStatus) {
	e.enqueue(connectionReq{playerID: playerID, status: status})
}

func (e *Engine) handleJoin(spec JoinSpec) joinResult {
	if e.state.Status == game.StatusCorrupted {
		return joinResult{err: &game.Error{Code: game.ErrCorrupted}}
	}

	player := game.Player{
		ID:         uuid.NewString(),
		UserID:     spec.UserID,
		Name:       spec.Name,
		Kind:       spec.Kind,
		Difficulty: spec.Difficulty,
		Status:     game.PlayerPlaying,
		Connection: game.Connected,
	}
	if player.Kind == "" {
		player.Kind = game.KindHuman
	}
	if player.Kind == game.KindAI && player.Difficulty == "" {
		player.Difficulty = game.DifficultyMedium
	}

	err := e.mutate(func(s game.State) (game.State, error) {
		return s.AddPlayer(player)
	})
	if err != nil {
		return joinResult{err: err}
	}

	e.publish(events.PlayerJoined{GameID: e.gameID, Player: player})
	return joinResult{playerID: player.ID}
}

func (e *Engine) handleStart() error {
	err := e.mutate(func(s game.State) (game.State, error) {
		return s.Start(e.rng)
	})
	if err != nil {
		return err
	}

	e.publish(events.GameStarted{GameID: e.gameID})
	e.rescheduleAI()
	return nil
}

func (e *Engine) handlePlay(playerID string, played cards.Cards, suit cards.Suit) error {
	e.cancelAITimer()

	err := e.mutate(func(s game.State) (game.State, error) {
		return s.Play(playerID, played, suit)
	})
	if err != nil {
		e.rescheduleAI()
		return err
	}

	e.publish(events.CardsPlayed{GameID: e.gameID, PlayerID: playerID, Cards: played})
	e.afterMutation()
	return nil
}

func (e *Engine) handleDraw(playerID string, reason game.DrawReason) error {
	e.cancelAITimer()

	before := handSize(e.state, playerID)
	err := e.mutate(func(s game.State) (game.State, error) {
		return s.Draw(playerID, reason, e.rng)
	})
	if err != nil {
		e.rescheduleAI()
		return err
	}

	e.publish(events.CardsDrawn{
		GameID:   e.gameID,
		PlayerID: playerID,
		Reason:   reason,
		Count:    handSize(e.state, playerID) - before,
	})
	e.afterMutation()
	return nil
}

func (e *Engine) handleLeave(playerID string) error {
	switch e.state.Status {
	case game.StatusWaiting:
		return e.mutate(func(s game.State) (game.State, error) {
			return s.RemovePlayer(playerID)
		})

	case game.StatusPlaying:
		// Mid-game the seat stays; the player is marked disconnected and the
		// monitor's timeout path will hand their turns to the AI
		e.handleConnection(playerID, game.Disconnected)
		return nil

	default:
		return &game.Error{Code: game.ErrInvalidStatus, Status: e.state.Status, Expected: game.StatusPlaying}
	}
}

func (e *Engine) handleTimeout(playerID string) {
	idx := e.state.PlayerIndex(playerID)
	if idx < 0 || e.state.Players[idx].Connection == game.TimedOut {
		return
	}

	e.state.Players[idx].Connection = game.TimedOut
	e.checkpoint()
	e.publish(events.PlayerStatusChanged{GameID: e.gameID, PlayerID: playerID, Connection: game.TimedOut})

	// If it is already their turn, the AI takes over now
	e.rescheduleAI()
}

func (e *Engine) handleConnection(playerID string, status game.ConnectionStatus) {
	idx := e.state.PlayerIndex(playerID)
	if idx < 0 || e.state.Players[idx].Connection == status {
		return
	}

	e.state.Players[idx].Connection = status
	e.checkpoint()
	e.publish(events.PlayerStatusChanged{GameID: e.gameID, PlayerID: playerID, Connection: status})

	if status == game.Connected {
		e.rescheduleAI()
	}
}

func (e *Engine) handleAITurn() {
	e.aiTimer = nil
	if e.state.Status != game.StatusPlaying {
		return
	}

	current := e.state.CurrentPlayer()
	difficulty, ok := e.aiDifficultyFor(current)
	if !ok {
		return
	}

	action := game.ChooseAction(e.state, current.ID, difficulty, e.rng)

	var err error
	if action.Type == game.ActionPlay {
		err = e.mutate(func(s game.State) (game.State, error) {
			return s.Play(current.ID, action.Cards, action.NominatedSuit)
		})
		if err == nil {
			e.publish(events.CardsPlayed{GameID: e.gameID, PlayerID: current.ID, Cards: action.Cards})
		}
	} else {
		before := handSize(e.state, current.ID)
		err = e.mutate(func(s game.State) (game.State, error) {
			return s.Draw(current.ID, action.Reason, e.rng)
		})
		if err == nil {
			e.publish(events.CardsDrawn{
				GameID:   e.gameID,
				PlayerID: current.ID,
				Reason:   action.Reason,
				Count:    handSize(e.state, current.ID) - before,
			})
		}
	}

	if err != nil {
		// The chooser should never produce an illegal move, but a stale
		// timer can race a human request. Fall back to a draw so the game
		// cannot stall.
		log.Printf("game %s: AI action failed (%v), falling back to draw", e.gameID, err)
		before := handSize(e.state, current.ID)
		if ferr := e.mutate(func(s game.State) (game.State, error) {
			return s.Draw(current.ID, game.DrawVoluntary, e.rng)
		}); ferr != nil {
			log.Printf("game %s: AI fallback draw failed: %v", e.gameID, ferr)
			e.rescheduleAI()
			return
		}
		e.publish(events.CardsDrawn{
			GameID:   e.gameID,
			PlayerID: current.ID,
			Reason:   game.DrawVoluntary,
			Count:    handSize(e.state, current.ID) - before,
		})
	}

	e.publish(events.AIPlayed{GameID: e.gameID, PlayerID: current.ID})
	e.afterMutation()
}

// aiDifficultyFor says whether the engine should move for this player, and
// at which difficulty
func (e *Engine) aiDifficultyFor(p game.Player) (game.Difficulty, bool) {
	if p.Kind == game.KindAI {
		return p.Difficulty, true
	}
	if p.Connection == game.TimedOut {
		// AI takeover for abandoned humans
		return game.DifficultyMedium, true
	}
	return "", false
}

// afterMutation runs the shared tail of every successful play or draw:
// game-over handling and AI rescheduling
func (e *Engine) afterMutation() {
	if e.state.Status == game.StatusFinished && !e.gameOverSent {
		e.gameOverSent = true
		e.cancelAITimer()
		e.publish(events.GameOver{GameID: e.gameID, Winners: append([]string(nil), e.state.Winners...)})

		if e.st != nil {
			if err := e.st.RecordUserParticipation(e.state); err != nil {
				log.Printf("game %s: failed to record participation: %v", e.gameID, err)
			}
		}

		// Keep the actor around so late observers can still fetch the
		// final state
		e.termTimer = e.clk.AfterFunc(e.finishedGrace, e.cancel)
		return
	}

	e.rescheduleAI()
}

func (e *Engine) cancelAITimer() {
	if e.aiTimer != nil {
		e.aiTimer.Stop()
		e.aiTimer = nil
	}
}

func (e *Engine) rescheduleAI() {
	e.cancelAITimer()
	if e.state.Status != game.StatusPlaying {
		return
	}

	current := e.state.CurrentPlayer()
	difficulty, ok := e.aiDifficultyFor(current)
	if !ok {
		return
	}

	e.aiTimer = e.clk.AfterFunc(aiDelay(difficulty, e.rng), func() {
		e.enqueue(aiTurnMsg{})
	})
}

// aiDelay picks a human-perceivable thinking pause: faster for easy, slower
// for hard
func aiDelay(difficulty game.Difficulty, rng *rand.Rand) time.Duration {
	jitter := time.Duration(rng.Int63n(int64(aiDelaySpread / 4)))
	switch difficulty {
	case game.DifficultyEasy:
		return aiDelayEasyMin + jitter
	case game.DifficultyHard:
		return aiDelayEasyMin + aiDelaySpread*3/4 + jitter
	default:
		return aiDelayEasyMin + aiDelaySpread*2/4 + jitter
	}
}

// mutate is the safety wrapper around every state transition: panics become
// operation_failed, and a transition that breaks card conservation is never
// committed
func (e *Engine) mutate(fn func(game.State) (game.State, error)) error {
	if e.state.Status == game.StatusCorrupted {
		return &game.Error{Code: game.ErrCorrupted}
	}

	next, err := e.runTransition(fn)
	if err != nil {
		if game.CodeOf(err) == game.ErrOperationFailed {
			e.noteFailure(err)
		}
		return err
	}

	if next.Status != game.StatusWaiting {
		if cerr := game.ValidateCardCount(next.Players, next.Deck, next.DiscardPile, next.ExpectedTotalCards); cerr != nil {
			log.Printf("game %s: refusing to commit transition: %v", e.gameID, cerr)
			e.noteFailure(cerr)
			return cerr
		}
	}

	e.state = next
	e.checkpoint()
	return nil
}

func (e *Engine) runTransition(fn func(game.State) (game.State, error)) (next game.State, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &game.Error{Code: game.ErrOperationFailed, Detail: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return fn(e.state)
}

// noteFailure counts integrity failures; past the threshold the game is
// declared corrupted and refuses further mutation
func (e *Engine) noteFailure(cause error) {
	e.errorCount++
	if e.errorCount <= e.errorThreshold || e.state.Status == game.StatusCorrupted {
		return
	}

	log.Printf("game %s: error threshold exceeded (%d), marking corrupted; last cause: %v",
		e.gameID, e.errorCount, cause)
	log.Printf("game %s: state at corruption: %s", e.gameID, litter.Sdump(e.state))

	e.state.Status = game.StatusCorrupted
	e.cancelAITimer()
	e.checkpoint()
	e.publish(events.GameCorrupted{GameID: e.gameID})
}

func (e *Engine) checkpoint() {
	if e.st == nil {
		return
	}
	if err := e.st.Save(e.state); err != nil {
		log.Printf("game %s: checkpoint failed: %v", e.gameID, err)
	}
}

func (e *Engine) publish(event events.Event) {
	if e.broker == nil {
		return
	}
	e.broker.Publish(events.Topic(e.gameID), event, e.state.Clone())
}

func handSize(s game.State, playerID string) int {
	if idx := s.PlayerIndex(playerID); idx >= 0 {
		return len(s.Players[idx].Hand)
	}
	return 0
}
