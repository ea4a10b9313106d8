package engine

import (
	"log"
	"sync"
	"time"

	"github.com/rachel-multiverse/rachel-web-sub001/clock"
	"github.com/rachel-multiverse/rachel-web-sub001/store"
)

// DefaultSweepInterval is how often the cleanup worker looks for abandoned
// games
const DefaultSweepInterval = 5 * time.Minute

// Cleanup is a single worker that periodically reaps games idle past their
// status threshold: the actor is stopped and the row deleted.
type Cleanup struct {
	sup      *Supervisor
	st       store.Store
	clk      clock.Clock
	interval time.Duration

	mu      sync.Mutex
	timer   clock.Timer
	stopped bool
}

// NewCleanup creates a cleanup worker; interval 0 means the default
func NewCleanup(sup *Supervisor, st store.Store, clk clock.Clock, interval time.Duration) *Cleanup {
	if clk == nil {
		clk = clock.System()
	}
	if interval == 0 {
		interval = DefaultSweepInterval
	}
	return &Cleanup{sup: sup, st: st, clk: clk, interval: interval}
}

// Start arms the periodic sweep
func (c *Cleanup) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = false
	c.timer = c.clk.AfterFunc(c.interval, c.tick)
}

// Stop disarms the sweep
func (c *Cleanup) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Cleanup) tick() {
	c.Sweep()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.timer = c.clk.AfterFunc(c.interval, c.tick)
}

// Sweep reaps every stale game once. Exposed so tests and operators can force
// a pass.
func (c *Cleanup) Sweep() {
	stale, err := c.st.ListStale(c.clk.WallNow())
	if err != nil {
		log.Printf("cleanup: failed to list stale games: %v", err)
		return
	}

	for _, id := range stale {
		c.sup.StopGame(id)
		if err := c.st.Delete(id); err != nil && err != store.ErrNotFound {
			log.Printf("cleanup: failed to delete game %s: %v", id, err)
			continue
		}
		log.Printf("cleanup: reaped game %s", id)
	}
}
