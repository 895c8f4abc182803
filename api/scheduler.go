/*
scheduler.go - Automated monthly closing scheduler

PURPOSE:
  Periodically sweeps for pilots whose closing day has arrived and
  closes their month automatically (snapshot, totals, PDF, history row).

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Sweeps only while an admin session is active, so closings are
    always attributable to an operating admin being around
  - The closing engine itself skips pilots already closed this month;
    the history table's uniqueness constraint backstops races

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewClosingScheduler(engine, identities)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - closing/engine.go: Scan and Close
  - handlers.go: RunClosings endpoint (manual sweep)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/paddock/billing-engine/closing"
	"github.com/paddock/billing-engine/identity"
)

// ClosingScheduler handles automated monthly closings.
type ClosingScheduler struct {
	Engine        *closing.Engine
	Identities    identity.Provider
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewClosingScheduler creates a new scheduler.
func NewClosingScheduler(engine *closing.Engine, identities identity.Provider) *ClosingScheduler {
	return &ClosingScheduler{
		Engine:        engine,
		Identities:    identities,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (cs *ClosingScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.wg.Add(1)

	go cs.run()

	log.Printf("[Scheduler] Started with check interval: %v", cs.CheckInterval)
}

// Stop stops the scheduler.
func (cs *ClosingScheduler) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker != nil {
		cs.ticker.Stop()
		close(cs.stop)
		cs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (cs *ClosingScheduler) run() {
	defer cs.wg.Done()

	// Run immediately on start
	cs.checkAndProcess()

	for {
		select {
		case <-cs.ticker.C:
			cs.checkAndProcess()
		case <-cs.stop:
			return
		}
	}
}

func (cs *ClosingScheduler) checkAndProcess() {
	ctx := context.Background()

	active, err := cs.Identities.HasActiveAdmin(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error checking admin sessions: %v", err)
		return
	}
	if !active {
		// Nobody operating; the sweep waits for the next tick.
		return
	}

	log.Printf("[Scheduler] Sweeping for due closings at %v", time.Now().Format(time.RFC3339))

	result, err := cs.Engine.Scan(ctx)
	if err != nil {
		log.Printf("[Scheduler] Sweep failed: %v", err)
		return
	}

	if len(result.Closed) > 0 || result.Skipped > 0 || result.Failed > 0 {
		log.Printf("[Scheduler] Completed: %d closed, %d skipped (already done), %d failed",
			len(result.Closed), result.Skipped, result.Failed)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (cs *ClosingScheduler) RunNow() {
	cs.checkAndProcess()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (cs *ClosingScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(cs.CheckInterval)
}
