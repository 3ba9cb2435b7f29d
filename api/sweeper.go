/*
sweeper.go - Background expiry sweep

PURPOSE:
  Periodically counts inventory rows that are past expiry but still hold
  stock, publishes the count as a gauge, and drops the cached catalog so
  the next read re-applies the eligibility filter with the current date.
  Items crossing their expiry date at midnight would otherwise stay
  selectable until something else invalidated the cache.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Read-only against inventory; never mutates stock
  - Logs counts so the health office can act on expired lots

USAGE:
  sweeper := NewExpirySweeper(store, handler)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - dispense/catalog.go: The eligibility filter this keeps honest
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/civica/barangay-engine/dispense"
	"github.com/civica/barangay-engine/lifecycle"
	"github.com/civica/barangay-engine/store/sqlite"
)

// ExpirySweeper keeps catalog eligibility aligned with the calendar.
type ExpirySweeper struct {
	Store         *sqlite.Store
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewExpirySweeper creates a new sweeper.
func NewExpirySweeper(store *sqlite.Store, handler *Handler) *ExpirySweeper {
	return &ExpirySweeper{
		Store:         store,
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (es *ExpirySweeper) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	es.ticker = time.NewTicker(es.CheckInterval)
	es.wg.Add(1)

	go es.run()

	log.Printf("[Sweeper] Started with check interval: %v", es.CheckInterval)
}

// Stop stops the sweeper.
func (es *ExpirySweeper) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.ticker != nil {
		es.ticker.Stop()
		close(es.stop)
		es.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (es *ExpirySweeper) run() {
	defer es.wg.Done()

	// Run immediately on start
	es.sweep()

	for {
		select {
		case <-es.ticker.C:
			es.sweep()
		case <-es.stop:
			return
		}
	}
}

func (es *ExpirySweeper) sweep() {
	ctx := context.Background()
	now := time.Now()

	for _, kind := range dispense.ListKinds() {
		count, err := es.Store.CountExpired(ctx, kind.KindID(), now)
		if err != nil {
			log.Printf("[Sweeper] Error counting expired %s stock: %v", kind.KindID(), err)
			continue
		}

		expiredStockGauge.WithLabelValues(kind.KindID()).Set(float64(count))
		if count > 0 {
			log.Printf("[Sweeper] %d expired %s item(s) still hold stock", count, kind.KindID())
		}

		// Re-filter on next catalog read.
		es.Handler.Cache.Invalidate(lifecycle.StockKey(kind.KindID()))
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (es *ExpirySweeper) RunNow() {
	es.sweep()
}
