/*
scheduler.go - Automated depreciation scheduler

PURPOSE:
  Periodically catches up the ledger for every eligible asset, so the
  books stay current without anyone calling the run endpoint.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each tick delegates to Engine.RunAll with the current date
  - Calendar gating lives in the engine: an asset whose next period has
    not arrived yet simply reports zero pending periods
  - Per-asset failures are logged, never fatal to the tick

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewScheduler(handler, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunAll endpoint (manual trigger of the same pass)
  - depreciation/engine.go: RunAll
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/asset-ledger/depreciation"
)

// Scheduler drives the automatic depreciation runs.
type Scheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	log    zerolog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates a new scheduler.
func NewScheduler(handler *Handler, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		log:           log,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.log.Info().Msg("scheduler disabled, not starting")
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)

	go s.run()

	s.log.Info().Dur("interval", s.CheckInterval).Msg("scheduler started")
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.log.Info().Msg("scheduler stopped")
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.checkAndProcess()

	for {
		select {
		case <-s.ticker.C:
			s.checkAndProcess()
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) checkAndProcess() {
	ctx := context.Background()
	today := depreciation.DateOf(time.Now())

	result, err := s.Handler.Engine.RunAll(ctx, today)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled depreciation run failed")
		return
	}

	for _, b := range result.Results {
		if b.Err != nil {
			s.log.Warn().
				Str("asset_id", string(b.AssetID)).
				Int("processed", b.Processed).
				Err(b.Err).
				Msg("asset failed during scheduled run")
		}
	}

	if result.TotalProcessed > 0 {
		s.log.Info().
			Int("total_processed", result.TotalProcessed).
			Int("assets_touched", result.AssetsTouched).
			Msg("scheduled depreciation run completed")
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (s *Scheduler) RunNow() {
	s.checkAndProcess()
}

// NextRunTime returns when the next scheduled check will occur.
func (s *Scheduler) NextRunTime() time.Time {
	return time.Now().Add(s.CheckInterval)
}
