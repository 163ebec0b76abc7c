package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/huddle/internal/logger"
)

// Catalog is what the refresher keeps in sync with storage.
type Catalog interface {
	Load(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// RefreshStatus describes the last refresh attempt.
type RefreshStatus struct {
	LastSuccess time.Time `json:"last_success"`
	LastError   string    `json:"last_error,omitempty"`
	Refreshes   uint64    `json:"refreshes"`
	Failures    uint64    `json:"failures"`
}

// Refresher handles the initial load and the periodic or manual re-reads
// that pick up writes made by other processes.
type Refresher struct {
	catalog       Catalog
	logger        logger.Logger
	interval      time.Duration
	manualTrigger chan struct{}
	stopCh        chan struct{}
	doneCh        chan struct{}
	stopOnce      sync.Once

	mu     sync.Mutex
	status RefreshStatus
}

// NewRefresher creates a refresher. An interval <= 0 disables the ticker;
// refreshes then only happen on manualTrigger.
func NewRefresher(
	catalog Catalog,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Refresher {
	return &Refresher{
		catalog:       catalog,
		logger:        log,
		interval:      interval,
		manualTrigger: manualTrigger,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start loads the catalog once, then refreshes it in the background until
// Stop is called or ctx is done.
func (r *Refresher) Start(ctx context.Context) error {
	if err := r.catalog.Load(ctx); err != nil {
		r.record(err)
		return fmt.Errorf("initial load failed: %w", err)
	}
	r.record(nil)

	var tick <-chan time.Time
	var ticker *time.Ticker
	if r.interval > 0 {
		ticker = time.NewTicker(r.interval)
		tick = ticker.C
	}

	go func() {
		defer close(r.doneCh)
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-tick:
				r.refresh(ctx)
			case <-r.manualTrigger:
				r.logger.Info("manual refresh triggered")
				r.refresh(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the background loop and waits for it. Safe to call more than once.
// Must only be called after a successful Start.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.doneCh
}

// Status returns a copy of the last refresh outcome.
func (r *Refresher) Status() RefreshStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Refresher) refresh(ctx context.Context) {
	err := r.catalog.Refresh(ctx)
	r.record(err)
	if err != nil {
		r.logger.Error("failed to refresh sports", logger.Error(err))
	}
}

func (r *Refresher) record(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.Refreshes++
	if err != nil {
		r.status.Failures++
		r.status.LastError = err.Error()
		return
	}
	r.status.LastSuccess = time.Now()
	r.status.LastError = ""
}
