package worker

import (
	"context"
	"time"

	"github.com/hairlab/stylist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// PendingFlusher persists accepted recommendations whose save failed earlier
type PendingFlusher interface {
	FlushPending(ctx context.Context) (int, error)
}

// CachePruner drops expired second level cache entries
type CachePruner interface {
	Prune(ctx context.Context, now time.Time) (int64, error)
}

// MaintenanceWorker periodically retries pending saves and prunes the cache store
//
// Architecture assumptions:
// - Single server instance (pending queue lives in process memory)
type MaintenanceWorker struct {
	flusher  PendingFlusher
	pruner   CachePruner
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
}

type Option func(*MaintenanceWorker)

// WithCachePruner also prunes expired cache store entries on every tick
func WithCachePruner(pruner CachePruner) Option {
	return func(w *MaintenanceWorker) {
		w.pruner = pruner
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *MaintenanceWorker) {
		w.now = now
	}
}

// NewMaintenanceWorker creates a worker running every interval
func NewMaintenanceWorker(flusher PendingFlusher, interval time.Duration, opts ...Option) *MaintenanceWorker {
	w := &MaintenanceWorker{
		flusher:  flusher,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the background loop. It does not block.
func (w *MaintenanceWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("maintenance interval must be positive", goerr.V("interval", w.interval))
	}

	logging.Default().Info("Maintenance worker starting", "interval", w.interval.String())
	go w.run(ctx)
	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *MaintenanceWorker) Stop() {
	logging.Default().Info("Maintenance worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Maintenance worker stopped")
}

func (w *MaintenanceWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)

		case <-w.stopCh:
			// last chance for queued saves before shutdown
			w.RunOnce(ctx)
			return

		case <-ctx.Done():
			logging.Default().Info("Maintenance worker context cancelled")
			return
		}
	}
}

// RunOnce performs a single maintenance cycle. Failures are logged and retried next cycle.
func (w *MaintenanceWorker) RunOnce(ctx context.Context) {
	logger := logging.From(ctx)

	if w.flusher != nil {
		n, err := w.flusher.FlushPending(ctx)
		if err != nil {
			logger.Error("Flushing pending recommendations failed (will retry next interval)",
				"flushed", n,
				"error", err.Error())
		} else if n > 0 {
			logger.Info("Flushed pending recommendations", "count", n)
		}
	}

	if w.pruner != nil {
		n, err := w.pruner.Prune(ctx, w.now())
		if err != nil {
			logger.Error("Pruning cache store failed (will retry next interval)", "error", err.Error())
		} else if n > 0 {
			logger.Info("Pruned expired cache entries", "count", n)
		}
	}
}
