package worker

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"newsdesk/internal/store"
)

// discardRatio is the share of stale data a value log file must hold before
// Badger rewrites it.
const discardRatio = 0.7

// Worker periodically reclaims Badger value log space in every store of the
// registry.
type Worker struct {
	registry *store.Registry
	logger   *zap.Logger
	interval time.Duration
}

func NewWorker(reg *store.Registry, interval time.Duration, logger *zap.Logger) *Worker {
	return &Worker{
		registry: reg,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the worker loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("Value log GC disabled")
		return
	}
	w.logger.Info("GC worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("GC worker shutting down")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs value log GC on each store until Badger reports nothing left to
// rewrite, and returns the number of files rewritten.
func (w *Worker) Sweep(ctx context.Context) int {
	total := 0
	for _, name := range w.registry.Names() {
		if ctx.Err() != nil {
			break
		}
		db, err := w.registry.Get(name)
		if err != nil {
			w.logger.Error("GC skipped", zap.String("store", name), zap.Error(err))
			continue
		}
		total += w.collect(ctx, name, db)
	}
	return total
}

func (w *Worker) collect(ctx context.Context, name string, db *badger.DB) int {
	logger := w.logger.With(zap.String("store", name))
	rewrites := 0
	for ctx.Err() == nil {
		err := db.RunValueLogGC(discardRatio)
		switch {
		case err == nil:
			rewrites++
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
		case errors.Is(err, badger.ErrRejected):
			logger.Debug("GC rejected")
		default:
			logger.Error("GC failed", zap.Error(err))
		}
		break
	}
	if rewrites > 0 {
		logger.Info("Value log reclaimed", zap.Int("rewrites", rewrites))
	}
	return rewrites
}
