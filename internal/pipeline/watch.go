package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/BG-NOAA/sar-drift-converter/internal/observability"
)

// Watcher polls an input directory and converts drift files as they appear.
// A file is picked up once; reprocessing requires a new file name, which the
// upstream retrieval produces anyway since names carry acquisition times.
type Watcher struct {
	pipe     *Pipeline
	dir      string
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	ready atomic.Bool
	seen  map[string]struct{}
}

// NewWatcher creates a Watcher polling dir on the given interval.
func NewWatcher(pipe *Pipeline, dir string, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Watcher {
	return &Watcher{
		pipe:     pipe,
		dir:      dir,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		seen:     make(map[string]struct{}),
	}
}

// CheckReadiness returns nil once the first directory scan has completed.
func (w *Watcher) CheckReadiness(_ context.Context) error {
	if !w.ready.Load() {
		return errors.New("no directory scan completed yet")
	}
	return nil
}

// Run polls until the context is cancelled. The first scan happens
// immediately, not after the first interval.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watcher started", "dir", w.dir, "interval", w.interval)
	w.metrics.PipelineRunning.Set(1)
	defer w.metrics.PipelineRunning.Set(0)

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	w.scan(ctx)
	w.ready.Store(true)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			w.scan(ctx)
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	paths, err := ListInputs(w.dir)
	if err != nil {
		w.logger.Error("directory scan failed", "dir", w.dir, "error", err)
		return
	}

	converted := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		if _, ok := w.seen[path]; ok {
			continue
		}
		// Mark before processing: a file that fails conversion is not
		// retried every tick.
		w.seen[path] = struct{}{}

		ok, err := w.pipe.ProcessFile(ctx, path)
		if err != nil {
			w.logger.Error("file conversion failed", "path", path, "error", err)
			continue
		}
		if ok {
			converted++
		}
	}

	if converted > 0 {
		if err := w.pipe.FinishBatch(ctx); err != nil {
			w.logger.Error("batch finish failed", "error", err)
		}
	}
}
