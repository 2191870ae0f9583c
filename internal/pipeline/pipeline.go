// Package pipeline orchestrates the conversion of drift files: extract,
// screen, load into the output products.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
	"github.com/BG-NOAA/sar-drift-converter/internal/drift"
	"github.com/BG-NOAA/sar-drift-converter/internal/observability"
	"github.com/BG-NOAA/sar-drift-converter/internal/outlier"
)

// Extractor loads and cleans one raw drift file.
type Extractor interface {
	ReadFile(path string) (*drift.File, error)
}

// Screener classifies observations in place and reports run diagnostics.
type Screener interface {
	Screen(obs []domain.Observation) outlier.Result
}

// ScreenFunc adapts a function to the Screener interface.
type ScreenFunc func(obs []domain.Observation) outlier.Result

func (f ScreenFunc) Screen(obs []domain.Observation) outlier.Result { return f(obs) }

// Product is one processed drift file handed to loaders.
type Product struct {
	File *drift.File

	// Name is the output base name shared by every product of this file.
	Name string

	// Screened is false when outlier detection was disabled; Run is only
	// meaningful when it is true.
	Screened bool
	Run      outlier.Result
}

// Loader writes one output product for a processed file.
type Loader interface {
	Load(ctx context.Context, p *Product) error
}

// BatchFinisher is implemented by loaders that accumulate state across files
// and emit it once the batch is done.
type BatchFinisher interface {
	FinishBatch(ctx context.Context) error
}

// Pipeline converts drift files into output products.
type Pipeline struct {
	extractor Extractor
	screener  Screener // nil disables outlier screening
	loaders   []Loader
	logger    *slog.Logger
	metrics   *observability.Metrics

	// ignoreThreshold skips files that carry too few vectors to be worth
	// converting.
	ignoreThreshold int
}

// New creates a Pipeline with the given stages and observability. screener
// may be nil to pass vectors through unscreened.
func New(e Extractor, s Screener, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, ignoreThreshold int) *Pipeline {
	return &Pipeline{
		extractor:       e,
		screener:        s,
		loaders:         loaders,
		logger:          logger,
		metrics:         metrics,
		ignoreThreshold: ignoreThreshold,
	}
}

// ProcessFile converts one drift file. A return of (false, nil) means the
// file was skipped under the vector threshold.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (bool, error) {
	start := time.Now()

	f, err := p.extractor.ReadFile(path)
	if err != nil {
		p.metrics.FilesFailed.Inc()
		return false, err
	}
	p.metrics.RowsLoaded.Add(float64(len(f.Observations)))
	p.metrics.RowsRejected.Add(float64(f.Rejected))

	if len(f.Observations) < p.ignoreThreshold {
		p.metrics.FilesSkipped.Inc()
		p.logger.Info("skipping file under vector threshold",
			"path", path, "vectors", len(f.Observations), "threshold", p.ignoreThreshold)
		return false, nil
	}
	if len(f.Observations) == 0 {
		p.metrics.FilesSkipped.Inc()
		p.logger.Warn("no usable vectors in file", "path", path, "rejected", f.Rejected)
		return false, nil
	}

	product := &Product{File: f, Name: f.ProductName()}
	if p.screener != nil {
		product.Run = p.screener.Screen(f.Observations)
		product.Screened = true
		p.observeRun(product)
	} else {
		domain.PartitionScenes(f.Observations)
	}

	var errs []error
	for _, l := range p.loaders {
		if err := l.Load(ctx, product); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		p.metrics.FilesFailed.Inc()
		return false, fmt.Errorf("load %s: %w", product.Name, errors.Join(errs...))
	}

	p.metrics.FilesProcessed.Inc()
	p.metrics.FileProcessingDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("file converted",
		"path", path,
		"product", product.Name,
		"vectors", len(f.Observations),
		"rejected", f.Rejected,
		"screened", product.Screened,
	)
	return true, nil
}

func (p *Pipeline) observeRun(product *Product) {
	run := product.Run
	p.metrics.EngineIterations.Observe(float64(run.Iterations))
	p.metrics.EngineOutcome.WithLabelValues(run.State.String()).Inc()

	counts := map[domain.Reason]int{}
	for i := range product.File.Observations {
		counts[product.File.Observations[i].Category.Reason]++
	}
	p.metrics.Outliers.WithLabelValues("distance").Add(float64(counts[domain.ReasonDistance]))
	p.metrics.Outliers.WithLabelValues("bearing").Add(float64(counts[domain.ReasonBearing]))
	p.metrics.Outliers.WithLabelValues("both").Add(float64(counts[domain.ReasonBoth]))

	p.logger.Info("screening finished",
		"product", product.Name,
		"state", run.State.String(),
		"iterations", run.Iterations,
		"inlier_counts", run.InlierCounts,
		"outliers", len(product.File.Observations)-counts[domain.ReasonNone],
	)
}

// RunBatch converts every drift file in dir, in name order, then finishes
// batch-scoped loaders. Per-file failures do not stop the batch.
func (p *Pipeline) RunBatch(ctx context.Context, dir string) error {
	paths, err := ListInputs(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		p.logger.Warn("no drift files found", "dir", dir)
	}

	var errs []error
	for _, path := range paths {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := p.ProcessFile(ctx, path); err != nil {
			p.logger.Error("file conversion failed", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}

	if err := p.FinishBatch(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// FinishBatch flushes loaders that accumulate across files.
func (p *Pipeline) FinishBatch(ctx context.Context) error {
	var errs []error
	for _, l := range p.loaders {
		if f, ok := l.(BatchFinisher); ok {
			if err := f.FinishBatch(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// ListInputs returns the drift files under dir, sorted by name.
func ListInputs(dir string) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.txt", "*.csv"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("list drift files: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}
