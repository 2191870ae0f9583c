package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// drift conversion pipeline.
type Metrics struct {
	FilesProcessed prometheus.Counter
	FilesSkipped   prometheus.Counter
	FilesFailed    prometheus.Counter
	RowsLoaded     prometheus.Counter
	RowsRejected   prometheus.Counter

	// Screening metrics.
	Outliers         *prometheus.CounterVec // labels: reason={distance,bearing,both}
	EngineIterations prometheus.Histogram
	EngineOutcome    *prometheus.CounterVec // labels: state={converged,max_iter_reached}

	FileProcessingDuration prometheus.Histogram
	PipelineRunning        prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sar_drift",
			Name:      "files_processed_total",
			Help:      "Total drift files converted successfully.",
		}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sar_drift",
			Name:      "files_skipped_total",
			Help:      "Total drift files skipped for falling under the vector threshold.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sar_drift",
			Name:      "files_failed_total",
			Help:      "Total drift files that failed to convert.",
		}),
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sar_drift",
			Name:      "rows_loaded_total",
			Help:      "Total observation rows loaded after cleaning.",
		}),
		RowsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sar_drift",
			Name:      "rows_rejected_total",
			Help:      "Total rows dropped during cleaning (zero-bearing sentinel).",
		}),
		Outliers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sar_drift",
			Name:      "outliers_total",
			Help:      "Vectors flagged as outliers, by flag reason.",
		}, []string{"reason"}),
		EngineIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sar_drift",
			Name:      "engine_iterations",
			Help:      "Screening passes completed per file.",
			Buckets:   []float64{1, 2, 3, 4, 5, 7, 10, 15, 20},
		}),
		EngineOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sar_drift",
			Name:      "engine_outcome_total",
			Help:      "Screening runs by termination state.",
		}, []string{"state"}),
		FileProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sar_drift",
			Name:      "file_processing_duration_seconds",
			Help:      "Duration of a complete load-screen-write cycle for one file.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sar_drift",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.FilesProcessed,
		m.FilesSkipped,
		m.FilesFailed,
		m.RowsLoaded,
		m.RowsRejected,
		m.Outliers,
		m.EngineIterations,
		m.EngineOutcome,
		m.FileProcessingDuration,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FilesProcessed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sar_drift", Name: "files_processed_total"}),
		FilesSkipped:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sar_drift", Name: "files_skipped_total"}),
		FilesFailed:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sar_drift", Name: "files_failed_total"}),
		RowsLoaded:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sar_drift", Name: "rows_loaded_total"}),
		RowsRejected:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sar_drift", Name: "rows_rejected_total"}),
		Outliers:               prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sar_drift", Name: "outliers_total"}, []string{"reason"}),
		EngineIterations:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sar_drift", Name: "engine_iterations"}),
		EngineOutcome:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sar_drift", Name: "engine_outcome_total"}, []string{"state"}),
		FileProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sar_drift", Name: "file_processing_duration_seconds"}),
		PipelineRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "sar_drift", Name: "pipeline_running"}),
	}
}
