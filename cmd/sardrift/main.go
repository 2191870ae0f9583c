// Command sardrift converts SAR-derived sea ice drift vector files into GIS
// products: formatted CSV, GeoPackage, NetCDF (via ncgen), and quicklook
// PNGs, with optional neighborhood outlier screening and an optional Kafka
// sink.
//
// It runs in three modes depending on configuration: single file, batch
// over a directory, or a long-lived watcher polling the directory.
//
// Usage:
//
//	sardrift -c config.json
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/BG-NOAA/sar-drift-converter/internal/adapter/httpadapter"
	"github.com/BG-NOAA/sar-drift-converter/internal/adapter/kafkasink"
	"github.com/BG-NOAA/sar-drift-converter/internal/adapter/netcdfcdl"
	"github.com/BG-NOAA/sar-drift-converter/internal/config"
	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
	"github.com/BG-NOAA/sar-drift-converter/internal/drift"
	"github.com/BG-NOAA/sar-drift-converter/internal/observability"
	"github.com/BG-NOAA/sar-drift-converter/internal/outlier"
	"github.com/BG-NOAA/sar-drift-converter/internal/pipeline"
	"github.com/BG-NOAA/sar-drift-converter/internal/proj"
)

func main() {
	configPath := flag.String("c", "config.json", "path to the JSON configuration document")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	reader := &drift.Reader{
		Delimiter: rune(cfg.Delimiter[0]),
		SkipRows:  cfg.SkipRowsBeforeHeader,
		Precision: cfg.Precision,
		Project:   proj.ToEPSG3413,
	}

	var screener pipeline.Screener
	if cfg.DetectOutliers {
		engineCfg := outlier.Config{
			RadiusKm:     cfg.RadiusKm,
			MinNeighbors: cfg.MinNeighbors,
			IterCount:    cfg.IterCount,
			ZThreshold:   cfg.ZThreshold,
			Precision:    cfg.Precision,
			Workers:      cfg.Workers,
		}
		screener = pipeline.ScreenFunc(func(obs []domain.Observation) outlier.Result {
			return outlier.Screen(obs, engineCfg)
		})
		logger.Info("outlier screening enabled",
			"radius_km", cfg.RadiusKm,
			"min_neighbors", cfg.MinNeighbors,
			"iter_count", cfg.IterCount,
			"z_threshold", cfg.ZThreshold,
		)
	} else {
		logger.Info("outlier screening disabled")
	}

	loaders := []pipeline.Loader{
		&pipeline.FormattedCSVLoader{Dir: cfg.FormattedDir()},
		&pipeline.GeoPackageLoader{Dir: cfg.GpkgDir()},
		&pipeline.NetCDFLoader{
			Dir:    cfg.NetCDFDir(),
			Writer: &netcdfcdl.Writer{TemplatePath: cfg.NetCDFCDLFile, Logger: logger},
		},
		&pipeline.QuicklookLoader{
			Dir:          cfg.PngDir(),
			Stride:       cfg.VectorStride,
			InlierStride: cfg.InlierVectorStride,
		},
	}

	var kafkaWriter *kafkasink.Writer
	if cfg.KafkaEnabled() {
		kafkaWriter = kafkasink.NewWriter(cfg, logger)
		loaders = append(loaders, &pipeline.KafkaLoader{Writer: kafkaWriter})
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}
	closeKafka := func() {
		if kafkaWriter == nil {
			return
		}
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	pipe := pipeline.New(reader, screener, loaders, logger, metrics, cfg.IgnoreVectorThreshold)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Watch {
		runWatch(ctx, cfg, pipe, logger, metrics)
		closeKafka()
		return
	}

	if err := runOnce(ctx, cfg, pipe); err != nil {
		logger.Error("conversion failed", "error", err)
		closeKafka()
		os.Exit(1)
	}
	closeKafka()
}

// runOnce converts the configured input, a single file or a directory batch.
func runOnce(ctx context.Context, cfg *config.Config, pipe *pipeline.Pipeline) error {
	if cfg.BatchProcess {
		return pipe.RunBatch(ctx, cfg.Input)
	}

	if _, err := pipe.ProcessFile(ctx, cfg.Input); err != nil {
		return err
	}
	return pipe.FinishBatch(ctx)
}

// runWatch runs the polling watcher and its HTTP surface until a signal.
func runWatch(ctx context.Context, cfg *config.Config, pipe *pipeline.Pipeline, logger *slog.Logger, metrics *observability.Metrics) {
	watcher := pipeline.NewWatcher(pipe, cfg.Input, cfg.WatchInterval, clockwork.NewRealClock(), logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, watcher, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Error("watcher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
