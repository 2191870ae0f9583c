// Package config loads and validates the converter's JSON configuration
// document. The document is an upstream contract: unknown keys are rejected
// so a typo in a tunable fails loudly instead of silently running with a
// default.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Subdirectories created under the output directory on load. Each product
// family writes into its own one.
const (
	FormattedSubdir = "formatted_data"
	GpkgSubdir      = "gpkg"
	NetCDFSubdir    = "nc"
	PngSubdir       = "png"
)

// Config holds all converter settings, populated from a JSON document.
type Config struct {
	// Input is a drift file, or a directory of them when BatchProcess or
	// Watch is set.
	Input        string
	BatchProcess bool
	OutputDir    string

	// Input parsing.
	Delimiter            string
	SkipRowsBeforeHeader int
	Precision            int

	// Outlier screening tunables.
	DetectOutliers        bool
	RadiusKm              float64
	MinNeighbors          int
	IterCount             int
	ZThreshold            float64
	IgnoreVectorThreshold int

	// Output products.
	NetCDFCDLFile      string
	VectorStride       int
	InlierVectorStride int

	Verbose   bool
	LogLevel  string
	LogFormat string

	// Watch-mode service settings.
	Watch           bool
	WatchInterval   time.Duration
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Optional Kafka sink; enabled when brokers are configured.
	KafkaBrokers []string
	KafkaTopic   string

	// Workers bounds scene-level concurrency in the screening engine.
	// Zero means one worker per CPU.
	Workers int
}

// KafkaEnabled reports whether classified vectors should also be published
// to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaTopic != ""
}

// FormattedDir returns the output subdirectory for formatted CSV products.
func (c *Config) FormattedDir() string { return filepath.Join(c.OutputDir, FormattedSubdir) }

// GpkgDir returns the output subdirectory for GeoPackage products.
func (c *Config) GpkgDir() string { return filepath.Join(c.OutputDir, GpkgSubdir) }

// NetCDFDir returns the output subdirectory for NetCDF products.
func (c *Config) NetCDFDir() string { return filepath.Join(c.OutputDir, NetCDFSubdir) }

// PngDir returns the output subdirectory for quicklook images.
func (c *Config) PngDir() string { return filepath.Join(c.OutputDir, PngSubdir) }

// fileConfig mirrors the JSON document. Tunables with operational defaults
// are pointers so an absent key and an explicit zero can be told apart.
type fileConfig struct {
	Input        string `json:"input"`
	BatchProcess bool   `json:"batch_process"`
	OutputDir    string `json:"output_dir"`

	Delimiter            *string `json:"delimiter"`
	SkipRowsBeforeHeader *int    `json:"skip_rows_before_header"`
	Precision            *int    `json:"precision"`

	DetectOutliers        bool     `json:"detect_outliers"`
	RadiusKm              *float64 `json:"radius_km"`
	MinNeighbors          *int     `json:"min_neighbors"`
	IterCount             *int     `json:"iter_count"`
	ZThreshold            *float64 `json:"z_threshold"`
	IgnoreVectorThreshold int      `json:"ignore_vector_threshold"`

	NetCDFCDLFile      string `json:"netcdf_cdl_file"`
	VectorStride       *int   `json:"vector_stride"`
	InlierVectorStride *int   `json:"inlier_vector_stride"`

	Verbose   bool   `json:"verbose"`
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	Watch           bool   `json:"watch"`
	WatchInterval   string `json:"watch_interval"`
	HTTPAddr        string `json:"http_addr"`
	ShutdownTimeout string `json:"shutdown_timeout"`

	KafkaBrokers []string `json:"kafka_brokers"`
	KafkaTopic   string   `json:"kafka_topic"`

	Workers int `json:"workers"`
}

// Load reads the JSON document at path, applies defaults, validates, and
// creates the output directory tree.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var fc fileConfig
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := &Config{
		Input:        fc.Input,
		BatchProcess: fc.BatchProcess,
		OutputDir:    fc.OutputDir,

		Delimiter:            strOr(fc.Delimiter, ","),
		SkipRowsBeforeHeader: intOr(fc.SkipRowsBeforeHeader, 0),
		Precision:            intOr(fc.Precision, 3),

		DetectOutliers:        fc.DetectOutliers,
		RadiusKm:              floatOr(fc.RadiusKm, 25),
		MinNeighbors:          intOr(fc.MinNeighbors, 8),
		IterCount:             intOr(fc.IterCount, 2),
		ZThreshold:            floatOr(fc.ZThreshold, 3),
		IgnoreVectorThreshold: fc.IgnoreVectorThreshold,

		NetCDFCDLFile:      fc.NetCDFCDLFile,
		VectorStride:       intOr(fc.VectorStride, 1),
		InlierVectorStride: intOr(fc.InlierVectorStride, 1),

		Verbose:   fc.Verbose,
		LogLevel:  defaultStr(fc.LogLevel, "info"),
		LogFormat: defaultStr(fc.LogFormat, "json"),

		Watch:    fc.Watch,
		HTTPAddr: defaultStr(fc.HTTPAddr, ":8080"),

		KafkaBrokers: fc.KafkaBrokers,
		KafkaTopic:   fc.KafkaTopic,

		Workers: fc.Workers,
	}
	if cfg.Verbose && fc.LogLevel == "" {
		cfg.LogLevel = "debug"
	}

	cfg.WatchInterval, err = parseDuration(fc.WatchInterval, 30*time.Second, "watch_interval")
	if err != nil {
		return nil, err
	}
	cfg.ShutdownTimeout, err = parseDuration(fc.ShutdownTimeout, 10*time.Second, "shutdown_timeout")
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.makeOutputDirs(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Input == "" {
		return errors.New("input is required")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir is required")
	}
	if len(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	if c.SkipRowsBeforeHeader < 0 {
		return errors.New("skip_rows_before_header must not be negative")
	}
	if c.Precision < 0 {
		return errors.New("precision must not be negative")
	}
	if c.RadiusKm <= 0 {
		return errors.New("radius_km must be positive")
	}
	if c.MinNeighbors < 1 {
		return errors.New("min_neighbors must be at least 1")
	}
	if c.IterCount < 1 {
		return errors.New("iter_count must be at least 1")
	}
	if c.ZThreshold <= 0 {
		return errors.New("z_threshold must be positive")
	}
	if c.IgnoreVectorThreshold < 0 {
		return errors.New("ignore_vector_threshold must not be negative")
	}
	if c.VectorStride < 1 || c.InlierVectorStride < 1 {
		return errors.New("vector strides must be at least 1")
	}
	if c.Watch && !c.BatchProcess {
		return errors.New("watch requires batch_process (input must be a directory)")
	}
	if c.KafkaTopic != "" && len(c.KafkaBrokers) == 0 {
		return errors.New("kafka_topic is set but kafka_brokers is empty")
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}
	return nil
}

func (c *Config) makeOutputDirs() error {
	for _, dir := range []string{c.FormattedDir(), c.GpkgDir(), c.NetCDFDir(), c.PngDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	return nil
}

func parseDuration(s string, def time.Duration, key string) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

func strOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func defaultStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
