package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete pipeline configuration.
type Config struct {
	// Database configures the partitioned store.
	Database DatabaseConfig `yaml:"database"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Ingest configures the ingestion engine.
	Ingest IngestConfig `yaml:"ingest"`

	// DQ configures the data-quality validator.
	DQ DQConfig `yaml:"dq"`

	// SLA configures the SLA evaluator thresholds.
	SLA SLAConfig `yaml:"sla"`

	// Archive configures Parquet partition exports.
	Archive ArchiveConfig `yaml:"archive"`
}

// DatabaseConfig configures the partitioned store.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Created on first use.
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int `yaml:"max_idle_conns"`

	// QueryTimeout is the default timeout for store queries.
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON switches output from text to JSON.
	JSON bool `yaml:"json"`
}

// IngestConfig configures the ingestion engine.
type IngestConfig struct {
	// ChunkRows is the number of source lines per chunk.
	ChunkRows int `yaml:"chunk_rows"`

	// QueueDepth is the number of parsed chunks buffered between the
	// parse stage and the write stage.
	QueueDepth int `yaml:"queue_depth"`

	// AllowPartial tolerates chunk-level storage failures: failed chunks
	// are counted as skipped and the run commits what survived with
	// status "partial". Off by default (all-or-nothing).
	AllowPartial bool `yaml:"allow_partial"`

	// RejectNegative rejects rows with negative counts at parse time
	// instead of admitting them for the validator's range-error metric.
	RejectNegative bool `yaml:"reject_negative"`
}

// DQConfig configures the data-quality validator.
type DQConfig struct {
	// SketchAccuracy is the DDSketch relative accuracy for the
	// transition-count quantiles.
	SketchAccuracy float64 `yaml:"sketch_accuracy"`
}

// SLAConfig configures the SLA evaluator thresholds.
type SLAConfig struct {
	// VolumeDropThreshold is the maximum tolerated fractional row-count
	// drop versus the previous month.
	VolumeDropThreshold float64 `yaml:"volume_drop_threshold"`

	// NullRateDeltaThreshold is the maximum tolerated null-rate increase
	// versus the previous month.
	NullRateDeltaThreshold float64 `yaml:"null_rate_delta_threshold"`

	// MinRows is the minimum expected row count for any month.
	MinRows int64 `yaml:"min_rows"`
}

// ArchiveConfig configures Parquet partition exports.
type ArchiveConfig struct {
	// Dir is the export directory.
	Dir string `yaml:"dir"`

	// Compression is the Parquet compression algorithm:
	// zstd, snappy, lz4, gzip, none.
	Compression string `yaml:"compression"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         DefaultDatabasePath,
			MaxOpenConns: DefaultMaxOpenConns,
			MaxIdleConns: DefaultMaxIdleConns,
			QueryTimeout: DefaultQueryTimeout,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Ingest: IngestConfig{
			ChunkRows:  DefaultChunkRows,
			QueueDepth: DefaultChunkQueueDepth,
		},
		DQ: DQConfig{
			SketchAccuracy: DefaultSketchAccuracy,
		},
		SLA: SLAConfig{
			VolumeDropThreshold:    DefaultVolumeDropThreshold,
			NullRateDeltaThreshold: DefaultNullRateDeltaThreshold,
			MinRows:                DefaultMinRows,
		},
		Archive: ArchiveConfig{
			Dir:         DefaultArchiveDir,
			Compression: DefaultArchiveCompression,
		},
	}
}
