// Package config provides configuration loading, defaults, and validation
// for the clickdq pipeline.
//
// This package defines all configurable values with documented defaults.
// Users can override these values via config.yaml or CLI flags.
package config

import "time"

// =============================================================================
// Database Defaults
// =============================================================================

const (
	// DefaultDatabasePath is the default DuckDB database file.
	// Override via config: database.path
	DefaultDatabasePath = "data/processed/clickstream.db"

	// DefaultMaxOpenConns is the maximum number of open connections.
	// Override via config: database.max_open_conns
	DefaultMaxOpenConns = 8

	// DefaultMaxIdleConns is the maximum number of idle connections.
	// Override via config: database.max_idle_conns
	DefaultMaxIdleConns = 2

	// DefaultQueryTimeout is the default timeout for store queries.
	// Override via config: database.query_timeout
	DefaultQueryTimeout = 5 * time.Minute
)

// =============================================================================
// Ingestion Defaults
// =============================================================================

const (
	// DefaultChunkRows is the number of source lines parsed and written per
	// chunk. This bounds memory regardless of source file size.
	// Override via config: ingest.chunk_rows
	DefaultChunkRows = 50000

	// DefaultChunkQueueDepth is the number of parsed chunks that may be
	// in flight between the parse stage and the write stage.
	// Override via config: ingest.queue_depth
	DefaultChunkQueueDepth = 2
)

// =============================================================================
// DQ Validator Defaults
// =============================================================================

const (
	// DefaultSketchAccuracy is the DDSketch relative accuracy used for the
	// transition-count distribution quantiles (0.01 = 1% error).
	// Override via config: dq.sketch_accuracy
	DefaultSketchAccuracy = 0.01
)

// =============================================================================
// SLA Defaults
// =============================================================================

const (
	// DefaultVolumeDropThreshold flags a month whose row count dropped by
	// more than this fraction versus the previous month.
	// Override via config: sla.volume_drop_threshold
	DefaultVolumeDropThreshold = 0.30

	// DefaultNullRateDeltaThreshold flags a month whose null rate rose by
	// more than this amount versus the previous month.
	// Override via config: sla.null_rate_delta_threshold
	DefaultNullRateDeltaThreshold = 0.05

	// DefaultMinRows is the minimum expected row count for a month.
	// Override via config: sla.min_rows
	DefaultMinRows = 1000
)

// =============================================================================
// Archive Defaults
// =============================================================================

const (
	// DefaultArchiveDir is where partition Parquet exports are written.
	// Override via config: archive.dir
	DefaultArchiveDir = "data/archive"

	// DefaultArchiveCompression is the Parquet compression algorithm.
	// Override via config: archive.compression
	DefaultArchiveCompression = "zstd"
)
