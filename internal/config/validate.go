package config

import (
	"errors"
	"fmt"

	clickdqerrors "github.com/xtxerr/clickdq/internal/errors"
)

// Validate checks the configuration for errors.
// It runs before any file or database I/O so bad configuration fails fast.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if err := c.Ingest.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ingest: %w", err))
	}

	if err := c.DQ.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("dq: %w", err))
	}

	if err := c.SLA.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sla: %w", err))
	}

	if err := c.Archive.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("archive: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", clickdqerrors.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Validate checks the database configuration.
func (c *DatabaseConfig) Validate() error {
	var errs []error

	if c.Path == "" {
		errs = append(errs, errors.New("path is required"))
	}

	if c.MaxOpenConns <= 0 {
		errs = append(errs, errors.New("max_open_conns must be positive"))
	}

	if c.MaxIdleConns < 0 {
		errs = append(errs, errors.New("max_idle_conns must not be negative"))
	}

	if c.QueryTimeout <= 0 {
		errs = append(errs, errors.New("query_timeout must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the ingestion configuration.
func (c *IngestConfig) Validate() error {
	var errs []error

	if c.ChunkRows <= 0 {
		errs = append(errs, errors.New("chunk_rows must be positive"))
	}

	if c.QueueDepth <= 0 {
		errs = append(errs, errors.New("queue_depth must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the DQ validator configuration.
func (c *DQConfig) Validate() error {
	if c.SketchAccuracy <= 0 || c.SketchAccuracy >= 1 {
		return errors.New("sketch_accuracy must be in (0, 1)")
	}
	return nil
}

// Validate checks the SLA thresholds.
func (c *SLAConfig) Validate() error {
	var errs []error

	if c.VolumeDropThreshold <= 0 || c.VolumeDropThreshold > 1 {
		errs = append(errs, errors.New("volume_drop_threshold must be in (0, 1]"))
	}

	if c.NullRateDeltaThreshold <= 0 || c.NullRateDeltaThreshold > 1 {
		errs = append(errs, errors.New("null_rate_delta_threshold must be in (0, 1]"))
	}

	if c.MinRows < 0 {
		errs = append(errs, errors.New("min_rows must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the archive configuration.
func (c *ArchiveConfig) Validate() error {
	var errs []error

	if c.Dir == "" {
		errs = append(errs, errors.New("dir is required"))
	}

	switch c.Compression {
	case "zstd", "snappy", "lz4", "gzip", "none", "":
	default:
		errs = append(errs, fmt.Errorf("unknown compression %q", c.Compression))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
