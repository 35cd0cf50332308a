package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	clickdqerrors "github.com/xtxerr/clickdq/internal/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "path is required",
		},
		{
			name:    "zero max open conns",
			mutate:  func(c *Config) { c.Database.MaxOpenConns = 0 },
			wantErr: "max_open_conns",
		},
		{
			name:    "negative query timeout",
			mutate:  func(c *Config) { c.Database.QueryTimeout = -time.Second },
			wantErr: "query_timeout",
		},
		{
			name:    "zero chunk rows",
			mutate:  func(c *Config) { c.Ingest.ChunkRows = 0 },
			wantErr: "chunk_rows",
		},
		{
			name:    "zero queue depth",
			mutate:  func(c *Config) { c.Ingest.QueueDepth = 0 },
			wantErr: "queue_depth",
		},
		{
			name:    "sketch accuracy out of range",
			mutate:  func(c *Config) { c.DQ.SketchAccuracy = 1.5 },
			wantErr: "sketch_accuracy",
		},
		{
			name:    "volume drop threshold above one",
			mutate:  func(c *Config) { c.SLA.VolumeDropThreshold = 2 },
			wantErr: "volume_drop_threshold",
		},
		{
			name:    "negative min rows",
			mutate:  func(c *Config) { c.SLA.MinRows = -1 },
			wantErr: "min_rows",
		},
		{
			name:    "unknown compression",
			mutate:  func(c *Config) { c.Archive.Compression = "brotli" },
			wantErr: "compression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !clickdqerrors.Is(err, clickdqerrors.ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database:
  path: /tmp/test.db
  max_open_conns: 4
logging:
  level: debug
  json: true
ingest:
  chunk_rows: 1000
  allow_partial: true
sla:
  volume_drop_threshold: 0.5
  min_rows: 100
archive:
  compression: snappy
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Database.MaxOpenConns != 4 {
		t.Errorf("max open conns = %d, want 4", cfg.Database.MaxOpenConns)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Errorf("logging = %+v, want debug/json", cfg.Logging)
	}
	if cfg.Ingest.ChunkRows != 1000 || !cfg.Ingest.AllowPartial {
		t.Errorf("ingest = %+v", cfg.Ingest)
	}
	if cfg.SLA.VolumeDropThreshold != 0.5 || cfg.SLA.MinRows != 100 {
		t.Errorf("sla = %+v", cfg.SLA)
	}
	if cfg.Archive.Compression != "snappy" {
		t.Errorf("archive compression = %q, want snappy", cfg.Archive.Compression)
	}

	// Fields not present in the file keep their defaults.
	if cfg.Database.QueryTimeout != DefaultQueryTimeout {
		t.Errorf("query timeout = %v, want default %v", cfg.Database.QueryTimeout, DefaultQueryTimeout)
	}
	if cfg.Ingest.QueueDepth != DefaultChunkQueueDepth {
		t.Errorf("queue depth = %d, want default %d", cfg.Ingest.QueueDepth, DefaultChunkQueueDepth)
	}
	if cfg.DQ.SketchAccuracy != DefaultSketchAccuracy {
		t.Errorf("sketch accuracy = %v, want default %v", cfg.DQ.SketchAccuracy, DefaultSketchAccuracy)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() = nil for missing file")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
ingest:
  chunk_rows: -5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(path)
	if !clickdqerrors.Is(err, clickdqerrors.ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database: [not a mapping"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load() = nil for malformed yaml")
	}
}
