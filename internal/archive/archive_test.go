package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/xtxerr/clickdq/internal/config"
	"github.com/xtxerr/clickdq/internal/errors"
	"github.com/xtxerr/clickdq/internal/record"
	"github.com/xtxerr/clickdq/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	cfg := store.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "clickstream.db")

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func newTestArchiver(t *testing.T, s *store.Store) *Archiver {
	t.Helper()

	return New(s, config.ArchiveConfig{
		Dir:         filepath.Join(t.TempDir(), "archive"),
		Compression: "zstd",
	})
}

func fillPartition(t *testing.T, s *store.Store, month string, n int) {
	t.Helper()

	records := make([]record.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, record.Record{
			Prev:      fmt.Sprintf("Page_%d", i),
			Curr:      "Target",
			Type:      record.TypeLink,
			N:         int64(i + 1),
			LoadMonth: month,
		})
	}

	_, err := s.ReplacePartition(context.Background(), month, func(w *store.PartitionWriter) error {
		return w.WriteChunk(records)
	})
	if err != nil {
		t.Fatalf("ReplacePartition: %v", err)
	}
}

func TestExportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	a := newTestArchiver(t, s)
	ctx := context.Background()

	const month = "2025-09"
	fillPartition(t, s, month, 25000) // spans multiple write batches

	path, written, err := a.Export(ctx, month)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if written != 25000 {
		t.Errorf("written = %d, want 25000", written)
	}
	if path != a.Path(month) {
		t.Errorf("path = %q, want %q", path, a.Path(month))
	}

	rows, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 25000 {
		t.Fatalf("read %d rows, want 25000", len(rows))
	}
	for _, row := range rows {
		if row.LoadMonth != month {
			t.Fatalf("row load_month = %q, want %q", row.LoadMonth, month)
		}
	}
	if rows[0].Prev != "Page_0" || rows[0].N != 1 {
		t.Errorf("first row = %+v, want Page_0 / n=1", rows[0])
	}
}

func TestExportEmptyPartition(t *testing.T) {
	s := newTestStore(t)
	a := newTestArchiver(t, s)

	path, _, err := a.Export(context.Background(), "2025-09")
	if !errors.Is(err, errors.ErrPartitionEmpty) {
		t.Fatalf("error = %v, want ErrPartitionEmpty", err)
	}

	// No file should be left behind.
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if _, statErr := os.Stat(a.Path("2025-09")); !os.IsNotExist(statErr) {
		t.Errorf("archive file exists after failed export")
	}
}

func TestExportInvalidMonth(t *testing.T) {
	s := newTestStore(t)
	a := newTestArchiver(t, s)

	_, _, err := a.Export(context.Background(), "September 2025")
	if !errors.Is(err, errors.ErrInvalidMonth) {
		t.Fatalf("error = %v, want ErrInvalidMonth", err)
	}
}

func TestGetCompression(t *testing.T) {
	tests := []struct {
		name string
		want compress.Codec
	}{
		{"zstd", &parquet.Zstd},
		{"snappy", &parquet.Snappy},
		{"gzip", &parquet.Gzip},
		{"lz4", &parquet.Lz4Raw},
		{"", &parquet.Uncompressed},
		{"unknown", &parquet.Uncompressed},
	}

	for _, tt := range tests {
		if got := getCompression(tt.name); got != tt.want {
			t.Errorf("getCompression(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
