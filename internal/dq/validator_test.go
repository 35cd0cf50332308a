package dq

import (
	"context"
	"path/filepath"
	"testing"

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

func fillPartition(t *testing.T, s *store.Store, month string, records []record.Record) {
	t.Helper()

	_, err := s.ReplacePartition(context.Background(), month, func(w *store.PartitionWriter) error {
		return w.WriteChunk(records)
	})
	if err != nil {
		t.Fatalf("ReplacePartition: %v", err)
	}
}

func newValidator(s *store.Store) *Validator {
	return New(s, config.DefaultConfig().DQ)
}

func TestValidateMetrics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// 4 rows: one with empty prev, one exact duplicate by (prev, curr,
	// type), one with a negative count. Each condition hits exactly one
	// row, so every rate is 0.25. Rows like these enter the partition
	// only through external mutation; written directly here to exercise
	// the metrics.
	fillPartition(t, s, "2025-09", []record.Record{
		{Prev: "A", Curr: "B", Type: "link", N: 10},
		{Prev: "", Curr: "B", Type: "link", N: 5},
		{Prev: "A", Curr: "B", Type: "link", N: 99},
		{Prev: "A", Curr: "C", Type: "link", N: -5},
	})

	report, err := newValidator(s).Validate(ctx, "2025-09")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	sum := report.Summary
	if sum.RowCount != 4 {
		t.Errorf("row_count = %d, want 4", sum.RowCount)
	}
	if sum.NullRate != 0.25 {
		t.Errorf("null_rate = %v, want 0.25", sum.NullRate)
	}
	if sum.DuplicateRate != 0.25 {
		t.Errorf("duplicate_rate = %v, want 0.25", sum.DuplicateRate)
	}
	if sum.RangeErrorRate != 0.25 {
		t.Errorf("range_error_rate = %v, want 0.25", sum.RangeErrorRate)
	}
	if !sum.SchemaValid {
		t.Error("schema_valid = false, want true")
	}

	// The summary is persisted.
	stored, err := s.GetSummary(ctx, "2025-09")
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if *stored != *sum {
		t.Errorf("stored summary %+v != computed %+v", stored, sum)
	}
}

func TestValidateDeterministic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := make([]record.Record, 0, 100)
	for i := 0; i < 100; i++ {
		records = append(records, record.Record{
			Prev: "P", Curr: string(rune('A' + i%7)), Type: "link", N: int64(i % 13),
		})
	}
	fillPartition(t, s, "2025-09", records)

	v := newValidator(s)

	first, err := v.Validate(ctx, "2025-09")
	if err != nil {
		t.Fatalf("first Validate: %v", err)
	}
	second, err := v.Validate(ctx, "2025-09")
	if err != nil {
		t.Fatalf("second Validate: %v", err)
	}

	// Bit-identical without intervening writes.
	if *first.Summary != *second.Summary {
		t.Errorf("summaries differ: %+v vs %+v", first.Summary, second.Summary)
	}
}

func TestValidateSchemaInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fillPartition(t, s, "2025-09", []record.Record{
		{Prev: "A", Curr: "B", Type: "link", N: 1},
		{Prev: "A", Curr: "C", Type: "banner", N: 2},
	})

	report, err := newValidator(s).Validate(ctx, "2025-09")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Summary.SchemaValid {
		t.Error("schema_valid = true with an out-of-set type")
	}
}

func TestValidateEmptyPartition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	report, err := newValidator(s).Validate(ctx, "2025-09")
	if !errors.Is(err, errors.ErrPartitionEmpty) {
		t.Fatalf("error = %v, want ErrPartitionEmpty", err)
	}

	// The zero summary is still reported and persisted; policy belongs
	// to the SLA stage.
	if report == nil || report.Summary.RowCount != 0 || report.Summary.SchemaValid {
		t.Fatalf("report = %+v, want zero summary with schema_valid=false", report)
	}

	stored, getErr := s.GetSummary(ctx, "2025-09")
	if getErr != nil {
		t.Fatalf("GetSummary: %v", getErr)
	}
	if stored.RowCount != 0 || stored.SchemaValid {
		t.Errorf("stored summary = %+v", stored)
	}
}

func TestValidateCountQuantiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := make([]record.Record, 0, 1000)
	for i := 1; i <= 1000; i++ {
		records = append(records, record.Record{
			Prev: "P", Curr: string(rune('A'+i%26)) + string(rune('a'+i/26)), Type: "link", N: int64(i),
		})
	}
	fillPartition(t, s, "2025-09", records)

	report, err := newValidator(s).Validate(ctx, "2025-09")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// DDSketch guarantees 1% relative accuracy.
	if report.CountP50 < 450 || report.CountP50 > 550 {
		t.Errorf("p50 = %v, want near 500", report.CountP50)
	}
	if report.CountP99 < 950 || report.CountP99 > 1010 {
		t.Errorf("p99 = %v, want near 990", report.CountP99)
	}
	if report.CountP95 > report.CountP99 {
		t.Errorf("p95 %v > p99 %v", report.CountP95, report.CountP99)
	}
}
