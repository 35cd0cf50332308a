// Package dq computes deterministic data-quality metrics for one month's
// partition and upserts the derived summary.
//
// All persisted metrics are pure functions of the current partition
// content: validating twice without re-ingesting yields bit-identical
// results. The partition is never materialized - rows stream through a
// store cursor and duplicate detection happens store-side.
package dq

import (
	"context"
	"log/slog"
	"strings"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/xtxerr/clickdq/internal/config"
	"github.com/xtxerr/clickdq/internal/errors"
	"github.com/xtxerr/clickdq/internal/logging"
	"github.com/xtxerr/clickdq/internal/record"
	"github.com/xtxerr/clickdq/internal/store"
)

// Validator computes and persists per-month quality summaries.
type Validator struct {
	store    *store.Store
	accuracy float64
	log      *slog.Logger
}

// New creates a validator backed by st.
func New(st *store.Store, cfg config.DQConfig) *Validator {
	accuracy := cfg.SketchAccuracy
	if accuracy <= 0 || accuracy >= 1 {
		accuracy = config.DefaultSketchAccuracy
	}
	return &Validator{
		store:    st,
		accuracy: accuracy,
		log:      logging.Component("validator"),
	}
}

// Report carries diagnostic context alongside the persisted summary.
// The quantiles describe the distribution of positive transition counts
// (DDSketch estimate); they are logged, never persisted - the dq_monthly
// layout is fixed.
type Report struct {
	Summary *store.Summary

	CountP50 float64
	CountP95 float64
	CountP99 float64
}

// Validate computes the month's quality summary and upserts it.
//
// A month with zero rows still gets its summary written (row_count 0,
// schema_valid false) and Validate returns ErrPartitionEmpty as a typed
// outcome - the caller decides whether a zero-volume month is an error.
func (v *Validator) Validate(ctx context.Context, month string) (*Report, error) {
	if err := store.ValidateMonth(month); err != nil {
		return nil, err
	}

	rowCount, err := v.store.CountRows(ctx, month)
	if err != nil {
		return nil, err
	}

	if rowCount == 0 {
		summary := &store.Summary{LoadMonth: month}
		if err := v.store.UpsertSummary(ctx, summary); err != nil {
			return nil, err
		}
		v.log.Warn("partition empty", "month", month)
		return &Report{Summary: summary}, errors.Wrapf(errors.ErrPartitionEmpty, "month %s", month)
	}

	sketch, err := ddsketch.NewDefaultDDSketch(v.accuracy)
	if err != nil {
		return nil, errors.Wrap(err, "create count sketch")
	}

	var nullRows, rangeRows, invalidTypeRows int64

	sc, err := v.store.ScanPartition(ctx, month)
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	for sc.Next() {
		rec := sc.Record()

		if isNull(rec) {
			nullRows++
		}
		if rec.N < 0 {
			rangeRows++
		}
		if !record.ValidType(rec.Type) {
			invalidTypeRows++
		}
		if rec.N > 0 {
			// Sketch error only occurs for non-positive values.
			_ = sketch.Add(float64(rec.N))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	distinct, err := v.store.DistinctTripleCount(ctx, month)
	if err != nil {
		return nil, err
	}

	summary := &store.Summary{
		LoadMonth:      month,
		RowCount:       rowCount,
		NullRate:       float64(nullRows) / float64(rowCount),
		DuplicateRate:  float64(rowCount-distinct) / float64(rowCount),
		RangeErrorRate: float64(rangeRows) / float64(rowCount),
		SchemaValid:    invalidTypeRows == 0,
	}

	if err := v.store.UpsertSummary(ctx, summary); err != nil {
		return nil, err
	}

	report := &Report{Summary: summary}
	if sketch.GetCount() > 0 {
		report.CountP50, _ = sketch.GetValueAtQuantile(0.50)
		report.CountP95, _ = sketch.GetValueAtQuantile(0.95)
		report.CountP99, _ = sketch.GetValueAtQuantile(0.99)
	}

	v.log.Info("validated",
		"month", month,
		"rows", summary.RowCount,
		"null_rate", summary.NullRate,
		"duplicate_rate", summary.DuplicateRate,
		"range_error_rate", summary.RangeErrorRate,
		"schema_valid", summary.SchemaValid,
		"count_p50", report.CountP50,
		"count_p95", report.CountP95,
		"count_p99", report.CountP99)

	return report, nil
}

// isNull reports whether any required text field is empty (or a missing
// marker) after trimming. Such rows enter the partition only through
// external mutation - the parser rejects them - but the metric must still
// observe them.
func isNull(rec record.Record) bool {
	return strings.TrimSpace(rec.Prev) == "" ||
		strings.TrimSpace(rec.Curr) == "" ||
		strings.TrimSpace(rec.Type) == ""
}
