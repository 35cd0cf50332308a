package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xtxerr/clickdq/internal/errors"
)

// Summary is the derived per-month data-quality record. It is overwritten
// on every validation run for its month: a projection, not an append log.
type Summary struct {
	LoadMonth      string
	RowCount       int64
	NullRate       float64
	DuplicateRate  float64
	RangeErrorRate float64
	SchemaValid    bool
}

// UpsertSummary inserts or replaces the summary keyed by load_month.
func (s *Store) UpsertSummary(ctx context.Context, sum *Summary) error {
	if err := ValidateMonth(sum.LoadMonth); err != nil {
		return err
	}

	schemaValid := 0
	if sum.SchemaValid {
		schemaValid = 1
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dq_monthly (
			load_month, row_count, null_rate, duplicate_rate,
			range_error_rate, schema_valid
		)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (load_month) DO UPDATE SET
			row_count        = excluded.row_count,
			null_rate        = excluded.null_rate,
			duplicate_rate   = excluded.duplicate_rate,
			range_error_rate = excluded.range_error_rate,
			schema_valid     = excluded.schema_valid`,
		sum.LoadMonth,
		sum.RowCount,
		sum.NullRate,
		sum.DuplicateRate,
		sum.RangeErrorRate,
		schemaValid,
	)
	if err != nil {
		return fmt.Errorf("upsert summary for %s: %w", sum.LoadMonth, err)
	}
	return nil
}

// GetSummary returns the summary for a month, or ErrSummaryNotFound.
func (s *Store) GetSummary(ctx context.Context, month string) (*Summary, error) {
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var sum Summary
	var schemaValid int
	err := s.db.QueryRowContext(ctx, `
		SELECT load_month, row_count, null_rate, duplicate_rate,
		       range_error_rate, schema_valid
		FROM dq_monthly
		WHERE load_month = ?`, month,
	).Scan(
		&sum.LoadMonth, &sum.RowCount, &sum.NullRate,
		&sum.DuplicateRate, &sum.RangeErrorRate, &schemaValid,
	)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrSummaryNotFound, "month %s", month)
	}
	if err != nil {
		return nil, fmt.Errorf("get summary for %s: %w", month, err)
	}

	sum.SchemaValid = schemaValid != 0
	return &sum, nil
}

// ListSummaries returns all summaries ordered by month ascending.
func (s *Store) ListSummaries(ctx context.Context) ([]*Summary, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT load_month, row_count, null_rate, duplicate_rate,
		       range_error_rate, schema_valid
		FROM dq_monthly
		ORDER BY load_month`)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*Summary
	for rows.Next() {
		var sum Summary
		var schemaValid int
		if err := rows.Scan(
			&sum.LoadMonth, &sum.RowCount, &sum.NullRate,
			&sum.DuplicateRate, &sum.RangeErrorRate, &schemaValid,
		); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.SchemaValid = schemaValid != 0
		summaries = append(summaries, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}

	return summaries, nil
}
