package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/xtxerr/clickdq/internal/errors"
	"github.com/xtxerr/clickdq/internal/record"
)

// maxRowsPerInsert caps the number of rows per multi-row INSERT.
// 5 columns * 200 rows = 1000 parameters per statement, conservative
// against driver parameter limits.
const maxRowsPerInsert = 200

// =============================================================================
// Partition Replace
// =============================================================================

// ReplacePartition atomically replaces the partition for month.
//
// Within one transaction it deletes all existing rows for the month, then
// hands a PartitionWriter to fn - written chunks insert additively behind
// the initiating delete. If fn returns an error the transaction rolls
// back and the prior partition stays intact; a reader querying mid-run
// sees either the old partition or the new one, never a mix.
//
// Replaces targeting the same month are serialized: a concurrent caller
// gets ErrPartitionBusy instead of racing the delete-then-insert.
func (s *Store) ReplacePartition(ctx context.Context, month string, fn func(w *PartitionWriter) error) (int64, error) {
	if err := ValidateMonth(month); err != nil {
		return 0, err
	}

	if !s.locks.tryAcquire(month) {
		return 0, errors.Wrapf(errors.ErrPartitionBusy, "month %s", month)
	}
	defer s.locks.release(month)

	var inserted int64
	err := s.TransactionContext(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM clickstream_raw WHERE load_month = ?`, month); err != nil {
			return fmt.Errorf("delete partition %s: %w", month, err)
		}

		w := &PartitionWriter{ctx: ctx, tx: tx, month: month, table: "clickstream_raw"}
		if err := fn(w); err != nil {
			return err
		}
		inserted = w.inserted
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("replace partition %s: %w", month, err)
	}

	return inserted, nil
}

// ReplacePartitionStaged replaces the partition through a per-month stage
// table instead of one long transaction. Each WriteChunk commits
// independently into the stage, so one failed chunk cannot poison the
// transaction the others ride in; the partition itself changes only in the
// final swap transaction (delete month rows, move staged rows in, drop the
// stage). Readers observe the old partition until the swap commits.
//
// This is the write path for relaxed-mode ingestion, where the caller
// absorbs chunk failures and commits the survivors.
func (s *Store) ReplacePartitionStaged(ctx context.Context, month string, fn func(w *PartitionWriter) error) (int64, error) {
	if err := ValidateMonth(month); err != nil {
		return 0, err
	}

	if !s.locks.tryAcquire(month) {
		return 0, errors.Wrapf(errors.ErrPartitionBusy, "month %s", month)
	}
	defer s.locks.release(month)

	stage := stageTableName(month)

	// A stage left over from a crashed run holds rows of a replace that
	// never swapped; start clean.
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+stage); err != nil {
		return 0, fmt.Errorf("drop stale stage for %s: %w", month, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`CREATE TABLE `+stage+` AS SELECT * FROM clickstream_raw LIMIT 0`); err != nil {
		return 0, fmt.Errorf("create stage for %s: %w", month, err)
	}

	w := &PartitionWriter{ctx: ctx, store: s, month: month, table: stage}
	if err := fn(w); err != nil {
		s.dropStage(stage)
		return 0, fmt.Errorf("replace partition %s: %w", month, err)
	}

	err := s.TransactionContext(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM clickstream_raw WHERE load_month = ?`, month); err != nil {
			return fmt.Errorf("delete partition %s: %w", month, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO clickstream_raw SELECT * FROM `+stage); err != nil {
			return fmt.Errorf("swap stage for %s: %w", month, err)
		}
		if _, err := tx.ExecContext(ctx, `DROP TABLE `+stage); err != nil {
			return fmt.Errorf("drop stage for %s: %w", month, err)
		}
		return nil
	})
	if err != nil {
		s.dropStage(stage)
		return 0, fmt.Errorf("replace partition %s: %w", month, err)
	}

	return w.inserted, nil
}

// stageTableName derives the stage table for a month. The month has
// already passed ValidateMonth, so the result is a safe identifier.
func stageTableName(month string) string {
	return "clickstream_stage_" + strings.ReplaceAll(month, "-", "_")
}

// dropStage is best-effort cleanup after a failed staged replace.
func (s *Store) dropStage(stage string) {
	_, _ = s.db.ExecContext(context.Background(), `DROP TABLE IF EXISTS `+stage)
}

// PartitionWriter inserts record chunks for one replace operation. It is
// only valid for the duration of the replace callback.
//
// In the single-transaction replace every chunk rides the enclosing
// transaction; in the staged replace each chunk is its own transaction
// against the stage table.
type PartitionWriter struct {
	ctx      context.Context
	tx       *sql.Tx // set for the single-transaction replace
	store    *Store  // set for the staged replace
	month    string
	table    string
	inserted int64
}

// Month returns the partition key this writer targets.
func (w *PartitionWriter) Month() string {
	return w.month
}

// Inserted returns the number of rows written so far.
func (w *PartitionWriter) Inserted() int64 {
	return w.inserted
}

// WriteChunk inserts a chunk of records using multi-row INSERTs. In the
// staged mode a failed chunk rolls back alone, leaving the stage with
// exactly the previously written chunks.
func (w *PartitionWriter) WriteChunk(records []record.Record) error {
	if len(records) == 0 {
		return nil
	}

	if w.tx != nil {
		if err := w.writeBatches(w.tx, records); err != nil {
			return err
		}
		w.inserted += int64(len(records))
		return nil
	}

	err := w.store.TransactionContext(w.ctx, func(tx *sql.Tx) error {
		return w.writeBatches(tx, records)
	})
	if err != nil {
		return err
	}
	w.inserted += int64(len(records))
	return nil
}

// writeBatches splits records at the parameter limit and executes the
// multi-row INSERTs within tx.
func (w *PartitionWriter) writeBatches(tx *sql.Tx, records []record.Record) error {
	for i := 0; i < len(records); i += maxRowsPerInsert {
		end := i + maxRowsPerInsert
		if end > len(records) {
			end = len(records)
		}
		if err := w.insertMultiRow(tx, records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// insertMultiRow builds and executes one multi-row INSERT statement.
func (w *PartitionWriter) insertMultiRow(tx *sql.Tx, records []record.Record) error {
	const columnsPerRow = 5

	args := make([]interface{}, 0, len(records)*columnsPerRow)

	var query strings.Builder
	query.Grow(100 + len(records)*14)
	query.WriteString(`INSERT INTO ` + w.table + ` (prev, curr, type, n, load_month) VALUES `)

	for i, rec := range records {
		if i > 0 {
			query.WriteByte(',')
		}
		query.WriteString("(?,?,?,?,?)")
		args = append(args, rec.Prev, rec.Curr, rec.Type, rec.N, w.month)
	}

	if _, err := tx.ExecContext(w.ctx, query.String(), args...); err != nil {
		return fmt.Errorf("insert chunk (%d rows): %w", len(records), err)
	}

	return nil
}

// =============================================================================
// Partition Reads
// =============================================================================

// CountRows returns the number of rows in the month's partition.
func (s *Store) CountRows(ctx context.Context, month string) (int64, error) {
	if err := ValidateMonth(month); err != nil {
		return 0, err
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clickstream_raw WHERE load_month = ?`, month,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count partition %s: %w", month, err)
	}
	return count, nil
}

// DistinctTripleCount returns the number of distinct (prev, curr, type)
// triples in the month's partition. Computed store-side so the validator
// never materializes the partition for duplicate detection.
func (s *Store) DistinctTripleCount(ctx context.Context, month string) (int64, error) {
	if err := ValidateMonth(month); err != nil {
		return 0, err
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT DISTINCT prev, curr, type
			FROM clickstream_raw
			WHERE load_month = ?
		)`, month,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("distinct triples %s: %w", month, err)
	}
	return count, nil
}

// ScanPartition returns a lazy cursor over the month's partition.
// Each call starts a fresh scan; the caller must Close the scanner.
// The whole scan shares one query-timeout window.
func (s *Store) ScanPartition(ctx context.Context, month string) (*PartitionScanner, error) {
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}

	ctx, cancel := s.queryContext(ctx)

	rows, err := s.db.QueryContext(ctx, `
		SELECT prev, curr, type, n
		FROM clickstream_raw
		WHERE load_month = ?`, month)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("scan partition %s: %w", month, err)
	}

	return &PartitionScanner{rows: rows, cancel: cancel, month: month}, nil
}

// PartitionScanner iterates one month's records without materializing the
// partition in memory.
//
// Usage:
//
//	sc, err := store.ScanPartition(ctx, month)
//	if err != nil { ... }
//	defer sc.Close()
//	for sc.Next() {
//	    rec := sc.Record()
//	    ...
//	}
//	if err := sc.Err(); err != nil { ... }
type PartitionScanner struct {
	rows    *sql.Rows
	cancel  context.CancelFunc
	month   string
	current record.Record
	err     error
}

// Next advances to the next record. It returns false when the scan is
// exhausted or an error occurred; check Err afterwards.
func (sc *PartitionScanner) Next() bool {
	if sc.err != nil || !sc.rows.Next() {
		return false
	}

	var rec record.Record
	if err := sc.rows.Scan(&rec.Prev, &rec.Curr, &rec.Type, &rec.N); err != nil {
		sc.err = fmt.Errorf("scan row: %w", err)
		return false
	}
	rec.LoadMonth = sc.month

	sc.current = rec
	return true
}

// Record returns the record at the current position.
func (sc *PartitionScanner) Record() record.Record {
	return sc.current
}

// Err returns the first error encountered during iteration.
func (sc *PartitionScanner) Err() error {
	if sc.err != nil {
		return sc.err
	}
	return sc.rows.Err()
}

// Close releases the underlying cursor.
func (sc *PartitionScanner) Close() error {
	defer sc.cancel()
	return sc.rows.Close()
}
