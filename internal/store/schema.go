package store

import (
	"context"
	"fmt"
)

// migrate creates tables and indexes if they do not exist.
//
// This is idempotent - safe to run on every Open.
//
// Persisted layout (consumed by external read surfaces, do not change):
//   - clickstream_raw(prev, curr, type, n, load_month), indexed on load_month
//   - dq_monthly(load_month PRIMARY KEY, row_count, null_rate,
//     duplicate_rate, range_error_rate, schema_valid)
//   - ingest_audit(id, load_month, source_file, inserted_rows,
//     skipped_lines, started_at, ended_at, status), append-only
func (s *Store) migrate(ctx context.Context) error {
	migrations := []struct {
		name string
		sql  string
	}{
		{
			name: "clickstream_raw",
			sql: `CREATE TABLE IF NOT EXISTS clickstream_raw (
				prev       TEXT    NOT NULL,
				curr       TEXT    NOT NULL,
				type       TEXT    NOT NULL,
				n          INTEGER NOT NULL,
				load_month TEXT    NOT NULL
			)`,
		},
		{
			// Delete/scan/count by month must not be a full-store scan.
			name: "clickstream_raw.idx_load_month",
			sql: `CREATE INDEX IF NOT EXISTS idx_clickstream_raw_load_month
				ON clickstream_raw (load_month)`,
		},
		{
			name: "dq_monthly",
			sql: `CREATE TABLE IF NOT EXISTS dq_monthly (
				load_month       TEXT PRIMARY KEY,
				row_count        INTEGER NOT NULL,
				null_rate        REAL    NOT NULL,
				duplicate_rate   REAL    NOT NULL,
				range_error_rate REAL    NOT NULL,
				schema_valid     INTEGER NOT NULL
			)`,
		},
		{
			name: "ingest_audit.seq",
			sql:  `CREATE SEQUENCE IF NOT EXISTS seq_ingest_audit START 1`,
		},
		{
			name: "ingest_audit",
			sql: `CREATE TABLE IF NOT EXISTS ingest_audit (
				id            INTEGER   PRIMARY KEY DEFAULT nextval('seq_ingest_audit'),
				load_month    TEXT      NOT NULL,
				source_file   TEXT      NOT NULL,
				inserted_rows INTEGER   NOT NULL,
				skipped_lines INTEGER   NOT NULL,
				started_at    TIMESTAMP NOT NULL,
				ended_at      TIMESTAMP NOT NULL,
				status        TEXT      NOT NULL
			)`,
		},
	}

	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}

	return nil
}
