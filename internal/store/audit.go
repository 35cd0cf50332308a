package store

import (
	"context"
	"fmt"
	"time"
)

// Status is the terminal outcome of an ingestion run.
type Status string

const (
	// StatusSuccess: the source was fully consumed and the replace committed.
	StatusSuccess Status = "success"

	// StatusPartial: some chunks failed but the run committed what it
	// could under relaxed mode.
	StatusPartial Status = "partial"

	// StatusFailed: the replace transaction did not commit.
	StatusFailed Status = "failed"
)

// AuditEntry is one immutable row of the ingest audit trail.
type AuditEntry struct {
	ID           int64
	LoadMonth    string
	SourceFile   string
	InsertedRows int64
	SkippedLines int64
	StartedAt    time.Time
	EndedAt      time.Time
	Status       Status
}

// AppendAudit inserts one audit entry. Entries are append-only and are
// written for every run, including failed ones.
func (s *Store) AppendAudit(ctx context.Context, entry *AuditEntry) error {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO ingest_audit (
			load_month, source_file, inserted_rows, skipped_lines,
			started_at, ended_at, status
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		entry.LoadMonth,
		entry.SourceFile,
		entry.InsertedRows,
		entry.SkippedLines,
		entry.StartedAt.UTC(),
		entry.EndedAt.UTC(),
		string(entry.Status),
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("append audit for %s: %w", entry.LoadMonth, err)
	}
	return nil
}

// ListAudit returns audit entries for a month, newest first.
// A limit <= 0 returns all entries.
func (s *Store) ListAudit(ctx context.Context, month string, limit int) ([]*AuditEntry, error) {
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}

	query := `
		SELECT id, load_month, source_file, inserted_rows, skipped_lines,
		       started_at, ended_at, status
		FROM ingest_audit
		WHERE load_month = ?
		ORDER BY id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, month)
	if err != nil {
		return nil, fmt.Errorf("list audit for %s: %w", month, err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		var status string
		if err := rows.Scan(
			&e.ID, &e.LoadMonth, &e.SourceFile, &e.InsertedRows,
			&e.SkippedLines, &e.StartedAt, &e.EndedAt, &status,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Status = Status(status)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit for %s: %w", month, err)
	}

	return entries, nil
}
