// Package ingest turns one source file for one declared month into a
// consistent partition plus an audit entry, under a fixed memory ceiling.
//
// The engine reads the source in bounded row-count chunks and pipelines
// two stages: a CPU-bound parse stage and an I/O-bound write stage. All
// chunk writes happen inside one logical replace of the month's partition
// (a single transaction in strict mode, a staged write with a final swap
// in relaxed mode), so re-running an ingest always yields exactly the
// latest successful run's records - never a union of old and new data.
package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/xtxerr/clickdq/internal/config"
	"github.com/xtxerr/clickdq/internal/errors"
	"github.com/xtxerr/clickdq/internal/logging"
	"github.com/xtxerr/clickdq/internal/record"
	"github.com/xtxerr/clickdq/internal/store"
)

// Engine ingests source files into the partitioned store.
type Engine struct {
	store  *store.Store
	parser record.Parser
	cfg    config.IngestConfig
	log    *slog.Logger

	// Statistics across runs.
	stats Stats
}

// Stats holds ingestion statistics.
type Stats struct {
	LinesRead     atomic.Int64
	RowsInserted  atomic.Int64
	LinesSkipped  atomic.Int64
	ChunksParsed  atomic.Int64
	ChunksWritten atomic.Int64
	ChunksFailed  atomic.Int64
	RunsCompleted atomic.Int64
	RunsFailed    atomic.Int64
}

// New creates an ingestion engine backed by st.
func New(st *store.Store, cfg config.IngestConfig) *Engine {
	return &Engine{
		store:  st,
		parser: record.Parser{RejectNegative: cfg.RejectNegative},
		cfg:    cfg,
		log:    logging.Component("ingest"),
	}
}

// Result describes one completed (or failed) ingestion run.
type Result struct {
	// RunID correlates log lines of this run.
	RunID string

	// Audit is the persisted audit entry.
	Audit *store.AuditEntry

	// Rejections tallies parse rejections per reason.
	Rejections map[record.Reason]int64
}

// Ingest loads one source file into the month's partition.
//
// Every run ends with exactly one audit entry, success or not. On failure
// the returned error describes the cause and the audit entry carries
// status "failed" with zero inserted rows; the prior partition is intact.
func (e *Engine) Ingest(ctx context.Context, sourcePath, month string) (*Result, error) {
	if err := store.ValidateMonth(month); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := e.log.With("run_id", runID, "month", month, "source", filepath.Base(sourcePath))

	startedAt := time.Now().UTC()
	run := &runState{rejections: make(map[record.Reason]int64)}

	log.Info("ingest started", "chunk_rows", e.cfg.ChunkRows, "allow_partial", e.cfg.AllowPartial)

	inserted, runErr := e.replace(ctx, sourcePath, month, run)
	skipped := run.parseSkipped + run.chunkSkipped

	status := store.StatusSuccess
	switch {
	case runErr != nil:
		status = store.StatusFailed
		inserted = 0
	case run.failedChunks > 0:
		status = store.StatusPartial
	}

	entry := &store.AuditEntry{
		LoadMonth:    month,
		SourceFile:   filepath.Base(sourcePath),
		InsertedRows: inserted,
		SkippedLines: skipped,
		StartedAt:    startedAt,
		EndedAt:      time.Now().UTC(),
		Status:       status,
	}

	// The audit entry is the last action before surfacing any error, so
	// even a failed run never leaves an ambiguous "did it run" state.
	if auditErr := e.store.AppendAudit(ctx, entry); auditErr != nil {
		if runErr != nil {
			return nil, errors.Wrapf(runErr, "ingest failed and audit write failed (%v)", auditErr)
		}
		return nil, errors.Wrap(auditErr, "ingest committed but audit write failed")
	}

	result := &Result{RunID: runID, Audit: entry, Rejections: run.rejections}

	if runErr != nil {
		e.stats.RunsFailed.Add(1)
		log.Error("ingest failed", "error", runErr, "skipped", skipped)
		return result, errors.Wrapf(runErr, "ingest %s", month)
	}

	e.stats.RunsCompleted.Add(1)
	e.stats.RowsInserted.Add(inserted)
	e.stats.LinesSkipped.Add(skipped)
	log.Info("ingest finished",
		"status", string(status),
		"inserted", inserted,
		"skipped", skipped,
		"duration", entry.EndedAt.Sub(entry.StartedAt))

	return result, nil
}

// runState accumulates per-run counters. The parse stage owns rejections
// and parseSkipped, the write stage owns chunkSkipped and failedChunks;
// the stages are joined before any field is read.
type runState struct {
	rejections   map[record.Reason]int64
	parseSkipped int64
	chunkSkipped int64
	failedChunks int64
}

// replace streams the source through the parse and write stages inside
// one logical partition replace.
func (e *Engine) replace(ctx context.Context, sourcePath, month string, run *runState) (int64, error) {
	reader, err := openSource(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.Wrapf(errors.ErrSourceNotFound, "%s", sourcePath)
		}
		return 0, err
	}
	defer reader.Close()

	// Relaxed mode tolerates chunk failures, so chunks must not share one
	// transaction: the staged replace commits each chunk independently and
	// swaps the survivors in at the end.
	replacePartition := e.store.ReplacePartition
	if e.cfg.AllowPartial {
		replacePartition = e.store.ReplacePartitionStaged
	}

	return replacePartition(ctx, month, func(w *store.PartitionWriter) error {
		g, gctx := errgroup.WithContext(ctx)
		chunks := make(chan []record.Record, e.cfg.QueueDepth)

		// Parse stage: read bounded chunks, parse every line, tally
		// rejections, hand valid records to the write stage.
		g.Go(func() error {
			defer close(chunks)

			for {
				lines, err := reader.NextChunk(e.cfg.ChunkRows)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}

				e.stats.LinesRead.Add(int64(len(lines)))
				valid := make([]record.Record, 0, len(lines))
				for _, line := range lines {
					rec, reason := e.parser.Parse(line, month)
					if reason != record.ReasonNone {
						run.rejections[reason]++
						run.parseSkipped++
						continue
					}
					valid = append(valid, rec)
				}
				e.stats.ChunksParsed.Add(1)

				if len(valid) == 0 {
					continue
				}

				select {
				case chunks <- valid:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})

		// Write stage: apply chunks in arrival order. A storage failure
		// aborts the whole replace unless partial success is configured,
		// in which case the failed chunk's rows count as skipped and the
		// surviving chunks still commit.
		g.Go(func() error {
			for chunk := range chunks {
				if err := w.WriteChunk(chunk); err != nil {
					if !e.cfg.AllowPartial {
						e.stats.ChunksFailed.Add(1)
						return err
					}
					run.failedChunks++
					run.chunkSkipped += int64(len(chunk))
					e.stats.ChunksFailed.Add(1)
					e.log.Warn("chunk dropped under relaxed mode",
						"month", month, "rows", len(chunk), "error", err)
					continue
				}
				e.stats.ChunksWritten.Add(1)
			}
			return nil
		})

		return g.Wait()
	})
}

// Stats returns a snapshot of cumulative engine statistics.
func (e *Engine) Stats() StatsSnapshot {
	return StatsSnapshot{
		LinesRead:     e.stats.LinesRead.Load(),
		RowsInserted:  e.stats.RowsInserted.Load(),
		LinesSkipped:  e.stats.LinesSkipped.Load(),
		ChunksParsed:  e.stats.ChunksParsed.Load(),
		ChunksWritten: e.stats.ChunksWritten.Load(),
		ChunksFailed:  e.stats.ChunksFailed.Load(),
		RunsCompleted: e.stats.RunsCompleted.Load(),
		RunsFailed:    e.stats.RunsFailed.Load(),
	}
}

// StatsSnapshot holds a point-in-time copy of engine statistics.
type StatsSnapshot struct {
	LinesRead     int64
	RowsInserted  int64
	LinesSkipped  int64
	ChunksParsed  int64
	ChunksWritten int64
	ChunksFailed  int64
	RunsCompleted int64
	RunsFailed    int64
}
