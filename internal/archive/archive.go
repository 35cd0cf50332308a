// Package archive exports a month's partition to a compressed Parquet
// file for cold retention. Exports are read-only against the store and
// safe to run alongside ingestion of other months.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/xtxerr/clickdq/internal/config"
	"github.com/xtxerr/clickdq/internal/errors"
	"github.com/xtxerr/clickdq/internal/logging"
	"github.com/xtxerr/clickdq/internal/store"
)

// writeBatchRows is the number of records buffered per Parquet write.
const writeBatchRows = 10000

// Row is one clickstream record in Parquet layout.
type Row struct {
	Prev      string `parquet:"prev"`
	Curr      string `parquet:"curr"`
	Type      string `parquet:"type"`
	N         int64  `parquet:"n"`
	LoadMonth string `parquet:"load_month"`
}

// getCompression returns the parquet-go codec for a config name.
func getCompression(name string) compress.Codec {
	switch name {
	case "snappy":
		return &parquet.Snappy
	case "zstd":
		return &parquet.Zstd
	case "lz4":
		return &parquet.Lz4Raw
	case "gzip":
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// Archiver exports partitions from the store.
type Archiver struct {
	store *store.Store
	dir   string
	codec compress.Codec
	log   *slog.Logger
}

// New creates an archiver backed by st.
func New(st *store.Store, cfg config.ArchiveConfig) *Archiver {
	return &Archiver{
		store: st,
		dir:   cfg.Dir,
		codec: getCompression(cfg.Compression),
		log:   logging.Component("archive"),
	}
}

// Path returns the export file path for a month.
func (a *Archiver) Path(month string) string {
	return filepath.Join(a.dir, fmt.Sprintf("clickstream-%s.parquet", month))
}

// Export streams the month's partition into a Parquet file and returns
// the file path and row count. An empty partition is ErrPartitionEmpty -
// there is nothing worth archiving.
func (a *Archiver) Export(ctx context.Context, month string) (string, int64, error) {
	if err := store.ValidateMonth(month); err != nil {
		return "", 0, err
	}

	count, err := a.store.CountRows(ctx, month)
	if err != nil {
		return "", 0, err
	}
	if count == 0 {
		return "", 0, errors.Wrapf(errors.ErrPartitionEmpty, "month %s", month)
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create archive dir: %w", err)
	}

	path := a.Path(month)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create archive file: %w", err)
	}

	writer := parquet.NewGenericWriter[Row](f, parquet.Compression(a.codec))

	written, err := a.copyPartition(ctx, month, writer)
	if err != nil {
		writer.Close()
		f.Close()
		os.Remove(path)
		return "", 0, err
	}

	if err := writer.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("close parquet writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("close archive file: %w", err)
	}

	a.log.Info("partition archived", "month", month, "path", path, "rows", written)
	return path, written, nil
}

// copyPartition streams partition records into the Parquet writer in
// bounded batches.
func (a *Archiver) copyPartition(ctx context.Context, month string, writer *parquet.GenericWriter[Row]) (int64, error) {
	sc, err := a.store.ScanPartition(ctx, month)
	if err != nil {
		return 0, err
	}
	defer sc.Close()

	var written int64
	batch := make([]Row, 0, writeBatchRows)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := writer.Write(batch); err != nil {
			return fmt.Errorf("write parquet batch: %w", err)
		}
		written += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for sc.Next() {
		rec := sc.Record()
		batch = append(batch, Row{
			Prev:      rec.Prev,
			Curr:      rec.Curr,
			Type:      rec.Type,
			N:         rec.N,
			LoadMonth: rec.LoadMonth,
		})

		if len(batch) == writeBatchRows {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}

	if err := flush(); err != nil {
		return 0, err
	}

	return written, nil
}

// ReadAll loads an exported archive back into memory. Intended for
// verification and small files, not for re-ingesting full extracts.
func ReadAll(path string) ([]Row, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}
	return rows, nil
}
