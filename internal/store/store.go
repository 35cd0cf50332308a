// Package store provides the durable partitioned store for the clickdq
// pipeline.
//
// This package handles all persistence: the raw clickstream partitions,
// the per-month data-quality summaries, and the append-only ingest audit
// trail. It uses DuckDB as the backing database. Writes are durable at
// transaction boundaries, not at every row.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/xtxerr/clickdq/internal/errors"
)

// =============================================================================
// Store Configuration
// =============================================================================

// Config holds store configuration options.
type Config struct {
	// Path is the database file. Empty opens an in-memory database.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// QueryTimeout is the default timeout for queries.
	QueryTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns: 8,
		MaxIdleConns: 2,
		QueryTimeout: 5 * time.Minute,
	}
}

// =============================================================================
// Store
// =============================================================================

// Store provides database operations.
//
// Store is safe for concurrent use. Transactions against different months
// never block each other; a replace targeting one month is serialized
// against other replaces of the same month by an advisory lock.
type Store struct {
	db     *sql.DB
	config Config
	locks  monthLocks
	mu     sync.RWMutex
	closed bool
}

// Open creates a new Store and ensures the schema exists.
func Open(cfg Config) (*Store, error) {
	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{
		db:     db,
		config: cfg,
		locks:  newMonthLocks(),
	}

	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.db.Close()
}

// DB returns the underlying database connection.
// Use with caution - prefer using Store methods.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Health checks database connectivity.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// queryContext bounds ctx with the configured QueryTimeout. Applied to
// every query-shaped store operation; the replace transactions run on the
// caller's context alone, since a full-month ingest legitimately outlives
// a query timeout.
func (s *Store) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.config.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().QueryTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// =============================================================================
// Transaction Support
// =============================================================================

// TransactionContext executes a function within a database transaction.
//
// If the function returns an error, the transaction is rolled back.
// If the function returns nil, the transaction is committed.
func (s *Store) TransactionContext(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// =============================================================================
// Month Keys
// =============================================================================

const monthLayout = "2006-01"

// ValidateMonth checks that month is a YYYY-MM partition key.
func ValidateMonth(month string) error {
	if _, err := time.Parse(monthLayout, month); err != nil {
		return errors.Wrapf(errors.ErrInvalidMonth, "month %q", month)
	}
	return nil
}

// PrevMonth returns the calendar month immediately before month, as YYYY-MM.
func PrevMonth(month string) (string, error) {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidMonth, "month %q", month)
	}
	return t.AddDate(0, -1, 0).Format(monthLayout), nil
}

// =============================================================================
// Per-Month Advisory Locks
// =============================================================================

// monthLocks serializes partition replaces that target the same month.
// Acquisition is non-blocking: a concurrent replace of the same month is a
// caller error, not something to queue behind.
type monthLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMonthLocks() monthLocks {
	return monthLocks{held: make(map[string]bool)}
}

func (l *monthLocks) tryAcquire(month string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[month] {
		return false
	}
	l.held[month] = true
	return true
}

func (l *monthLocks) release(month string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, month)
}
