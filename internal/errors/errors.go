// Package errors consolidates error definitions for the clickdq pipeline.
//
// This package provides:
// - Sentinel errors for all error conditions
// - Error category checking functions
// - Error wrapping utilities
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors for common conditions
// ============================================================================

var (
	// Not found errors
	ErrNotFound        = errors.New("not found")
	ErrSummaryNotFound = errors.New("summary not found")
	ErrSourceNotFound  = errors.New("source file not found")

	// Precondition errors for validation and SLA stages.
	// These are typed outcomes, not crashes: callers branch on them.
	ErrPartitionEmpty  = errors.New("partition is empty")
	ErrBaselineMissing = errors.New("baseline summary missing")

	// Configuration errors (fail fast, before any I/O)
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidMonth  = errors.New("invalid month (want YYYY-MM)")

	// Storage errors
	ErrDatabase      = errors.New("database error")
	ErrTxRollback    = errors.New("transaction rolled back")
	ErrPartitionBusy = errors.New("partition ingest already in progress")
	ErrStoreClosed   = errors.New("store is closed")
)

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSummaryNotFound) ||
		errors.Is(err, ErrSourceNotFound)
}

// IsPrecondition returns true if err is a precondition failure of the
// validation or SLA stage (reported, not fatal).
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPartitionEmpty) ||
		errors.Is(err, ErrBaselineMissing)
}

// IsValidation returns true if err is a configuration/validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidMonth)
}

// IsStorage returns true if err is a storage-level error.
func IsStorage(err error) bool {
	return errors.Is(err, ErrDatabase) ||
		errors.Is(err, ErrTxRollback) ||
		errors.Is(err, ErrPartitionBusy) ||
		errors.Is(err, ErrStoreClosed)
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ============================================================================
// Error constructors with context
// ============================================================================

// NewNotFound creates a not-found error with context.
func NewNotFound(entityType, identifier string) error {
	return fmt.Errorf("%s '%s': %w", entityType, identifier, ErrNotFound)
}

// NewValidation creates a configuration validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// NewInvalidValue creates an invalid value error.
func NewInvalidValue(field string, value interface{}, reason string) error {
	return fmt.Errorf("invalid %s '%v': %s: %w", field, value, reason, ErrInvalidConfig)
}
