package database

import (
	"errors"
	"fmt"
)

// Sentinel errors for pool lifecycle violations.
var (
	// ErrNotInitialized is returned when an operation is attempted before
	// Initialize has succeeded, or after Close.
	ErrNotInitialized = errors.New("connection pool not initialised")

	// ErrAlreadyInitialized is returned when Initialize is called on a pool
	// that already holds live connections.
	ErrAlreadyInitialized = errors.New("connection pool already initialised")
)

// UnsupportedDSNError indicates a connection string whose scheme is not a
// PostgreSQL scheme. It is returned before any connection attempt is made.
type UnsupportedDSNError struct {
	// Scheme is the offending URL scheme; empty when the string has none.
	Scheme string
}

func (e *UnsupportedDSNError) Error() string {
	if e.Scheme == "" {
		return "unsupported connection string: no scheme (expected postgres:// or postgresql://)"
	}
	return fmt.Sprintf("unsupported connection string scheme %q (expected postgres:// or postgresql://)", e.Scheme)
}

// MigrationFileError indicates a migration file that could not be read from
// the migrations directory.
type MigrationFileError struct {
	Path string
	Err  error
}

func (e *MigrationFileError) Error() string {
	return fmt.Sprintf("reading migration file %s: %v", e.Path, e.Err)
}

func (e *MigrationFileError) Unwrap() error {
	return e.Err
}

// MigrationApplyError indicates a migration whose SQL failed to apply.
// The failed migration's transaction is rolled back; migrations applied
// before it remain committed.
type MigrationApplyError struct {
	Version string
	Err     error
}

func (e *MigrationApplyError) Error() string {
	return fmt.Sprintf("applying migration %s: %v", e.Version, e.Err)
}

func (e *MigrationApplyError) Unwrap() error {
	return e.Err
}
