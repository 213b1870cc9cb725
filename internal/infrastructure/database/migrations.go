package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/confkit/config-store/internal/infrastructure/logging"
)

// Migration tracking SQL.
const (
	createMigrationsTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`

	selectAppliedVersionsSQL = "SELECT version FROM schema_migrations ORDER BY version"

	recordMigrationSQL = "INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING"
)

// migrationFileSuffix marks files in the migrations directory that are
// picked up as migrations.
const migrationFileSuffix = ".sql"

// Migration is a single SQL migration file discovered on disk.
type Migration struct {
	// Version identifies and orders the migration. It is the filename
	// without the .sql extension. Versions compare as strings, so numeric
	// prefixes must be zero-padded (001_, 002_, ..., 010_) to apply in the
	// intended order.
	Version string

	// Path is the location of the SQL file within the migrations directory.
	Path string
}

// Migrator applies SQL migration files from a directory, recording applied
// versions in the schema_migrations table.
//
// Migrations are forward-only: there is no down path. Reverting a change
// means writing a new migration.
type Migrator struct {
	pool   *Pool
	dir    string
	logger *logging.Logger
}

// NewMigrator creates a Migrator reading from the given directory.
//
// Parameters:
//   - pool: Initialised connection pool
//   - dir: Directory scanned for *.sql files
//   - logger: Structured logger for migration progress
//
// Returns:
//   - *Migrator: Migrator ready to use
func NewMigrator(pool *Pool, dir string, logger *logging.Logger) *Migrator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Migrator{
		pool:   pool,
		dir:    dir,
		logger: logger.With("component", "migrations"),
	}
}

// EnsureTable creates the schema_migrations tracking table if it doesn't exist.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: If table creation fails
func (m *Migrator) EnsureTable(ctx context.Context) error {
	if _, err := m.pool.Exec(ctx, createMigrationsTableSQL); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}
	return nil
}

// Applied returns the versions recorded in schema_migrations, in version order.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - []string: Applied versions, lexicographically ordered
//   - error: If the query fails
func (m *Migrator) Applied(ctx context.Context) ([]string, error) {
	rows, err := m.pool.Query(ctx, selectAppliedVersionsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}

	versions := make([]string, 0, len(rows))
	for _, row := range rows {
		v, ok := row["version"].(string)
		if !ok {
			return nil, fmt.Errorf("unexpected version type %T in schema_migrations", row["version"])
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// Available scans the migrations directory for *.sql files.
//
// A missing directory is not an error: it logs a warning and returns an
// empty list, so a service deployed without migration files still starts.
//
// Returns:
//   - []Migration: Discovered migrations in version order
//   - error: If the directory exists but cannot be read
func (m *Migrator) Available() ([]Migration, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("migrations directory not found, no migrations to apply", "dir", m.dir)
			return nil, nil
		}
		return nil, fmt.Errorf("reading migrations directory %s: %w", m.dir, err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, migrationFileSuffix) {
			continue
		}
		migrations = append(migrations, Migration{
			Version: strings.TrimSuffix(name, migrationFileSuffix),
			Path:    filepath.Join(m.dir, name),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// pendingMigrations returns the available migrations whose versions are not
// yet recorded as applied, preserving the available ordering.
func pendingMigrations(available []Migration, applied []string) []Migration {
	appliedSet := make(map[string]bool, len(applied))
	for _, v := range applied {
		appliedSet[v] = true
	}

	var pending []Migration
	for _, m := range available {
		if !appliedSet[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// Apply runs a single migration inside one transaction.
//
// The migration's SQL and its tracking insert commit together or not at
// all: a failure rolls back both, leaving the database exactly as it was
// before the call. The tracking insert uses ON CONFLICT DO NOTHING, so a
// migration whose own SQL records its version does not fail on a
// duplicate key.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - migration: The migration to apply
//
// Returns:
//   - error: *MigrationFileError if the file cannot be read,
//     *MigrationApplyError if the SQL fails
func (m *Migrator) Apply(ctx context.Context, migration Migration) error {
	sqlBytes, err := os.ReadFile(migration.Path)
	if err != nil {
		return &MigrationFileError{Path: migration.Path, Err: err}
	}

	err = m.pool.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, recordMigrationSQL, migration.Version); err != nil {
			return fmt.Errorf("recording migration: %w", err)
		}
		return nil
	})
	if err != nil {
		return &MigrationApplyError{Version: migration.Version, Err: err}
	}
	return nil
}

// Run applies all pending migrations in version order.
//
// # Atomicity
//
// Each migration runs in its own transaction. If migration N fails:
//   - Migrations 1 to N-1 remain committed
//   - Migration N is rolled back completely
//   - Migrations after N are not attempted
//
// Re-running after fixing the failed file continues from N; already
// applied versions are skipped, so Run is idempotent.
//
// This method:
//  1. Creates the schema_migrations table if it doesn't exist
//  2. Re-scans the migrations directory
//  3. Determines which versions haven't been applied
//  4. Applies pending migrations in order, each in its own transaction
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: The first failure; identifies the failed version
func (m *Migrator) Run(ctx context.Context) error {
	if err := m.EnsureTable(ctx); err != nil {
		return err
	}

	available, err := m.Available()
	if err != nil {
		return err
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}

	pending := pendingMigrations(available, applied)
	if len(pending) == 0 {
		m.logger.Info("no pending migrations", "applied", len(applied))
		return nil
	}

	for _, migration := range pending {
		m.logger.Info("applying migration", "version", migration.Version)
		if err := m.Apply(ctx, migration); err != nil {
			return err
		}
	}

	m.logger.Info("migrations complete", "applied", len(pending))
	return nil
}

// DropSchema removes all service tables, the migration tracking table, and
// the updated_at trigger function. Intended for development and test
// environments; there is no confirmation step at this level.
//
// Statements run sequentially outside a transaction, halting on the first
// failure.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: If any drop statement fails
func (m *Migrator) DropSchema(ctx context.Context) error {
	statements := []string{
		"DROP TABLE IF EXISTS configurations CASCADE",
		"DROP TABLE IF EXISTS applications CASCADE",
		"DROP TABLE IF EXISTS schema_migrations CASCADE",
		"DROP FUNCTION IF EXISTS update_updated_at_column() CASCADE",
	}

	for _, stmt := range statements {
		if _, err := m.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("dropping schema: %w", err)
		}
	}

	m.logger.Info("database schema dropped")
	return nil
}
