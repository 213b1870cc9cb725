package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/confkit/config-store/internal/infrastructure/logging"
)

// writeMigration drops a SQL file into a migrations directory.
func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0600); err != nil {
		t.Fatalf("writing migration %s: %v", name, err)
	}
}

// unconnectedMigrator builds a Migrator whose pool is never touched,
// for exercising directory scanning on its own.
func unconnectedMigrator(t *testing.T, dir string) *Migrator {
	t.Helper()
	pool := New(Config{MinConnections: 1, MaxConnections: 1}, logging.Default())
	return NewMigrator(pool, dir, logging.Default())
}

// TestPendingMigrations verifies pending selection preserves version order
// and skips applied versions.
func TestPendingMigrations(t *testing.T) {
	mk := func(versions ...string) []Migration {
		ms := make([]Migration, len(versions))
		for i, v := range versions {
			ms[i] = Migration{Version: v, Path: v + ".sql"}
		}
		return ms
	}

	versions := func(ms []Migration) []string {
		if len(ms) == 0 {
			return nil
		}
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.Version
		}
		return out
	}

	tests := []struct {
		name      string
		available []Migration
		applied   []string
		want      []string
	}{
		{
			name:      "nothing applied",
			available: mk("001_init", "002_indexes", "003_triggers"),
			applied:   nil,
			want:      []string{"001_init", "002_indexes", "003_triggers"},
		},
		{
			name:      "partially applied",
			available: mk("001_init", "002_indexes", "003_triggers"),
			applied:   []string{"001_init"},
			want:      []string{"002_indexes", "003_triggers"},
		},
		{
			name:      "all applied",
			available: mk("001_init", "002_indexes"),
			applied:   []string{"001_init", "002_indexes"},
			want:      nil,
		},
		{
			name:      "applied version missing from disk is ignored",
			available: mk("002_indexes"),
			applied:   []string{"001_init", "002_indexes"},
			want:      nil,
		},
		{
			name:      "gap in applied versions",
			available: mk("001_init", "002_indexes", "003_triggers"),
			applied:   []string{"001_init", "003_triggers"},
			want:      []string{"002_indexes"},
		},
		{
			name:      "no migrations on disk",
			available: nil,
			applied:   []string{"001_init"},
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := versions(pendingMigrations(tt.available, tt.applied))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("pendingMigrations() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestAvailable verifies directory scanning, filtering, and ordering.
func TestAvailable(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "003_triggers.sql", "SELECT 3")
	writeMigration(t, dir, "001_init.sql", "SELECT 1")
	writeMigration(t, dir, "002_indexes.sql", "SELECT 2")
	writeMigration(t, dir, "notes.txt", "not a migration")
	if err := os.Mkdir(filepath.Join(dir, "archive.sql"), 0750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	migrations, err := unconnectedMigrator(t, dir).Available()
	if err != nil {
		t.Fatalf("Available() error = %v", err)
	}

	want := []string{"001_init", "002_indexes", "003_triggers"}
	if len(migrations) != len(want) {
		t.Fatalf("Available() returned %d migrations, want %d", len(migrations), len(want))
	}
	for i, m := range migrations {
		if m.Version != want[i] {
			t.Errorf("migrations[%d].Version = %q, want %q", i, m.Version, want[i])
		}
		if m.Path != filepath.Join(dir, want[i]+".sql") {
			t.Errorf("migrations[%d].Path = %q, want file in %s", i, m.Path, dir)
		}
	}
}

// TestAvailable_MissingDir verifies a missing directory yields an empty
// list, not an error.
func TestAvailable_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")

	migrations, err := unconnectedMigrator(t, dir).Available()
	if err != nil {
		t.Fatalf("Available() error = %v, want nil for missing dir", err)
	}
	if len(migrations) != 0 {
		t.Errorf("Available() = %v, want empty", migrations)
	}
}

// TestAvailable_StringOrder pins the lexicographic ordering contract:
// unpadded numeric prefixes sort as strings, so "10" comes before "2".
func TestAvailable_StringOrder(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "2_second.sql", "SELECT 2")
	writeMigration(t, dir, "10_tenth.sql", "SELECT 10")

	migrations, err := unconnectedMigrator(t, dir).Available()
	if err != nil {
		t.Fatalf("Available() error = %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("Available() returned %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != "10_tenth" || migrations[1].Version != "2_second" {
		t.Errorf("order = [%s, %s], want [10_tenth, 2_second]",
			migrations[0].Version, migrations[1].Version)
	}
}

// tableExists reports whether a relation is visible in the test database.
func tableExists(t *testing.T, pool *Pool, name string) bool {
	t.Helper()
	row, err := pool.QueryRow(context.Background(),
		"SELECT to_regclass($1) IS NOT NULL AS present", name)
	if err != nil {
		t.Fatalf("checking table %s: %v", name, err)
	}
	present, _ := row["present"].(bool)
	return present
}

// resetMigrationState clears the tracking table and any tables the
// migration fixtures create.
func resetMigrationState(t *testing.T, pool *Pool, tables ...string) {
	t.Helper()
	drop := func() {
		for _, table := range tables {
			_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+table+" CASCADE") //nolint:errcheck // Test cleanup
		}
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS schema_migrations CASCADE") //nolint:errcheck // Test cleanup
	}
	drop()
	t.Cleanup(drop)
}

// TestMigrator_Run verifies end-to-end application, idempotence, and
// re-scanning of the directory between runs.
func TestMigrator_Run(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	resetMigrationState(t, pool, "migr_widgets")

	dir := t.TempDir()
	writeMigration(t, dir, "001_create_widgets.sql",
		"CREATE TABLE migr_widgets (id SERIAL PRIMARY KEY, label TEXT NOT NULL)")
	writeMigration(t, dir, "002_seed_widgets.sql",
		"INSERT INTO migr_widgets (label) VALUES ('first')")

	migrator := NewMigrator(pool, dir, logging.Default())

	if err := migrator.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	applied, err := migrator.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied() error = %v", err)
	}
	wantApplied := []string{"001_create_widgets", "002_seed_widgets"}
	if !reflect.DeepEqual(applied, wantApplied) {
		t.Errorf("Applied() = %v, want %v", applied, wantApplied)
	}

	row, err := pool.QueryRow(ctx, "SELECT count(*) AS n FROM migr_widgets")
	if err != nil {
		t.Fatalf("QueryRow() error = %v", err)
	}
	if row["n"] != int64(1) {
		t.Errorf("widget count = %v, want 1", row["n"])
	}

	// Second run applies nothing new
	if err := migrator.Run(ctx); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	row, err = pool.QueryRow(ctx, "SELECT count(*) AS n FROM migr_widgets")
	if err != nil {
		t.Fatalf("QueryRow() error = %v", err)
	}
	if row["n"] != int64(1) {
		t.Errorf("widget count after idempotent run = %v, want 1", row["n"])
	}

	// A file added between runs is picked up by the re-scan
	writeMigration(t, dir, "003_more_widgets.sql",
		"INSERT INTO migr_widgets (label) VALUES ('second')")
	if err := migrator.Run(ctx); err != nil {
		t.Fatalf("third Run() error = %v", err)
	}

	applied, err = migrator.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied() error = %v", err)
	}
	if len(applied) != 3 {
		t.Errorf("Applied() has %d versions, want 3", len(applied))
	}
}

// TestMigrator_SelfRecording verifies a migration whose own SQL inserts
// its version does not fail on a duplicate key, and records one row.
func TestMigrator_SelfRecording(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	resetMigrationState(t, pool, "migr_selfrec")

	dir := t.TempDir()
	writeMigration(t, dir, "001_selfrec.sql",
		"CREATE TABLE migr_selfrec (id SERIAL PRIMARY KEY);\n"+
			"INSERT INTO schema_migrations (version) VALUES ('001_selfrec')")

	migrator := NewMigrator(pool, dir, logging.Default())

	if err := migrator.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	row, err := pool.QueryRow(ctx,
		"SELECT count(*) AS n FROM schema_migrations WHERE version = '001_selfrec'")
	if err != nil {
		t.Fatalf("QueryRow() error = %v", err)
	}
	if row["n"] != int64(1) {
		t.Errorf("tracking rows for 001_selfrec = %v, want 1", row["n"])
	}
}

// TestMigrator_HaltsOnFailure verifies the failed migration rolls back in
// full, earlier migrations stay committed, and later files never run.
func TestMigrator_HaltsOnFailure(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	resetMigrationState(t, pool, "migr_halt_ok", "migr_halt_partial", "migr_halt_after")

	dir := t.TempDir()
	writeMigration(t, dir, "001_ok.sql",
		"CREATE TABLE migr_halt_ok (id SERIAL PRIMARY KEY)")
	writeMigration(t, dir, "002_broken.sql",
		"CREATE TABLE migr_halt_partial (id SERIAL PRIMARY KEY); INSERT INTO no_such_relation VALUES (1)")
	writeMigration(t, dir, "003_never_runs.sql",
		"CREATE TABLE migr_halt_after (id SERIAL PRIMARY KEY)")

	migrator := NewMigrator(pool, dir, logging.Default())

	err := migrator.Run(ctx)
	var applyErr *MigrationApplyError
	if !errors.As(err, &applyErr) {
		t.Fatalf("Run() error = %v, want *MigrationApplyError", err)
	}
	if applyErr.Version != "002_broken" {
		t.Errorf("failed version = %q, want %q", applyErr.Version, "002_broken")
	}

	// 001 committed, 002 rolled back entirely, 003 untouched
	if !tableExists(t, pool, "migr_halt_ok") {
		t.Error("migr_halt_ok missing; migration before the failure should stay committed")
	}
	if tableExists(t, pool, "migr_halt_partial") {
		t.Error("migr_halt_partial exists; failed migration should roll back its own DDL")
	}
	if tableExists(t, pool, "migr_halt_after") {
		t.Error("migr_halt_after exists; migrations after the failure should not run")
	}

	applied, err := migrator.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied() error = %v", err)
	}
	if !reflect.DeepEqual(applied, []string{"001_ok"}) {
		t.Errorf("Applied() = %v, want only 001_ok", applied)
	}
}

// TestMigrator_MissingFile verifies an unreadable migration surfaces as a
// file error before any database work.
func TestMigrator_MissingFile(t *testing.T) {
	pool := testPool(t)

	migrator := NewMigrator(pool, t.TempDir(), logging.Default())

	err := migrator.Apply(context.Background(), Migration{
		Version: "001_ghost",
		Path:    filepath.Join(t.TempDir(), "001_ghost.sql"),
	})

	var fileErr *MigrationFileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("Apply() error = %v, want *MigrationFileError", err)
	}
}

// TestMigrator_EmptyDir verifies a run with no migration files succeeds and
// still creates the tracking table.
func TestMigrator_EmptyDir(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	resetMigrationState(t, pool)

	migrator := NewMigrator(pool, t.TempDir(), logging.Default())

	if err := migrator.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !tableExists(t, pool, "schema_migrations") {
		t.Error("schema_migrations should exist after a run with no files")
	}

	applied, err := migrator.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("Applied() = %v, want empty", applied)
	}
}

// TestMigrator_DropSchema verifies the teardown path removes service tables
// and the tracking table.
func TestMigrator_DropSchema(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	resetMigrationState(t, pool, "applications", "configurations")

	migrator := NewMigrator(pool, t.TempDir(), logging.Default())
	if err := migrator.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}
	mustExec(t, pool, "CREATE TABLE applications (id TEXT PRIMARY KEY)")
	mustExec(t, pool, "CREATE TABLE configurations (application_id TEXT PRIMARY KEY)")

	if err := migrator.DropSchema(ctx); err != nil {
		t.Fatalf("DropSchema() error = %v", err)
	}

	for _, table := range []string{"applications", "configurations", "schema_migrations"} {
		if tableExists(t, pool, table) {
			t.Errorf("table %s still exists after DropSchema", table)
		}
	}

	// Dropping an already clean schema is fine
	if err := migrator.DropSchema(ctx); err != nil {
		t.Errorf("second DropSchema() error = %v", err)
	}
}
