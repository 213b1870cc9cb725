// Package database provides PostgreSQL connectivity for the config store service.
//
// This package manages:
//   - A bounded connection pool built on pgxpool
//   - Lifecycle guards (operations before Initialize or after Close fail
//     with ErrNotInitialized instead of panicking)
//   - Map-based row access for query results
//   - Transactional execution with automatic commit/rollback
//   - Schema migrations applied from a directory of *.sql files
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Connection strings are never logged; lifecycle logs carry host and
//     database name only
//   - Migration files execute verbatim and must come from a trusted directory
//
// Performance Characteristics:
//   - The pool keeps MinConnections warm and never exceeds MaxConnections
//   - Queries borrow a connection only for their own duration
//   - Callers beyond MaxConnections wait in pgxpool's acquire queue
//
// Usage:
//
//	pool := database.New(database.Config{
//	    URL:            cfg.Database.URL,
//	    MinConnections: cfg.Database.MinConnections,
//	    MaxConnections: cfg.Database.MaxConnections,
//	    ConnectTimeout: cfg.GetConnectTimeout(),
//	}, logger)
//	if err := pool.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	// Run migrations
//	migrator := database.NewMigrator(pool, cfg.Migrations.Dir, logger)
//	if err := migrator.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Migrations are forward-only files named <version>.sql, applied in
// lexicographic version order within per-migration transactions:
//   - Use zero-padded numeric prefixes (001_, 002_, ..., 010_) so string
//     ordering matches the intended sequence
//   - A failed migration rolls back and halts the run; earlier migrations
//     stay committed
//   - Applied versions are recorded in schema_migrations and skipped on
//     later runs
package database
