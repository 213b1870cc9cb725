package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confkit/config-store/internal/infrastructure/logging"
)

// Pool configuration constants.
const (
	// pingTimeout bounds the connectivity check run during Initialize.
	pingTimeout = 5 * time.Second

	// defaultConnectTimeout is used when Config.ConnectTimeout is zero.
	defaultConnectTimeout = 10 * time.Second
)

// Row is a single result row keyed by column name.
type Row = map[string]any

// Config contains connection pool options.
// These map to the database section of config.yaml.
type Config struct {
	// URL is the PostgreSQL connection string.
	// The scheme must be postgres:// or postgresql://.
	URL string

	// MinConnections is the number of connections kept open while idle.
	MinConnections int32

	// MaxConnections bounds the pool. At most this many queries run
	// concurrently; further callers wait for a connection to free up.
	MaxConnections int32

	// ConnectTimeout is the per-connection dial timeout.
	ConnectTimeout time.Duration
}

// Pool wraps pgxpool with lifecycle guards and map-based row access.
//
// The zero value is unusable until Initialize succeeds; every operation on
// an uninitialised (or closed) pool returns ErrNotInitialized rather than
// panicking.
//
// Thread Safety:
//   - All methods are safe for concurrent use once Initialize has returned.
//   - Initialize and Close must not race with in-flight operations.
type Pool struct {
	pool   *pgxpool.Pool
	cfg    Config
	logger *logging.Logger
}

// New creates an unconnected Pool. Call Initialize before use.
//
// Parameters:
//   - cfg: Pool configuration
//   - logger: Structured logger for lifecycle events
//
// Returns:
//   - *Pool: Pool ready to be initialised
func New(cfg Config, logger *logging.Logger) *Pool {
	if logger == nil {
		logger = logging.Default()
	}
	return &Pool{
		cfg:    cfg,
		logger: logger.With("component", "database"),
	}
}

// Initialize validates the configuration and establishes the connection pool.
//
// It performs the following setup:
//  1. Rejects a second call while the pool is live (ErrAlreadyInitialized)
//  2. Validates pool bounds (max >= 1, min >= 0, min <= max)
//  3. Validates the connection string scheme before any network activity
//  4. Parses the connection string and applies pool sizing
//  5. Establishes the pool and verifies connectivity with a ping
//
// A failed ping tears the half-built pool down again, so a Pool is either
// fully connected or not initialised at all.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: ErrAlreadyInitialized, *UnsupportedDSNError, or the underlying
//     connection failure
func (p *Pool) Initialize(ctx context.Context) error {
	if p.pool != nil {
		return ErrAlreadyInitialized
	}

	if err := validateBounds(p.cfg); err != nil {
		return err
	}

	// Reject non-PostgreSQL connection strings before dialling anything.
	if err := validateDSN(p.cfg.URL); err != nil {
		return err
	}

	poolCfg, err := pgxpool.ParseConfig(normalizeDSN(p.cfg.URL))
	if err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}

	poolCfg.MinConns = p.cfg.MinConnections
	poolCfg.MaxConns = p.cfg.MaxConnections
	poolCfg.ConnConfig.ConnectTimeout = p.cfg.ConnectTimeout
	if poolCfg.ConnConfig.ConnectTimeout == 0 {
		poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity before declaring the pool ready
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("verifying database connection: %w", err)
	}

	p.pool = pool

	p.logger.Info("connection pool initialised",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"min_connections", p.cfg.MinConnections,
		"max_connections", p.cfg.MaxConnections,
	)

	return nil
}

// Close releases all pooled connections. It blocks until leased connections
// are returned, then leaves the Pool in the uninitialised state. Calling
// Close on an uninitialised pool is a no-op.
func (p *Pool) Close() {
	if p.pool == nil {
		return
	}
	p.pool.Close()
	p.pool = nil
	p.logger.Info("connection pool closed")
}

// Acquire leases a dedicated connection from the pool.
//
// The caller owns the connection until Release is called; prefer the Query,
// Exec, and Transaction helpers, which manage the lease themselves.
//
// Parameters:
//   - ctx: Context for timeout/cancellation while waiting on the pool
//
// Returns:
//   - *pgxpool.Conn: Leased connection; the caller must call Release
//   - error: ErrNotInitialized or the acquire failure
func (p *Pool) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	if p.pool == nil {
		return nil, ErrNotInitialized
	}
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return conn, nil
}

// Query runs a SELECT and returns all result rows as column-keyed maps.
//
// The connection used is returned to the pool before Query returns,
// regardless of outcome.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sql: Query with $1-style placeholders
//   - args: Arguments for placeholders
//
// Returns:
//   - []Row: All matching rows; empty slice when none match
//   - error: ErrNotInitialized or the query failure
func (p *Pool) Query(ctx context.Context, sql string, args ...any) ([]Row, error) {
	if p.pool == nil {
		return nil, ErrNotInitialized
	}
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collecting rows: %w", err)
	}
	return collected, nil
}

// QueryRow runs a query expected to return a single row.
//
// When no row matches, the returned error satisfies
// errors.Is(err, pgx.ErrNoRows); callers translate that into their own
// not-found sentinels.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sql: Query with $1-style placeholders
//   - args: Arguments for placeholders
//
// Returns:
//   - Row: The single matching row
//   - error: ErrNotInitialized, a wrapped pgx.ErrNoRows, or the query failure
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) (Row, error) {
	if p.pool == nil {
		return nil, ErrNotInitialized
	}
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collecting row: %w", err)
	}
	return row, nil
}

// Exec runs a statement that returns no rows (INSERT, UPDATE, DELETE, DDL).
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sql: Statement with $1-style placeholders
//   - args: Arguments for placeholders
//
// Returns:
//   - int64: Number of rows affected
//   - error: ErrNotInitialized or the execution failure
func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if p.pool == nil {
		return 0, ErrNotInitialized
	}
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("executing statement: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExecReturning runs a mutating statement with a RETURNING clause and
// returns the single produced row.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sql: Statement with $1-style placeholders and a RETURNING clause
//   - args: Arguments for placeholders
//
// Returns:
//   - Row: The returned row
//   - error: ErrNotInitialized, a wrapped pgx.ErrNoRows, or the failure
func (p *Pool) ExecReturning(ctx context.Context, sql string, args ...any) (Row, error) {
	return p.QueryRow(ctx, sql, args...)
}

// Transaction runs fn inside a single transaction on one pooled connection.
//
// The transaction commits when fn returns nil and rolls back when fn returns
// an error or panics. The connection is returned to the pool either way.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - fn: Work to perform; receives the open transaction
//
// Returns:
//   - error: ErrNotInitialized, fn's error, or a begin/commit failure
//
// Example:
//
//	err := pool.Transaction(ctx, func(tx pgx.Tx) error {
//	    if _, err := tx.Exec(ctx, insertParent, id); err != nil {
//	        return err
//	    }
//	    _, err := tx.Exec(ctx, insertChild, id)
//	    return err
//	})
func (p *Pool) Transaction(ctx context.Context, fn func(pgx.Tx) error) error {
	if p.pool == nil {
		return ErrNotInitialized
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback is a no-op after commit

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: ErrNotInitialized, or nil if the database answered
func (p *Pool) Ping(ctx context.Context) error {
	if p.pool == nil {
		return ErrNotInitialized
	}
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// Stat returns pool statistics, or nil when the pool is not initialised.
// Useful for health endpoints and lease accounting.
func (p *Pool) Stat() *pgxpool.Stat {
	if p.pool == nil {
		return nil
	}
	return p.pool.Stat()
}

// validateBounds checks the pool sizing invariants.
func validateBounds(cfg Config) error {
	if cfg.MaxConnections < 1 {
		return fmt.Errorf("max connections must be at least 1, got %d", cfg.MaxConnections)
	}
	if cfg.MinConnections < 0 {
		return fmt.Errorf("min connections must not be negative, got %d", cfg.MinConnections)
	}
	if cfg.MinConnections > cfg.MaxConnections {
		return fmt.Errorf("min connections (%d) must not exceed max connections (%d)",
			cfg.MinConnections, cfg.MaxConnections)
	}
	return nil
}

// validateDSN rejects connection strings that are not PostgreSQL URLs.
// Keyword/value strings ("host=... dbname=...") have no scheme and are
// rejected the same way.
func validateDSN(dsn string) error {
	scheme := connectionScheme(dsn)
	switch scheme {
	case "postgres", "postgresql":
		return nil
	default:
		return &UnsupportedDSNError{Scheme: scheme}
	}
}

// connectionScheme extracts the URL scheme from a connection string.
// Returns "" when the string has no scheme or cannot be parsed.
func connectionScheme(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return ""
	}
	return u.Scheme
}

// normalizeDSN lowercases the URL scheme so the driver's prefix-based URL
// detection agrees with the scheme validation here, which compares the
// parsed (already lowercased) scheme. Everything after "://", credentials
// included, is preserved byte for byte. Strings without "://" pass through
// unchanged.
func normalizeDSN(dsn string) string {
	i := strings.Index(dsn, "://")
	if i < 0 {
		return dsn
	}
	return strings.ToLower(dsn[:i]) + dsn[i:]
}
