// Config Store - centralised application configuration
//
// This is the main entry point for the config store service. It hosts a
// versioned REST API where applications register under a unique name and
// read or replace their JSON configuration document, backed by PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/confkit/config-store/internal/api"
	"github.com/confkit/config-store/internal/application"
	"github.com/confkit/config-store/internal/infrastructure/config"
	"github.com/confkit/config-store/internal/infrastructure/database"
	"github.com/confkit/config-store/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// configPath is bound to the persistent --config flag.
var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}

// newRootCmd builds the configstore command tree. Running the bare command
// starts the server, so `configstore` and `configstore serve` are equivalent.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "configstore",
		Short: "Centralised application configuration service",
		Long: `configstore hosts configuration documents for other services.

Applications register under a unique name and read or replace their JSON
configuration document through the REST API. Running configstore with no
subcommand starts the server.

Server:
  configstore serve             Run the API server (also the default)

Database administration:
  configstore migrate           Apply pending migrations and exit
  configstore reset             Drop all tables and re-migrate (destructive)`,
		Version: version,
		RunE:    serveRunE,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (empty runs on defaults plus environment)")

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newResetCmd(),
	)

	return rootCmd
}

// newServeCmd creates the serve subcommand, the explicit form of the default
// action.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the configuration API server",
		Long:  `Start the HTTP API and serve until interrupted (SIGINT or SIGTERM).`,
		RunE:  serveRunE,
	}
}

// newMigrateCmd creates the migrate subcommand.
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Long: `Connect to the database, apply any migrations that have not run yet,
and exit. Already-applied migrations are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runMigrate(ctx)
		},
	}
}

// newResetCmd creates the reset subcommand.
func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop all service tables and re-run migrations (destructive)",
		Long: `Drop every service table, including stored applications and their
configuration documents, then re-apply all migrations from scratch.

This destroys all data. Intended for development and test databases.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runReset(ctx)
		},
	}
}

// serveRunE adapts runServe to cobra, wiring interrupt signals into the
// context so Ctrl+C triggers graceful shutdown.
func serveRunE(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return runServe(ctx)
}

// runServe is the server startup sequence, separated from cobra for
// testability. Returning an error allows main to handle exit codes
// consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func runServe(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting config store",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	path := getConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if path != "" {
		log.Info("configuration loaded", "path", path)
	} else {
		log.Info("configuration loaded", "source", "defaults and environment")
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect the database pool
	pool := database.New(poolConfig(cfg), log)
	if err := pool.Initialize(ctx); err != nil {
		return fmt.Errorf("initialising database pool: %w", err)
	}
	defer func() {
		log.Info("closing database pool")
		pool.Close()
	}()
	log.Info("database connected", "max_connections", cfg.Database.MaxConnections)

	// Run migrations
	migrator := database.NewMigrator(pool, cfg.Migrations.Dir, log)
	if err := migrator.Run(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")

	// Start the API server
	server, err := api.New(api.Deps{
		Config:         cfg.Server,
		Logger:         log,
		Pool:           pool,
		Applications:   application.NewPostgresRepository(pool),
		Configurations: application.NewPostgresConfigurationRepository(pool),
		Version:        version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error shutting down API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server (stops accepting requests, drains in-flight ones)
	// 2. Database pool

	return nil
}

// runMigrate connects the pool, applies pending migrations, and exits.
func runMigrate(ctx context.Context) error {
	cfg, log, pool, err := setup(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator := database.NewMigrator(pool, cfg.Migrations.Dir, log)
	if err := migrator.Run(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	log.Info("database migrations complete")
	return nil
}

// runReset rebuilds the schema from nothing: drop every service table, then
// apply every migration again.
func runReset(ctx context.Context) error {
	cfg, log, pool, err := setup(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator := database.NewMigrator(pool, cfg.Migrations.Dir, log)

	log.Warn("dropping all service tables")
	if err := migrator.DropSchema(ctx); err != nil {
		return fmt.Errorf("dropping schema: %w", err)
	}
	if err := migrator.Run(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	log.Info("schema reset complete")
	return nil
}

// setup loads configuration, builds the configured logger, and connects the
// database pool. Callers own the pool and must Close it.
func setup(ctx context.Context) (*config.Config, *logging.Logger, *database.Pool, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)

	pool := database.New(poolConfig(cfg), log)
	if err := pool.Initialize(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("initialising database pool: %w", err)
	}

	return cfg, log, pool, nil
}

// poolConfig maps the database section of the service configuration onto
// pool options.
func poolConfig(cfg *config.Config) database.Config {
	return database.Config{
		URL:            cfg.Database.URL,
		MinConnections: cfg.Database.MinConnections,
		MaxConnections: cfg.Database.MaxConnections,
		ConnectTimeout: time.Duration(cfg.Database.ConnectTimeout) * time.Second,
	}
}

// getConfigPath resolves the configuration file path. The --config flag wins,
// then the CONFIGSTORE_CONFIG environment variable. Empty runs the service on
// built-in defaults plus environment overrides.
func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return os.Getenv("CONFIGSTORE_CONFIG")
}
