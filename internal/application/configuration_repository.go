package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/confkit/config-store/internal/infrastructure/database"
)

// ConfigurationRepository defines the interface for configuration document
// persistence.
type ConfigurationRepository interface {
	// Upsert replaces the application's configuration document, creating
	// it if absent. Returns ErrApplicationNotFound when the application
	// does not exist.
	Upsert(ctx context.Context, applicationID string, doc Document) (*Configuration, error)

	// GetByApplicationID returns the application's configuration, or
	// ErrConfigurationNotFound.
	GetByApplicationID(ctx context.Context, applicationID string) (*Configuration, error)

	// GetByApplicationName returns just the document for the named
	// application, or ErrConfigurationNotFound.
	GetByApplicationName(ctx context.Context, name string) (Document, error)

	// Delete removes the application's configuration document.
	// Returns ErrConfigurationNotFound if none existed.
	Delete(ctx context.Context, applicationID string) error
}

// PostgresConfigurationRepository implements ConfigurationRepository on the
// shared connection pool.
type PostgresConfigurationRepository struct {
	pool *database.Pool
}

// NewPostgresConfigurationRepository creates a new PostgreSQL-backed
// configuration repository.
func NewPostgresConfigurationRepository(pool *database.Pool) *PostgresConfigurationRepository {
	return &PostgresConfigurationRepository{pool: pool}
}

// Upsert writes the configuration document for an application.
// An existing document is replaced wholesale; there is no merge.
func (r *PostgresConfigurationRepository) Upsert(ctx context.Context, applicationID string, doc Document) (*Configuration, error) {
	const query = `INSERT INTO configurations (application_id, config)
		VALUES ($1, $2)
		ON CONFLICT (application_id) DO UPDATE
		SET config = EXCLUDED.config, updated_at = CURRENT_TIMESTAMP
		RETURNING application_id, config, created_at, updated_at`
	row, err := r.pool.ExecReturning(ctx, query, applicationID, doc)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("upserting configuration for %s: %w", applicationID, err)
	}
	return configurationFromRow(row), nil
}

// GetByApplicationID returns the full configuration record for an application.
func (r *PostgresConfigurationRepository) GetByApplicationID(ctx context.Context, applicationID string) (*Configuration, error) {
	const query = `SELECT application_id, config, created_at, updated_at
		FROM configurations WHERE application_id = $1`
	row, err := r.pool.QueryRow(ctx, query, applicationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigurationNotFound
		}
		return nil, fmt.Errorf("querying configuration for %s: %w", applicationID, err)
	}
	return configurationFromRow(row), nil
}

// GetByApplicationName returns the bare document for the named application.
// Consumers fetching config by service name use this single-join lookup.
func (r *PostgresConfigurationRepository) GetByApplicationName(ctx context.Context, name string) (Document, error) {
	const query = `SELECT c.config
		FROM configurations c
		JOIN applications a ON a.id = c.application_id
		WHERE a.name = $1`
	row, err := r.pool.QueryRow(ctx, query, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigurationNotFound
		}
		return nil, fmt.Errorf("querying configuration for %q: %w", name, err)
	}
	v, ok := row["config"].(map[string]any)
	if !ok {
		// A non-object value here means the stored jsonb was corrupted
		// outside this repository; surface it rather than serving {}.
		return nil, fmt.Errorf("configuration for %q is not a JSON object (got %T)", name, row["config"])
	}
	return Document(v), nil
}

// Delete removes an application's configuration document.
func (r *PostgresConfigurationRepository) Delete(ctx context.Context, applicationID string) error {
	affected, err := r.pool.Exec(ctx, "DELETE FROM configurations WHERE application_id = $1", applicationID)
	if err != nil {
		return fmt.Errorf("deleting configuration for %s: %w", applicationID, err)
	}
	if affected == 0 {
		return ErrConfigurationNotFound
	}
	return nil
}

// configurationFromRow maps a column-keyed row onto a Configuration.
func configurationFromRow(row database.Row) *Configuration {
	c := &Configuration{}
	if v, ok := row["application_id"].(string); ok {
		c.ApplicationID = v
	}
	if v, ok := row["config"].(map[string]any); ok {
		c.Config = Document(v)
	}
	if v, ok := row["created_at"].(time.Time); ok {
		c.CreatedAt = v
	}
	if v, ok := row["updated_at"].(time.Time); ok {
		c.UpdatedAt = v
	}
	return c
}
