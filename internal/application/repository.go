package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/confkit/config-store/internal/infrastructure/database"
)

// PostgreSQL error codes translated into domain errors.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// Repository defines the interface for application persistence operations.
type Repository interface {
	// Create inserts an application and seeds its default configuration
	// in one transaction. Returns ErrApplicationExists on duplicate names.
	Create(ctx context.Context, name string, description *string) (*Application, error)

	// GetByID returns an application, or ErrApplicationNotFound.
	GetByID(ctx context.Context, id string) (*Application, error)

	// GetByName returns an application, or ErrApplicationNotFound.
	GetByName(ctx context.Context, name string) (*Application, error)

	// List returns all applications ordered by name.
	List(ctx context.Context) ([]Application, error)

	// Update changes the provided fields; nil fields are left untouched.
	// Returns ErrApplicationNotFound or, on a name collision,
	// ErrApplicationExists.
	Update(ctx context.Context, id string, name *string, description *string) (*Application, error)

	// Delete removes an application and, via cascade, its configuration.
	// Returns ErrApplicationNotFound if no row was deleted.
	Delete(ctx context.Context, id string) error
}

// PostgresRepository implements Repository on the shared connection pool.
type PostgresRepository struct {
	pool *database.Pool
}

// NewPostgresRepository creates a new PostgreSQL-backed application repository.
func NewPostgresRepository(pool *database.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new application together with its seeded configuration.
// Both inserts commit atomically: a failure on either leaves no trace.
func (r *PostgresRepository) Create(ctx context.Context, name string, description *string) (*Application, error) {
	id := NewID()
	app := &Application{}

	err := r.pool.Transaction(ctx, func(tx pgx.Tx) error {
		const insertApplication = `INSERT INTO applications (id, name, description)
			VALUES ($1, $2, $3)
			RETURNING id, name, description, created_at, updated_at`
		if err := tx.QueryRow(ctx, insertApplication, id, name, description).Scan(
			&app.ID, &app.Name, &app.Description, &app.CreatedAt, &app.UpdatedAt,
		); err != nil {
			return fmt.Errorf("inserting application %s: %w", name, err)
		}

		const seedConfiguration = `INSERT INTO configurations (application_id, config)
			VALUES ($1, $2)`
		if _, err := tx.Exec(ctx, seedConfiguration, id, DefaultDocument()); err != nil {
			return fmt.Errorf("seeding configuration for %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrApplicationExists
		}
		return nil, err
	}
	return app, nil
}

// GetByID returns a single application by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Application, error) {
	const query = `SELECT id, name, description, created_at, updated_at
		FROM applications WHERE id = $1`
	row, err := r.pool.QueryRow(ctx, query, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("querying application %s: %w", id, err)
	}
	return applicationFromRow(row), nil
}

// GetByName returns a single application by its unique name.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Application, error) {
	const query = `SELECT id, name, description, created_at, updated_at
		FROM applications WHERE name = $1`
	row, err := r.pool.QueryRow(ctx, query, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("querying application %q: %w", name, err)
	}
	return applicationFromRow(row), nil
}

// List returns all applications ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]Application, error) {
	const query = `SELECT id, name, description, created_at, updated_at
		FROM applications ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}

	apps := make([]Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, *applicationFromRow(row))
	}
	return apps, nil
}

// Update applies a partial update. Fields passed as nil keep their current
// values; updated_at is maintained by a database trigger.
func (r *PostgresRepository) Update(ctx context.Context, id string, name *string, description *string) (*Application, error) {
	if name == nil && description == nil {
		return r.GetByID(ctx, id)
	}

	set := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if name != nil {
		args = append(args, *name)
		set = append(set, fmt.Sprintf("name = $%d", len(args)))
	}
	if description != nil {
		args = append(args, *description)
		set = append(set, fmt.Sprintf("description = $%d", len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE applications SET %s WHERE id = $%d
		RETURNING id, name, description, created_at, updated_at`,
		strings.Join(set, ", "), len(args))

	row, err := r.pool.ExecReturning(ctx, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrApplicationExists
		}
		return nil, fmt.Errorf("updating application %s: %w", id, err)
	}
	return applicationFromRow(row), nil
}

// Delete removes an application. The configurations row, if any, goes with
// it through the ON DELETE CASCADE constraint.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	affected, err := r.pool.Exec(ctx, "DELETE FROM applications WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting application %s: %w", id, err)
	}
	if affected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// applicationFromRow maps a column-keyed row onto an Application.
// NULL descriptions stay nil.
func applicationFromRow(row database.Row) *Application {
	app := &Application{}
	if v, ok := row["id"].(string); ok {
		app.ID = v
	}
	if v, ok := row["name"].(string); ok {
		app.Name = v
	}
	if v, ok := row["description"].(string); ok {
		app.Description = &v
	}
	if v, ok := row["created_at"].(time.Time); ok {
		app.CreatedAt = v
	}
	if v, ok := row["updated_at"].(time.Time); ok {
		app.UpdatedAt = v
	}
	return app
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (duplicate name).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// isForeignKeyViolation reports whether err is a PostgreSQL foreign key
// violation (referenced application missing).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}
