package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/khabaroff/license-gate/src/models"
)

const clientColumns = "api_key, name, active, blocked, expires_at, monthly_limit, used"

// maintenanceFlagName is the service_flags row holding the maintenance gate
const maintenanceFlagName = "maintenance"

// PostgresClientRepository stores license records in the clients table
type PostgresClientRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresClientRepository creates a repository on an existing pool
func NewPostgresClientRepository(pool *pgxpool.Pool) *PostgresClientRepository {
	return &PostgresClientRepository{pool: pool}
}

func scanClient(row pgx.Row) (*models.ClientRecord, error) {
	var c models.ClientRecord
	if err := row.Scan(&c.APIKey, &c.Name, &c.Active, &c.Blocked, &c.ExpiresAt, &c.MonthlyLimit, &c.Used); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get retrieves a record by api key
func (r *PostgresClientRepository) Get(ctx context.Context, apiKey string) (*models.ClientRecord, error) {
	c, err := scanClient(r.pool.QueryRow(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE api_key = $1", apiKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

// IncrementUsed performs the quota guard and the increment in one UPDATE.
// The row lock taken by the UPDATE serializes concurrent requests for the same key.
func (r *PostgresClientRepository) IncrementUsed(ctx context.Context, apiKey string) (*models.ClientRecord, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `
		UPDATE clients
		SET used = used + 1, updated_at = NOW()
		WHERE api_key = $1 AND (monthly_limit = 0 OR used < monthly_limit)
		RETURNING `+clientColumns, apiKey))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to increment usage: %w", err)
	}

	// No row updated: either the key vanished or the quota guard failed
	var exists bool
	if err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM clients WHERE api_key = $1)", apiKey,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check client existence: %w", err)
	}
	if !exists {
		return nil, ErrClientNotFound
	}
	return nil, ErrQuotaExhausted
}

// List returns all records ordered by api key
func (r *PostgresClientRepository) List(ctx context.Context) ([]*models.ClientRecord, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+clientColumns+" FROM clients ORDER BY api_key COLLATE \"C\"")
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var records []*models.ClientRecord
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		records = append(records, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return records, nil
}

// Upsert inserts a record or updates the settings of an existing one.
// The usage counter of an existing record is never overwritten.
func (r *PostgresClientRepository) Upsert(ctx context.Context, record *models.ClientRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (api_key) DO UPDATE SET
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			blocked = EXCLUDED.blocked,
			expires_at = EXCLUDED.expires_at,
			monthly_limit = EXCLUDED.monthly_limit,
			updated_at = NOW()`,
		record.APIKey, record.Name, record.Active, record.Blocked,
		record.ExpiresAt, record.MonthlyLimit, record.Used,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert client: %w", err)
	}
	return nil
}

// ResetUsage zeroes every counter
func (r *PostgresClientRepository) ResetUsage(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, "UPDATE clients SET used = 0, updated_at = NOW() WHERE used > 0")
	if err != nil {
		return 0, fmt.Errorf("failed to reset usage: %w", err)
	}
	return result.RowsAffected(), nil
}

// Ping checks the connection pool
func (r *PostgresClientRepository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("database connection not initialized")
	}
	return r.pool.Ping(ctx)
}

// PostgresMaintenanceRepository stores the flag as a row in service_flags
type PostgresMaintenanceRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresMaintenanceRepository creates the flag repository
func NewPostgresMaintenanceRepository(pool *pgxpool.Pool) *PostgresMaintenanceRepository {
	return &PostgresMaintenanceRepository{pool: pool}
}

// Get returns false when the row has never been written
func (m *PostgresMaintenanceRepository) Get(ctx context.Context) (bool, error) {
	var active bool
	err := m.pool.QueryRow(ctx,
		"SELECT active FROM service_flags WHERE name = $1", maintenanceFlagName,
	).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read maintenance flag: %w", err)
	}
	return active, nil
}

// Set writes the flag, last writer wins
func (m *PostgresMaintenanceRepository) Set(ctx context.Context, active bool) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO service_flags (name, active, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET active = EXCLUDED.active, updated_at = NOW()`,
		maintenanceFlagName, active,
	)
	if err != nil {
		return fmt.Errorf("failed to write maintenance flag: %w", err)
	}
	return nil
}

var (
	_ ClientRepository      = (*PostgresClientRepository)(nil)
	_ MaintenanceRepository = (*PostgresMaintenanceRepository)(nil)
)
