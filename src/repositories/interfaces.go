package repositories

import (
	"context"

	"github.com/khabaroff/license-gate/src/models"
)

// ClientRepository defines the interface for license record access
type ClientRepository interface {
	// Get returns a copy of the record or ErrClientNotFound
	Get(ctx context.Context, apiKey string) (*models.ClientRecord, error)

	// IncrementUsed adds one to the usage counter if the quota still allows it.
	// The quota guard and the increment are a single atomic step per key.
	// Returns ErrQuotaExhausted when the guard fails and ErrClientNotFound
	// when the record is gone. The returned record reflects the new counter.
	IncrementUsed(ctx context.Context, apiKey string) (*models.ClientRecord, error)

	// List returns every record ordered by api key
	List(ctx context.Context) ([]*models.ClientRecord, error)

	// Upsert inserts a record or updates an existing one (seeding only).
	// An existing record keeps its usage counter.
	Upsert(ctx context.Context, record *models.ClientRecord) error

	// ResetUsage zeroes every usage counter and returns how many changed
	ResetUsage(ctx context.Context) (int64, error)

	// Ping checks the backing store is reachable
	Ping(ctx context.Context) error
}

// MaintenanceRepository defines the interface for the global maintenance flag
type MaintenanceRepository interface {
	Get(ctx context.Context) (bool, error)
	Set(ctx context.Context, active bool) error
}
