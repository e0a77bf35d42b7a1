package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/license-gate/src/database"
)

func TestPostgresClientRepository(t *testing.T) {
	database.WithTestDB(t, func(tdb *database.TestDB) {
		testClientRepository(t, NewPostgresClientRepository(tdb.Pool))
	})
}

func TestPostgresClientRepository_ConcurrentIncrements(t *testing.T) {
	database.WithTestDB(t, func(tdb *database.TestDB) {
		testConcurrentIncrements(t, NewPostgresClientRepository(tdb.Pool))
	})
}

func TestPostgresMaintenanceRepository(t *testing.T) {
	database.WithTestDB(t, func(tdb *database.TestDB) {
		testMaintenanceRepository(t, NewPostgresMaintenanceRepository(tdb.Pool))
	})
}

func TestPostgresClientRepository_NullExpiry(t *testing.T) {
	database.WithTestDB(t, func(tdb *database.TestDB) {
		ctx := context.Background()
		_, err := tdb.Pool.Exec(ctx,
			"INSERT INTO clients (api_key, name, monthly_limit) VALUES ('raw-key', 'Raw', 5)")
		require.NoError(t, err)

		got, err := NewPostgresClientRepository(tdb.Pool).Get(ctx, "raw-key")
		require.NoError(t, err)
		assert.Nil(t, got.ExpiresAt)
		assert.True(t, got.Active)
		assert.EqualValues(t, 5, got.MonthlyLimit)
	})
}
