package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaSQL_DeclaresTables(t *testing.T) {
	schema := SchemaSQL()
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS clients")
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS service_flags")
}

func TestHealth_Uninitialized(t *testing.T) {
	var db *Database
	assert.Error(t, db.Health(context.Background()))

	assert.Error(t, (&Database{}).Health(context.Background()))
}

func TestHealth_TestDatabase(t *testing.T) {
	WithTestDB(t, func(tdb *TestDB) {
		db := NewDatabaseFromPool(tdb.Pool)
		require.NoError(t, db.Health(context.Background()))

		var count int
		require.NoError(t, db.QueryRow(context.Background(), "SELECT COUNT(*) FROM clients").Scan(&count))
		assert.Equal(t, 0, count)
	})
}
