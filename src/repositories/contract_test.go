package repositories

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/license-gate/src/models"
)

// testClientRepository runs the behaviour every backend must share
func testClientRepository(t *testing.T, repo ClientRepository) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrClientNotFound)
	})

	t.Run("upsert and get", func(t *testing.T) {
		expires := int64(1_900_000_000)
		record := &models.ClientRecord{
			APIKey:       "key-roundtrip",
			Name:         "Acme",
			Active:       true,
			Blocked:      true,
			ExpiresAt:    &expires,
			MonthlyLimit: 100,
			Used:         7,
		}
		require.NoError(t, repo.Upsert(ctx, record))

		got, err := repo.Get(ctx, "key-roundtrip")
		require.NoError(t, err)
		assert.Equal(t, record, got)

		// Callers get copies
		got.Used = 99
		again, err := repo.Get(ctx, "key-roundtrip")
		require.NoError(t, err)
		assert.EqualValues(t, 7, again.Used)
	})

	t.Run("upsert keeps existing counter", func(t *testing.T) {
		record := models.NewClientRecord("key-reseeded", "Before")
		record.MonthlyLimit = 10
		require.NoError(t, repo.Upsert(ctx, record))
		for i := 0; i < 3; i++ {
			_, err := repo.IncrementUsed(ctx, "key-reseeded")
			require.NoError(t, err)
		}

		updated := models.NewClientRecord("key-reseeded", "After")
		updated.MonthlyLimit = 20
		updated.Blocked = true
		require.NoError(t, repo.Upsert(ctx, updated))

		got, err := repo.Get(ctx, "key-reseeded")
		require.NoError(t, err)
		assert.Equal(t, "After", got.Name)
		assert.EqualValues(t, 20, got.MonthlyLimit)
		assert.True(t, got.Blocked)
		assert.EqualValues(t, 3, got.Used, "settings change, the counter does not")
	})

	t.Run("upsert rejects invalid", func(t *testing.T) {
		err := repo.Upsert(ctx, &models.ClientRecord{APIKey: ""})
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("increment within quota", func(t *testing.T) {
		record := models.NewClientRecord("key-limited", "L")
		record.MonthlyLimit = 2
		require.NoError(t, repo.Upsert(ctx, record))

		updated, err := repo.IncrementUsed(ctx, "key-limited")
		require.NoError(t, err)
		assert.EqualValues(t, 1, updated.Used)
		assert.Equal(t, "L", updated.Name)

		updated, err = repo.IncrementUsed(ctx, "key-limited")
		require.NoError(t, err)
		assert.EqualValues(t, 2, updated.Used)

		_, err = repo.IncrementUsed(ctx, "key-limited")
		assert.ErrorIs(t, err, ErrQuotaExhausted)

		got, err := repo.Get(ctx, "key-limited")
		require.NoError(t, err)
		assert.EqualValues(t, 2, got.Used, "a refused increment changes nothing")
	})

	t.Run("increment unlimited", func(t *testing.T) {
		record := models.NewClientRecord("key-unlimited", "U")
		record.Used = 500
		require.NoError(t, repo.Upsert(ctx, record))

		updated, err := repo.IncrementUsed(ctx, "key-unlimited")
		require.NoError(t, err)
		assert.EqualValues(t, 501, updated.Used)
	})

	t.Run("increment missing", func(t *testing.T) {
		_, err := repo.IncrementUsed(ctx, "missing")
		assert.ErrorIs(t, err, ErrClientNotFound)
	})

	t.Run("list ordered", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, models.NewClientRecord("a-first", "")))
		records, err := repo.List(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, records)
		assert.Equal(t, "a-first", records[0].APIKey)
		for i := 1; i < len(records); i++ {
			assert.Less(t, records[i-1].APIKey, records[i].APIKey)
		}
	})

	t.Run("reset usage", func(t *testing.T) {
		changed, err := repo.ResetUsage(ctx)
		require.NoError(t, err)
		assert.Positive(t, changed)

		records, err := repo.List(ctx)
		require.NoError(t, err)
		for _, r := range records {
			assert.EqualValues(t, 0, r.Used, r.APIKey)
		}

		changed, err = repo.ResetUsage(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, changed)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}

// testConcurrentIncrements checks that N racing increments against exactly
// N remaining units all succeed and the next one is refused
func testConcurrentIncrements(t *testing.T, repo ClientRepository) {
	ctx := context.Background()
	const remaining = 25

	record := models.NewClientRecord("key-race", "Race")
	record.MonthlyLimit = 100
	record.Used = 100 - remaining
	require.NoError(t, repo.Upsert(ctx, record))

	var ok, exhausted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < remaining*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementUsed(ctx, "key-race")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrQuotaExhausted):
				exhausted.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, remaining, ok.Load())
	assert.EqualValues(t, remaining, exhausted.Load())

	got, err := repo.Get(ctx, "key-race")
	require.NoError(t, err)
	assert.EqualValues(t, 100, got.Used)
}

// testMaintenanceRepository checks default-off and toggling
func testMaintenanceRepository(t *testing.T, repo MaintenanceRepository) {
	ctx := context.Background()

	active, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.False(t, active, "an unset flag reads as inactive")

	require.NoError(t, repo.Set(ctx, true))
	active, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, repo.Set(ctx, true))
	active, _ = repo.Get(ctx)
	assert.True(t, active, "setting twice is idempotent")

	require.NoError(t, repo.Set(ctx, false))
	active, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.False(t, active)
}
