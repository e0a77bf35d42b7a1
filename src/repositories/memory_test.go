package repositories

import (
	"testing"
)

func TestMemoryClientRepository(t *testing.T) {
	testClientRepository(t, NewMemoryClientRepository())
}

func TestMemoryClientRepository_ConcurrentIncrements(t *testing.T) {
	testConcurrentIncrements(t, NewMemoryClientRepository())
}

func TestMemoryMaintenanceRepository(t *testing.T) {
	testMaintenanceRepository(t, NewMemoryMaintenanceRepository())
}
