package mock

import (
	"context"

	"github.com/khabaroff/license-gate/src/repositories"
)

// MaintenanceRepository is a mock implementation of repositories.MaintenanceRepository
type MaintenanceRepository struct {
	GetFunc func(ctx context.Context) (bool, error)
	SetFunc func(ctx context.Context, active bool) error

	Calls map[string][]interface{}
}

// NewMaintenanceRepository creates a new mock maintenance repository
func NewMaintenanceRepository() *MaintenanceRepository {
	return &MaintenanceRepository{
		Calls: make(map[string][]interface{}),
	}
}

func (m *MaintenanceRepository) Get(ctx context.Context) (bool, error) {
	m.Calls["Get"] = append(m.Calls["Get"], nil)
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	return false, nil
}

func (m *MaintenanceRepository) Set(ctx context.Context, active bool) error {
	m.Calls["Set"] = append(m.Calls["Set"], active)
	if m.SetFunc != nil {
		return m.SetFunc(ctx, active)
	}
	return nil
}

var _ repositories.MaintenanceRepository = (*MaintenanceRepository)(nil)
