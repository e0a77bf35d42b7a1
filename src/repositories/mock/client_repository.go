package mock

import (
	"context"

	"github.com/khabaroff/license-gate/src/models"
	"github.com/khabaroff/license-gate/src/repositories"
)

// ClientRepository is a mock implementation of repositories.ClientRepository
type ClientRepository struct {
	// Function stubs that can be overridden in tests
	GetFunc           func(ctx context.Context, apiKey string) (*models.ClientRecord, error)
	IncrementUsedFunc func(ctx context.Context, apiKey string) (*models.ClientRecord, error)
	ListFunc          func(ctx context.Context) ([]*models.ClientRecord, error)
	UpsertFunc        func(ctx context.Context, record *models.ClientRecord) error
	ResetUsageFunc    func(ctx context.Context) (int64, error)
	PingFunc          func(ctx context.Context) error

	// Call tracking
	Calls map[string][]interface{}
}

// NewClientRepository creates a new mock client repository
func NewClientRepository() *ClientRepository {
	return &ClientRepository{
		Calls: make(map[string][]interface{}),
	}
}

func (m *ClientRepository) Get(ctx context.Context, apiKey string) (*models.ClientRecord, error) {
	m.Calls["Get"] = append(m.Calls["Get"], apiKey)
	if m.GetFunc != nil {
		return m.GetFunc(ctx, apiKey)
	}
	return nil, repositories.ErrClientNotFound
}

func (m *ClientRepository) IncrementUsed(ctx context.Context, apiKey string) (*models.ClientRecord, error) {
	m.Calls["IncrementUsed"] = append(m.Calls["IncrementUsed"], apiKey)
	if m.IncrementUsedFunc != nil {
		return m.IncrementUsedFunc(ctx, apiKey)
	}
	return nil, repositories.ErrClientNotFound
}

func (m *ClientRepository) List(ctx context.Context) ([]*models.ClientRecord, error) {
	m.Calls["List"] = append(m.Calls["List"], nil)
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *ClientRepository) Upsert(ctx context.Context, record *models.ClientRecord) error {
	m.Calls["Upsert"] = append(m.Calls["Upsert"], record)
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, record)
	}
	return nil
}

func (m *ClientRepository) ResetUsage(ctx context.Context) (int64, error) {
	m.Calls["ResetUsage"] = append(m.Calls["ResetUsage"], nil)
	if m.ResetUsageFunc != nil {
		return m.ResetUsageFunc(ctx)
	}
	return 0, nil
}

func (m *ClientRepository) Ping(ctx context.Context) error {
	m.Calls["Ping"] = append(m.Calls["Ping"], nil)
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Ensure ClientRepository implements the interface
var _ repositories.ClientRepository = (*ClientRepository)(nil)
