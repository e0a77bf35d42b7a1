package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/khabaroff/license-gate/src/models"
)

// memoryEntry guards one record; contention stays scoped to a single key
type memoryEntry struct {
	mu     sync.Mutex
	record *models.ClientRecord
}

// MemoryClientRepository keeps records in process memory.
// The map lock is only held for lookups, the counter update takes the entry lock.
type MemoryClientRepository struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

// NewMemoryClientRepository creates an empty in-memory registry
func NewMemoryClientRepository() *MemoryClientRepository {
	return &MemoryClientRepository{entries: make(map[string]*memoryEntry)}
}

func (r *MemoryClientRepository) entry(apiKey string) (*memoryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[apiKey]
	return e, ok
}

// Get returns a copy of the record
func (r *MemoryClientRepository) Get(ctx context.Context, apiKey string) (*models.ClientRecord, error) {
	e, ok := r.entry(apiKey)
	if !ok {
		return nil, ErrClientNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record.Clone(), nil
}

// IncrementUsed re-checks the quota under the entry lock before counting
func (r *MemoryClientRepository) IncrementUsed(ctx context.Context, apiKey string) (*models.ClientRecord, error) {
	e, ok := r.entry(apiKey)
	if !ok {
		return nil, ErrClientNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.record.QuotaExhausted() {
		return nil, ErrQuotaExhausted
	}
	e.record.Used++
	return e.record.Clone(), nil
}

// List returns all records sorted by key
func (r *MemoryClientRepository) List(ctx context.Context) ([]*models.ClientRecord, error) {
	r.mu.RLock()
	entries := make([]*memoryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	records := make([]*models.ClientRecord, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		records = append(records, e.record.Clone())
		e.mu.Unlock()
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].APIKey < records[j].APIKey
	})
	return records, nil
}

// Upsert stores a copy of the record, keeping the counter of an existing key
func (r *MemoryClientRepository) Upsert(ctx context.Context, record *models.ClientRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[record.APIKey]; ok {
		e.mu.Lock()
		used := e.record.Used
		e.record = record.Clone()
		e.record.Used = used
		e.mu.Unlock()
		return nil
	}
	r.entries[record.APIKey] = &memoryEntry{record: record.Clone()}
	return nil
}

// ResetUsage zeroes all counters
func (r *MemoryClientRepository) ResetUsage(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var changed int64
	for _, e := range r.entries {
		e.mu.Lock()
		if e.record.Used > 0 {
			e.record.Used = 0
			changed++
		}
		e.mu.Unlock()
	}
	return changed, nil
}

// Ping always succeeds for the in-memory store
func (r *MemoryClientRepository) Ping(ctx context.Context) error {
	return nil
}

// MemoryMaintenanceRepository holds the flag in an atomic boolean
type MemoryMaintenanceRepository struct {
	active atomic.Bool
}

// NewMemoryMaintenanceRepository creates a flag initialized to false
func NewMemoryMaintenanceRepository() *MemoryMaintenanceRepository {
	return &MemoryMaintenanceRepository{}
}

func (m *MemoryMaintenanceRepository) Get(ctx context.Context) (bool, error) {
	return m.active.Load(), nil
}

func (m *MemoryMaintenanceRepository) Set(ctx context.Context, active bool) error {
	m.active.Store(active)
	return nil
}

var (
	_ ClientRepository      = (*MemoryClientRepository)(nil)
	_ MaintenanceRepository = (*MemoryMaintenanceRepository)(nil)
)
