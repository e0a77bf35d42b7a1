package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/khabaroff/license-gate/src/logging"
	"github.com/khabaroff/license-gate/src/metrics"
	"github.com/khabaroff/license-gate/src/repositories"
	"github.com/rs/zerolog"
)

// MaintenanceService is the single access point for the maintenance gate.
// The gate is on when the startup override or the persisted flag is set.
type MaintenanceService struct {
	repo     repositories.MaintenanceRepository
	override atomic.Bool
	logger   zerolog.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(repo repositories.MaintenanceRepository) *MaintenanceService {
	return &MaintenanceService{
		repo:   repo,
		logger: logging.NewLogger("maintenance"),
	}
}

// Enabled reports the gate state. An unreadable flag counts as inactive,
// the same as a flag that was never set.
func (ms *MaintenanceService) Enabled(ctx context.Context) bool {
	if ms.override.Load() {
		return true
	}
	active, err := ms.repo.Get(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("maintenance_get").Inc()
		ms.logger.Error().Err(err).Msg("maintenance flag unreadable, treating as inactive")
		return false
	}
	return active
}

// Enable turns the gate on and returns the resulting state
func (ms *MaintenanceService) Enable(ctx context.Context) (bool, error) {
	return ms.set(ctx, true)
}

// Disable clears the persisted flag and returns the resulting state,
// which stays on while the startup override is in force
func (ms *MaintenanceService) Disable(ctx context.Context) (bool, error) {
	return ms.set(ctx, false)
}

// ApplyOverride records the operator's startup setting. It is kept in
// memory only, so a restart without it falls back to the persisted flag.
func (ms *MaintenanceService) ApplyOverride(ctx context.Context, override bool) {
	ms.override.Store(override)
	if override {
		ms.logger.Warn().Msg("maintenance forced on until restart")
	}
	ms.refreshGauge(ctx)
}

func (ms *MaintenanceService) set(ctx context.Context, active bool) (bool, error) {
	if err := ms.repo.Set(ctx, active); err != nil {
		return false, fmt.Errorf("failed to update maintenance flag: %w", err)
	}
	effective := active || ms.override.Load()
	if effective != active {
		ms.logger.Warn().Msg("maintenance flag cleared but the startup override keeps the gate on")
	}
	ms.logger.Info().Bool("maintenance", effective).Msg("maintenance flag updated")
	setGauge(effective)
	return effective, nil
}

func (ms *MaintenanceService) refreshGauge(ctx context.Context) {
	setGauge(ms.Enabled(ctx))
}

func setGauge(active bool) {
	if active {
		metrics.MaintenanceActive.Set(1)
		return
	}
	metrics.MaintenanceActive.Set(0)
}
