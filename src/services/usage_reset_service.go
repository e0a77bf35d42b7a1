package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/khabaroff/license-gate/src/logging"
	"github.com/khabaroff/license-gate/src/metrics"
	"github.com/khabaroff/license-gate/src/repositories"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// UsageResetService zeroes usage counters when a billing period rolls over.
// It runs beside the validation engine; validation itself never lowers a counter.
type UsageResetService struct {
	clients  repositories.ClientRepository
	schedule string
	cron     *cron.Cron
	logger   zerolog.Logger
	mu       sync.Mutex
	running  bool
}

// NewUsageResetService creates a reset job. An empty schedule disables it.
func NewUsageResetService(clients repositories.ClientRepository, schedule string) *UsageResetService {
	return &UsageResetService{
		clients:  clients,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logging.NewLogger("usage_reset"),
	}
}

// Start registers the job and starts the scheduler
func (rs *UsageResetService) Start(ctx context.Context) error {
	if rs.schedule == "" {
		rs.logger.Info().Msg("usage reset job is disabled")
		return nil
	}

	_, err := rs.cron.AddFunc(rs.schedule, func() {
		if _, err := rs.ResetNow(ctx); err != nil {
			rs.logger.Error().Err(err).Msg("scheduled usage reset failed")
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, rs.schedule, err)
	}

	rs.mu.Lock()
	rs.running = true
	rs.mu.Unlock()

	rs.cron.Start()
	rs.logger.Info().Str("schedule", rs.schedule).Msg("usage reset job started")
	return nil
}

// Stop waits for a running job to finish and stops the scheduler
func (rs *UsageResetService) Stop() {
	rs.mu.Lock()
	running := rs.running
	rs.running = false
	rs.mu.Unlock()

	if !running {
		return
	}
	<-rs.cron.Stop().Done()
	rs.logger.Info().Msg("usage reset job stopped")
}

// ResetNow zeroes every counter immediately
func (rs *UsageResetService) ResetNow(ctx context.Context) (int64, error) {
	changed, err := rs.clients.ResetUsage(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset usage: %w", err)
	}
	metrics.UsageResets.Add(float64(changed))
	rs.logger.Info().Int64("reset_count", changed).Msg("usage counters reset")
	return changed, nil
}
