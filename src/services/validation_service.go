package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khabaroff/license-gate/src/logging"
	"github.com/khabaroff/license-gate/src/metrics"
	"github.com/khabaroff/license-gate/src/models"
	"github.com/khabaroff/license-gate/src/repositories"
	"github.com/rs/zerolog"
)

const (
	// DefaultIncrementRetries is how often a failed counter write is retried
	DefaultIncrementRetries = 3

	// DefaultRetryBackoff is the wait before the first retry, doubled after each one
	DefaultRetryBackoff = 25 * time.Millisecond

	expiryReminderDays   = 3
	quotaReminderCeiling = 100
	reminderSeparator    = " | "
)

// ValidationService turns an API key into exactly one outcome
type ValidationService struct {
	clients          repositories.ClientRepository
	maintenance      *MaintenanceService
	now              func() time.Time
	incrementRetries int
	retryBackoff     time.Duration
	logger           zerolog.Logger
}

// NewValidationService creates a new validation service
func NewValidationService(clients repositories.ClientRepository, maintenance *MaintenanceService) *ValidationService {
	return &ValidationService{
		clients:          clients,
		maintenance:      maintenance,
		now:              time.Now,
		incrementRetries: DefaultIncrementRetries,
		retryBackoff:     DefaultRetryBackoff,
		logger:           logging.NewLogger("validation"),
	}
}

// SetClock replaces the time source
func (vs *ValidationService) SetClock(now func() time.Time) {
	vs.now = now
}

// SetIncrementRetries sets how many extra attempts a failed counter write gets
func (vs *ValidationService) SetIncrementRetries(n int) {
	if n < 0 {
		n = 0
	}
	vs.incrementRetries = n
}

// SetRetryBackoff sets the wait before the first retry of a failed counter write
func (vs *ValidationService) SetRetryBackoff(d time.Duration) {
	if d < 0 {
		d = 0
	}
	vs.retryBackoff = d
}

// Validate evaluates the key against the maintenance gate and its record.
// Checks run in a fixed order and the first match wins:
// maintenance, unknown key, blocked, disabled, expired, quota, then ok.
// Only an ok outcome consumes quota, and only after the store confirmed it.
func (vs *ValidationService) Validate(ctx context.Context, apiKey string) models.Outcome {
	start := time.Now()
	outcome := vs.validate(ctx, apiKey)

	metrics.ValidationsTotal.WithLabelValues(string(outcome.Status)).Inc()
	metrics.ValidationDuration.Observe(time.Since(start).Seconds())
	return outcome
}

func (vs *ValidationService) validate(ctx context.Context, apiKey string) models.Outcome {
	if vs.maintenance.Enabled(ctx) {
		return models.NewDenial(models.StatusMaintenance)
	}

	record, err := vs.clients.Get(ctx, apiKey)
	if err != nil {
		if !errors.Is(err, repositories.ErrClientNotFound) {
			// Registry unreadable: deny the same way as an unknown key
			metrics.StoreErrors.WithLabelValues("get").Inc()
			vs.logger.Error().Err(err).Str("key_suffix", KeySuffix(apiKey)).Msg("client registry read failed")
		}
		return models.NewDenial(models.StatusInvalidKey)
	}

	now := vs.now()
	if denial, denied := evaluateRecord(record, now); denied {
		return denial
	}

	return vs.consume(ctx, record, now)
}

// evaluateRecord applies the per-record checks that precede quota consumption
func evaluateRecord(record *models.ClientRecord, now time.Time) (models.Outcome, bool) {
	switch {
	case record.Blocked:
		return models.NewDenial(models.StatusBlocked), true
	case !record.Active:
		return models.NewDenial(models.StatusDisabled), true
	case record.IsExpired(now):
		return models.NewDenial(models.StatusExpired), true
	case record.QuotaExhausted():
		return limitExceeded(record, now), true
	}
	return models.Outcome{}, false
}

func limitExceeded(record *models.ClientRecord, now time.Time) models.Outcome {
	outcome := models.NewDenial(models.StatusLimitExceeded)
	var remaining int64
	name := record.Name
	outcome.RemainingRequests = &remaining
	outcome.DaysLeft = record.DaysLeft(now)
	outcome.ClientName = &name
	return outcome
}

// consume performs the guarded increment. Losing a race for the last unit
// of quota yields limit_exceeded, a vanished record yields invalid_key.
func (vs *ValidationService) consume(ctx context.Context, record *models.ClientRecord, now time.Time) models.Outcome {
	var lastErr error
	attempts := 0
	backoff := vs.retryBackoff
	for attempts <= vs.incrementRetries {
		if attempts > 0 {
			if !sleepCtx(ctx, backoff) {
				break
			}
			backoff *= 2
		}
		attempts++

		updated, err := vs.clients.IncrementUsed(ctx, record.APIKey)
		switch {
		case err == nil:
			return okOutcome(updated, now)
		case errors.Is(err, repositories.ErrQuotaExhausted):
			return limitExceeded(record, now)
		case errors.Is(err, repositories.ErrClientNotFound):
			return models.NewDenial(models.StatusInvalidKey)
		}

		lastErr = err
		metrics.StoreErrors.WithLabelValues("increment").Inc()
	}

	vs.logger.Error().
		Err(lastErr).
		Str("key_suffix", KeySuffix(record.APIKey)).
		Int("attempts", attempts).
		Msg("usage increment failed, refusing to confirm key")
	return models.NewDenial(models.StatusUnavailable)
}

// sleepCtx waits for d and reports false if ctx ended first
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func okOutcome(updated *models.ClientRecord, now time.Time) models.Outcome {
	active := true
	name := updated.Name
	outcome := models.Outcome{
		Status:     models.StatusOK,
		ClientName: &name,
		DaysLeft:   updated.DaysLeft(now),
		Active:     &active,
	}
	if !updated.IsUnlimited() {
		remaining := updated.MonthlyLimit - updated.Used
		outcome.RemainingRequests = &remaining
	}
	return outcome.WithMessage(composeReminders(outcome.DaysLeft, outcome.RemainingRequests))
}

// composeReminders builds the advisory text attached to ok outcomes.
// An ok outcome always leaves remaining >= 0, so there is no exhausted variant.
func composeReminders(daysLeft, remaining *int64) string {
	var reminders []string
	if daysLeft != nil {
		switch {
		case *daysLeft == 0:
			reminders = append(reminders, "Your subscription expires today")
		case *daysLeft <= expiryReminderDays:
			reminders = append(reminders, fmt.Sprintf("Your key expires in %d days", *daysLeft))
		}
	}
	if remaining != nil && *remaining <= quotaReminderCeiling {
		reminders = append(reminders, fmt.Sprintf("You have %d requests left", *remaining))
	}
	return strings.Join(reminders, reminderSeparator)
}

// KeySuffix returns the last 4 characters of a key for logging
func KeySuffix(key string) string {
	if len(key) > 4 {
		return key[len(key)-4:]
	}
	return key
}
