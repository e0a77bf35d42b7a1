package models

// Status is the tag of a validation outcome
type Status string

const (
	// StatusOK indicates the key is usable and one unit of quota was consumed
	StatusOK Status = "ok"
	// StatusInvalidKey indicates the key is not present in the registry
	StatusInvalidKey Status = "invalid_key"
	// StatusBlocked indicates an administrator hard-blocked the key
	StatusBlocked Status = "blocked"
	// StatusDisabled indicates an administrator switched the key off
	StatusDisabled Status = "disabled"
	// StatusExpired indicates the key's expiry date has passed
	StatusExpired Status = "expired"
	// StatusLimitExceeded indicates the monthly quota is used up
	StatusLimitExceeded Status = "limit_exceeded"
	// StatusMaintenance indicates the service-wide maintenance gate is active
	StatusMaintenance Status = "maintenance"
	// StatusUnavailable indicates the usage counter could not be persisted
	StatusUnavailable Status = "unavailable"
)

// IsKnown reports whether s is one of the statuses the server can emit
func (s Status) IsKnown() bool {
	switch s {
	case StatusOK, StatusInvalidKey, StatusBlocked, StatusDisabled,
		StatusExpired, StatusLimitExceeded, StatusMaintenance, StatusUnavailable:
		return true
	}
	return false
}

// Store backends
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// SecondsPerDay is used for whole-day expiry arithmetic
const SecondsPerDay = 86400
