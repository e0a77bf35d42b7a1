package services

import "errors"

// Sentinel errors for explicit error handling
// Callers distinguish failure modes with errors.Is() instead of string matching

var (
	// ErrInvalidCredentials indicates admin authentication failed
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAdminDisabled indicates no admin account is configured
	ErrAdminDisabled = errors.New("admin access not configured")

	// ErrInvalidSchedule indicates the usage reset cron spec could not be parsed
	ErrInvalidSchedule = errors.New("invalid reset schedule")
)
