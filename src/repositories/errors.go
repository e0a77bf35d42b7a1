package repositories

import "errors"

var (
	// ErrClientNotFound indicates no record exists for the api key
	ErrClientNotFound = errors.New("client not found")

	// ErrQuotaExhausted indicates the conditional increment found no quota left
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrDuplicateKey indicates the same api key appears twice in a seed set
	ErrDuplicateKey = errors.New("duplicate api key")

	// ErrInvalidRecord indicates a record failed validation
	ErrInvalidRecord = errors.New("invalid client record")
)
