package models

import (
	"errors"
	"time"
)

// ClientRecord is one issued license key with its quota counter
type ClientRecord struct {
	APIKey       string `json:"api_key" yaml:"api_key"`
	Name         string `json:"name" yaml:"name"`
	Active       bool   `json:"active" yaml:"active"`
	Blocked      bool   `json:"blocked" yaml:"blocked"`
	ExpiresAt    *int64 `json:"expires_at" yaml:"expires_at"` // epoch seconds; nil or 0 = never
	MonthlyLimit int64  `json:"monthly_limit" yaml:"monthly_limit"`
	Used         int64  `json:"used" yaml:"used"`
}

// NewClientRecord returns a record with the registry defaults (active, not blocked)
func NewClientRecord(apiKey, name string) *ClientRecord {
	return &ClientRecord{
		APIKey: apiKey,
		Name:   name,
		Active: true,
	}
}

// HasExpiry returns true if the record carries an expiry timestamp
func (c *ClientRecord) HasExpiry() bool {
	return c.ExpiresAt != nil && *c.ExpiresAt != 0
}

// IsExpired returns true if the expiry lies strictly before now
func (c *ClientRecord) IsExpired(now time.Time) bool {
	return c.HasExpiry() && now.Unix() > *c.ExpiresAt
}

// DaysLeft returns whole days until expiry, clamped at zero, or nil without expiry
func (c *ClientRecord) DaysLeft(now time.Time) *int64 {
	if !c.HasExpiry() {
		return nil
	}
	diff := *c.ExpiresAt - now.Unix()
	var days int64
	if diff > 0 {
		days = diff / SecondsPerDay
	}
	return &days
}

// IsUnlimited returns true when no monthly quota applies
func (c *ClientRecord) IsUnlimited() bool {
	return c.MonthlyLimit <= 0
}

// QuotaExhausted returns true if the current counter already reached the limit
func (c *ClientRecord) QuotaExhausted() bool {
	return !c.IsUnlimited() && c.Used >= c.MonthlyLimit
}

// Validate checks record invariants before it enters a store
func (c *ClientRecord) Validate() error {
	if c.APIKey == "" {
		return errors.New("api_key must not be empty")
	}
	if c.MonthlyLimit < 0 {
		return errors.New("monthly_limit must not be negative")
	}
	if c.Used < 0 {
		return errors.New("used must not be negative")
	}
	return nil
}

// Clone returns a deep copy so callers never share a store's record
func (c *ClientRecord) Clone() *ClientRecord {
	cp := *c
	if c.ExpiresAt != nil {
		v := *c.ExpiresAt
		cp.ExpiresAt = &v
	}
	return &cp
}
