package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expiresAt(ts int64) *int64 { return &ts }

func TestNewClientRecord_Defaults(t *testing.T) {
	c := NewClientRecord("k", "Acme")
	assert.True(t, c.Active)
	assert.False(t, c.Blocked)
	assert.Nil(t, c.ExpiresAt)
	assert.True(t, c.IsUnlimited())
}

func TestClientRecord_Expiry(t *testing.T) {
	now := time.Unix(1_000_000, 0)

	tests := []struct {
		name      string
		expiresAt *int64
		expired   bool
		daysLeft  *int64
	}{
		{"no expiry", nil, false, nil},
		{"zero means no expiry", expiresAt(0), false, nil},
		{"exactly now is not expired", expiresAt(1_000_000), false, expiresAt(0)},
		{"one second ago", expiresAt(999_999), true, expiresAt(0)},
		{"just under a day", expiresAt(1_000_000 + SecondsPerDay - 1), false, expiresAt(0)},
		{"exactly one day", expiresAt(1_000_000 + SecondsPerDay), false, expiresAt(1)},
		{"ten and a half days", expiresAt(1_000_000 + 10*SecondsPerDay + SecondsPerDay/2), false, expiresAt(10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClientRecord("k", "")
			c.ExpiresAt = tt.expiresAt
			assert.Equal(t, tt.expired, c.IsExpired(now))
			assert.Equal(t, tt.daysLeft, c.DaysLeft(now))
		})
	}
}

func TestClientRecord_Quota(t *testing.T) {
	c := NewClientRecord("k", "")
	c.Used = 1_000_000
	assert.False(t, c.QuotaExhausted(), "unlimited records never exhaust")

	c.MonthlyLimit = 10
	c.Used = 9
	assert.False(t, c.QuotaExhausted())
	c.Used = 10
	assert.True(t, c.QuotaExhausted())
	c.Used = 11
	assert.True(t, c.QuotaExhausted())
}

func TestClientRecord_Validate(t *testing.T) {
	assert.NoError(t, NewClientRecord("k", "").Validate())
	assert.Error(t, NewClientRecord("", "").Validate())

	negLimit := NewClientRecord("k", "")
	negLimit.MonthlyLimit = -1
	assert.Error(t, negLimit.Validate())

	negUsed := NewClientRecord("k", "")
	negUsed.Used = -1
	assert.Error(t, negUsed.Validate())
}

func TestClientRecord_CloneIsDeep(t *testing.T) {
	c := NewClientRecord("k", "Acme")
	c.ExpiresAt = expiresAt(100)

	cp := c.Clone()
	*cp.ExpiresAt = 200
	cp.Used = 5

	require.NotNil(t, c.ExpiresAt)
	assert.EqualValues(t, 100, *c.ExpiresAt)
	assert.EqualValues(t, 0, c.Used)
}
