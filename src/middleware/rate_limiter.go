package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/khabaroff/license-gate/src/metrics"
)

// limiterEntry holds a rate limiter with last used timestamp
type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// ipRateLimiter manages per-IP rate limiters with automatic cleanup
type ipRateLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newIPRateLimiter(limit rate.Limit, burst int) *ipRateLimiter {
	l := &ipRateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    limit,
		burst:    burst,
		stopCh:   make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastUsed = time.Now()
	l.mu.Unlock()

	return entry.limiter.Allow()
}

// cleanupLoop removes stale entries every 5 minutes
func (l *ipRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now().Add(-10 * time.Minute))
		case <-l.stopCh:
			return
		}
	}
}

// cleanup removes entries not used since cutoff
func (l *ipRateLimiter) cleanup(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, entry := range l.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

func (l *ipRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Stop terminates the cleanup goroutine
func (l *ipRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// RateLimitConfig defines configuration for the rate limiting middleware
type RateLimitConfig struct {
	Scope             string // metrics label
	RequestsPerMinute int
	Burst             int
}

// RateLimiter is a per-IP gin middleware with a stoppable cleanup loop
type RateLimiter struct {
	scope   string
	limiter *ipRateLimiter
}

// NewRateLimiter creates a per-IP limiter; zero values fall back to 120/min with burst 20
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 120
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	if cfg.Scope == "" {
		cfg.Scope = "default"
	}

	limit := rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	return &RateLimiter{
		scope:   cfg.Scope,
		limiter: newIPRateLimiter(limit, cfg.Burst),
	}
}

// Handler returns the gin middleware
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter.allow(c.ClientIP()) {
			metrics.RateLimited.WithLabelValues(rl.scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests. Please try again later.",
				"retry_after": "60s",
			})
			return
		}

		c.Next()
	}
}

// Stop terminates the limiter's cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.limiter.Stop()
}

// AuthRateLimiter is pre-configured for the admin login endpoint
// Allows 3 requests per minute per IP address
func AuthRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Scope:             "admin_login",
		RequestsPerMinute: 3,
		Burst:             1,
	})
}
