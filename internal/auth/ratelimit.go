package auth

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter caps request volume per client IP over fixed windows.
// A client gets MaxRequests per Window; the budget resets when the window
// that started with its first request ends.
type RateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	maxRequests int
	window      time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

// visitor is one client's current window. Its limiter refills a single
// token per window, so no token comes back before the window is replaced.
type visitor struct {
	limiter     *rate.Limiter
	windowStart time.Time
}

// RateLimitConfig contains configuration for the rate limiter.
type RateLimitConfig struct {
	MaxRequests int           // Requests allowed per window (default: 20)
	Window      time.Duration // Window length (default: 15m)
}

// DefaultRateLimitConfig returns the session login defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 20,
		Window:      15 * time.Minute,
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	defaults := DefaultRateLimitConfig()
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = defaults.MaxRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}

	return &RateLimiter{
		visitors:    make(map[string]*visitor),
		maxRequests: cfg.MaxRequests,
		window:      cfg.Window,
		now:         time.Now,
	}
}

// SetClock replaces the time source.
func (rl *RateLimiter) SetClock(now func() time.Time) {
	rl.mu.Lock()
	rl.now = now
	rl.mu.Unlock()
}

// Allow consumes one request from key's budget.
// Returns (allowed bool, retryAfter time.Duration).
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanupLocked(now)

	v, exists := rl.visitors[key]
	if !exists || !now.Before(v.windowStart.Add(rl.window)) {
		v = &visitor{
			limiter:     rate.NewLimiter(rate.Every(rl.window), rl.maxRequests),
			windowStart: now,
		}
		rl.visitors[key] = v
	}

	if !v.limiter.AllowN(now, 1) {
		return false, v.windowStart.Add(rl.window).Sub(now)
	}
	return true, 0
}

// cleanupLocked drops clients whose window has ended, once per window.
func (rl *RateLimiter) cleanupLocked(now time.Time) {
	if now.Sub(rl.lastCleanup) < rl.window {
		return
	}
	rl.lastCleanup = now

	for key, v := range rl.visitors {
		if !now.Before(v.windowStart.Add(rl.window)) {
			delete(rl.visitors, key)
		}
	}
}

// Middleware limits requests by client IP. Apply it only to the routes
// that need it.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := rl.Allow(c.ClientIP())
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests",
				"retry_after": seconds,
			})
			return
		}

		c.Next()
	}
}
