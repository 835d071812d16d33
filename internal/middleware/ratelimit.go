package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a best-effort in-memory fixed-window counter keyed by caller
// identity. State is scoped to this process: counters are lost on restart and
// not shared across instances, which is acceptable because rate limiting here
// is protective, not a source of correctness.
type RateLimiter struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	limit    int
	window   time.Duration
	stopChan chan struct{}
}

type windowCounter struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per window
// and starts the background pruning loop
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	rl := &RateLimiter{
		counters: make(map[string]*windowCounter),
		limit:    limit,
		window:   window,
		stopChan: make(chan struct{}),
	}
	go rl.pruneLoop()
	return rl
}

// Allow records a hit for the caller and reports whether it is within limit
func (rl *RateLimiter) Allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	counter, ok := rl.counters[key]
	if !ok || now.Sub(counter.windowStart) >= rl.window {
		rl.counters[key] = &windowCounter{count: 1, windowStart: now}
		return true
	}

	counter.count++
	return counter.count <= rl.limit
}

// Stop terminates the pruning loop
func (rl *RateLimiter) Stop() {
	close(rl.stopChan)
}

func (rl *RateLimiter) pruneLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.prune(time.Now())
		case <-rl.stopChan:
			return
		}
	}
}

func (rl *RateLimiter) prune(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, counter := range rl.counters {
		if now.Sub(counter.windowStart) >= rl.window {
			delete(rl.counters, key)
		}
	}
}

// RateLimitMiddleware limits requests per client IP
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP(), time.Now()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "rate limit exceeded",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
