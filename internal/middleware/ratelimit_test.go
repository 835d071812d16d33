package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	now := time.Now()
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4", now))
	}
	assert.False(t, rl.Allow("1.2.3.4", now))

	// Other callers have their own window
	assert.True(t, rl.Allow("5.6.7.8", now))
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	now := time.Now()
	assert.True(t, rl.Allow("1.2.3.4", now))
	assert.False(t, rl.Allow("1.2.3.4", now.Add(30*time.Second)))
	assert.True(t, rl.Allow("1.2.3.4", now.Add(time.Minute)))
}

func TestRateLimiterPrune(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.Allow("1.2.3.4", now)
	rl.Allow("5.6.7.8", now.Add(45*time.Second))

	rl.prune(now.Add(70 * time.Second))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.counters, "1.2.3.4")
	assert.Contains(t, rl.counters, "5.6.7.8")
}
