package ingestion

import (
	"sync"
	"time"
)

// DefaultCooldown is the per-token suppression window. Repeat events
// for the same token inside the window are dropped as duplicates.
const DefaultCooldown = 120 * time.Second

// pruneThreshold bounds the tracked-token map; expired entries are
// swept once the map grows past it.
const pruneThreshold = 4096

// Cooldown suppresses repeat admissions of the same token within a
// fixed window.
type Cooldown struct {
	mu     sync.Mutex
	last   map[string]int64 // token -> last admission, Unix millis
	window int64            // millis

	now func() int64
}

// NewCooldown creates a Cooldown. A zero window uses DefaultCooldown.
func NewCooldown(window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &Cooldown{
		last:   make(map[string]int64),
		window: window.Milliseconds(),
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

// Allow reports whether the token is outside its cooldown window and,
// when it is, starts a new window for it.
func (c *Cooldown) Allow(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, seen := c.last[token]; seen && now-last < c.window {
		return false
	}
	if len(c.last) > pruneThreshold {
		for t, last := range c.last {
			if now-last >= c.window {
				delete(c.last, t)
			}
		}
	}
	c.last[token] = now
	return true
}

// Tracked returns the number of tokens currently tracked.
func (c *Cooldown) Tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last)
}
