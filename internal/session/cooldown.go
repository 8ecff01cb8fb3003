// Package session keeps per-user ephemeral state: command cooldowns and the
// cosmetic shell workspace (cwd, history, fake files).
package session

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum gap between two commands from one user.
const DefaultCooldown = 600 * time.Millisecond

// Cooldown tracks the last accepted invocation per user.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (c *Cooldown) WithClock(now func() time.Time) *Cooldown {
	c.now = now
	return c
}

// Allow reports whether the user may run a command now. An accepted call
// records the timestamp; a rejected call leaves it untouched and returns the
// remaining wait.
func (c *Cooldown) Allow(userID string) (bool, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.last[userID]; ok {
		if elapsed := now.Sub(last); elapsed < c.window {
			return false, c.window - elapsed
		}
	}
	c.last[userID] = now
	return true, 0
}

// Sweep drops entries whose window has passed and returns how many were
// removed.
func (c *Cooldown) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, last := range c.last {
		if now.Sub(last) >= c.window {
			delete(c.last, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked users.
func (c *Cooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last)
}
