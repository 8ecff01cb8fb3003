package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweepEvery returns a job that clears expired cooldown entries on every tick
// until ctx is done.
func SweepEvery(c *Cooldown, interval time.Duration, log *zap.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					log.Debug("cooldowns swept", zap.Int("removed", n), zap.Int("remaining", c.Len()))
				}
			}
		}
	}
}
