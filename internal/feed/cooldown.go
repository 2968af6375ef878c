package feed

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCooldown is the minimum spacing between forced refreshes.
const DefaultCooldown = 600 * time.Millisecond

// Cooldown throttles user-triggered refreshes so a held-down refresh
// key cannot flood the upstream source.
type Cooldown struct {
	limiter *rate.Limiter
}

func NewCooldown(interval time.Duration) *Cooldown {
	if interval <= 0 {
		interval = DefaultCooldown
	}
	return &Cooldown{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Allow reports whether a refresh may proceed right now.
// A denied refresh is dropped, not queued.
func (c *Cooldown) Allow() bool {
	return c.limiter.Allow()
}

// Wait blocks until a refresh may proceed or the context is done.
// Used by the background poller, which wants pacing rather than drops.
func (c *Cooldown) Wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}
