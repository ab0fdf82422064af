/**
 * @description
 * Redis-backed pacing for aggregator balance calls. The balance endpoint is
 * aggressively throttled upstream, so calls are spaced out globally: a
 * single Redis key acts as the slot holder, and replicas contend on it
 * instead of each pacing locally.
 */

package app

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPacer spaces out calls by holding a short-lived Redis key. Wait
// blocks until the previous holder's spacing interval has elapsed.
type RedisPacer struct {
	client  redis.UniversalClient
	key     string
	spacing time.Duration
}

func NewRedisPacer(client redis.UniversalClient, key string, spacing time.Duration) *RedisPacer {
	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		trimmedKey = "sync:balance_pacer"
	}
	return &RedisPacer{
		client:  client,
		key:     trimmedKey,
		spacing: spacing,
	}
}

// Wait blocks until a slot is acquired or ctx is done. A nil client or
// non-positive spacing disables pacing entirely.
func (p *RedisPacer) Wait(ctx context.Context) error {
	if p == nil || p.client == nil || p.spacing <= 0 {
		return nil
	}

	for {
		acquired, err := p.client.SetNX(ctx, p.key, 1, p.spacing).Result()
		if err != nil {
			// Redis being down must not stall the job; proceed unpaced.
			return nil
		}
		if acquired {
			return nil
		}

		remaining, err := p.client.PTTL(ctx, p.key).Result()
		if err != nil || remaining <= 0 {
			remaining = p.spacing
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
