package link

import (
	"context"
	"math/rand"
	"time"
)

// BackoffConfig spaces out engine connect attempts. Attempt n waits
// InitialDelay * Multiplier^(n-1), capped at MaxDelay. Jitter scales the
// result by a random factor in [0.5, 1.5).
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Delay returns the wait before retry number attempt (1-based). A nil rng
// disables jitter.
func (b BackoffConfig) Delay(attempt int, rng *rand.Rand) time.Duration {
	if b.InitialDelay <= 0 {
		return 0
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := float64(b.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= mult
		if b.MaxDelay > 0 && delay >= float64(b.MaxDelay) {
			delay = float64(b.MaxDelay)
			break
		}
	}
	if b.Jitter && rng != nil {
		delay *= 0.5 + rng.Float64()
	}
	return time.Duration(delay)
}

// Wait sleeps for Delay(attempt, rng) or until ctx is done.
func (b BackoffConfig) Wait(ctx context.Context, attempt int, rng *rand.Rand) error {
	timer := time.NewTimer(b.Delay(attempt, rng))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
