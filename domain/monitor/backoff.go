package monitor

import (
	"math/rand/v2"
	"time"
)

// Backoff computes exponential retry delays with jitter.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64 // fraction of the delay, spread evenly around it
}

// DefaultBackoff returns 50ms doubling up to 1s with 20% jitter.
func DefaultBackoff() Backoff {
	return Backoff{Base: 50 * time.Millisecond, Max: time.Second, Jitter: 0.2}
}

// Delay returns the wait before retry number attempt (0-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if b.Base <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	delay := b.Base << min(attempt, 6) // Cap shift to prevent overflow
	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}
	if b.Jitter <= 0 {
		return delay
	}
	jitter := float64(delay) * b.Jitter * (rand.Float64() - 0.5)
	return time.Duration(float64(delay) + jitter)
}
