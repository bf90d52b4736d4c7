package fetch

import (
	"math"
	"math/rand"
	"time"
)

const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
	backoffFactor  = 2.0
	jitterFraction = 0.25
)

// backoff returns the delay before retry attempt n (1-based), exponential
// with jitter so parallel workers do not hammer the register in lockstep.
func backoff(attempt int) time.Duration {
	d := float64(initialBackoff) * math.Pow(backoffFactor, float64(attempt-1))
	if d > float64(maxBackoff) {
		d = float64(maxBackoff)
	}
	jitter := 1 + jitterFraction*(2*rand.Float64()-1)
	return time.Duration(d * jitter)
}
