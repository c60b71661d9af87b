package asyncvalidate

import (
	"math"
	"math/rand/v2"
	"time"
)

// DelayFunc returns how long to wait after the 0-based attempt failed.
// It is called from many runs at once and must not keep state.
type DelayFunc func(attempt int) time.Duration

// Constant waits d after every failure.
func Constant(d time.Duration) DelayFunc {
	return func(int) time.Duration { return max(d, 0) }
}

// Exponential waits base, 2*base, 4*base and so on, never more than limit,
// even when limit is below base. A zero limit leaves the growth unbounded.
func Exponential(base, limit time.Duration) DelayFunc {
	base = max(base, 0)
	if limit <= 0 {
		limit = math.MaxInt64
	}
	return func(attempt int) time.Duration {
		d := base
		for range max(attempt, 0) {
			if d >= limit/2 {
				return limit
			}
			d *= 2
		}
		return min(d, limit)
	}
}

// Linear waits step times the number of failures so far, never more than
// limit. A zero limit leaves the growth unbounded.
func Linear(step, limit time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		d := step * time.Duration(max(attempt, 0)+1)
		if limit > 0 {
			d = min(d, limit)
		}
		return d
	}
}

// Jittered spreads the delays of next by up to factor in either direction,
// so fields retried together do not hit the backend in lockstep.
func Jittered(next DelayFunc, factor float64) DelayFunc {
	if factor <= 0 {
		return next
	}
	factor = min(factor, 1)
	return func(attempt int) time.Duration {
		d := float64(next(attempt))
		return time.Duration(d * (1 + (rand.Float64()*2-1)*factor))
	}
}
