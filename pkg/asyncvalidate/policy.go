package asyncvalidate

import "time"

// Policy bounds one async validation run.
type Policy struct {
	// Timeout caps each attempt; zero disables the per-attempt timer.
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	// ExponentialBackoff doubles RetryDelay per attempt, capped at MaxRetryDelay.
	ExponentialBackoff bool
	MaxRetryDelay      time.Duration
	// CancelPrevious cancels an in-flight run for the same field when a new one starts.
	// Without it the older run finishes but its result is still discarded.
	CancelPrevious bool
	// Backoff overrides the delay computed from the fields above.
	Backoff DelayFunc
}

// DefaultPolicy returns a 10s timeout, 3 retries and exponential backoff from 1s up to 8s.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:            10 * time.Second,
		MaxRetries:         3,
		RetryDelay:         time.Second,
		ExponentialBackoff: true,
		MaxRetryDelay:      8 * time.Second,
		CancelPrevious:     true,
	}
}

// Delay returns the wait after the 0-based attempt failed.
func (p Policy) Delay(attempt int) time.Duration {
	switch {
	case p.Backoff != nil:
		return p.Backoff(attempt)
	case p.ExponentialBackoff:
		return Exponential(p.RetryDelay, p.MaxRetryDelay)(attempt)
	default:
		return Constant(p.RetryDelay)(attempt)
	}
}

// Option adjusts the policy of a single call.
type Option func(*Policy)

// WithTimeout caps each attempt; zero disables the per-attempt timer.
func WithTimeout(d time.Duration) Option {
	return func(p *Policy) { p.Timeout = d }
}

// WithMaxRetries sets how many retries follow the first attempt. Negative values are ignored.
func WithMaxRetries(n int) Option {
	return func(p *Policy) {
		if n >= 0 {
			p.MaxRetries = n
		}
	}
}

// WithRetryDelay sets the wait before the first retry.
func WithRetryDelay(d time.Duration) Option {
	return func(p *Policy) { p.RetryDelay = d }
}

// WithExponentialBackoff doubles the wait per retry when enabled.
func WithExponentialBackoff(enabled bool) Option {
	return func(p *Policy) { p.ExponentialBackoff = enabled }
}

// WithMaxRetryDelay caps the wait between retries.
func WithMaxRetryDelay(d time.Duration) Option {
	return func(p *Policy) { p.MaxRetryDelay = d }
}

// WithCancelPrevious cancels an in-flight run of the same field when a new one starts.
func WithCancelPrevious(enabled bool) Option {
	return func(p *Policy) { p.CancelPrevious = enabled }
}

// WithNoRetry runs a single attempt.
func WithNoRetry() Option {
	return WithMaxRetries(0)
}

// WithBackoff replaces the delay formula, e.g. with Jittered(Exponential(...), 0.2).
func WithBackoff(b DelayFunc) Option {
	return func(p *Policy) { p.Backoff = b }
}

// WithPolicy replaces the whole policy.
func WithPolicy(policy Policy) Option {
	return func(p *Policy) { *p = policy }
}

// Config is the environment form of the default policy.
type Config struct {
	Timeout            time.Duration `env:"VALIDATION_TIMEOUT" envDefault:"10s"`
	MaxRetries         int           `env:"VALIDATION_MAX_RETRIES" envDefault:"3"`
	RetryDelay         time.Duration `env:"VALIDATION_RETRY_DELAY" envDefault:"1s"`
	ExponentialBackoff bool          `env:"VALIDATION_EXPONENTIAL_BACKOFF" envDefault:"true"`
	MaxRetryDelay      time.Duration `env:"VALIDATION_MAX_RETRY_DELAY" envDefault:"8s"`
	CancelPrevious     bool          `env:"VALIDATION_CANCEL_PREVIOUS" envDefault:"true"`
}

// Policy converts the environment config into a Policy.
func (c Config) Policy() Policy {
	return Policy{
		Timeout:            c.Timeout,
		MaxRetries:         c.MaxRetries,
		RetryDelay:         c.RetryDelay,
		ExponentialBackoff: c.ExponentialBackoff,
		MaxRetryDelay:      c.MaxRetryDelay,
		CancelPrevious:     c.CancelPrevious,
	}
}
