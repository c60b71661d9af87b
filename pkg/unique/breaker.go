package unique

import (
	"sync"
	"time"

	"github.com/dmitrymomot/validkit/pkg/asyncvalidate"
)

// BreakerState is the position of a Breaker.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half-open"
)

// BreakerConfig sizes a Breaker. Zero fields take the envDefault values.
type BreakerConfig struct {
	// Failures is the number of consecutive backend faults that open the breaker.
	Failures int `env:"FAILURES" envDefault:"5"`
	// Probes is the number of successful lookups in half-open state that close it again.
	Probes   int           `env:"PROBES" envDefault:"2"`
	Cooldown time.Duration `env:"COOLDOWN" envDefault:"30s"`
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.Failures <= 0 {
		c.Failures = 5
	}
	if c.Probes <= 0 {
		c.Probes = 2
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	return c
}

// Breaker sheds uniqueness lookups while the backend keeps failing, so a
// form full of async fields does not queue retries against a dead service.
// Only faults the controller would retry count: connection errors, timeouts
// and 5xx responses. A "taken" answer or a 4xx is a healthy backend.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    BreakerState
	faults   int
	probes   int
	openedAt time.Time
}

// NewBreaker returns a closed breaker sized by cfg.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg.withDefaults(), now: time.Now, state: BreakerClosed}
}

// Acquire returns ErrCircuitOpen while the breaker is open. Once the
// cooldown has passed it lets lookups through as half-open probes.
func (b *Breaker) Acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen {
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return ErrCircuitOpen
		}
		b.state, b.probes = BreakerHalfOpen, 0
	}
	return nil
}

// Report feeds the outcome of a lookup started after Acquire.
func (b *Breaker) Report(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !backendFault(err) {
		if b.state == BreakerHalfOpen {
			b.probes++
			if b.probes < b.cfg.Probes {
				return
			}
		}
		b.state, b.faults, b.probes = BreakerClosed, 0, 0
		return
	}

	b.faults++
	if b.state == BreakerHalfOpen || b.faults >= b.cfg.Failures {
		b.state, b.openedAt = BreakerOpen, b.now()
	}
}

// State reports the position Acquire would act on now.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return BreakerHalfOpen
	}
	return b.state
}

func backendFault(err error) bool {
	if err == nil {
		return false
	}
	switch kind, _ := asyncvalidate.Classify(err); kind {
	case asyncvalidate.KindConnection, asyncvalidate.KindTimeout, asyncvalidate.KindServer:
		return true
	}
	return false
}
