package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Breaker.Do while the breaker is rejecting calls.
var ErrOpen = errors.New("resilience: circuit open")

// State is the breaker state.
type State int

const (
	// StateClosed lets calls through.
	StateClosed State = iota
	// StateOpen rejects calls until the cooldown elapses.
	StateOpen
	// StateHalfOpen lets probe calls through to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
	// Probes is the number of calls admitted while half-open; all of them
	// must succeed to close the breaker.
	Probes int `yaml:"probes" mapstructure:"probes"`
}

// ApplyDefaults fills zero-valued fields.
func (c *BreakerConfig) ApplyDefaults() {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 10 * time.Second
	}
	if c.Probes <= 0 {
		c.Probes = 1
	}
}

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	cfg      BreakerConfig
	onChange func(from, to State)
	now      func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	admitted  int
	openedAt  time.Time
}

// NewBreaker creates a closed breaker. onChange, if not nil, is called on
// every state transition while the breaker's lock is held; it must not call
// back into the breaker.
func NewBreaker(cfg BreakerConfig, onChange func(from, to State)) *Breaker {
	cfg.ApplyDefaults()
	return &Breaker{cfg: cfg, onChange: onChange, now: time.Now}
}

// Do runs fn unless the breaker is open, and records its outcome.
func (b *Breaker) Do(fn func() error) error {
	if !b.admit() {
		return ErrOpen
	}
	err := fn()
	b.record(err)
	return err
}

// DoContext is Do for a call bound to ctx. A failure that happens once ctx
// is done belongs to the caller, not the dependency: it is returned but not
// counted, and a half-open probe slot it held is given back.
func (b *Breaker) DoContext(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.admit() {
		return ErrOpen
	}
	err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		b.release()
		return err
	}
	b.record(err)
	return err
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current()
}

// Reset closes the breaker and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.failures = 0
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.current() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.admitted < b.cfg.Probes {
			b.admitted++
			return true
		}
	}
	return false
}

func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && b.admitted > 0 {
		b.admitted--
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.current()
	if err == nil {
		switch state {
		case StateClosed:
			b.failures = 0
		case StateHalfOpen:
			b.successes++
			if b.successes >= b.cfg.Probes {
				b.transition(StateClosed)
			}
		}
		return
	}

	b.failures++
	if state == StateHalfOpen || (state == StateClosed && b.failures >= b.cfg.MaxFailures) {
		b.openedAt = b.now()
		b.transition(StateOpen)
	}
}

// current moves an open breaker to half-open once the cooldown has passed.
// Callers hold b.mu.
func (b *Breaker) current() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		b.transition(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.successes, b.admitted = 0, 0
	if to == StateClosed {
		b.failures = 0
	}
	if b.onChange != nil {
		b.onChange(from, to)
	}
}
