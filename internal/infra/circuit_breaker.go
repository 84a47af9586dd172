package infra

import (
	"errors"
	"sync"
	"time"
)

// CircuitBreaker guards calls to an unreliable dependency (the SMTP relay).
// Closed lets calls through, Open fails fast, HalfOpen lets probes through
// until enough of them succeed.
type CircuitBreaker struct {
	name string
	cfg  BreakerConfig
	now  func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	probes      int
	openedSince time.Time
}

// BreakerState is the current position of a CircuitBreaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrBreakerOpen is returned by Do while the breaker is failing fast.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerConfig holds the trip and recovery thresholds. Zero values fall back
// to 5 failures, 2 probe successes and a 60s cool-down.
type BreakerConfig struct {
	MaxFailures  int
	ProbeSuccess int
	CoolDown     time.Duration
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(name string, cfg BreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ProbeSuccess <= 0 {
		cfg.ProbeSuccess = 2
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 60 * time.Second
	}
	return &CircuitBreaker{name: name, cfg: cfg, now: time.Now}
}

// Name identifies the breaker in logs.
func (cb *CircuitBreaker) Name() string { return cb.name }

// State reports the breaker position, moving Open to HalfOpen once the
// cool-down has elapsed.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentLocked()
}

func (cb *CircuitBreaker) currentLocked() BreakerState {
	if cb.state == BreakerOpen && cb.now().Sub(cb.openedSince) >= cb.cfg.CoolDown {
		cb.state = BreakerHalfOpen
		cb.probes = 0
	}
	return cb.state
}

// Do runs fn unless the breaker is open, and records its outcome.
func (cb *CircuitBreaker) Do(fn func() error) error {
	cb.mu.Lock()
	if cb.currentLocked() == BreakerOpen {
		cb.mu.Unlock()
		return ErrBreakerOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailureLocked()
		return err
	}
	cb.recordSuccessLocked()
	return nil
}

func (cb *CircuitBreaker) recordFailureLocked() {
	switch cb.state {
	case BreakerHalfOpen:
		cb.tripLocked()
	case BreakerClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			cb.tripLocked()
		}
	}
}

func (cb *CircuitBreaker) recordSuccessLocked() {
	switch cb.state {
	case BreakerClosed:
		cb.failures = 0
	case BreakerHalfOpen:
		cb.probes++
		if cb.probes >= cb.cfg.ProbeSuccess {
			cb.state = BreakerClosed
			cb.failures = 0
			cb.probes = 0
		}
	}
}

func (cb *CircuitBreaker) tripLocked() {
	cb.state = BreakerOpen
	cb.openedSince = cb.now()
	cb.failures = 0
	cb.probes = 0
}
