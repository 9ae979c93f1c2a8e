package signals

import (
	"sync"
	"time"
)

// BreakerState is the state of one signal source's circuit breaker.
type BreakerState int32

const (
	BreakerClosed   BreakerState = iota // normal operation
	BreakerOpen                         // failing, reject fetches
	BreakerHalfOpen                     // probing recovery
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker events reported to the gateway's metrics sink.
const (
	BreakerEventOpen     = "open"
	BreakerEventClose    = "close"
	BreakerEventHalfOpen = "half_open"
	BreakerEventReject   = "reject"
	BreakerEventTimeout  = "timeout"
)

// BreakerConfig configures one signal breaker.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening (default 5)
	ResetTimeout     time.Duration // time in open before a half-open probe (default 30s)
	CallTimeout      time.Duration // per-fetch deadline (default 5s)
}

// DefaultBreakerConfig returns the defaults used for every signal kind.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		CallTimeout:      5 * time.Second,
	}
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	d := DefaultBreakerConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = d.ResetTimeout
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = d.CallTimeout
	}
	return c
}

// Breaker is a circuit breaker for a single signal source.
//
// Transitions:
//   - Closed → Open: consecutive failures reach the threshold
//   - Open → HalfOpen: reset timeout elapsed, one probe allowed through
//   - HalfOpen → Closed: probe succeeded
//   - HalfOpen → Open: probe failed
//
// Breakers are long-lived, process-wide state shared across decisions; all
// methods are safe for concurrent use.
type Breaker struct {
	cfg BreakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	openedAt    time.Time
	probing     bool

	onEvent func(event string)
}

// NewBreaker creates a breaker in the closed state. onEvent receives state
// transition and rejection events; it may be nil.
func NewBreaker(cfg BreakerConfig, onEvent func(event string)) *Breaker {
	return &Breaker{cfg: cfg.withDefaults(), onEvent: onEvent}
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a fetch should be attempted. In the open state it
// rejects until the reset timeout has elapsed, then admits a single probe
// and moves to half-open.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true

	case BreakerOpen:
		if time.Since(b.openedAt) >= b.cfg.ResetTimeout {
			b.transition(BreakerHalfOpen)
			b.probing = true
			return true
		}
		b.emit(BreakerEventReject)
		return false

	case BreakerHalfOpen:
		if b.probing {
			b.emit(BreakerEventReject)
			return false
		}
		b.probing = true
		return true

	default:
		return false
	}
}

// RecordSuccess records a successful fetch.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.probing = false
		b.transition(BreakerClosed)
	case BreakerClosed:
		b.failures = 0
	}
}

// RecordFailure records a failed fetch. A failure in half-open reopens the
// circuit immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()

	switch b.state {
	case BreakerClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(BreakerOpen)
		}
	case BreakerHalfOpen:
		b.probing = false
		b.transition(BreakerOpen)
	}
}

// transition must be called with the lock held.
func (b *Breaker) transition(next BreakerState) {
	if b.state == next {
		return
	}
	b.state = next

	switch next {
	case BreakerOpen:
		b.openedAt = time.Now()
		b.emit(BreakerEventOpen)
	case BreakerHalfOpen:
		b.emit(BreakerEventHalfOpen)
	case BreakerClosed:
		b.failures = 0
		b.emit(BreakerEventClose)
	}
}

func (b *Breaker) emit(event string) {
	if b.onEvent != nil {
		b.onEvent(event)
	}
}

// BreakerStats is a point-in-time snapshot for health reporting.
type BreakerStats struct {
	State       string    `json:"state"`
	Failures    int       `json:"failures"`
	LastFailure time.Time `json:"last_failure,omitzero"`
}

// Stats returns a snapshot of the breaker's counters.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{
		State:       b.state.String(),
		Failures:    b.failures,
		LastFailure: b.lastFailure,
	}
}
