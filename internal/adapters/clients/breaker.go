package clients

import (
	"sync"
	"time"

	"github.com/jsamuelsen/stock-quote/internal/platform/config"
)

// State is the position of the provider circuit.
type State int

const (
	// StateClosed lets every quote request through.
	StateClosed State = iota
	// StateOpen refuses requests without contacting the provider.
	StateOpen
	// StateHalfOpen admits a limited number of trials.
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

// transition is a state change observed under the lock and reported after it.
type transition struct {
	from, to State
}

// breaker trips after MaxFailures consecutive provider failures, stays open
// for Timeout, then closes again once HalfOpenLimit trials succeed. A failed
// trial reopens it.
type breaker struct {
	cfg      config.CircuitBreakerConfig
	onChange func(from, to State)
	now      func() time.Time

	mu       sync.Mutex
	state    State
	streak   int // consecutive failures when closed, successes when half-open
	trials   int // half-open requests in flight
	openedAt time.Time
}

func newBreaker(cfg config.CircuitBreakerConfig, onChange func(from, to State)) *breaker {
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}

	if cfg.HalfOpenLimit < 1 {
		cfg.HalfOpenLimit = 1
	}

	return &breaker{cfg: cfg, onChange: onChange, now: time.Now}
}

// acquire reserves a slot for one request. It returns ErrCircuitOpen when the
// request must not be sent.
func (b *breaker) acquire() error {
	var moved *transition

	b.mu.Lock()
	err := func() error {
		if b.state == StateOpen {
			if b.now().Sub(b.openedAt) < b.cfg.Timeout {
				return ErrCircuitOpen
			}
			moved = b.moveTo(StateHalfOpen)
		}

		if b.state == StateHalfOpen {
			if b.trials >= b.cfg.HalfOpenLimit {
				return ErrCircuitOpen
			}
			b.trials++
		}

		return nil
	}()
	b.mu.Unlock()

	b.notify(moved)

	return err
}

// success records a provider answer for an acquired slot.
func (b *breaker) success() {
	b.settle(func() *transition {
		switch b.state {
		case StateClosed:
			b.streak = 0
		case StateHalfOpen:
			b.freeTrial()
			b.streak++
			if b.streak >= b.cfg.HalfOpenLimit {
				return b.moveTo(StateClosed)
			}
		}

		return nil
	})
}

// failure records a provider failure for an acquired slot.
func (b *breaker) failure() {
	b.settle(func() *transition {
		switch b.state {
		case StateClosed:
			b.streak++
			if b.streak >= b.cfg.MaxFailures {
				return b.moveTo(StateOpen)
			}
		case StateHalfOpen:
			b.freeTrial()
			return b.moveTo(StateOpen)
		}

		return nil
	})
}

// release gives back an acquired slot without an outcome, e.g. when the
// caller cancelled.
func (b *breaker) release() {
	b.settle(func() *transition {
		if b.state == StateHalfOpen {
			b.freeTrial()
		}

		return nil
	})
}

// current returns the state and, when open, how long it stays open.
func (b *breaker) current() (State, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return b.state, 0
	}

	return b.state, max(b.cfg.Timeout-b.now().Sub(b.openedAt), 0)
}

func (b *breaker) settle(fn func() *transition) {
	b.mu.Lock()
	moved := fn()
	b.mu.Unlock()

	b.notify(moved)
}

func (b *breaker) freeTrial() {
	if b.trials > 0 {
		b.trials--
	}
}

// moveTo must be called with mu held.
func (b *breaker) moveTo(to State) *transition {
	if b.state == to {
		return nil
	}

	moved := &transition{from: b.state, to: to}
	b.state = to
	b.streak = 0

	if to == StateOpen {
		b.openedAt = b.now()
	}

	if to != StateHalfOpen {
		b.trials = 0
	}

	return moved
}

func (b *breaker) notify(moved *transition) {
	if moved != nil && b.onChange != nil {
		b.onChange(moved.from, moved.to)
	}
}
