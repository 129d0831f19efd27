// Package timer provides the countdown primitive and the per-turn state
// machine that keeps local timers consistent with server authority signals.
package timer

import (
	"sync"
	"time"
)

// TickerFactory abstracts tick sources so tests can drive ticks by hand.
type TickerFactory func(period time.Duration) (<-chan time.Time, func())

// RealTicker is the production tick source.
func RealTicker(period time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(period)
	return t.C, t.Stop
}

// Countdown counts a fixed number of discrete ticks down to zero. Start is
// cancel-before-start: arming a countdown that is already running replaces
// it, so two timers can never decrement the same displayed value.
type Countdown struct {
	mu        sync.Mutex
	newTicker TickerFactory
	gen       uint64
	remaining int
	running   bool
	stop      func()
	done      chan struct{}
}

func NewCountdown(f TickerFactory) *Countdown {
	if f == nil {
		f = RealTicker
	}
	return &Countdown{newTicker: f}
}

// Start arms the countdown for ticks ticks of the given period. onTick is
// called with the remaining count after every tick; onExpire fires once when
// the count reaches zero. Either callback may be nil.
func (c *Countdown) Start(ticks int, period time.Duration, onTick func(remaining int), onExpire func()) {
	if ticks <= 0 || period <= 0 {
		return
	}

	c.mu.Lock()
	c.cancelLocked()
	c.gen++
	gen := c.gen
	c.remaining = ticks
	c.running = true
	ch, stop := c.newTicker(period)
	c.stop = stop
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	go c.run(gen, ch, done, onTick, onExpire)
}

// Stop cancels the countdown. Idempotent; a cancelled countdown never fires
// another callback and its goroutine exits.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.cancelLocked()
	c.gen++
	c.mu.Unlock()
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Countdown) cancelLocked() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	// Stopping a ticker never closes its channel; the done channel is what
	// lets the run goroutine exit.
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.running = false
}

func (c *Countdown) run(gen uint64, ch <-chan time.Time, done <-chan struct{}, onTick func(int), onExpire func()) {
	for {
		select {
		case <-done:
			return
		case <-ch:
		}

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return
		}
		c.remaining--
		rem := c.remaining
		expired := rem <= 0
		if expired {
			c.cancelLocked()
		}
		c.mu.Unlock()

		if onTick != nil {
			onTick(rem)
		}
		if expired {
			if onExpire != nil {
				onExpire()
			}
			return
		}
	}
}
