// internal/sched/tickclock.go

package sched

import (
	"sync/atomic"
	"time"
)

// Tick is an instant read from the tick counter. The counter is 32 bits wide
// and wraps; compare instants with Before/AtOrAfter, never with < or >.
type Tick uint32

// Ticks is a span of ticks (periods, job costs).
type Ticks uint32

// Add returns the instant d ticks after t, wrapping with the counter.
func (t Tick) Add(d Ticks) Tick { return t + Tick(d) }

// Sub returns the span from u to t. t must not be before u.
func (t Tick) Sub(u Tick) Ticks { return Ticks(t - u) }

// Before reports whether t is strictly earlier than u. Valid while the two
// instants are less than 2^31 ticks apart.
func (t Tick) Before(u Tick) bool { return int32(t-u) < 0 }

// AtOrAfter reports whether t is u or later.
func (t Tick) AtOrAfter(u Tick) bool { return !t.Before(u) }

// TimeSource is the read-only view of the tick counter.
type TimeSource interface {
	Now() Tick
}

// TickClock counts ticks atomically and, in real-time mode, emits one pulse
// on Ch per wall-clock interval. Pulses do not advance the count; the
// consumer of Ch plays the tick interrupt and calls Advance.
type TickClock struct {
	Ch    chan struct{}
	count atomic.Uint32
	stop  chan struct{}
}

// NewTickClock creates a clock reading start. buffer sizes the pulse channel.
func NewTickClock(start Tick, buffer int) *TickClock {
	c := &TickClock{
		Ch:   make(chan struct{}, buffer),
		stop: make(chan struct{}),
	}
	c.count.Store(uint32(start))
	return c
}

// Now returns the current tick.
func (c *TickClock) Now() Tick {
	return Tick(c.count.Load())
}

// Advance increments the counter by one tick and returns the new reading.
func (c *TickClock) Advance() Tick {
	return Tick(c.count.Add(1))
}

// Start begins emitting pulses at the given interval.
func (c *TickClock) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case c.Ch <- struct{}{}:
				default:
					// consumer is behind; drop the pulse rather than queue a burst
				}
			case <-c.stop:
				close(c.Ch)
				return
			}
		}
	}()
}

// Stop signals the clock to stop emitting pulses.
func (c *TickClock) Stop() {
	close(c.stop)
}
