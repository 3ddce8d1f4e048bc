// internal/countdown/countdown.go
//
// Game clock.
// Responsibilities:
//   - Deliver one tick per interval through single-shot timers the owner re-arms
//     after handling each tick; no periodic ticker.
//   - Stamp every tick with an epoch. Arm and Cancel start a new epoch, and owners
//     drop ticks whose epoch is no longer current.

package countdown

import (
	"sync"
	"time"
)

// Timer is a pending single-shot callback.
type Timer interface {
	Stop() bool
}

// Scheduler schedules single-shot callbacks.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// System schedules callbacks on the runtime timer.
var System Scheduler = systemScheduler{}

// Countdown delivers ticks to fire, one per interval, for as long as the
// owner keeps re-arming it.
type Countdown struct {
	sched    Scheduler
	interval time.Duration
	fire     func(epoch uint64)

	mu      sync.Mutex
	pending Timer
	epoch   uint64
	armed   bool
}

// New returns an idle countdown. fire is called from the scheduler's goroutine
// and must not block; typically it posts an event to the owner's loop.
func New(s Scheduler, interval time.Duration, fire func(epoch uint64)) *Countdown {
	if s == nil {
		s = System
	}
	return &Countdown{sched: s, interval: interval, fire: fire}
}

// Arm cancels anything pending, opens a new epoch and schedules its first tick.
func (c *Countdown) Arm() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.epoch++
	c.armed = true
	c.scheduleLocked()
	return c.epoch
}

// Rearm schedules the next tick for epoch. It reports false, and schedules
// nothing, if the countdown was cancelled or re-armed since.
func (c *Countdown) Rearm(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed || epoch != c.epoch {
		return false
	}
	c.stopLocked()
	c.scheduleLocked()
	return true
}

// Cancel stops the pending tick and invalidates the current epoch.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.armed = false
	c.epoch++
}

// Valid reports whether a tick carrying epoch should still be applied.
func (c *Countdown) Valid(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed && epoch == c.epoch
}

// Armed reports whether ticks are currently being delivered.
func (c *Countdown) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

func (c *Countdown) scheduleLocked() {
	epoch := c.epoch
	c.pending = c.sched.AfterFunc(c.interval, func() {
		if c.Valid(epoch) {
			c.fire(epoch)
		}
	})
}

func (c *Countdown) stopLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}
