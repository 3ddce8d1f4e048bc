// internal/countdown/manual.go
//
// Hand-driven Scheduler for tests: callbacks run only when Fire is called.

package countdown

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by hand. Callbacks run only when Fire is
// called, which makes clock-dependent code testable without sleeping.
type Manual struct {
	mu      sync.Mutex
	next    int
	pending map[int]func()
	last    time.Duration
}

// NewManual returns an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{pending: make(map[int]func())}
}

type manualTimer struct {
	m  *Manual
	id int
}

func (t manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	_, ok := t.m.pending[t.id]
	delete(t.m.pending, t.id)
	return ok
}

// AfterFunc records f; d is kept only for inspection.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.pending[m.next] = f
	m.last = d
	return manualTimer{m: m, id: m.next}
}

// Pending reports how many callbacks are scheduled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// LastDelay is the delay passed to the most recent AfterFunc.
func (m *Manual) LastDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Fire runs every callback scheduled so far, in scheduling order, and
// returns how many ran. Callbacks scheduled while firing wait for the next call.
func (m *Manual) Fire() int {
	m.mu.Lock()
	ids := make([]int, 0, len(m.pending))
	for id := range m.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.pending[id])
		delete(m.pending, id)
	}
	m.mu.Unlock()

	for _, f := range fns {
		f()
	}
	return len(fns)
}
