package countdown

import (
	"testing"
	"time"
)

type recorder struct{ epochs []uint64 }

func (r *recorder) fire(epoch uint64) { r.epochs = append(r.epochs, epoch) }

func TestArmSchedulesSingleTick(t *testing.T) {
	m := NewManual()
	r := &recorder{}
	c := New(m, time.Second, r.fire)

	epoch := c.Arm()
	if m.Pending() != 1 {
		t.Fatalf("expected 1 pending tick, got %d", m.Pending())
	}
	if m.LastDelay() != time.Second {
		t.Fatalf("expected 1s delay, got %s", m.LastDelay())
	}
	if n := m.Fire(); n != 1 {
		t.Fatalf("expected 1 callback, got %d", n)
	}
	if len(r.epochs) != 1 || r.epochs[0] != epoch {
		t.Fatalf("expected tick for epoch %d, got %v", epoch, r.epochs)
	}
	// Single-shot: nothing else until re-armed.
	if m.Pending() != 0 {
		t.Fatalf("tick must not repeat on its own, %d pending", m.Pending())
	}
}

func TestRearmContinuesEpoch(t *testing.T) {
	m := NewManual()
	r := &recorder{}
	c := New(m, time.Second, r.fire)

	epoch := c.Arm()
	for i := 0; i < 3; i++ {
		m.Fire()
		if !c.Rearm(epoch) {
			t.Fatalf("rearm %d refused", i)
		}
	}
	m.Fire()
	if len(r.epochs) != 4 {
		t.Fatalf("expected 4 ticks, got %d", len(r.epochs))
	}
}

func TestCancelDropsPendingTick(t *testing.T) {
	m := NewManual()
	r := &recorder{}
	c := New(m, time.Second, r.fire)

	epoch := c.Arm()
	c.Cancel()
	m.Fire()
	if len(r.epochs) != 0 {
		t.Fatalf("cancelled countdown delivered %v", r.epochs)
	}
	if c.Valid(epoch) {
		t.Fatal("epoch must be invalid after cancel")
	}
	if c.Rearm(epoch) {
		t.Fatal("rearm after cancel must be refused")
	}
	if c.Armed() {
		t.Fatal("countdown must report disarmed")
	}
}

func TestStaleCallbackIsSuppressed(t *testing.T) {
	// A scheduler whose Stop never succeeds models a callback that was
	// already running when the countdown was cancelled.
	m := &leakyScheduler{}
	r := &recorder{}
	c := New(m, time.Second, r.fire)

	c.Arm()
	c.Cancel()
	for _, f := range m.fns {
		f()
	}
	if len(r.epochs) != 0 {
		t.Fatalf("stale tick delivered: %v", r.epochs)
	}
}

func TestArmStartsFreshEpoch(t *testing.T) {
	m := &leakyScheduler{}
	r := &recorder{}
	c := New(m, time.Second, r.fire)

	first := c.Arm()
	second := c.Arm()
	if first == second {
		t.Fatal("re-arming must open a new epoch")
	}
	for _, f := range m.fns {
		f()
	}
	if len(r.epochs) != 1 || r.epochs[0] != second {
		t.Fatalf("only the newest epoch may tick, got %v", r.epochs)
	}
}

func TestSystemSchedulerFires(t *testing.T) {
	done := make(chan uint64, 1)
	c := New(nil, 5*time.Millisecond, func(e uint64) { done <- e })
	epoch := c.Arm()
	select {
	case got := <-done:
		if got != epoch {
			t.Fatalf("expected epoch %d, got %d", epoch, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("system scheduler never fired")
	}
	c.Cancel()
}

type leakyScheduler struct{ fns []func() }

type leakyTimer struct{}

func (leakyTimer) Stop() bool { return false }

func (l *leakyScheduler) AfterFunc(_ time.Duration, f func()) Timer {
	l.fns = append(l.fns, f)
	return leakyTimer{}
}
