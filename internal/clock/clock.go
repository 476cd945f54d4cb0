// Package clock provides an injectable time source for tempo's core
// packages, so that the fixed-delay pacing and cancellation scenarios
// (admissions spaced by MinInterval, queued-vs-running cancellation) can be
// driven deterministically from tests instead of racing real wall-clock
// sleeps. A single *Fake can be shared and advanced explicitly across the
// executor and limiter under test (the queue itself reads no clock).
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock abstracts time.Now and timer construction.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer abstracts a *time.Timer.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// Real is the production Clock, backed by the time package.
var Real Clock = realClock{}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) Timer {
	t := time.NewTimer(d)
	return realTimer{t}
}

type realTimer struct{ t *time.Timer }

func (r realTimer) C() <-chan time.Time { return r.t.C }
func (r realTimer) Stop() bool          { return r.t.Stop() }

// Fake is a virtualized clock for tests. The zero value is not usable; use
// NewFake. All methods are safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeTimer
}

// NewFake returns a Fake clock starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d, firing (in deadline order) any timer
// whose deadline is now at or before the new time. Firing a timer sends the
// fire time on its channel; the send is buffered so Advance never blocks on
// a consumer that is not yet selecting.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now

	sort.Slice(f.waiters, func(i, j int) bool {
		return f.waiters[i].deadline.Before(f.waiters[j].deadline)
	})

	var remaining []*fakeTimer
	for _, w := range f.waiters {
		if w.stopped {
			continue
		}
		if !w.deadline.After(now) {
			w.fire(now)
		} else {
			remaining = append(remaining, w)
		}
	}
	f.waiters = remaining
	f.mu.Unlock()
}

func (f *Fake) NewTimer(d time.Duration) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTimer{
		clock:    f,
		deadline: f.now.Add(d),
		ch:       make(chan time.Time, 1),
	}
	if d <= 0 {
		t.fire(f.now)
	} else {
		f.waiters = append(f.waiters, t)
	}
	return t
}

type fakeTimer struct {
	clock    *Fake
	deadline time.Time
	ch       chan time.Time
	stopped  bool
	fired    bool
}

func (t *fakeTimer) fire(at time.Time) {
	if t.fired {
		return
	}
	t.fired = true
	select {
	case t.ch <- at:
	default:
	}
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}
