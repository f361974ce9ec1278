// Package clock abstracts time so the response loop can be driven by a
// deterministic clock in tests.
package clock

import (
	"slices"
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time        { return time.Now() }
func (Real) Sleep(d time.Duration) { time.Sleep(d) }

// Fake is a manually advanced clock. Sleep returns immediately after moving
// time forward and running every callback scheduled up to the new instant,
// in schedule order.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	queue []scheduled
	seq   int
}

type scheduled struct {
	at  time.Time
	seq int
	fn  func()
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Sleep(d time.Duration) {
	f.Advance(d)
}

// Since is a convenience for tests: elapsed fake time since t.
func (f *Fake) Since(t time.Time) time.Duration {
	return f.Now().Sub(t)
}

// At schedules fn to run when the clock reaches t. Callbacks scheduled in the
// past run on the next Advance or Next call.
func (f *Fake) At(t time.Time, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.queue = append(f.queue, scheduled{at: t, seq: f.seq, fn: fn})
	slices.SortFunc(f.queue, func(a, b scheduled) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return a.seq - b.seq
	})
}

// After schedules fn to run d after the current fake time.
func (f *Fake) After(d time.Duration, fn func()) {
	f.At(f.Now().Add(d), fn)
}

// Advance moves the clock forward by d, firing due callbacks.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()
	for f.fireBefore(target) {
	}
	f.mu.Lock()
	if target.After(f.now) {
		f.now = target
	}
	f.mu.Unlock()
}

// Next jumps to the earliest scheduled callback and runs it. It reports
// false when nothing is scheduled.
func (f *Fake) Next() bool {
	f.mu.Lock()
	if len(f.queue) == 0 {
		f.mu.Unlock()
		return false
	}
	at := f.queue[0].at
	f.mu.Unlock()
	return f.fireBefore(at)
}

// Pending returns the number of callbacks not yet fired.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

func (f *Fake) fireBefore(limit time.Time) bool {
	f.mu.Lock()
	if len(f.queue) == 0 || f.queue[0].at.After(limit) {
		f.mu.Unlock()
		return false
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	if next.at.After(f.now) {
		f.now = next.at
	}
	f.mu.Unlock()
	next.fn()
	return true
}
