// Package testutil provides deterministic substitutes for time-driven
// behavior in tests.
package testutil

import (
	"sync"
	"time"
)

// ManualTimer is a scheduled callback that fires only when told to.
type ManualTimer struct {
	mu      sync.Mutex
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

// Stop cancels the timer. Reports whether the callback was prevented from
// running, matching time.Timer semantics.
func (t *ManualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Fire runs the callback unless the timer was stopped or already fired.
// Reports whether the callback ran.
func (t *ManualTimer) Fire() bool {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return false
	}
	t.fired = true
	f := t.f
	t.mu.Unlock()

	f()
	return true
}

// Stopped reports whether Stop cancelled the timer before it fired.
func (t *ManualTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Duration returns the delay the timer was scheduled with.
func (t *ManualTimer) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.d
}

// ManualScheduler records scheduled timers without any wall-clock
// involvement. Tests fire timers explicitly, making auto-clear behavior
// fully deterministic.
type ManualScheduler struct {
	mu     sync.Mutex
	timers []*ManualTimer
}

// NewManualScheduler creates an empty scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc records a new manual timer and returns it.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) *ManualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &ManualTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Timers returns every timer scheduled so far, in order.
func (s *ManualScheduler) Timers() []*ManualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ManualTimer, len(s.timers))
	copy(out, s.timers)
	return out
}

// Latest returns the most recently scheduled timer, or nil.
func (s *ManualScheduler) Latest() *ManualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}
