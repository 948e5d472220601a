package offer

import "time"

// Timer is a cancellable scheduled callback handle.
type Timer interface {
	// Stop cancels the timer. It reports whether the callback was
	// prevented from running.
	Stop() bool
}

// Scheduler schedules deferred callbacks. The production implementation
// wraps time.AfterFunc; tests substitute a manual scheduler so timer
// behavior is deterministic.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewScheduler returns the wall-clock Scheduler.
func NewScheduler() Scheduler {
	return realScheduler{}
}
