package value

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
)

// Scheduler runs a closure after a delay. It is the only timing service the
// package depends on.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Timer
}

// Timer is a pending scheduled closure.
type Timer interface {
	// Cancel prevents the closure from running if it has not started.
	Cancel()

	// Done reports whether the closure has started or been cancelled.
	Done() bool
}

// ClockScheduler schedules closures on a clockz.Clock.
//
// Use clockz.NewFakeClock for deterministic tests.
type ClockScheduler struct {
	clock clockz.Clock
}

// NewClockScheduler returns a scheduler backed by clock. A nil clock uses
// clockz.RealClock.
func NewClockScheduler(clock clockz.Clock) *ClockScheduler {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &ClockScheduler{clock: clock}
}

// Schedule implements Scheduler.
func (s *ClockScheduler) Schedule(d time.Duration, fn func()) Timer {
	t := &clockTimer{cancel: make(chan struct{})}
	timer := s.clock.NewTimer(d)
	go func() {
		select {
		case <-timer.C():
			if t.done.CompareAndSwap(false, true) {
				fn()
			}
		case <-t.cancel:
			timer.Stop()
		}
	}()
	return t
}

type clockTimer struct {
	once   sync.Once
	cancel chan struct{}
	done   atomic.Bool
}

func (t *clockTimer) Cancel() {
	t.once.Do(func() {
		t.done.Store(true)
		close(t.cancel)
	})
}

func (t *clockTimer) Done() bool {
	return t.done.Load()
}

type schedulerBox struct{ Scheduler }

var defaultScheduler atomic.Pointer[schedulerBox]

// SetDefaultScheduler replaces the scheduler used by debounced cells that
// are not given one explicitly. Passing nil restores the real clock.
func SetDefaultScheduler(s Scheduler) {
	if s == nil {
		defaultScheduler.Store(nil)
		return
	}
	defaultScheduler.Store(&schedulerBox{s})
}

func currentScheduler() Scheduler {
	if b := defaultScheduler.Load(); b != nil {
		return b.Scheduler
	}
	return NewClockScheduler(clockz.RealClock)
}
