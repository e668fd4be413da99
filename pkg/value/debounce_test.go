package value

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestDebouncedEvery(t *testing.T) {
	sched := &manualScheduler{}
	src := New(0)
	defer src.Release()

	out := DebouncedEvery[int](src, time.Second, WithScheduler(sched))
	defer out.Release()

	src.Set(1)
	src.Set(2)
	if got := out.Get(); got != 0 {
		t.Errorf("out = %d before the delay, want 0", got)
	}
	if ran := sched.fire(); ran != 1 {
		t.Errorf("fired %d delays, want 1", ran)
	}
	if got := out.Get(); got != 2 {
		t.Errorf("out = %d, want 2", got)
	}

	// A new change after the delay completed starts a new one.
	src.Set(3)
	if ran := sched.fire(); ran != 1 {
		t.Errorf("fired %d delays, want 1", ran)
	}
	if got := out.Get(); got != 3 {
		t.Errorf("out = %d, want 3", got)
	}
}

func TestDebouncedWithDelayExtends(t *testing.T) {
	sched := &manualScheduler{}
	src := New("")
	defer src.Release()

	out := DebouncedWithDelay[string](src, time.Second, WithScheduler(sched))
	defer out.Release()

	calls := 0
	h := out.ForEach(func(string) { calls++ })
	defer h.Release()

	src.Set("g")
	src.Set("go")
	src.Set("gop")
	if ran := sched.fire(); ran != 1 {
		t.Errorf("fired %d delays, want 1 (earlier ones cancelled)", ran)
	}
	if got := out.Get(); got != "gop" {
		t.Errorf("out = %q, want gop", got)
	}
	if calls != 1 {
		t.Errorf("out changed %d times, want 1", calls)
	}
}

func TestDebounceIgnoresEqualValues(t *testing.T) {
	sched := &manualScheduler{}
	src := New(1)
	defer src.Release()
	out := DebouncedEvery[int](src, time.Second, WithScheduler(sched))
	defer out.Release()

	src.Set(2)
	src.Set(1)
	sched.fire()

	// The buffer ends where it started, so the output does not change.
	if out.Generation() != 0 {
		t.Errorf("out generation = %v, want gen#0", out.Generation())
	}
}

func TestDebounceWithFakeClock(t *testing.T) {
	clock := clockz.NewFakeClock()
	src := New(0)
	defer src.Release()

	out := DebouncedWithDelay[int](src, 100*time.Millisecond, WithScheduler(NewClockScheduler(clock)))
	defer out.Release()
	reader := out.CreateReader()
	defer reader.Release()

	src.Set(5)
	clock.Advance(150 * time.Millisecond)
	clock.BlockUntilReady()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	updated, err := reader.WaitUntilUpdated(ctx)
	if err != nil || !updated {
		t.Fatalf("WaitUntilUpdated() = %v, %v", updated, err)
	}
	if got := reader.Get(); got != 5 {
		t.Errorf("out = %d, want 5", got)
	}
}

func TestClockSchedulerCancel(t *testing.T) {
	clock := clockz.NewFakeClock()
	sched := NewClockScheduler(clock)

	ran := make(chan struct{}, 1)
	timer := sched.Schedule(time.Second, func() { ran <- struct{}{} })
	timer.Cancel()
	if !timer.Done() {
		t.Error("Done() = false after Cancel")
	}

	clock.Advance(2 * time.Second)
	clock.BlockUntilReady()

	select {
	case <-ran:
		t.Error("cancelled closure ran")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebounceStopsAfterRelease(t *testing.T) {
	sched := &manualScheduler{}
	src := New(0)
	defer src.Release()
	out := DebouncedEvery[int](src, time.Second, WithScheduler(sched))
	out.Release()

	src.Set(1)
	if ran := sched.fire(); ran != 0 {
		t.Errorf("fired %d delays after the output was released", ran)
	}
}
