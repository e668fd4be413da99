package valuetest

import (
	"testing"
	"time"

	"github.com/edfloreshz/gooey/pkg/value"
)

func TestTargetRecords(t *testing.T) {
	target := NewTarget()
	cell := value.New(0)
	defer cell.Release()

	cell.RedrawWhenChanged(target)
	cell.InvalidateWhenChanged(target, 3)
	cell.Set(1)

	ExpectRedraws(t, target, 1)
	if got := target.Invalidated(); len(got) != 1 || got[0] != 3 {
		t.Errorf("Invalidated() = %v, want [3]", got)
	}
}

func TestSchedulerDebounce(t *testing.T) {
	sched := NewScheduler()
	src := value.New("a")
	defer src.Release()
	out := value.DebouncedWithDelay[string](src, time.Second, value.WithScheduler(sched))
	defer out.Release()

	src.Set("b")
	src.Set("c")
	if got := sched.Pending(); got != 1 {
		t.Errorf("Pending() = %d, want 1", got)
	}
	ExpectValue[string](t, out, "a")

	if ran := sched.Fire(); ran != 1 {
		t.Errorf("Fire() = %d, want 1", ran)
	}
	ExpectValue[string](t, out, "c")
	ExpectGeneration[string](t, out, 1)
}

func TestWaitForUpdate(t *testing.T) {
	cell := value.New(0)
	defer cell.Release()
	reader := cell.CreateReader()
	defer reader.Release()

	go cell.Set(1)
	WaitForUpdate(t, reader, 2*time.Second)
	ExpectValue[int](t, reader, 1)
}
