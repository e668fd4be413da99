package valuetest

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/edfloreshz/gooey/pkg/value"
)

// Target records redraw and invalidate signals. It implements
// value.RedrawTarget and value.InvalidateTarget.
type Target struct {
	mu          sync.Mutex
	redraws     int
	invalidated []value.WidgetID
}

// NewTarget returns an empty recording target.
func NewTarget() *Target {
	return &Target{}
}

// Redraw implements value.RedrawTarget.
func (t *Target) Redraw() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.redraws++
}

// Invalidate implements value.InvalidateTarget.
func (t *Target) Invalidate(id value.WidgetID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.invalidated = append(t.invalidated, id)
}

// Redraws returns the number of Redraw calls.
func (t *Target) Redraws() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.redraws
}

// Invalidated returns the widget IDs passed to Invalidate, in order.
func (t *Target) Invalidated() []value.WidgetID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]value.WidgetID(nil), t.invalidated...)
}

// Scheduler is a value.Scheduler that runs closures only when Fire is called.
type Scheduler struct {
	mu      sync.Mutex
	pending []*timer
}

// NewScheduler returns a scheduler with nothing pending.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

type timer struct {
	mu    sync.Mutex
	fn    func()
	delay time.Duration
	done  bool
}

// Schedule implements value.Scheduler.
func (s *Scheduler) Schedule(d time.Duration, fn func()) value.Timer {
	t := &timer{fn: fn, delay: d}
	s.mu.Lock()
	s.pending = append(s.pending, t)
	s.mu.Unlock()
	return t
}

// Pending returns the number of closures that have neither run nor been
// cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.Done() {
			n++
		}
	}
	return n
}

// Fire runs every pending closure and returns how many ran.
func (s *Scheduler) Fire() int {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	ran := 0
	for _, t := range pending {
		t.mu.Lock()
		if t.done {
			t.mu.Unlock()
			continue
		}
		t.done = true
		t.mu.Unlock()
		t.fn()
		ran++
	}
	return ran
}

func (t *timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
}

func (t *timer) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// ExpectValue fails the test if the current value of s is not want.
//
// Example:
//
//	valuetest.ExpectValue(t, total, 30)
func ExpectValue[T any](t testing.TB, s value.Source[T], want T) {
	t.Helper()
	got, err := value.TryGet(s)
	if err != nil {
		t.Fatalf("reading value: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("value = %v, want %v", got, want)
	}
}

// ExpectGeneration fails the test if the generation of s is not want.
func ExpectGeneration[T any](t testing.TB, s value.Source[T], want value.Generation) {
	t.Helper()
	got, err := value.TryGenerationOf(s)
	if err != nil {
		t.Fatalf("reading generation: %v", err)
	}
	if got != want {
		t.Errorf("generation = %v, want %v", got, want)
	}
}

// ExpectRedraws fails the test if target was not redrawn exactly want times.
func ExpectRedraws(t testing.TB, target *Target, want int) {
	t.Helper()
	if got := target.Redraws(); got != want {
		t.Errorf("redraws = %d, want %d", got, want)
	}
}

// WaitForUpdate waits up to timeout for r to observe a change. It fails the
// test if the timeout expires or every writer is released first.
func WaitForUpdate[T any](t testing.TB, r *value.DynamicReader[T], timeout time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	updated, err := r.WaitUntilUpdated(ctx)
	if err != nil {
		t.Fatalf("waiting for update: %v", err)
	}
	if !updated {
		t.Fatal("reader disconnected before an update")
	}
}
