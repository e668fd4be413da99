package value

import (
	"sync"
	"time"
)

// countingTarget records redraw and invalidate signals.
type countingTarget struct {
	mu      sync.Mutex
	redraws int
	widgets []WidgetID
}

func (c *countingTarget) Redraw() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.redraws++
}

func (c *countingTarget) Invalidate(id WidgetID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.widgets = append(c.widgets, id)
}

func (c *countingTarget) redrawCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redraws
}

func (c *countingTarget) invalidated() []WidgetID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]WidgetID(nil), c.widgets...)
}

// recordingObserver counts core events.
type recordingObserver struct {
	mu        sync.Mutex
	invoked   int
	skipped   map[SkipReason]int
	failed    []error
	deadlocks int
	discons   int
	flushes   int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{skipped: make(map[SkipReason]int)}
}

func (r *recordingObserver) CallbacksInvoked(CellID, int, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoked++
}

func (r *recordingObserver) CallbacksSkipped(_ CellID, reason SkipReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped[reason]++
}

func (r *recordingObserver) CallbackFailed(_ CellID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
}

func (r *recordingObserver) DeadlockDetected(CellID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deadlocks++
}

func (r *recordingObserver) Disconnected(CellID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discons++
}

func (r *recordingObserver) BatchFlushed(int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
}

// manualScheduler runs scheduled closures only when fired.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	mu        sync.Mutex
	fn        func()
	delay     time.Duration
	done      bool
	cancelled bool
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) Timer {
	t := &manualTimer{fn: fn, delay: d}
	s.mu.Lock()
	s.pending = append(s.pending, t)
	s.mu.Unlock()
	return t
}

// fire runs every pending closure that was not cancelled and returns how
// many ran.
func (s *manualScheduler) fire() int {
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

func (t *manualTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.done {
		t.done = true
		t.cancelled = true
	}
}

func (t *manualTimer) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// expectPanic runs fn and returns the recovered value.
func expectPanic(fn func()) (recovered any) {
	defer func() { recovered = recover() }()
	fn()
	return nil
}
