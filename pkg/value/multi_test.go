package value

import (
	"errors"
	"sync"
	"testing"
)

func TestForEach2(t *testing.T) {
	first := New("Ada")
	defer first.Release()
	last := New("Lovelace")
	defer last.Release()

	var got []string
	h := ForEach2[string, string](first, last, func(f, l string) {
		got = append(got, f+" "+l)
	})

	first.Set("Grace")
	last.Set("Hopper")
	h.Release()
	first.Set("Alan")

	want := []string{"Grace Lovelace", "Grace Hopper"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMapEach2(t *testing.T) {
	width := New(2)
	defer width.Release()
	height := New(3)
	defer height.Release()

	area := MapEach2[int, int](width, height, func(w, h int) int { return w * h })
	defer area.Release()

	if got := area.Get(); got != 6 {
		t.Errorf("area = %d, want 6", got)
	}
	width.Set(4)
	if got := area.Get(); got != 12 {
		t.Errorf("area = %d, want 12", got)
	}
	height.Set(5)
	if got := area.Get(); got != 20 {
		t.Errorf("area = %d, want 20", got)
	}
}

func TestMapEach3(t *testing.T) {
	a, b, c := New(1), New(2), New(3)
	defer a.Release()
	defer b.Release()
	defer c.Release()

	sum := MapEach3[int, int, int](a, b, c, func(x, y, z int) int { return x + y + z })
	defer sum.Release()

	c.Set(10)
	if got := sum.Get(); got != 13 {
		t.Errorf("sum = %d, want 13", got)
	}
	a.Set(0)
	if got := sum.Get(); got != 12 {
		t.Errorf("sum = %d, want 12", got)
	}
}

func TestForEach2WriteBack(t *testing.T) {
	a := New(0)
	defer a.Release()
	b := New(0)
	defer b.Release()

	calls := 0
	ForEach2[int, int](a, b, func(x, y int) {
		calls++
		// Writing a source from inside the callback must not recurse.
		b.Set(x + 1)
	}).Persist()

	a.Set(1)
	if got := b.Get(); got != 2 {
		t.Errorf("b = %d, want 2", got)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times, want 1", calls)
	}
}

func TestMapEach2ConcurrentSources(t *testing.T) {
	a := New(0)
	defer a.Release()
	b := New(0)
	defer b.Release()

	entered := make(chan struct{})
	resume := make(chan struct{})
	var once sync.Once
	sum := MapEach2[int, int](a, b, func(x, y int) int {
		if x == 1 && y == 0 {
			once.Do(func() {
				close(entered)
				<-resume
			})
		}
		return x*10 + y
	})
	defer sum.Release()

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Set(1)
	}()

	<-entered
	// b changes on this goroutine while the a run is still computing.
	b.Set(1)
	close(resume)
	<-done

	if got := sum.Get(); got != 11 {
		t.Errorf("sum = %d after a=1, b=1, want 11", got)
	}
}

func TestForEach2ConcurrentWriters(t *testing.T) {
	a := New(0)
	defer a.Release()
	b := New(0)
	defer b.Release()

	var (
		mu   sync.Mutex
		last [2]int
	)
	ForEach2[int, int](a, b, func(x, y int) {
		mu.Lock()
		last = [2]int{x, y}
		mu.Unlock()
	}).Persist()

	const writes = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= writes; i++ {
			a.Set(i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 1; i <= writes; i++ {
			b.Set(i)
		}
	}()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if last != [2]int{writes, writes} {
		t.Errorf("last callback saw %v, want [%d %d]", last, writes, writes)
	}
}

func TestForEach2ReportsReadErrors(t *testing.T) {
	obs := newRecordingObserver()
	SetObserver(obs)
	defer SetObserver(nil)

	a := New(0)
	defer a.Release()
	b := New(0)
	defer b.Release()

	calls := 0
	ForEach2[int, int](a, b, func(int, int) { calls++ }).Persist()

	guard := b.Lock()
	guard.PreventNotifications()
	// a's callback reads b, which this goroutine holds.
	a.Set(1)
	guard.Unlock()

	if calls != 0 {
		t.Errorf("callback ran %d times while b was locked", calls)
	}
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.failed) != 1 || !errors.Is(obs.failed[0], ErrDeadlock) {
		t.Errorf("CallbackFailed errors = %v, want [ErrDeadlock]", obs.failed)
	}
}
