package value

import (
	"sync"
	"sync/atomic"
	"testing"
)

type pair struct {
	X, Y int
}

func TestConcurrentWritersLastWriteWins(t *testing.T) {
	const writers = 8
	const iterations = 200

	cell := New(pair{})
	defer cell.Release()
	sum := MapEach[pair](cell, func(p pair) int { return p.X + p.Y })
	defer sum.Release()

	var wg sync.WaitGroup
	var torn atomic.Int64
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				v := w*iterations + i
				cell.MapMut(func(m *Mutable[pair]) {
					p := m.Ptr()
					p.X = v
					p.Y = v
				})
				if got := cell.Get(); got.X != got.Y {
					torn.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	if torn.Load() != 0 {
		t.Errorf("observed %d torn values", torn.Load())
	}
	final := cell.Get()
	if got := sum.Get(); got != final.X+final.Y {
		t.Errorf("sum = %d, want %d (derived cell out of date)", got, final.X+final.Y)
	}
	if got := cell.Generation(); got != writers*iterations {
		t.Errorf("Generation() = %v, want %d", got, writers*iterations)
	}
}

func TestConcurrentSetValueIsOneOfWritten(t *testing.T) {
	cell := New(0)
	defer cell.Release()

	var wg sync.WaitGroup
	for _, v := range []int{1, 2} {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			cell.Set(v)
		}(v)
	}
	wg.Wait()

	if got := cell.Get(); got != 1 && got != 2 {
		t.Errorf("Get() = %d, want 1 or 2", got)
	}
}

func TestConcurrentCallbacksSingleFlight(t *testing.T) {
	cell := New(0)
	defer cell.Release()

	var running, maxRunning atomic.Int64
	h := cell.ForEach(func(int) {
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		running.Add(-1)
	})
	defer h.Release()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 1; i <= 100; i++ {
				cell.Set(w*1000 + i)
			}
		}(w)
	}
	wg.Wait()

	if got := maxRunning.Load(); got != 1 {
		t.Errorf("callbacks ran concurrently: max %d", got)
	}
}

func TestConcurrentCloneRelease(t *testing.T) {
	cell := New(0)
	reader := cell.CreateReader()
	defer reader.Release()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c := cell.Clone()
				c.Set(i)
				c.Release()
			}
		}()
	}
	wg.Wait()

	if got := cell.Instances(); got != 1 {
		t.Errorf("Instances() = %d, want 1", got)
	}
	cell.Release()
	if reader.Connected() {
		t.Error("reader still connected")
	}
}
