package value

import (
	"context"
	"sync"
	"sync/atomic"
)

// DynamicReader observes a cell without counting as a writer.
//
// A reader remembers the generation it last read. HasUpdated,
// BlockUntilUpdated and WaitUntilUpdated compare that generation with the
// cell's. Once every writer handle is released the reader is disconnected:
// it can still read the last value but will never see an update.
type DynamicReader[T any] struct {
	data *dynamicData[T]

	mu             sync.Mutex
	readGeneration Generation

	released atomic.Bool
}

// Clone returns a new reader with the same read generation.
func (r *DynamicReader[T]) Clone() *DynamicReader[T] {
	r.data.readers.Add(1)
	return &DynamicReader[T]{data: r.data, readGeneration: r.ReadGeneration()}
}

// Release drops this reader. Release is idempotent.
func (r *DynamicReader[T]) Release() {
	if r == nil || !r.released.CompareAndSwap(false, true) {
		return
	}
	r.data.releaseReader()
}

// ReadGeneration returns the generation of the last value read through r.
func (r *DynamicReader[T]) ReadGeneration() Generation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readGeneration
}

func (r *DynamicReader[T]) markRead(g Generation) {
	r.mu.Lock()
	r.readGeneration = g
	r.mu.Unlock()
}

// Get returns a copy of the current value and records its generation.
func (r *DynamicReader[T]) Get() T {
	return Get[T](r)
}

// TryGet returns a copy of the current value and records its generation.
func (r *DynamicReader[T]) TryGet() (T, error) {
	return TryGet[T](r)
}

// Generation returns the current generation of the cell.
func (r *DynamicReader[T]) Generation() Generation {
	return GenerationOf[T](r)
}

// TryMapGenerational implements Source. The generation passed to fn is
// recorded as read.
func (r *DynamicReader[T]) TryMapGenerational(fn func(*GenerationalValue[T])) error {
	return r.data.tryMapGenerational(func(g *GenerationalValue[T]) {
		r.markRead(g.generation)
		fn(g)
	})
}

// OnChange implements Source. The callback keeps the cell's writers alive
// until the handle is released.
func (r *DynamicReader[T]) OnChange(fn func(GenerationalValue[T]) error) *CallbackHandle {
	data := r.data
	return data.onChange(func() error {
		var snapshot GenerationalValue[T]
		if err := data.tryMapGenerational(func(g *GenerationalValue[T]) { snapshot = *g }); err != nil {
			return err
		}
		return fn(snapshot)
	})
}

// Lock returns a read-only guard. It panics if the calling goroutine holds
// the cell's lock. The guard's generation is recorded as read.
func (r *DynamicReader[T]) Lock() *DynamicGuard[T] {
	if err := r.data.lock.acquire(); err != nil {
		panic(deadlockPanic)
	}
	r.markRead(r.data.state.wrapped.generation)
	return &DynamicGuard[T]{data: r.data, readOnly: true}
}

// HasUpdated reports whether the cell changed since r last read it.
func (r *DynamicReader[T]) HasUpdated() bool {
	var updated bool
	must(r.data.tryMapGenerational(func(g *GenerationalValue[T]) {
		updated = g.generation != r.ReadGeneration()
	}))
	return updated
}

// Connected reports whether any writer handle remains.
func (r *DynamicReader[T]) Connected() bool {
	return r.data.instances.Load() > 0
}

// BlockUntilUpdated blocks until the cell's generation differs from r's read
// generation, returning true, or until no writer handles remain, returning
// false. It panics if the calling goroutine holds the cell's lock.
func (r *DynamicReader[T]) BlockUntilUpdated() bool {
	l := r.data.lock
	if l.heldByCurrent() {
		panic(deadlockPanic)
	}
	read := r.ReadGeneration()
	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		if !l.locked {
			if r.data.state.wrapped.generation != read {
				return true
			}
			if r.data.instances.Load() == 0 || r.data.state.disconnected {
				return false
			}
		}
		l.cond.Wait()
	}
}

// Poll checks for an update without blocking. If the cell changed it returns
// (true, true); if every writer is gone it returns (true, false). Otherwise
// w is registered to be woken on the next change or disconnect and Poll
// returns (false, false).
func (r *DynamicReader[T]) Poll(w *Waker) (ready, updated bool) {
	d := r.data
	if err := d.lock.acquire(); err != nil {
		panic(deadlockPanic)
	}
	defer d.unlock()
	switch {
	case d.state.wrapped.generation != r.ReadGeneration():
		return true, true
	case d.instances.Load() == 0 || d.state.disconnected:
		return true, false
	default:
		d.state.invalidation.addWaker(w)
		return false, false
	}
}

// WaitUntilUpdated suspends until the cell changes (true), every writer is
// released (false) or ctx is done.
func (r *DynamicReader[T]) WaitUntilUpdated(ctx context.Context) (bool, error) {
	for {
		w := NewWaker()
		if ready, updated := r.Poll(w); ready {
			return updated, nil
		}
		select {
		case <-w.C():
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// OnDisconnect registers fn to run once when the last writer handle is
// released. If that already happened, fn runs immediately.
func (r *DynamicReader[T]) OnDisconnect(fn func()) {
	r.data.addOnDisconnect(fn)
}
