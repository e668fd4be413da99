package value

import (
	"errors"
	"sync"
)

// tupleInvoker runs a shared callback for every source of a multi-source
// registration, one run at a time. A run requested by the goroutine that is
// already running is skipped, which keeps a callback from re-entering itself
// when it writes to one of its sources. A run requested by any other
// goroutine marks the invoker dirty and the active run goes around again,
// reading the sources afresh.
type tupleInvoker struct {
	mu      sync.Mutex
	running int64
	dirty   bool
}

func (t *tupleInvoker) run(fn func() error) error {
	me := goroutineID()
	t.mu.Lock()
	if t.running != 0 {
		if t.running != me {
			t.dirty = true
		}
		t.mu.Unlock()
		return nil
	}
	t.running = me
	t.mu.Unlock()

	var result error
	for {
		err := fn()
		if err != nil {
			result = err
		}
		t.mu.Lock()
		if !t.dirty || errors.Is(err, ErrCallbackDisconnected) {
			t.running = 0
			t.dirty = false
			t.mu.Unlock()
			return result
		}
		t.dirty = false
		t.mu.Unlock()
	}
}

// ForEach2Try registers fn to run with copies of both values whenever either
// source changes. Returning ErrCallbackDisconnected removes the callback from
// the source that triggered it.
func ForEach2Try[A, B any](a Source[A], b Source[B], fn func(A, B) error) *CallbackHandle {
	var inv tupleInvoker
	call := func() error {
		av, err := TryGet(a)
		if err != nil {
			return err
		}
		bv, err := TryGet(b)
		if err != nil {
			return err
		}
		return fn(av, bv)
	}
	h := ForEachTry(a, func(A) error { return inv.run(call) })
	h.Add(ForEachTry(b, func(B) error { return inv.run(call) }))
	return h
}

// ForEach2 registers fn to run with copies of both values whenever either
// source changes.
//
// Example:
//
//	handle := value.ForEach2(first, last, func(f, l string) {
//	    fmt.Println(f, l)
//	})
func ForEach2[A, B any](a Source[A], b Source[B], fn func(A, B)) *CallbackHandle {
	return ForEach2Try(a, b, func(av A, bv B) error {
		fn(av, bv)
		return nil
	})
}

// ForEach3Try is the three-source form of ForEach2Try.
func ForEach3Try[A, B, C any](a Source[A], b Source[B], c Source[C], fn func(A, B, C) error) *CallbackHandle {
	var inv tupleInvoker
	call := func() error {
		av, err := TryGet(a)
		if err != nil {
			return err
		}
		bv, err := TryGet(b)
		if err != nil {
			return err
		}
		cv, err := TryGet(c)
		if err != nil {
			return err
		}
		return fn(av, bv, cv)
	}
	h := ForEachTry(a, func(A) error { return inv.run(call) })
	h.Add(ForEachTry(b, func(B) error { return inv.run(call) }))
	h.Add(ForEachTry(c, func(C) error { return inv.run(call) }))
	return h
}

// ForEach3 is the three-source form of ForEach2.
func ForEach3[A, B, C any](a Source[A], b Source[B], c Source[C], fn func(A, B, C)) *CallbackHandle {
	return ForEach3Try(a, b, c, func(av A, bv B, cv C) error {
		fn(av, bv, cv)
		return nil
	})
}

// MapEach2 returns a cell holding fn applied to the values of a and b,
// updated whenever either changes.
//
// Example:
//
//	full := value.MapEach2(first, last, func(f, l string) string {
//	    return f + " " + l
//	})
func MapEach2[A, B, R any](a Source[A], b Source[B], fn func(A, B) R, opts ...Option[R]) *Dynamic[R] {
	mapped := New(fn(Get(a), Get(b)), opts...)
	weak := mapped.Downgrade()
	mapped.SetSource(ForEach2Try(a, b, func(av A, bv B) error {
		target, ok := weak.Upgrade()
		if !ok {
			return ErrCallbackDisconnected
		}
		defer target.Release()
		target.Set(fn(av, bv))
		return nil
	}))
	return mapped
}

// MapEach3 is the three-source form of MapEach2.
func MapEach3[A, B, C, R any](a Source[A], b Source[B], c Source[C], fn func(A, B, C) R, opts ...Option[R]) *Dynamic[R] {
	mapped := New(fn(Get(a), Get(b), Get(c)), opts...)
	weak := mapped.Downgrade()
	mapped.SetSource(ForEach3Try(a, b, c, func(av A, bv B, cv C) error {
		target, ok := weak.Upgrade()
		if !ok {
			return ErrCallbackDisconnected
		}
		defer target.Release()
		target.Set(fn(av, bv, cv))
		return nil
	}))
	return mapped
}
