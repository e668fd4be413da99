package value

// Destination is the write side of a cell.
//
// The write surface (Set, Replace, CompareSwap, Toggle, Take, ...) is built
// from TryMapMut by the free functions of this package.
type Destination[T any] interface {
	// TryMapMut calls fn with exclusive access to the value. If fn accessed
	// the value mutably, observers are notified before TryMapMut returns.
	TryMapMut(fn func(*Mutable[T])) error
}

// MapMut calls fn with exclusive access to the value. It panics if the
// calling goroutine holds the cell's lock.
func MapMut[T any](d Destination[T], fn func(*Mutable[T])) {
	must(d.TryMapMut(fn))
}

// TryReplace stores v and returns the previous value. It returns ErrNoChange
// without writing if v equals the current value.
func TryReplace[T any](d Destination[T], v T) (T, error) {
	eq := equalsFor[T](d)
	var (
		old     T
		changed bool
	)
	err := d.TryMapMut(func(m *Mutable[T]) {
		if eq(m.Get(), v) {
			return
		}
		old = m.Get()
		m.Set(v)
		changed = true
	})
	if err != nil {
		return old, err
	}
	if !changed {
		return old, ErrNoChange
	}
	return old, nil
}

// Replace stores v and returns the previous value. ok is false if v equals
// the current value or the calling goroutine holds the cell's lock.
func Replace[T any](d Destination[T], v T) (old T, ok bool) {
	old, err := TryReplace(d, v)
	return old, err == nil
}

// Set stores v. It is a no-op if v equals the current value or the calling
// goroutine holds the cell's lock.
func Set[T any](d Destination[T], v T) {
	_, _ = TryReplace(d, v)
}

// TryCompareSwap stores replacement if the current value equals expected and
// returns the previous value. A mismatch is reported as *CompareSwapError[T].
func TryCompareSwap[T any](d Destination[T], expected, replacement T) (T, error) {
	eq := equalsFor[T](d)
	var (
		current T
		swapped bool
	)
	err := d.TryMapMut(func(m *Mutable[T]) {
		current = m.Get()
		if !eq(current, expected) {
			return
		}
		m.Set(replacement)
		swapped = true
	})
	if err != nil {
		return current, err
	}
	if !swapped {
		return current, &CompareSwapError[T]{Current: current}
	}
	return current, nil
}

// CompareSwap stores replacement if the current value equals expected. On
// success it returns the previous value and true; on mismatch the current
// value and false. It panics if the calling goroutine holds the cell's lock.
//
// Example:
//
//	v := value.New(1)
//	v.CompareSwap(1, 2) // 1, true
//	v.CompareSwap(1, 0) // 2, false
func CompareSwap[T any](d Destination[T], expected, replacement T) (T, bool) {
	current, err := TryCompareSwap(d, expected, replacement)
	must(err)
	return current, err == nil
}

// Toggle inverts a boolean cell and returns the new value.
func Toggle[B ~bool](d Destination[B]) B {
	var out B
	MapMut(d, func(m *Mutable[B]) {
		out = !m.Get()
		m.Set(out)
	})
	return out
}

// Take replaces the value with the zero value and returns the previous value.
// Observers are notified only if the value was not already zero.
func Take[T any](d Destination[T]) T {
	var zero T
	old, err := TryReplace(d, zero)
	if err != nil {
		must(err)
		return zero
	}
	return old
}

// TakeIfNotDefault is like Take but reports whether the value was non-zero.
func TakeIfNotDefault[T any](d Destination[T]) (T, bool) {
	var zero T
	old, err := TryReplace(d, zero)
	must(err)
	return old, err == nil
}

// Update replaces the value with fn(current). It panics if the calling
// goroutine holds the cell's lock.
func Update[T any](d Destination[T], fn func(T) T) {
	MapMut(d, func(m *Mutable[T]) { m.Update(fn) })
}
