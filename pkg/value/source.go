package value

// Source is the read side of a cell.
//
// Implementations only provide locked access and change registration; the
// rest of the read surface (Get, ForEach, MapEach, ...) is built from these
// two methods by the free functions of this package.
type Source[T any] interface {
	// TryMapGenerational calls fn with the current value and generation
	// while holding the cell's lock.
	TryMapGenerational(fn func(*GenerationalValue[T])) error

	// OnChange registers fn to run with a snapshot of the value after every
	// change. Returning ErrCallbackDisconnected from fn removes it.
	OnChange(fn func(GenerationalValue[T]) error) *CallbackHandle
}

// TryGetGenerational returns a copy of the current value and its generation.
func TryGetGenerational[T any](s Source[T]) (GenerationalValue[T], error) {
	var out GenerationalValue[T]
	err := s.TryMapGenerational(func(g *GenerationalValue[T]) { out = *g })
	return out, err
}

// GetGenerational returns a copy of the current value and its generation.
// It panics if the calling goroutine holds the cell's lock.
func GetGenerational[T any](s Source[T]) GenerationalValue[T] {
	g, err := TryGetGenerational(s)
	must(err)
	return g
}

// TryGet returns a copy of the current value.
func TryGet[T any](s Source[T]) (T, error) {
	g, err := TryGetGenerational(s)
	return g.Value, err
}

// Get returns a copy of the current value. It panics if the calling
// goroutine holds the cell's lock.
func Get[T any](s Source[T]) T {
	return GetGenerational(s).Value
}

// TryGenerationOf returns the current generation.
func TryGenerationOf[T any](s Source[T]) (Generation, error) {
	g, err := TryGetGenerational(s)
	return g.generation, err
}

// GenerationOf returns the current generation. It panics if the calling
// goroutine holds the cell's lock.
func GenerationOf[T any](s Source[T]) Generation {
	return GetGenerational(s).generation
}

// TryMapRef returns fn applied to the stored value while holding the lock.
func TryMapRef[T, R any](s Source[T], fn func(*T) R) (R, error) {
	var out R
	err := s.TryMapGenerational(func(g *GenerationalValue[T]) { out = fn(&g.Value) })
	return out, err
}

// MapRef returns fn applied to the stored value while holding the lock. It
// panics if the calling goroutine holds the cell's lock.
func MapRef[T, R any](s Source[T], fn func(*T) R) R {
	out, err := TryMapRef(s, fn)
	must(err)
	return out
}

// ForEachGenerationalTry registers fn to run with a copy of every new value.
// Returning ErrCallbackDisconnected removes the callback.
func ForEachGenerationalTry[T any](s Source[T], fn func(GenerationalValue[T]) error) *CallbackHandle {
	return s.OnChange(fn)
}

// ForEachGenerational registers fn to run with a copy of every new value.
func ForEachGenerational[T any](s Source[T], fn func(GenerationalValue[T])) *CallbackHandle {
	return s.OnChange(func(g GenerationalValue[T]) error {
		fn(g)
		return nil
	})
}

// ForEachTry registers fn to run with a copy of every new value. Returning
// ErrCallbackDisconnected removes the callback.
func ForEachTry[T any](s Source[T], fn func(T) error) *CallbackHandle {
	return s.OnChange(func(g GenerationalValue[T]) error {
		return fn(g.Value)
	})
}

// ForEach registers fn to run with a copy of every new value. fn runs without
// the cell's lock held, so it may write back to the cell it observes.
//
// Example:
//
//	handle := value.ForEach(count, func(n int) {
//	    fmt.Println("count is now", n)
//	})
//	defer handle.Release()
func ForEach[T any](s Source[T], fn func(T)) *CallbackHandle {
	return s.OnChange(func(g GenerationalValue[T]) error {
		fn(g.Value)
		return nil
	})
}

// ForEachRefTry registers fn to run with a pointer to the stored value while
// the cell's lock is held. fn must not modify the value or retain the pointer.
func ForEachRefTry[T any](s Source[T], fn func(*GenerationalValue[T]) error) *CallbackHandle {
	return s.OnChange(func(GenerationalValue[T]) error {
		var result error
		if err := s.TryMapGenerational(func(g *GenerationalValue[T]) { result = fn(g) }); err != nil {
			return err
		}
		return result
	})
}

// ForEachRef registers fn to run with a pointer to the stored value while the
// cell's lock is held.
func ForEachRef[T any](s Source[T], fn func(*T)) *CallbackHandle {
	return ForEachRefTry(s, func(g *GenerationalValue[T]) error {
		fn(&g.Value)
		return nil
	})
}

// MapEachGenerational returns a cell holding fn applied to each value of s.
// fn runs while the lock of s is held. The returned cell keeps s alive; s
// does not keep the returned cell alive.
func MapEachGenerational[T, R any](s Source[T], fn func(GenerationalValue[T]) R, opts ...Option[R]) *Dynamic[R] {
	var initial R
	must(s.TryMapGenerational(func(g *GenerationalValue[T]) { initial = fn(*g) }))
	mapped := New(initial, opts...)
	weak := mapped.Downgrade()
	mapped.SetSource(s.OnChange(func(GenerationalValue[T]) error {
		target, ok := weak.Upgrade()
		if !ok {
			return ErrCallbackDisconnected
		}
		defer target.Release()
		var next R
		if err := s.TryMapGenerational(func(g *GenerationalValue[T]) { next = fn(*g) }); err != nil {
			return err
		}
		target.Set(next)
		return nil
	}))
	return mapped
}

// MapEach returns a cell holding fn applied to each value of s.
//
// Example:
//
//	doubled := value.MapEach(count, func(n int) int { return n * 2 })
//	defer doubled.Release()
func MapEach[T, R any](s Source[T], fn func(T) R, opts ...Option[R]) *Dynamic[R] {
	return MapEachGenerational(s, func(g GenerationalValue[T]) R { return fn(g.Value) }, opts...)
}

// MapEachCloned is like MapEach, but fn runs with a copy of the value and
// without any lock held, so it may read s.
func MapEachCloned[T, R any](s Source[T], fn func(T) R, opts ...Option[R]) *Dynamic[R] {
	mapped := New(fn(Get(s)), opts...)
	weak := mapped.Downgrade()
	mapped.SetSource(ForEachTry(s, func(v T) error {
		target, ok := weak.Upgrade()
		if !ok {
			return ErrCallbackDisconnected
		}
		defer target.Release()
		target.Set(fn(v))
		return nil
	}))
	return mapped
}

// WeakClone returns a cell that mirrors s without keeping it alive.
func WeakClone[T any](s Source[T], opts ...Option[T]) *Dynamic[T] {
	mapped := New(Get(s), opts...)
	weak := mapped.Downgrade()
	mapped.SetSource(ForEachTry(s, func(v T) error {
		target, ok := weak.Upgrade()
		if !ok {
			return ErrCallbackDisconnected
		}
		defer target.Release()
		target.Set(v)
		return nil
	}).Weak())
	return mapped
}
