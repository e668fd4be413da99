package value

// Owned is a single-goroutine observable value. It has the same Source and
// Destination semantics as Dynamic without any locking, and must not be used
// from more than one goroutine.
//
// Mutable access while another mutation is in progress returns ErrDeadlock.
// Writes made by an Owned's own callbacks do not re-run them.
type Owned[T any] struct {
	wrapped   GenerationalValue[T]
	callbacks callbackList
	equal     func(a, b T) bool
	borrowed  bool
	invoking  bool
}

// NewOwned returns an Owned holding value.
func NewOwned[T any](value T) *Owned[T] {
	return &Owned[T]{
		wrapped: GenerationalValue[T]{Value: value},
		equal:   defaultEquals[T],
	}
}

// Get returns a copy of the current value.
func (o *Owned[T]) Get() T {
	return Get[T](o)
}

// Generation returns the current generation.
func (o *Owned[T]) Generation() Generation {
	return o.wrapped.generation
}

// Set stores v unless it equals the current value.
func (o *Owned[T]) Set(v T) {
	Set[T](o, v)
}

// Borrow returns a copy of the current value. It panics while a mutable
// borrow is outstanding.
func (o *Owned[T]) Borrow() T {
	if o.borrowed {
		panic(deadlockPanic)
	}
	return o.wrapped.Value
}

// BorrowMut returns a guard with mutable access. Callbacks run when the guard
// is unlocked after a tracked mutation.
func (o *Owned[T]) BorrowMut() *OwnedGuard[T] {
	if o.borrowed {
		panic(deadlockPanic)
	}
	o.borrowed = true
	return &OwnedGuard[T]{owned: o}
}

// IntoInner returns the value. o must not be used afterwards.
func (o *Owned[T]) IntoInner() T {
	v := o.wrapped.Value
	o.callbacks = callbackList{}
	return v
}

// TryMapGenerational implements Source.
func (o *Owned[T]) TryMapGenerational(fn func(*GenerationalValue[T])) error {
	if o.borrowed {
		return ErrDeadlock
	}
	fn(&o.wrapped)
	return nil
}

// OnChange implements Source.
func (o *Owned[T]) OnChange(fn func(GenerationalValue[T]) error) *CallbackHandle {
	id := o.callbacks.push(func() error {
		return fn(o.wrapped)
	})
	return newCallbackHandle(id, o, nil)
}

// TryMapMut implements Destination.
func (o *Owned[T]) TryMapMut(fn func(*Mutable[T])) error {
	if o.borrowed {
		return ErrDeadlock
	}
	m := &Mutable[T]{value: &o.wrapped.Value}
	func() {
		o.borrowed = true
		defer func() { o.borrowed = false }()
		fn(m)
	}()
	if m.mutated {
		o.changed()
	}
	return nil
}

func (o *Owned[T]) equals(a, b T) bool {
	return o.equal(a, b)
}

// remove implements callbackRegistry.
func (o *Owned[T]) remove(id uint64) {
	o.callbacks.remove(id)
}

func (o *Owned[T]) changed() {
	o.wrapped.generation = o.wrapped.generation.Next()
	if o.invoking {
		return
	}
	o.invoking = true
	defer func() { o.invoking = false }()
	for _, id := range runEntries(0, o.callbacks.snapshot()) {
		o.callbacks.remove(id)
	}
}

// OwnedGuard is mutable access to an Owned.
type OwnedGuard[T any] struct {
	owned   *Owned[T]
	mutated bool
	done    bool
}

// Get returns the current value.
func (g *OwnedGuard[T]) Get() T {
	return g.owned.wrapped.Value
}

// Set stores v.
func (g *OwnedGuard[T]) Set(v T) {
	*g.Ptr() = v
}

// Ptr returns a pointer to the value and marks the guard as mutated.
func (g *OwnedGuard[T]) Ptr() *T {
	g.mutated = true
	return &g.owned.wrapped.Value
}

// Unlock ends the borrow. Unlock is idempotent.
func (g *OwnedGuard[T]) Unlock() {
	if g.done {
		return
	}
	g.done = true
	g.owned.borrowed = false
	if g.mutated {
		g.owned.changed()
	}
}
