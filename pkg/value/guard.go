package value

// DynamicGuard is exclusive access to a cell. It must be released with
// Unlock, usually deferred:
//
//	g := count.Lock()
//	defer g.Unlock()
//	g.Set(g.Get() + 1)
//
// Unlocking a guard that was accessed mutably advances the generation and
// notifies observers after the lock is released.
type DynamicGuard[T any] struct {
	data     *dynamicData[T]
	readOnly bool
	mutated  bool
	quiet    bool
	done     bool
}

// Get returns the current value.
func (g *DynamicGuard[T]) Get() T {
	g.check()
	return g.data.state.wrapped.Value
}

// Generation returns the generation of the current value.
func (g *DynamicGuard[T]) Generation() Generation {
	g.check()
	return g.data.state.wrapped.generation
}

// Set stores v.
func (g *DynamicGuard[T]) Set(v T) {
	*g.Ptr() = v
}

// Update replaces the value with fn(current).
func (g *DynamicGuard[T]) Update(fn func(T) T) {
	p := g.Ptr()
	*p = fn(*p)
}

// Ptr returns a pointer to the stored value and marks the guard as mutated.
// It panics on a read-only guard.
func (g *DynamicGuard[T]) Ptr() *T {
	g.check()
	if g.readOnly {
		panic("value: mutable access through a read-only guard")
	}
	g.mutated = true
	return &g.data.state.wrapped.Value
}

// PreventNotifications discards the change: on Unlock the generation is left
// alone and no observer is notified.
func (g *DynamicGuard[T]) PreventNotifications() {
	g.quiet = true
}

// Unlock releases the guard. Unlock is idempotent.
func (g *DynamicGuard[T]) Unlock() {
	if g.done {
		return
	}
	g.done = true
	var notice changeNotice
	if g.mutated && !g.quiet {
		notice = g.data.noteChangedLocked()
	}
	g.data.unlock()
	g.data.deliver(notice)
}

func (g *DynamicGuard[T]) check() {
	if g.done {
		panic("value: use of an unlocked guard")
	}
}
