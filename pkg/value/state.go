package value

import "sync/atomic"

// state is the lock-protected part of a cell.
type state[T any] struct {
	wrapped      GenerationalValue[T]
	source       *CallbackHandle
	invalidation invalidationState
	onDisconnect []func()
	disconnected bool
	freed        bool
}

// dynamicData is the shared backing of every handle to one cell.
type dynamicData[T any] struct {
	id        CellID
	lock      *cellLock
	state     state[T]
	callbacks *changeCallbacks
	equal     func(a, b T) bool

	// instances counts non-reader strong references: Dynamic handles and
	// callback owners. readers counts DynamicReader handles.
	instances atomic.Int64
	readers   atomic.Int64

	// settlePending is set when a handle was released by the goroutine that
	// held the lock. The lifecycle checks run on the next unlock.
	settlePending atomic.Bool
}

func newDynamicData[T any](value T, opts []Option[T]) *dynamicData[T] {
	id := nextID()
	d := &dynamicData[T]{
		id:        id,
		lock:      newCellLock(id),
		callbacks: newChangeCallbacks(id),
		equal:     defaultEquals[T],
	}
	d.state.wrapped.Value = value
	d.state.source = &CallbackHandle{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// unlock releases the cell lock and performs any lifecycle work deferred by
// a release that happened while the lock was held.
func (d *dynamicData[T]) unlock() {
	d.lock.release()
	if d.settlePending.CompareAndSwap(true, false) {
		d.settle()
	}
}

func (d *dynamicData[T]) settle() {
	if err := d.lock.acquire(); err != nil {
		d.settlePending.Store(true)
		return
	}
	c := d.cleanupLocked()
	d.lock.release()
	c.run(d.id)
}

func (d *dynamicData[T]) retain() {
	d.instances.Add(1)
}

// tryRetain increments instances only while it is non-zero.
func (d *dynamicData[T]) tryRetain() bool {
	for {
		n := d.instances.Load()
		if n <= 0 {
			return false
		}
		if d.instances.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// releaseInstance implements instanceOwner.
func (d *dynamicData[T]) releaseInstance() {
	if err := d.lock.acquire(); err != nil {
		d.instances.Add(-1)
		d.settlePending.Store(true)
		d.lock.broadcast()
		return
	}
	d.instances.Add(-1)
	c := d.cleanupLocked()
	d.unlock()
	c.run(d.id)
}

func (d *dynamicData[T]) releaseReader() {
	if err := d.lock.acquire(); err != nil {
		d.readers.Add(-1)
		d.settlePending.Store(true)
		d.lock.broadcast()
		return
	}
	d.readers.Add(-1)
	c := d.cleanupLocked()
	d.unlock()
	c.run(d.id)
}

// lifecycleCleanup is work collected under the lock and performed after it
// is released.
type lifecycleCleanup struct {
	disconnected bool
	onDisconnect []func()
	wakers       []*Waker
	source       *CallbackHandle
}

// cleanupLocked fires the disconnect once no writer handles remain and tears
// the state down once no handles of any kind remain.
func (d *dynamicData[T]) cleanupLocked() lifecycleCleanup {
	var c lifecycleCleanup
	s := &d.state
	if d.instances.Load() > 0 {
		return c
	}
	if !s.disconnected {
		s.disconnected = true
		c.disconnected = true
		c.onDisconnect = s.onDisconnect
		s.onDisconnect = nil
		c.wakers = s.invalidation.wakers
		s.invalidation.wakers = nil
	}
	if d.readers.Load() == 0 && !s.freed {
		s.freed = true
		c.source = s.source
		s.source = nil
		var zero T
		s.wrapped.Value = zero
		c.wakers = append(c.wakers, s.invalidation.wakers...)
		s.invalidation = invalidationState{}

		d.callbacks.mu.Lock()
		d.callbacks.list = callbackList{nextID: d.callbacks.list.nextID}
		d.callbacks.mu.Unlock()
	}
	return c
}

func (c lifecycleCleanup) run(cell CellID) {
	if c.disconnected {
		logger().Debug("value: disconnected", "cell", cell)
		observer().Disconnected(cell)
	}
	for _, fn := range c.onDisconnect {
		fn()
	}
	for _, w := range c.wakers {
		w.Wake()
	}
	c.source.Release()
}

// changeNotice carries what a write must deliver once the lock is released.
type changeNotice struct {
	changed      bool
	changedAt    uint64
	invalidation invalidationState
}

// noteChangedLocked advances the generation. The caller must hold the lock.
func (d *dynamicData[T]) noteChangedLocked() changeNotice {
	s := &d.state
	s.wrapped.generation = s.wrapped.generation.Next()
	return changeNotice{
		changed:      true,
		changedAt:    tick(),
		invalidation: s.invalidation.take(),
	}
}

// deliver flushes invalidations and runs the callbacks for a change. The
// lock must not be held.
func (d *dynamicData[T]) deliver(n changeNotice) {
	if !n.changed {
		return
	}
	n.invalidation.deliver()
	d.callbacks.notify(n.changedAt)
}

func (d *dynamicData[T]) tryMapGenerational(fn func(*GenerationalValue[T])) error {
	if err := d.lock.acquire(); err != nil {
		return err
	}
	defer d.unlock()
	fn(&d.state.wrapped)
	return nil
}

func (d *dynamicData[T]) tryMapMut(fn func(*Mutable[T])) error {
	if err := d.lock.acquire(); err != nil {
		return err
	}
	var notice changeNotice
	func() {
		m := &Mutable[T]{value: &d.state.wrapped.Value}
		defer func() {
			if m.mutated {
				notice = d.noteChangedLocked()
			}
			d.unlock()
		}()
		fn(m)
	}()
	d.deliver(notice)
	return nil
}

// onChange registers fn on the cell. The returned handle owns a strong
// reference to the cell.
func (d *dynamicData[T]) onChange(fn callbackFunc) *CallbackHandle {
	id := d.callbacks.register(fn)
	d.retain()
	return newCallbackHandle(id, d.callbacks, d)
}

func (d *dynamicData[T]) addOnDisconnect(fn func()) {
	if err := d.lock.acquire(); err != nil {
		panic(deadlockPanic)
	}
	if d.state.disconnected {
		d.unlock()
		fn()
		return
	}
	d.state.onDisconnect = append(d.state.onDisconnect, fn)
	d.unlock()
}
