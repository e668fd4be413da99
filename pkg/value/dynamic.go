package value

import (
	"fmt"
	"sync/atomic"
)

// Option configures a new Dynamic.
type Option[T any] func(*dynamicData[T])

// WithEquals sets the equality function used by Replace, CompareSwap and the
// combinators to decide whether a write is a change.
//
// Example:
//
//	items := value.New([]string{}, value.WithEquals(slices.Equal[[]string]))
func WithEquals[T any](eq func(a, b T) bool) Option[T] {
	return func(d *dynamicData[T]) {
		if eq != nil {
			d.equal = eq
		}
	}
}

// Dynamic is a strong handle to a shared, thread-safe observable cell.
//
// All handles created from one New share the same cell. Each handle must be
// released exactly once; Release is idempotent so deferring it is safe.
type Dynamic[T any] struct {
	data     *dynamicData[T]
	released atomic.Bool
}

// New creates a cell holding value.
//
// Example:
//
//	name := value.New("gooey")
//	defer name.Release()
func New[T any](value T, opts ...Option[T]) *Dynamic[T] {
	d := newDynamicData(value, opts)
	d.retain()
	return &Dynamic[T]{data: d}
}

// ID returns the cell's identifier.
func (d *Dynamic[T]) ID() CellID {
	return d.data.id
}

// Clone returns a new strong handle to the same cell.
func (d *Dynamic[T]) Clone() *Dynamic[T] {
	d.data.retain()
	return &Dynamic[T]{data: d.data}
}

// Release drops this handle. When the last writer handle is released the
// cell's on-disconnect callbacks run and blocked readers are woken.
func (d *Dynamic[T]) Release() {
	if d == nil || !d.released.CompareAndSwap(false, true) {
		return
	}
	d.data.releaseInstance()
}

// Downgrade returns a weak handle to the cell.
func (d *Dynamic[T]) Downgrade() WeakDynamic[T] {
	return WeakDynamic[T]{data: d.data}
}

// CreateReader returns a reader whose read generation is the current
// generation. It panics if the calling goroutine holds the cell's lock.
func (d *Dynamic[T]) CreateReader() *DynamicReader[T] {
	gen, err := d.TryGeneration()
	must(err)
	d.data.readers.Add(1)
	return &DynamicReader[T]{data: d.data, readGeneration: gen}
}

// IntoReader converts this handle into a reader and releases it.
func (d *Dynamic[T]) IntoReader() *DynamicReader[T] {
	r := d.CreateReader()
	d.Release()
	return r
}

// Instances returns the number of writer references to the cell: Dynamic
// handles plus callbacks that keep it alive.
func (d *Dynamic[T]) Instances() int {
	return int(d.data.instances.Load())
}

// Readers returns the number of DynamicReader handles.
func (d *Dynamic[T]) Readers() int {
	return int(d.data.readers.Load())
}

// SetSource attaches handle to the cell: the callbacks it represents are
// released when the cell is torn down.
func (d *Dynamic[T]) SetSource(handle *CallbackHandle) {
	if err := d.data.lock.acquire(); err != nil {
		panic(deadlockPanic)
	}
	if d.data.state.freed {
		d.data.unlock()
		handle.Release()
		return
	}
	d.data.state.source.Add(handle)
	d.data.unlock()
}

// WithForEach registers fn to run on every change, persists the callback and
// returns d.
func (d *Dynamic[T]) WithForEach(fn func(T)) *Dynamic[T] {
	ForEach[T](d, fn).Persist()
	return d
}

// ForEach registers fn to run with a copy of the new value on every change.
func (d *Dynamic[T]) ForEach(fn func(T)) *CallbackHandle {
	return ForEach[T](d, fn)
}

// Lock acquires exclusive access to the cell. It panics if the calling
// goroutine already holds it.
func (d *Dynamic[T]) Lock() *DynamicGuard[T] {
	g, err := d.TryLock()
	if err != nil {
		panic(deadlockPanic)
	}
	return g
}

// TryLock acquires exclusive access to the cell, returning ErrDeadlock if the
// calling goroutine already holds it.
func (d *Dynamic[T]) TryLock() (*DynamicGuard[T], error) {
	if err := d.data.lock.acquire(); err != nil {
		return nil, err
	}
	return &DynamicGuard[T]{data: d.data}, nil
}

// Get returns a copy of the current value.
func (d *Dynamic[T]) Get() T {
	return Get[T](d)
}

// TryGet returns a copy of the current value.
func (d *Dynamic[T]) TryGet() (T, error) {
	return TryGet[T](d)
}

// Generation returns the current generation.
func (d *Dynamic[T]) Generation() Generation {
	return GenerationOf[T](d)
}

// TryGeneration returns the current generation.
func (d *Dynamic[T]) TryGeneration() (Generation, error) {
	return TryGenerationOf[T](d)
}

// MapRef calls fn with a pointer to the stored value while holding the lock.
// fn must not modify the value or retain the pointer.
func (d *Dynamic[T]) MapRef(fn func(*T)) {
	must(d.data.tryMapGenerational(func(g *GenerationalValue[T]) { fn(&g.Value) }))
}

// Set stores v. Nothing happens if v equals the current value or the calling
// goroutine holds the lock.
func (d *Dynamic[T]) Set(v T) {
	Set[T](d, v)
}

// Replace stores v and returns the previous value. ok is false if nothing
// was stored.
func (d *Dynamic[T]) Replace(v T) (old T, ok bool) {
	return Replace[T](d, v)
}

// TryReplace stores v and returns the previous value, ErrNoChange or
// ErrDeadlock.
func (d *Dynamic[T]) TryReplace(v T) (T, error) {
	return TryReplace[T](d, v)
}

// CompareSwap stores replacement if the current value equals expected. On success it
// returns the previous value and true; otherwise the current value and false.
func (d *Dynamic[T]) CompareSwap(expected, replacement T) (T, bool) {
	return CompareSwap[T](d, expected, replacement)
}

// TryCompareSwap is like CompareSwap but reports a mismatch as a
// *CompareSwapError and a re-entrant lock as ErrDeadlock.
func (d *Dynamic[T]) TryCompareSwap(expected, replacement T) (T, error) {
	return TryCompareSwap[T](d, expected, replacement)
}

// Take replaces the value with the zero value and returns it.
func (d *Dynamic[T]) Take() T {
	return Take[T](d)
}

// MapMut calls fn with exclusive access to the value. It panics if the
// calling goroutine holds the lock.
func (d *Dynamic[T]) MapMut(fn func(*Mutable[T])) {
	MapMut[T](d, fn)
}

// TryMapMut implements Destination.
func (d *Dynamic[T]) TryMapMut(fn func(*Mutable[T])) error {
	return d.data.tryMapMut(fn)
}

// TryMapGenerational implements Source.
func (d *Dynamic[T]) TryMapGenerational(fn func(*GenerationalValue[T])) error {
	return d.data.tryMapGenerational(fn)
}

// OnChange implements Source.
func (d *Dynamic[T]) OnChange(fn func(GenerationalValue[T]) error) *CallbackHandle {
	data := d.data
	return data.onChange(func() error {
		var snapshot GenerationalValue[T]
		if err := data.tryMapGenerational(func(g *GenerationalValue[T]) { snapshot = *g }); err != nil {
			return err
		}
		return fn(snapshot)
	})
}

// RedrawWhenChanged signals t on the next change.
func (d *Dynamic[T]) RedrawWhenChanged(t RedrawTarget) {
	d.data.redrawWhenChanged(t)
}

// InvalidateWhenChanged signals t with id on the next change.
func (d *Dynamic[T]) InvalidateWhenChanged(t InvalidateTarget, id WidgetID) {
	d.data.invalidateWhenChanged(t, id)
}

// OnDisconnect registers fn to run once when the last writer handle is
// released. If that already happened, fn runs immediately.
func (d *Dynamic[T]) OnDisconnect(fn func()) {
	d.data.addOnDisconnect(fn)
}

// Equal reports whether d and other refer to the same cell.
func (d *Dynamic[T]) Equal(other *Dynamic[T]) bool {
	return other != nil && d.data == other.data
}

// String implements fmt.Stringer.
func (d *Dynamic[T]) String() string {
	var s string
	err := d.data.tryMapGenerational(func(g *GenerationalValue[T]) {
		s = fmt.Sprintf("Dynamic(%v, %s)", g.Value, g.generation)
	})
	if err != nil {
		return "Dynamic(<locked>)"
	}
	return s
}

func (d *Dynamic[T]) equals(a, b T) bool {
	return d.data.equal(a, b)
}

func (d *dynamicData[T]) redrawWhenChanged(t RedrawTarget) {
	if err := d.lock.acquire(); err != nil {
		panic(deadlockPanic)
	}
	d.state.invalidation.addRedraw(t)
	d.unlock()
}

func (d *dynamicData[T]) invalidateWhenChanged(t InvalidateTarget, id WidgetID) {
	if err := d.lock.acquire(); err != nil {
		panic(deadlockPanic)
	}
	d.state.invalidation.addWidget(t, id)
	d.unlock()
}

// WeakDynamic is a handle that does not keep the cell's writers alive.
// The zero value never upgrades.
type WeakDynamic[T any] struct {
	data *dynamicData[T]
}

// Upgrade returns a strong handle if a writer handle still exists.
func (w WeakDynamic[T]) Upgrade() (*Dynamic[T], bool) {
	if w.data == nil || !w.data.tryRetain() {
		return nil, false
	}
	return &Dynamic[T]{data: w.data}, true
}

// Equal reports whether w and other refer to the same cell.
func (w WeakDynamic[T]) Equal(other WeakDynamic[T]) bool {
	return w.data == other.data
}
