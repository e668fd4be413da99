// Package value provides the reactive value core for gooey.
//
// A Dynamic[T] is a shared, thread-safe observable cell. Every mutation
// advances the cell's Generation and notifies the callbacks registered on it.
// Derived cells are built from sources with MapEach, Linked, DebouncedEvery
// and friends, and they stay in sync without manual wiring.
//
// # Core Types
//
// Dynamic[T] is a strong, reference-counted handle to a cell:
//
//	count := value.New(0)
//	defer count.Release()
//
//	count.Set(5)
//	doubled := value.MapEach(count, func(n int) int { return n * 2 })
//	fmt.Println(doubled.Get()) // 10
//
// WeakDynamic[T] is a non-owning handle that can be upgraded while a strong
// handle still exists. DynamicReader[T] is a passive observer that tracks the
// last generation it has seen and can block (or wait on a context) until the
// cell changes or every writer is gone.
//
// # Capabilities
//
// Reading and writing are split into two interfaces, Source[T] and
// Destination[T]. The free functions in this package (Get, ForEach, MapEach,
// Replace, CompareSwap, Toggle, ...) operate on any type implementing them,
// so Dynamic, DynamicReader and Owned all share the same surface.
//
// # Cycles and Re-entrancy
//
// Each cell runs its callbacks single-flight: at most one goroutine executes
// a cell's callback set at a time, and a write made by a callback to a cell
// whose callbacks are already running on the same goroutine is absorbed
// instead of recursing. Locking a cell twice from the same goroutine returns
// ErrDeadlock rather than blocking forever.
//
// # Batching
//
// Redraw and invalidate signals produced while inside Batch are merged and
// delivered once when the outermost batch returns:
//
//	value.Batch(func(*value.InvalidationBatch) {
//	    first.Set("John")
//	    last.Set("Doe")
//	})
//
// # Releasing Handles
//
// Go has no destructors, so handles are released explicitly. Release is
// idempotent. When the last non-reader handle of a cell is released, its
// on-disconnect callbacks run once and blocked readers are woken.
package value
