package value

import (
	"sync"

	"github.com/petermattis/goid"
)

// goroutineID returns the identifier of the calling goroutine.
// It is never 0, so 0 is used throughout the package to mean "nobody".
func goroutineID() int64 {
	return goid.Get()
}

// goroutineState holds the per-goroutine state of the package.
// Only the owning goroutine ever touches its entry.
type goroutineState struct {
	// batchDepth tracks nested Batch() calls.
	// When > 0, invalidations are accumulated instead of delivered.
	batchDepth int

	// pending accumulates invalidations until the outermost batch returns.
	pending invalidationState
}

// goroutineStates stores per-goroutine state keyed by goroutine ID.
var goroutineStates sync.Map

// currentState returns the state for the calling goroutine, or nil if the
// goroutine has none.
func currentState() *goroutineState {
	if s, ok := goroutineStates.Load(goroutineID()); ok {
		return s.(*goroutineState)
	}
	return nil
}

// ensureState returns the state for the calling goroutine, creating it if
// needed.
func ensureState() *goroutineState {
	gid := goroutineID()
	if s, ok := goroutineStates.Load(gid); ok {
		return s.(*goroutineState)
	}
	s := &goroutineState{}
	goroutineStates.Store(gid, s)
	return s
}

// clearState removes the calling goroutine's entry so finished goroutines do
// not leak memory.
func clearState() {
	goroutineStates.Delete(goroutineID())
}
