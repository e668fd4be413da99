package value

import (
	"errors"
	"fmt"
)

// ErrDeadlock is returned when the calling goroutine already holds exclusive
// access to the cell it is trying to lock.
//
// Only re-entrant locking of a single cell by one goroutine is detected.
// Cross-cell lock ordering problems are not.
var ErrDeadlock = errors.New("value: a deadlock was detected")

// ErrNoChange is returned by TryReplace when the new value is equal to the
// currently stored value. Nothing was written and the generation did not
// advance.
var ErrNoChange = errors.New("value: new value equals current value")

// ErrCallbackDisconnected is returned by a callback to request its own
// removal. It is a cooperative signal, not a failure.
var ErrCallbackDisconnected = errors.New("value: callback disconnected")

// CompareSwapError is returned by TryCompareSwap when the stored value did
// not match the expected value.
type CompareSwapError[T any] struct {
	// Current is the value that was stored at the time of comparison.
	Current T
}

// Error implements the error interface.
func (e *CompareSwapError[T]) Error() string {
	return fmt.Sprintf("value: current value mismatch (current: %v)", e.Current)
}

// deadlockPanic is the message used by the panicking convenience wrappers.
const deadlockPanic = "value: deadlocked"

// must panics if err is ErrDeadlock. Other errors are returned unchanged.
func must(err error) error {
	if errors.Is(err, ErrDeadlock) {
		panic(deadlockPanic)
	}
	return err
}
