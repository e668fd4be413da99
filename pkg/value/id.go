package value

import "sync/atomic"

// CellID identifies a cell in logs and metrics.
type CellID uint64

// globalIDCounter is the source of unique IDs for all cells.
var globalIDCounter uint64

// nextID returns the next unique cell ID.
// IDs are monotonically increasing and never reused.
func nextID() CellID {
	return CellID(atomic.AddUint64(&globalIDCounter, 1))
}

// changeClock orders writes and callback runs. It is process-wide so that
// stamps taken on different goroutines are comparable.
var changeClock atomic.Uint64

// tick returns the next logical timestamp.
func tick() uint64 {
	return changeClock.Add(1)
}
