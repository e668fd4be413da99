package value

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// SkipReason describes why a notification did not run a callback set.
type SkipReason int

const (
	// SkipReentrant means the writing goroutine was already executing the
	// cell's callbacks. This is what makes cyclic graphs terminate.
	SkipReentrant SkipReason = iota

	// SkipSuperseded means another run started after the change and already
	// observed it.
	SkipSuperseded
)

// String implements fmt.Stringer.
func (r SkipReason) String() string {
	switch r {
	case SkipReentrant:
		return "reentrant"
	case SkipSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Observer receives events from the value core. Implementations must be safe
// for concurrent use and must not lock cells.
//
// See package observe for slog, Prometheus, OpenTelemetry and capitan
// implementations.
type Observer interface {
	// CallbacksInvoked is called after a cell's callback set has run.
	CallbacksInvoked(cell CellID, callbacks int, elapsed time.Duration)

	// CallbacksSkipped is called when a notification is coalesced.
	CallbacksSkipped(cell CellID, reason SkipReason)

	// CallbackFailed is called when a callback returns an error other than
	// ErrCallbackDisconnected.
	CallbackFailed(cell CellID, err error)

	// DeadlockDetected is called when a goroutine tries to lock a cell it
	// already holds.
	DeadlockDetected(cell CellID)

	// Disconnected is called when the last writer handle of a cell is
	// released.
	Disconnected(cell CellID)

	// BatchFlushed is called when invalidations are delivered.
	// targets counts redraw targets, invalidate targets and wakers.
	BatchFlushed(targets int)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) CallbacksInvoked(CellID, int, time.Duration) {}
func (NopObserver) CallbacksSkipped(CellID, SkipReason)         {}
func (NopObserver) CallbackFailed(CellID, error)                {}
func (NopObserver) DeadlockDetected(CellID)                     {}
func (NopObserver) Disconnected(CellID)                         {}
func (NopObserver) BatchFlushed(int)                            {}

type observerBox struct{ Observer }

var (
	currentObserver atomic.Pointer[observerBox]
	currentLogger   atomic.Pointer[slog.Logger]
)

// SetObserver installs the package-wide observer. Passing nil restores the
// no-op observer.
func SetObserver(o Observer) {
	if o == nil {
		o = NopObserver{}
	}
	currentObserver.Store(&observerBox{o})
}

// SetLogger sets the logger used for debug output. Passing nil restores
// slog.Default().
func SetLogger(l *slog.Logger) {
	currentLogger.Store(l)
}

func observer() Observer {
	if b := currentObserver.Load(); b != nil {
		return b.Observer
	}
	return NopObserver{}
}

func logger() *slog.Logger {
	if l := currentLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}
