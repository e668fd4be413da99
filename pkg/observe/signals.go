package observe

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"

	"github.com/edfloreshz/gooey/pkg/value"
)

// Value core signals.
var (
	// CallbacksInvoked is emitted after a cell's callback set has run.
	CallbacksInvoked = capitan.NewSignal(
		"gooey.value.callbacks.invoked",
		"Cell callbacks invoked",
	)

	// CallbacksSkipped is emitted when a notification is coalesced.
	CallbacksSkipped = capitan.NewSignal(
		"gooey.value.callbacks.skipped",
		"Cell callbacks skipped",
	)

	// CallbackFailed is emitted when a callback returns an error.
	CallbackFailed = capitan.NewSignal(
		"gooey.value.callback.failed",
		"Cell callback failed",
	)

	// DeadlockDetected is emitted when a goroutine re-locks a cell it holds.
	DeadlockDetected = capitan.NewSignal(
		"gooey.value.deadlock",
		"Deadlock detected",
	)

	// Disconnected is emitted when the last writer of a cell is released.
	Disconnected = capitan.NewSignal(
		"gooey.value.disconnected",
		"Cell disconnected",
	)

	// BatchFlushed is emitted when invalidations are delivered.
	BatchFlushed = capitan.NewSignal(
		"gooey.value.batch.flushed",
		"Invalidation batch flushed",
	)
)

// Field keys for value events.
var (
	// KeyCell is the cell identifier.
	KeyCell = capitan.NewIntKey("cell")

	// KeyCallbacks is the number of callbacks in a run.
	KeyCallbacks = capitan.NewIntKey("callbacks")

	// KeyElapsed is the duration of a callback run.
	KeyElapsed = capitan.NewDurationKey("elapsed")

	// KeyReason is the reason a run was skipped.
	KeyReason = capitan.NewStringKey("reason")

	// KeyError is the error message of a failed callback.
	KeyError = capitan.NewStringKey("error")

	// KeyTargets is the number of targets in a flushed batch.
	KeyTargets = capitan.NewIntKey("targets")
)

// Signals emits value events as capitan signals. Hook the exported signals
// to consume them:
//
//	capitan.Hook(observe.DeadlockDetected, func(_ context.Context, e *capitan.Event) {
//	    cell, _ := observe.KeyCell.From(e)
//	    log.Printf("deadlock on cell %d", cell)
//	})
type Signals struct {
	ctx context.Context
}

// NewSignals returns an observer emitting capitan signals with ctx.
// A nil ctx uses context.Background().
func NewSignals(ctx context.Context) *Signals {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Signals{ctx: ctx}
}

// CallbacksInvoked emits CallbacksInvoked with the cell, callback count and
// run duration.
func (s *Signals) CallbacksInvoked(cell value.CellID, callbacks int, elapsed time.Duration) {
	capitan.Emit(s.ctx, CallbacksInvoked,
		KeyCell.Field(int(cell)),
		KeyCallbacks.Field(callbacks),
		KeyElapsed.Field(elapsed),
	)
}

// CallbacksSkipped emits CallbacksSkipped with the cell and skip reason.
func (s *Signals) CallbacksSkipped(cell value.CellID, reason value.SkipReason) {
	capitan.Emit(s.ctx, CallbacksSkipped,
		KeyCell.Field(int(cell)),
		KeyReason.Field(reason.String()),
	)
}

// CallbackFailed emits CallbackFailed with the cell and error text.
func (s *Signals) CallbackFailed(cell value.CellID, err error) {
	capitan.Emit(s.ctx, CallbackFailed,
		KeyCell.Field(int(cell)),
		KeyError.Field(err.Error()),
	)
}

// DeadlockDetected emits DeadlockDetected for the cell.
func (s *Signals) DeadlockDetected(cell value.CellID) {
	capitan.Emit(s.ctx, DeadlockDetected, KeyCell.Field(int(cell)))
}

// Disconnected emits Disconnected for the cell.
func (s *Signals) Disconnected(cell value.CellID) {
	capitan.Emit(s.ctx, Disconnected, KeyCell.Field(int(cell)))
}

// BatchFlushed emits BatchFlushed with the number of targets delivered.
func (s *Signals) BatchFlushed(targets int) {
	capitan.Emit(s.ctx, BatchFlushed, KeyTargets.Field(targets))
}
