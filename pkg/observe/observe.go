package observe

import (
	"time"

	"github.com/edfloreshz/gooey/pkg/value"
)

// multi forwards every event to each observer in order.
type multi []value.Observer

// Multi returns an observer that forwards events to each of observers.
// Nil entries are skipped.
func Multi(observers ...value.Observer) value.Observer {
	m := make(multi, 0, len(observers))
	for _, o := range observers {
		if o == nil {
			continue
		}
		// Flatten nested fan-outs.
		if inner, ok := o.(multi); ok {
			m = append(m, inner...)
			continue
		}
		m = append(m, o)
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m multi) CallbacksInvoked(cell value.CellID, callbacks int, elapsed time.Duration) {
	for _, o := range m {
		o.CallbacksInvoked(cell, callbacks, elapsed)
	}
}

func (m multi) CallbacksSkipped(cell value.CellID, reason value.SkipReason) {
	for _, o := range m {
		o.CallbacksSkipped(cell, reason)
	}
}

func (m multi) CallbackFailed(cell value.CellID, err error) {
	for _, o := range m {
		o.CallbackFailed(cell, err)
	}
}

func (m multi) DeadlockDetected(cell value.CellID) {
	for _, o := range m {
		o.DeadlockDetected(cell)
	}
}

func (m multi) Disconnected(cell value.CellID) {
	for _, o := range m {
		o.Disconnected(cell)
	}
}

func (m multi) BatchFlushed(targets int) {
	for _, o := range m {
		o.BatchFlushed(targets)
	}
}
