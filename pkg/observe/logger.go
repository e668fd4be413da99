package observe

import (
	"context"
	"log/slog"
	"time"

	"github.com/edfloreshz/gooey/pkg/value"
)

// Logger writes value events to a slog.Logger.
//
// Callback runs and skips are logged at Debug, failures and deadlocks at
// Warn. Disconnections and batch flushes are logged at Debug.
type Logger struct {
	log *slog.Logger

	// SlowCallbacks is the duration above which a callback run is logged at
	// Info instead of Debug. Zero disables the promotion.
	SlowCallbacks time.Duration
}

// NewLogger returns a Logger writing to l. A nil l uses slog.Default().
func NewLogger(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{log: l.With("component", "value")}
}

func (l *Logger) CallbacksInvoked(cell value.CellID, callbacks int, elapsed time.Duration) {
	level := slog.LevelDebug
	if l.SlowCallbacks > 0 && elapsed >= l.SlowCallbacks {
		level = slog.LevelInfo
	}
	l.log.Log(context.Background(), level, "callbacks invoked",
		"cell", uint64(cell),
		"callbacks", callbacks,
		"elapsed", elapsed,
	)
}

func (l *Logger) CallbacksSkipped(cell value.CellID, reason value.SkipReason) {
	l.log.Debug("callbacks skipped", "cell", uint64(cell), "reason", reason.String())
}

func (l *Logger) CallbackFailed(cell value.CellID, err error) {
	l.log.Warn("callback failed", "cell", uint64(cell), "error", err)
}

func (l *Logger) DeadlockDetected(cell value.CellID) {
	l.log.Warn("deadlock detected", "cell", uint64(cell))
}

func (l *Logger) Disconnected(cell value.CellID) {
	l.log.Debug("cell disconnected", "cell", uint64(cell))
}

func (l *Logger) BatchFlushed(targets int) {
	l.log.Debug("batch flushed", "targets", targets)
}
