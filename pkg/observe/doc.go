// Package observe provides value.Observer implementations.
//
// The value core reports callback runs, coalesced notifications, deadlocks,
// disconnections and batch flushes through a single package-wide observer.
// This package turns those events into structured logs, Prometheus metrics,
// OpenTelemetry spans and capitan signals. Multi fans a single event out to
// several observers.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	value.SetObserver(observe.Multi(
//	    observe.NewLogger(slog.Default()),
//	    observe.NewMetrics(observe.WithRegistry(reg)),
//	    observe.NewTracer(),
//	))
package observe
