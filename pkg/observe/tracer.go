package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/edfloreshz/gooey/pkg/value"
)

const defaultTracerName = "gooey/value"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "gooey/value").
	TracerName string

	// MinDuration drops callback runs shorter than this. Zero traces all.
	MinDuration time.Duration

	// Provider is the tracer provider to use.
	// Default: the global provider from otel.GetTracerProvider.
	Provider trace.TracerProvider
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithMinDuration sets the shortest callback run that gets a span.
func WithMinDuration(d time.Duration) TracerOption {
	return func(c *TracerConfig) {
		c.MinDuration = d
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(p trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = p
	}
}

// Tracer records callback runs as spans and the remaining events as
// zero-length spans.
//
// Spans are reconstructed after the fact: a callback run span starts at
// now minus the run duration.
type Tracer struct {
	config TracerConfig
	tracer trace.Tracer
}

// NewTracer creates an OpenTelemetry observer.
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracer{config: config, tracer: provider.Tracer(config.TracerName)}
}

func (t *Tracer) CallbacksInvoked(cell value.CellID, callbacks int, elapsed time.Duration) {
	if elapsed < t.config.MinDuration {
		return
	}
	end := time.Now()
	_, span := t.tracer.Start(context.Background(), "value.callbacks",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end.Add(-elapsed)),
		trace.WithAttributes(
			cellAttr(cell),
			attribute.Int("value.callbacks", callbacks),
		),
	)
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(end))
}

func (t *Tracer) CallbacksSkipped(cell value.CellID, reason value.SkipReason) {
	t.instant("value.callbacks.skipped", cellAttr(cell), attribute.String("value.skip_reason", reason.String()))
}

func (t *Tracer) CallbackFailed(cell value.CellID, err error) {
	_, span := t.tracer.Start(context.Background(), "value.callback.failed",
		trace.WithAttributes(cellAttr(cell)),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
}

func (t *Tracer) DeadlockDetected(cell value.CellID) {
	_, span := t.tracer.Start(context.Background(), "value.deadlock",
		trace.WithAttributes(cellAttr(cell)),
	)
	span.SetStatus(codes.Error, value.ErrDeadlock.Error())
	span.End()
}

func (t *Tracer) Disconnected(cell value.CellID) {
	t.instant("value.disconnected", cellAttr(cell))
}

func (t *Tracer) BatchFlushed(targets int) {
	t.instant("value.batch.flushed", attribute.Int("value.batch_targets", targets))
}

func (t *Tracer) instant(name string, attrs ...attribute.KeyValue) {
	_, span := t.tracer.Start(context.Background(), name, trace.WithAttributes(attrs...))
	span.End()
}

func cellAttr(cell value.CellID) attribute.KeyValue {
	return attribute.Int64("value.cell", int64(cell))
}
