package instrument

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/kvstore/pkg/store"
)

// Default tracer name for kvstore spans.
const defaultTracerName = "kvstore"

// Span names emitted by the OpenTelemetry instrument.
const (
	SpanNotify      = "kvstore.notify"
	SpanUnsubscribe = "kvstore.unsubscribe"
)

// OTelConfig configures the OpenTelemetry instrument.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "kvstore").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider
}

// OTelOption configures the OpenTelemetry instrument.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(provider trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.Provider = provider
	}
}

// tracing records notification passes as spans.
type tracing struct {
	tracer trace.Tracer
}

// OpenTelemetry returns a store.Instrument that traces notification passes.
//
// Each pass becomes a kvstore.notify span carrying the key and the number of
// observers. An orphaned unsubscribe is recorded as a short
// kvstore.unsubscribe span with an "orphaned" event. Writes are not traced.
//
// Store calls carry no context, so spans are roots unless the observer work
// starts its own children.
func OpenTelemetry(opts ...OTelOption) store.Instrument {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.Provider != nil {
		tracer = config.Provider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}
	return &tracing{tracer: tracer}
}

func (t *tracing) Write(store.Op, store.Key) {}

func (t *tracing) Notify(key store.Key, observers int) func() {
	_, span := t.tracer.Start(context.Background(), SpanNotify,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("kvstore.key", string(key)),
			attribute.Int("kvstore.observers", observers),
		),
	)
	return func() { span.End() }
}

func (t *tracing) Orphaned(key store.Key) {
	_, span := t.tracer.Start(context.Background(), SpanUnsubscribe,
		trace.WithAttributes(attribute.String("kvstore.key", string(key))),
	)
	span.AddEvent("orphaned")
	span.End()
}
