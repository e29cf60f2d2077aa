package observability

import (
	"context"
	"fmt"

	"github.com/hapkiduki/shipping-quote/internal/application/port"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig contains tracer provider settings.
type TracingConfig struct {
	// ServiceName identifies this process in the tracing backend.
	ServiceName string

	// JaegerEndpoint is the collector URL. Empty disables export.
	JaegerEndpoint string

	// SampleRatio is the fraction of root spans sampled, in [0, 1].
	SampleRatio float64
}

// NewTracerProvider builds an SDK tracer provider, registers it globally and
// installs W3C trace context propagation.
//
// Parameters:
//   - cfg: tracing settings
//
// Returns:
//   - *sdktrace.TracerProvider: the provider; call Shutdown on exit
//   - error: any error creating the exporter
func NewTracerProvider(cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		)),
	}

	if cfg.JaegerEndpoint != "" {
		exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("failed to create jaeger exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}

// OtelTracer adapts an OpenTelemetry tracer to port.Tracer.
type OtelTracer struct {
	tracer trace.Tracer
}

var _ port.Tracer = (*OtelTracer)(nil)

// NewOtelTracer wraps a tracer obtained from any trace.TracerProvider.
func NewOtelTracer(provider trace.TracerProvider, instrumentationName string) *OtelTracer {
	return &OtelTracer{tracer: provider.Tracer(instrumentationName)}
}

// StartSpan implements port.Tracer.
func (t *OtelTracer) StartSpan(ctx context.Context, operationName string) (context.Context, port.Span) {
	ctx, span := t.tracer.Start(ctx, operationName)
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	s.span.SetAttributes(toAttribute(key, value))
}

func (s *otelSpan) SetError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *otelSpan) AddEvent(name string, attributes map[string]interface{}) {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, toAttribute(k, v))
	}
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
