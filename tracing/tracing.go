package tracing

// The package wraps OpenTelemetry so that the rest of the code-base can use
// a small helper surface (StartSpan, EndSpan, WithAttributes) without being
// concerned with the underlying implementation. Nothing is re-implemented
// unless it is not available in the upstream library; until Init is called
// every span is a no-op.

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies the instrumentation scope of every span the node
// emits.
const tracerName = "github.com/qnetlab/qnos"

// Init configures OpenTelemetry with the stdout exporter backed by either
// os.Stdout or the specified file. If outputFile is an empty string spans
// are written to os.Stdout. The function is safe to call multiple times;
// the first successful initialisation wins.
func Init(serviceName, serviceVersion, outputFile string) error {
	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		w = f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return err
	}
	return installProvider(serviceName, serviceVersion, exporter)
}

// InitWithExporter configures OpenTelemetry using the supplied SpanExporter,
// allowing callers to integrate with any exporter the OpenTelemetry SDK
// supports (OTLP, Jaeger, Zipkin). The first successful initialisation wins.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	return installProvider(serviceName, serviceVersion, exporter)
}

var (
	providerOnce sync.Once
	providerErr  error
)

// installProvider registers the supplied exporter as the global trace
// provider. The operation executes only once; subsequent invocations are
// no-ops returning the error, if any, from the first attempt.
func installProvider(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}

	providerOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				attribute.String("service.name", serviceName),
				attribute.String("service.version", serviceVersion),
			),
		)
		if err != nil {
			providerErr = err
			return
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		)

		otel.SetTracerProvider(tp)
	})

	return providerErr
}

// Span wraps go.opentelemetry.io/otel/trace.Span so that callers do not
// need to import the upstream package directly.
type Span struct {
	span trace.Span
}

// WithAttributes attaches all provided attributes to the span.
func (s *Span) WithAttributes(attrs map[string]string) *Span {
	if s == nil || len(attrs) == 0 {
		return s
	}
	otelAttrs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		otelAttrs = append(otelAttrs, attribute.String(k, v))
	}
	s.span.SetAttributes(otelAttrs...)
	return s
}

// SetStatus records an error status on the span. If err is nil an OK status
// is recorded instead.
func (s *Span) SetStatus(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
}

// StartSpan starts a new child span. The string kind is mapped onto the
// appropriate trace.SpanKind value; when the mapping cannot be determined
// SpanKindInternal is used as a sensible default.
func StartSpan(ctx context.Context, name, kind string) (context.Context, *Span) {
	tracer := otel.Tracer(tracerName)

	var spanKind trace.SpanKind
	switch kind {
	case "SERVER":
		spanKind = trace.SpanKindServer
	case "CLIENT":
		spanKind = trace.SpanKindClient
	case "PRODUCER":
		spanKind = trace.SpanKindProducer
	case "CONSUMER":
		spanKind = trace.SpanKindConsumer
	default:
		spanKind = trace.SpanKindInternal
	}

	// Capture any parent span present in the incoming context before
	// starting the new span so lineage can be annotated explicitly.
	parentSpan := trace.SpanFromContext(ctx)

	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(spanKind))

	// The SDK maintains the relationship internally; recording the parent
	// ids as attributes helps when consumers or tests inspect a span in
	// isolation.
	if parentSpan != nil {
		if sc := parentSpan.SpanContext(); sc.IsValid() {
			span.SetAttributes(
				attribute.String("parent.trace_id", sc.TraceID().String()),
				attribute.String("parent.span_id", sc.SpanID().String()),
			)
		}
	}

	return ctx, &Span{span: span}
}

// EndSpan finalises the span and records status depending on the provided
// error.
func EndSpan(sp *Span, err error) {
	if sp == nil {
		return
	}
	sp.SetStatus(err)
	sp.span.End()
}

// WithSpan attaches the OpenTelemetry span wrapped by *Span to the context.
func WithSpan(ctx context.Context, sp *Span) context.Context {
	if sp == nil {
		return ctx
	}
	return trace.ContextWithSpan(ctx, sp.span)
}

// SpanFromContext retrieves the *Span wrapper from the supplied context
// when present.
func SpanFromContext(ctx context.Context) (*Span, bool) {
	sp := trace.SpanFromContext(ctx)
	if sp == nil {
		return nil, false
	}
	return &Span{span: sp}, true
}
