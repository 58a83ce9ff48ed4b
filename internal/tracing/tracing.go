// Package tracing configures OpenTelemetry for Heimdall and opens the spans
// check_mission and its pipeline stages run under. It is kept separate from
// internal/obsv (which owns the Prometheus side of observability and itself
// depends on internal/engine for Metrics/Result) so the engine facade can
// depend on tracing for spans without an import cycle back through obsv.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InitTracing configures the global tracer provider with the stdout
// exporter, suitable for development, and returns a shutdown func.
func InitTracing(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("tracing: stdout exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing: resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// tracer is the named tracer used for check_mission spans.
func tracer() trace.Tracer {
	return otel.Tracer("heimdall/engine")
}

// StageSpan opens a span named name under ctx — the top-level check_mission
// span, or one of its per-stage children — returning the span-scoped
// context and a func that ends it.
func StageSpan(ctx context.Context, name string) (context.Context, func()) {
	ctx, span := tracer().Start(ctx, name)
	return ctx, func() { span.End() }
}
