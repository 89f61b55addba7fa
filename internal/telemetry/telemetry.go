// Package telemetry wires an OpenTelemetry tracer provider around the
// submission pipeline: one span per copy-out, copy-in, or exec call. The
// resolver, namer, and writer stages get no spans of their own. Unlike the
// event log (always on,
// flat files), tracing is optional and only activates when an OTLP
// endpoint is configured.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider owns the process-wide tracer provider and its OTLP exporter. A
// nil *Provider is valid and yields a no-op tracer, so callers do not need
// to branch on whether telemetry is configured.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// Noop returns a Provider whose Tracer does not export anything, used when
// no OTLP endpoint is configured.
func Noop() *Provider {
	return &Provider{tracer: otel.Tracer("uuship/submit")}
}

// Start builds a Provider exporting spans to endpoint over OTLP/HTTP.
func Start(ctx context.Context, endpoint, serviceVersion string) (*Provider, error) {
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", "uuship"),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp, tracer: tp.Tracer("uuship/submit")}, nil
}

// Tracer returns the submission-pipeline tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil || p.tracer == nil {
		return otel.Tracer("uuship/submit")
	}
	return p.tracer
}

// Shutdown flushes and stops the exporter. It is a no-op for a Noop
// Provider or one that failed to start.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: shutdown: %w", err)
	}
	return nil
}
