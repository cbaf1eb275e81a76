package tracing

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// endpoint resolves the collector address: PROJECTFLOW_TRACING_ENDPOINT
// wins, then the standard OTEL_EXPORTER_OTLP_ENDPOINT. Empty disables
// tracing entirely.
func endpoint() string {
	if ep := os.Getenv("PROJECTFLOW_TRACING_ENDPOINT"); ep != "" {
		return ep
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
}

// Init wires an OTLP HTTP exporter behind the global tracer provider. Spans
// originate in the otelhttp transport on outbound backend calls and the
// otelhttp handler wrapping the gateway mux; without an endpoint both stay
// no-ops. The returned function flushes and stops the provider.
func Init(ctx context.Context, logger *slog.Logger, serviceName, environment string) (func(context.Context) error, error) {
	ep := endpoint()
	if ep == "" {
		if logger != nil {
			logger.Info("tracing disabled, no collector endpoint configured")
		}
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(ep),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	if logger != nil {
		logger.Info("tracing initialized",
			slog.String("service", serviceName),
			slog.String("endpoint", ep),
		)
	}
	return tp.Shutdown, nil
}
