package infra

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/pkg/bininfo"
	"onegov.dev/electionday/internal/pkg/observability"
)

var ErrUnknownTracingExporter = errors.New("unknown tracing exporter")

func tracingExporter(ctx context.Context, name string) (tracesdk.SpanExporter, error) {
	switch name {
	case "jaeger":
		return jaeger.New(jaeger.WithCollectorEndpoint())
	case "otlp":
		// endpoint and headers are read from the OTEL_EXPORTER_OTLP_* variables
		return otlptracegrpc.New(ctx)
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, errors.Wrap(ErrUnknownTracingExporter, name)
	}
}

// TracerProvider builds the tracer provider and installs it globally when
// tracing is enabled. A disabled provider samples nothing.
func TracerProvider(lc fx.Lifecycle, conf *appconfig.Config) (*tracesdk.TracerProvider, error) {
	if !conf.TracingEnabled {
		return tracesdk.NewTracerProvider(tracesdk.WithSampler(tracesdk.NeverSample())), nil
	}

	opts := []tracesdk.TracerProviderOption{
		tracesdk.WithSampler(tracesdk.ParentBased(tracesdk.TraceIDRatioBased(conf.TracingSampleRate))),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(observability.ServiceName),
			semconv.ServiceVersionKey.String(bininfo.Version),
			attribute.String("environment", conf.AppContext.Env.String()),
		)),
	}
	for _, name := range conf.TracingExporters {
		exporter, err := tracingExporter(context.Background(), name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tracesdk.WithBatcher(exporter))
	}

	tp := tracesdk.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	log.Info().
		Str("evt.name", "infra.tracing.enabled").
		Strs("exporters", conf.TracingExporters).
		Float64("sampleRate", conf.TracingSampleRate).
		Msg("tracing enabled")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp, nil
}
