package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/pkg/config"
)

// Tracer returns a named tracer from the global provider. Spans are no-ops until
// Setup installs an exporting provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer("payrecon/" + name)
}

// NewProvider builds a batching tracer provider exporting to the Jaeger collector at
// endpoint, e.g. http://jaeger:14268/api/traces.
func NewProvider(endpoint, serviceName string) (*sdktrace.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}

// Setup installs the global tracer provider and propagator when tracing is configured.
func Setup(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) error {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	if cfg.Tracing.JaegerEndpoint == "" {
		log.Infow("tracing disabled")
		return nil
	}
	tp, err := NewProvider(cfg.Tracing.JaegerEndpoint, cfg.Tracing.ServiceName)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tp)
	log.Infow("tracing enabled", "endpoint", cfg.Tracing.JaegerEndpoint, "service", cfg.Tracing.ServiceName)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
	return nil
}

var Module = fx.Options(fx.Invoke(Setup))
