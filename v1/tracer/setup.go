package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

// instrumentationName names the tracer that reports orm operations.
const instrumentationName = "github.com/Aleph-Alpha/orm"

// Tracer wraps an OpenTelemetry TracerProvider. It reports finished orm
// operations as spans and offers helpers for application spans.
//
// Tracer is safe for concurrent use.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	logger   orm.Logger
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l orm.Logger) Option {
	return func(t *Tracer) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewClient creates the tracer provider and installs it, together with the
// W3C trace context and baggage propagators, as the otel globals.
func NewClient(cfg Config, opts ...Option) (*Tracer, error) {
	var options []sdktrace.TracerProviderOption

	if cfg.EnableExport {
		client := otlptracehttp.NewClient()
		exporter, err := otlptrace.New(context.Background(), client)
		if err != nil {
			return nil, fmt.Errorf("cannot initiate trace exporter: %w", err)
		}
		options = append(options, sdktrace.WithBatcher(exporter))
	}

	options = append(options, sdktrace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))

	t := newTracer(sdktrace.NewTracerProvider(options...), opts...)

	otel.SetTracerProvider(t.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return t, nil
}

func newTracer(tp *sdktrace.TracerProvider, opts ...Option) *Tracer {
	t := &Tracer{
		provider: tp,
		tracer:   tp.Tracer(instrumentationName),
		logger:   orm.NopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
