// Package telemetry provides OpenTelemetry tracing, metrics, log export and
// continuous profiling for the loyalty service.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config holds tracing configuration
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	// SamplingRatio of 1 or more samples everything, 0 or less samples nothing
	SamplingRatio float64
	ServiceName   string
	Insecure      bool
}

// TracerProvider owns the span pipeline. While disabled the global no-op
// provider stays installed and StartSpan produces non-recording spans.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	log      *zap.Logger

	once sync.Once
}

// NewTracerProvider starts the OTLP gRPC span exporter and installs the
// provider and the W3C propagators globally
func NewTracerProvider(ctx context.Context, cfg Config, log *zap.Logger) (*TracerProvider, error) {
	tp := &TracerProvider{log: log}
	if !cfg.Enabled {
		return tp, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP trace exporter: %w", err)
	}
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	tp.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplingRatio)),
	)
	otel.SetTracerProvider(tp.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Info("Tracing enabled",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
	)
	return tp, nil
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	if ratio <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// IsEnabled reports whether spans are exported
func (tp *TracerProvider) IsEnabled() bool {
	return tp != nil && tp.provider != nil
}

// EnableSpanProfiles wraps the global provider so CPU samples taken by the
// running profiler carry the span ID. Later calls are no-ops.
func (tp *TracerProvider) EnableSpanProfiles() error {
	if !tp.IsEnabled() {
		return nil
	}
	tp.once.Do(func() {
		otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp.provider))
		tp.log.Info("Span profiles enabled")
	})
	return nil
}

// Tracer returns a tracer from this provider, or from the global one while disabled
func (tp *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if !tp.IsEnabled() {
		return otel.Tracer(name, opts...)
	}
	return tp.provider.Tracer(name, opts...)
}

// Shutdown exports buffered spans and stops the provider
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if !tp.IsEnabled() {
		return nil
	}
	return flush(ctx, "tracer", tp.provider.Shutdown)
}
