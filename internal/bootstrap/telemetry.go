// Package bootstrap assembles the loyalty service's object graph from configuration.
// It is shared by the HTTP server and the operator CLI.
package bootstrap

import (
	"context"
	"errors"

	"github.com/loyalty/backend/internal/infrastructure/config"
	"github.com/loyalty/backend/internal/infrastructure/logger"
	"github.com/loyalty/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Telemetry owns the OpenTelemetry providers and the profiler
type Telemetry struct {
	Tracer   *telemetry.TracerProvider
	Meters   *telemetry.MeterProvider
	Logs     *telemetry.LoggerProvider
	Profiler *telemetry.Profiler
}

// NewLogger builds the base zap logger from cfg.Log
func NewLogger(cfg *config.Config) *zap.Logger {
	return logger.New(logConfig(cfg))
}

func logConfig(cfg *config.Config) *logger.Config {
	return &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.ISO8601Millis,
	}
}

// NewTelemetry starts tracing, metrics, log export and profiling. The returned
// logger tees into the OTEL log pipeline when log export is enabled, otherwise
// it is base.
func NewTelemetry(ctx context.Context, cfg *config.Config, base *zap.Logger) (*Telemetry, *zap.Logger, error) {
	tc := cfg.Telemetry
	t := &Telemetry{}

	var err error
	t.Tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, base)
	if err != nil {
		return nil, nil, err
	}

	t.Meters, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, base)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, nil, err
	}

	t.Logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, base)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, nil, err
	}

	t.Profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:            tc.ProfilingEnabled,
		ServerAddress:      tc.PyroscopeAddress,
		ApplicationName:    tc.ServiceName,
		ProfileAllocations: true,
		ProfileGoroutines:  true,
	}, base)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, nil, err
	}
	if t.Profiler.IsEnabled() && t.Tracer.IsEnabled() {
		if err := t.Tracer.EnableSpanProfiles(); err != nil {
			base.Warn("Failed to link profiles to spans", zap.Error(err))
		}
	}

	log := base
	if t.Logs.IsEnabled() {
		level := logger.ParseLevel(cfg.Log.Level)
		log = telemetry.NewBridgedLogger(
			logger.NewCore(logConfig(cfg)),
			telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
				ServiceName:    tc.ServiceName,
				LoggerProvider: t.Logs,
				Level:          level,
			}),
			zap.AddCaller(),
		)
	}
	return t, log, nil
}

// Meter returns the service meter
func (t *Telemetry) Meter() metric.Meter {
	return t.Meters.Meter("github.com/loyalty/backend")
}

// Shutdown flushes and stops every provider that was started
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	if t.Meters != nil {
		errs = append(errs, t.Meters.Shutdown(ctx))
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
