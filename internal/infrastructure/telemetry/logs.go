package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogsConfig holds OTLP log export settings
type LogsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	Insecure          bool
}

// LoggerProvider owns the OTLP log pipeline. A disabled provider is valid and
// makes NewZapOTELCore return a no-op core.
type LoggerProvider struct {
	provider *sdklog.LoggerProvider
	log      *zap.Logger
}

// NewLoggerProvider starts the OTLP gRPC log exporter and installs the
// provider globally
func NewLoggerProvider(ctx context.Context, cfg LogsConfig, log *zap.Logger) (*LoggerProvider, error) {
	lp := &LoggerProvider{log: log}
	if !cfg.Enabled {
		return lp, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP log exporter: %w", err)
	}
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	lp.provider = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp.provider)
	log.Info("Log export enabled", zap.String("collector_endpoint", cfg.CollectorEndpoint))
	return lp, nil
}

// IsEnabled reports whether records are being exported
func (lp *LoggerProvider) IsEnabled() bool {
	return lp != nil && lp.provider != nil
}

// Shutdown flushes buffered records
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if !lp.IsEnabled() {
		return nil
	}
	return flush(ctx, "logger", lp.provider.Shutdown)
}

// ZapBridgeConfig configures the zap to OTEL bridge
type ZapBridgeConfig struct {
	ServiceName    string
	LoggerProvider *LoggerProvider
	// Level is the minimum exported level; the bridge itself has none
	Level zapcore.Level
}

// NewZapOTELCore returns a core that forwards zap entries to the OTEL log
// pipeline, or a no-op core when export is disabled
func NewZapOTELCore(cfg ZapBridgeConfig) zapcore.Core {
	if !cfg.LoggerProvider.IsEnabled() {
		return zapcore.NewNopCore()
	}
	core := otelzap.NewCore(cfg.ServiceName, otelzap.WithLoggerProvider(cfg.LoggerProvider.provider))
	filtered, err := zapcore.NewIncreaseLevelCore(core, cfg.Level)
	if err != nil {
		cfg.LoggerProvider.log.Warn("Exporting logs at every level", zap.Error(err))
		return core
	}
	return filtered
}

// NewBridgedLogger tees the local core with the OTEL core
func NewBridgedLogger(local, otel zapcore.Core, opts ...zap.Option) *zap.Logger {
	return zap.New(zapcore.NewTee(local, otel), opts...)
}
