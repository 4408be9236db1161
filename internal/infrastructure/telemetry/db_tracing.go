package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig configures database span instrumentation.
type DBTracingConfig struct {
	Enabled          bool
	SlowQueryThresh  time.Duration
	DBSystem         string
	WithoutVariables bool
}

// DefaultDBTracingConfig returns a config for postgres with a 200ms slow query threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:          true,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

const queryStartKey = "telemetry:query_start"

// DBTracingPlugin registers otelgorm and marks slow or failed statements on their spans.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Register installs the plugin on db. It is a no-op when tracing is disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	cb := db.Callback()
	registrations := []error{
		cb.Create().Before("gorm:create").Register("telemetry:before_create", markStart),
		cb.Query().Before("gorm:query").Register("telemetry:before_query", markStart),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", markStart),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", markStart),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", markStart),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", markStart),
		cb.Create().After("gorm:create").Register("telemetry:after_create", p.afterStatement),
		cb.Query().After("gorm:query").Register("telemetry:after_query", p.afterStatement),
		cb.Update().After("gorm:update").Register("telemetry:after_update", p.afterStatement),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", p.afterStatement),
		cb.Row().After("gorm:row").Register("telemetry:after_row", p.afterStatement),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", p.afterStatement),
	}
	if err := errors.Join(registrations...); err != nil {
		return fmt.Errorf("failed to register tracing callbacks: %w", err)
	}

	// Registered after our callbacks so afterStatement runs while the span is still open.
	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if p.config.WithoutVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("failed to register otelgorm plugin: %w", err)
	}

	p.logger.Info("Database tracing enabled",
		zap.String("db_system", p.config.DBSystem),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func markStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *DBTracingPlugin) afterStatement(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); p.config.SlowQueryThresh > 0 && elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
