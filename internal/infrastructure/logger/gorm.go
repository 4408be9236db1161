package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// GormLogger routes gorm's statement log into zap. Statements executed inside
// an automation run or an HTTP request carry the run, tenant and request IDs
// found on the context.
type GormLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a statement is logged as slow.
// Zero disables slow-query warnings.
func WithSlowThreshold(d time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slow = d }
}

// NewGormLogger creates a gorm logger backed by zap
func NewGormLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{log: base.Named("gorm"), level: level, slow: defaultSlowQuery}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, at gormlogger.LogLevel, msg string, data []any) {
	if l.level < at {
		return
	}
	text := fmt.Sprintf(msg, data...)
	fields := contextFields(ctx)
	switch at {
	case gormlogger.Error:
		l.log.Error(text, fields...)
	case gormlogger.Warn:
		l.log.Warn(text, fields...)
	default:
		l.log.Info(text, fields...)
	}
}

// Trace logs one executed statement. Missing rows are a normal outcome for
// the tier and boost lookups and are never reported as errors.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	slow := l.slow > 0 && elapsed > l.slow
	if err != nil && errors.Is(err, gormlogger.ErrRecordNotFound) {
		// only a slow miss is worth a line
		if !slow {
			return
		}
		err = nil
	}

	switch {
	case err != nil && l.level >= gormlogger.Error:
	case slow && l.level >= gormlogger.Warn:
	case l.level >= gormlogger.Info:
	default:
		return
	}

	sql, rows := fc()
	fields := append(contextFields(ctx),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)
	switch {
	case err != nil && l.level >= gormlogger.Error:
		l.log.Error("Query failed", append(fields, zap.Error(err))...)
	case slow && l.level >= gormlogger.Warn:
		l.log.Warn("Slow query", append(fields, zap.Duration("threshold", l.slow))...)
	default:
		l.log.Debug("Query", fields...)
	}
}

func contextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetRunID(ctx); id != "" {
		fields = append(fields, zap.String("run_id", id))
	}
	if id := GetTenantID(ctx); id != "" {
		fields = append(fields, zap.String("tenant_id", id))
	}
	return fields
}

// MapGormLogLevel maps the database.log_level setting to a gorm level.
// debug shares info's level; gorm has nothing finer.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
