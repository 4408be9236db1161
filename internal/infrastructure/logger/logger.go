// Package logger builds the service's zap loggers and carries request-scoped
// loggers through context, gin and gorm.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ISO8601Millis is the timestamp layout used unless Config.TimeFormat overrides it
const ISO8601Millis = "2006-01-02T15:04:05.000Z07:00"

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

// DefaultConfig returns a console configuration for development
func DefaultConfig() *Config {
	return &Config{Level: "info", Format: "console", Output: "stdout"}
}

// New creates a zap logger with caller annotation and error stack traces
func New(cfg *Config) *zap.Logger {
	return zap.New(NewCore(cfg), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// NewCore builds the local core. Telemetry tees it with the OTEL log bridge.
func NewCore(cfg *Config) zapcore.Core {
	return zapcore.NewCore(encoder(cfg), sink(cfg.Output), ParseLevel(cfg.Level))
}

// ParseLevel converts a level name to a zap level. Unknown names log at info.
func ParseLevel(level string) zapcore.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zapcore.ParseLevel(name)
	if err != nil || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return lvl
}

func encoder(cfg *Config) zapcore.Encoder {
	layout := cfg.TimeFormat
	if layout == "" {
		layout = ISO8601Millis
	}

	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.MessageKey = "msg"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(layout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if strings.EqualFold(cfg.Format, "console") {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// sink opens output through zap's sink registry, so stdout and stderr are
// recognised by name. A file that cannot be opened falls back to stderr.
func sink(output string) zapcore.WriteSyncer {
	if output == "" {
		output = "stdout"
	}
	ws, _, err := zap.Open(strings.TrimSpace(output))
	if err != nil {
		return zapcore.Lock(os.Stderr)
	}
	return ws
}
