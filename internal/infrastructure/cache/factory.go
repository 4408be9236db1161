package cache

import (
	"fmt"
	"io"

	"github.com/loyalty/backend/internal/application/automation"
	"github.com/loyalty/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RunLocker is a RunLock that owns resources
type RunLocker interface {
	automation.RunLock
	io.Closer
}

// RunLockFactory picks a run lock implementation from configuration
type RunLockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// RunLockFactoryOption is a functional option for configuring the factory
type RunLockFactoryOption func(*RunLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory lock. Default is true.
func WithInMemoryFallback(allow bool) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRunLockFactory creates a new factory
func NewRunLockFactory(cfg config.RedisConfig, opts ...RunLockFactoryOption) *RunLockFactory {
	f := &RunLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateLock returns a Redis lock when Redis is enabled and reachable, otherwise
// the in-memory lock (if fallback is allowed).
func (f *RunLockFactory) CreateLock() (RunLocker, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory run lock")
		return NewInMemoryRunLock(), nil
	}

	lock, err := NewRedisRunLock(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("Using Redis run lock", zap.String("addr", f.redisConfig.Addr()))
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for run lock but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory run lock. "+
		"Concurrent instances may run the same tenant twice.",
		zap.Error(err),
	)
	return NewInMemoryRunLock(), nil
}
