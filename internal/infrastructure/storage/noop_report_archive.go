package storage

import (
	"context"

	"github.com/loyalty/backend/internal/application/automation"
	infraconfig "github.com/loyalty/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NoopReportArchive logs the report key and discards the report.
// Used when the archive bucket is not configured.
type NoopReportArchive struct {
	logger *zap.Logger
}

// NewNoopReportArchive creates a NoopReportArchive
func NewNoopReportArchive(logger *zap.Logger) *NoopReportArchive {
	return &NoopReportArchive{logger: logger}
}

// Archive implements automation.ReportArchive
func (a *NoopReportArchive) Archive(_ context.Context, report *automation.RunReport) error {
	if report == nil {
		return nil
	}
	a.logger.Debug("Report archive disabled, run report not stored", zap.String("key", ReportKey(report)))
	return nil
}

var _ automation.ReportArchive = (*NoopReportArchive)(nil)

// NewReportArchive returns the S3 archive when storage is enabled, the no-op one otherwise
func NewReportArchive(cfg *infraconfig.StorageConfig, logger *zap.Logger) (automation.ReportArchive, error) {
	if cfg == nil || !cfg.Enabled {
		return NewNoopReportArchive(logger), nil
	}
	return NewS3ReportArchive(cfg, WithLogger(logger))
}
