package automation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/application/boost"
	"github.com/loyalty/backend/internal/application/tiering"
	"github.com/loyalty/backend/internal/domain/loyalty"
)

// PerformanceIngestor folds externally staged performance deltas into user counters
type PerformanceIngestor interface {
	Ingest(ctx context.Context, tenantID uuid.UUID) (*loyalty.IngestResult, error)
}

// PromotionScanner runs the real-time promotion pass
type PromotionScanner interface {
	Scan(ctx context.Context, tenantID uuid.UUID) (*tiering.ScanResult, error)
}

// CheckpointEvaluator runs the periodic checkpoint pass
type CheckpointEvaluator interface {
	Evaluate(ctx context.Context, tenantID uuid.UUID) (*tiering.EvaluationResult, error)
}

// TierChangeNotifier delivers promotion and demotion notices
type TierChangeNotifier interface {
	NotifyTierChange(ctx context.Context, event *loyalty.TierChangedEvent) error
}

// BoostLifecycle runs the three time-triggered boost sweeps
type BoostLifecycle interface {
	ActivateScheduled(ctx context.Context, tenantID uuid.UUID) (*boost.BatchResult, error)
	ExpireActive(ctx context.Context, tenantID uuid.UUID) (*boost.BatchResult, error)
	TransitionExpiredToPendingInfo(ctx context.Context, tenantID uuid.UUID) (*boost.BatchResult, error)
}

// TenantProvider lists tenants with a running loyalty program
type TenantProvider interface {
	GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// RunLock keeps at most one run in flight per key
type RunLock interface {
	// Acquire returns false, nil when the key is already held
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// ReportArchive keeps a copy of every tenant run report
type ReportArchive interface {
	Archive(ctx context.Context, report *RunReport) error
}

// Recorder receives run metrics
type Recorder interface {
	RecordRun(ctx context.Context, outcome string)
	RecordStage(ctx context.Context, stage string, duration time.Duration, errorCount int)
	RecordTierChange(ctx context.Context, change string)
	RecordBoostTransitions(ctx context.Context, to string, count int)
}

// AlertType classifies an admin alert
type AlertType string

const (
	AlertTypePartialFailure  AlertType = "partial_failure"
	AlertTypeUnexpectedError AlertType = "unexpected_error"
)

// Alert is an operator-facing summary of a run that did not fully succeed
type Alert struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Details   []string  `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertSender delivers admin alerts
type AlertSender interface {
	SendAdminAlert(ctx context.Context, alert Alert) error
}
