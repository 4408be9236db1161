package loyalty

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/shared"
)

// PerformanceStore is the tenant-scoped store behind tier evaluation.
// Every method filters by tenantID.
type PerformanceStore interface {
	// GetProgramSettings returns nil, nil when the tenant has no program
	GetProgramSettings(ctx context.Context, tenantID uuid.UUID) (*ProgramSettings, error)

	// GetTierThresholds returns the tenant's tiers ordered by tier order
	GetTierThresholds(ctx context.Context, tenantID uuid.UUID, metric VIPMetric) ([]Tier, error)

	// ApplyPendingAdjustments folds every unapplied SalesAdjustment into its
	// user's counters and returns how many were applied
	ApplyPendingAdjustments(ctx context.Context, tenantID uuid.UUID) (int, error)

	// GetUsersDueForCheckpoint returns users whose next checkpoint is at or before now
	GetUsersDueForCheckpoint(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]UserTierState, error)

	// GetUsersExceedingTier returns users whose lifetime value reaches a tier above
	// the floor, regardless of checkpoint exemption
	GetUsersExceedingTier(ctx context.Context, tenantID uuid.UUID, table *TierTable) ([]PromotionCandidate, error)

	// UpdateUserTier persists update and appends record in one transaction.
	// It fails with shared.ErrConcurrencyConflict if the user moved since it was read.
	UpdateUserTier(ctx context.Context, tenantID uuid.UUID, update TierUpdate, record CheckpointRecord) error
}

// TierStateReader serves read models over tier state
type TierStateReader interface {
	GetUserTierState(ctx context.Context, tenantID, userID uuid.UUID) (*UserTierState, error)
	ListCheckpointRecords(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]CheckpointRecord, int64, error)
}

// AdjustmentRepository queues manual corrections
type AdjustmentRepository interface {
	Create(ctx context.Context, adjustment *SalesAdjustment) error
	ListPending(ctx context.Context, tenantID uuid.UUID) ([]SalesAdjustment, error)
}

// ProgramRepository lists tenants with a running program
type ProgramRepository interface {
	GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}
