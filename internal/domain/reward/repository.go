package reward

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BoostCandidate is a boost due for a time-triggered transition, with the
// owner's lifetime sales read in the same query. OwnerMissing is set when the
// owner has no tier state, in which case CurrentSales is zero.
type BoostCandidate struct {
	Boost        CommissionBoost
	CurrentSales decimal.Decimal
	OwnerMissing bool
}

// BoostTransition is one status change committed together with its history row
type BoostTransition struct {
	Boost   *CommissionBoost
	From    BoostStatus
	History *BoostHistory
	// RedemptionStatus, when set, moves the parent redemption in the same transaction
	RedemptionStatus RedemptionStatus
}

// BoostStore is the tenant-scoped store for commission boost sub-states.
// Every method filters by tenantID.
type BoostStore interface {
	// FindScheduledDue returns scheduled boosts whose activation date is on or before today
	FindScheduledDue(ctx context.Context, tenantID uuid.UUID, today time.Time) ([]BoostCandidate, error)

	// FindActiveExpired returns active boosts whose expires_at is at or before now
	FindActiveExpired(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]BoostCandidate, error)

	// FindExpiredPendingTransition returns expired boosts that expired at or before expiredBefore
	FindExpiredPendingTransition(ctx context.Context, tenantID uuid.UUID, expiredBefore time.Time) ([]CommissionBoost, error)

	// FindByID returns nil, nil when the boost does not exist in the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CommissionBoost, error)

	// FindByRedemption returns nil, nil when the redemption has no boost
	FindByRedemption(ctx context.Context, tenantID, redemptionID uuid.UUID) (*CommissionBoost, error)

	// ListHistory returns the boost's history oldest first
	ListHistory(ctx context.Context, tenantID, boostID uuid.UUID) ([]BoostHistory, error)

	// Create inserts a new boost with its first history row
	Create(ctx context.Context, tenantID uuid.UUID, boost *CommissionBoost, history *BoostHistory) error

	// Transition updates the boost only if it is still in t.From and writes the
	// history row atomically. Returns shared.ErrConcurrencyConflict otherwise.
	Transition(ctx context.Context, tenantID uuid.UUID, t BoostTransition) error
}

// RedemptionRepository reads parent redemptions
type RedemptionRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Redemption, error)
}
