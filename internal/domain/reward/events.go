package reward

import (
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	// EventTypeBoostStatusChanged is raised on every boost sub-state change
	EventTypeBoostStatusChanged = "BoostStatusChanged"
	// AggregateTypeCommissionBoost names the boost aggregate
	AggregateTypeCommissionBoost = "CommissionBoost"
)

// BoostStatusChangedEvent is raised when a boost moves between sub-states
type BoostStatusChangedEvent struct {
	shared.BaseDomainEvent
	UserID            uuid.UUID        `json:"user_id"`
	RedemptionID      uuid.UUID        `json:"redemption_id"`
	FromStatus        *BoostStatus     `json:"from_status"`
	ToStatus          BoostStatus      `json:"to_status"`
	BoostRate         decimal.Decimal  `json:"boost_rate"`
	ExpiresAt         *time.Time       `json:"expires_at,omitempty"`
	FinalPayoutAmount *decimal.Decimal `json:"final_payout_amount,omitempty"`
}

// NewBoostStatusChangedEvent snapshots b after a transition from `from`
func NewBoostStatusChangedEvent(b *CommissionBoost, from *BoostStatus, at time.Time) *BoostStatusChangedEvent {
	return &BoostStatusChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeBoostStatusChanged, AggregateTypeCommissionBoost, b.ID, b.TenantID, at),
		UserID:            b.UserID,
		RedemptionID:      b.RedemptionID,
		FromStatus:        from,
		ToStatus:          b.Status,
		BoostRate:         b.BoostRate,
		ExpiresAt:         b.ExpiresAt,
		FinalPayoutAmount: b.FinalPayoutAmount,
	}
}
