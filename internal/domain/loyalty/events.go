package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EventTypeTierChanged is published for every promotion or demotion
const EventTypeTierChanged = "TierChanged"

// AggregateTypeUserTier names the aggregate that tier events belong to
const AggregateTypeUserTier = "UserTier"

// TierChangeType distinguishes the copy a notification should use
type TierChangeType string

const (
	TierChangePromotion TierChangeType = "promotion"
	TierChangeDemotion  TierChangeType = "demotion"
)

// TierChangedEvent is raised when a user's tier moves up or down.
// It is never raised for a maintained tier.
type TierChangedEvent struct {
	shared.BaseDomainEvent
	UserID      uuid.UUID        `json:"user_id"`
	FromTier    string           `json:"from_tier"`
	ToTier      string           `json:"to_tier"`
	ChangeType  TierChangeType   `json:"change_type"`
	TotalValue  decimal.Decimal  `json:"total_value"`
	Metric      VIPMetric        `json:"metric"`
	Source      CheckpointSource `json:"source"`
	PeriodStart *time.Time       `json:"period_start,omitempty"`
	PeriodEnd   *time.Time       `json:"period_end,omitempty"`
}

// NewTierChangedEvent builds the event from an audit record.
// Returns false for maintained records.
func NewTierChangedEvent(rec CheckpointRecord) (*TierChangedEvent, bool) {
	var changeType TierChangeType
	switch rec.Status {
	case CheckpointStatusPromoted:
		changeType = TierChangePromotion
	case CheckpointStatusDemoted:
		changeType = TierChangeDemotion
	default:
		return nil, false
	}

	e := &TierChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTierChanged, AggregateTypeUserTier, rec.UserID, rec.TenantID, rec.CreatedAt),
		UserID:          rec.UserID,
		FromTier:        rec.TierBefore,
		ToTier:          rec.TierAfter,
		ChangeType:      changeType,
		TotalValue:      rec.MeasuredValue,
		Metric:          rec.Metric,
		Source:          rec.Source,
	}
	if changeType == TierChangeDemotion {
		start, end := rec.PeriodStart, rec.PeriodEnd
		e.PeriodStart = &start
		e.PeriodEnd = &end
	}
	return e, true
}
