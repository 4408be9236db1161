package program

import (
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/shopspring/decimal"
)

// TierInput is one rung of a ladder being configured
type TierInput struct {
	Code             string
	Name             string
	Order            int
	SalesThreshold   decimal.Decimal
	UnitsThreshold   int64
	CheckpointExempt bool
}

// ConfigureProgramInput replaces a tenant's settings and ladder
type ConfigureProgramInput struct {
	Name             string
	Metric           loyalty.VIPMetric
	CheckpointMonths int
	Status           loyalty.ProgramStatus
	Tiers            []TierInput
}

// ProgramView is a program with its ordered ladder
type ProgramView struct {
	Settings *loyalty.ProgramSettings `json:"settings"`
	Tiers    []loyalty.Tier           `json:"tiers"`
}

// EnrollCreatorInput registers a creator with the program
type EnrollCreatorInput struct {
	UserID uuid.UUID
	Handle string
	Email  string
}

// QueueAdjustmentInput is an admin correction to a creator's counters
type QueueAdjustmentInput struct {
	UserID     uuid.UUID
	Amount     decimal.Decimal
	Units      int64
	Reason     string
	Type       loyalty.AdjustmentType
	AdjustedBy uuid.UUID
}

// RecordPerformanceInput is a sales increment from the order pipeline
type RecordPerformanceInput struct {
	UserID     uuid.UUID
	Sales      decimal.Decimal
	Units      int64
	Source     string
	RecordedAt time.Time
}

// TierStatus is the creator-facing view of their tier
type TierStatus struct {
	State  *loyalty.UserTierState `json:"state"`
	Metric loyalty.VIPMetric      `json:"vip_metric"`
	Tier   loyalty.Tier           `json:"tier"`
	// NextTier is nil at the top of the ladder
	NextTier        *loyalty.Tier    `json:"next_tier,omitempty"`
	LifetimeValue   decimal.Decimal  `json:"lifetime_value"`
	CheckpointValue decimal.Decimal  `json:"checkpoint_value"`
	CheckpointGoal  decimal.Decimal  `json:"checkpoint_goal"`
	RemainingToNext *decimal.Decimal `json:"remaining_to_next,omitempty"`
}

func buildTierStatus(state *loyalty.UserTierState, settings *loyalty.ProgramSettings, table *loyalty.TierTable) *TierStatus {
	metric := settings.Metric
	status := &TierStatus{
		State:           state,
		Metric:          metric,
		LifetimeValue:   state.LifetimeValue(metric),
		CheckpointValue: state.CheckpointValue(metric),
		CheckpointGoal:  state.CheckpointTarget.Value(metric),
	}

	current, ok := table.ByCode(state.CurrentTier)
	if !ok {
		// tier was removed from the ladder since the user reached it
		current = loyalty.Tier{Code: state.CurrentTier, Name: state.CurrentTier, Order: -1}
	}
	status.Tier = current

	for _, t := range table.Tiers() {
		if t.Order > current.Order {
			next := t
			status.NextTier = &next
			remaining := next.Threshold(metric).Sub(status.LifetimeValue)
			if remaining.IsNegative() {
				remaining = decimal.Zero
			}
			status.RemainingToNext = &remaining
			break
		}
	}
	return status
}
