package loyalty

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UserTierState is a creator's position on the tier ladder together with the
// counters that drive it.
type UserTierState struct {
	UserID           uuid.UUID  `json:"user_id"`
	TenantID         uuid.UUID  `json:"tenant_id"`
	Handle           string     `json:"handle"`
	Email            string     `json:"email,omitempty"`
	CurrentTier      string     `json:"current_tier"`
	TierAchievedAt   time.Time  `json:"tier_achieved_at"`
	NextCheckpointAt *time.Time `json:"next_checkpoint_at"`
	// WindowStartedAt is when the windowed counters were last reset
	WindowStartedAt   time.Time `json:"window_started_at"`
	Lifetime          Counters  `json:"lifetime"`
	Windowed          Counters  `json:"windowed"`
	ManualAdjustments Counters  `json:"manual_adjustments"`
	CheckpointTarget  Counters  `json:"checkpoint_target"`
	Version           int       `json:"version"`
}

// CheckpointValue is the windowed counter plus manual adjustments, for metric
func (s *UserTierState) CheckpointValue(metric VIPMetric) decimal.Decimal {
	return s.Windowed.Add(s.ManualAdjustments).Value(metric)
}

// LifetimeValue returns the cumulative counter for metric
func (s *UserTierState) LifetimeValue(metric VIPMetric) decimal.Decimal {
	return s.Lifetime.Value(metric)
}

// IsDueForCheckpoint reports whether the checkpoint period has elapsed at now
func (s *UserTierState) IsDueForCheckpoint(now time.Time) bool {
	return s.NextCheckpointAt != nil && !s.NextCheckpointAt.After(now)
}

// TierUpdate carries a committed tier transition to the store.
// Windowed counters and manual adjustment totals are always reset to zero.
type TierUpdate struct {
	UserID           uuid.UUID
	PreviousTier     string
	NewTier          string
	TierChanged      bool
	TierAchievedAt   time.Time
	NextCheckpointAt *time.Time
	WindowStartedAt  time.Time
	CheckpointTarget Counters
	ExpectedVersion  int
}

// ApplyCheckpoint records a periodic evaluation into the state.
// current is the user's tier before evaluation, qualifying the tier that their
// windowed value reaches.
func (s *UserTierState) ApplyCheckpoint(current, qualifying Tier, settings *ProgramSettings, now time.Time) (TierUpdate, CheckpointRecord) {
	metric := settings.Metric
	record := CheckpointRecord{
		ID:               uuid.New(),
		TenantID:         s.TenantID,
		UserID:           s.UserID,
		PeriodStart:      s.periodStart(),
		PeriodEnd:        now,
		Metric:           metric,
		MeasuredValue:    s.CheckpointValue(metric),
		PeriodCounters:   s.Windowed.Add(s.ManualAdjustments),
		AppliedThreshold: qualifying.Threshold(metric),
		TierBefore:       current.Code,
		TierAfter:        qualifying.Code,
		Status:           DetermineStatus(current.Order, qualifying.Order),
		Source:           CheckpointSourcePeriodic,
		CreatedAt:        now,
	}

	update := s.transition(qualifying, settings, now)
	return update, record
}

// PromoteTo lifts the user to target based on lifetime value. Real-time
// promotion never lowers or holds a tier.
func (s *UserTierState) PromoteTo(current, target Tier, settings *ProgramSettings, now time.Time) (TierUpdate, CheckpointRecord, error) {
	if target.Order <= current.Order {
		return TierUpdate{}, CheckpointRecord{}, shared.NewDomainError("INVALID_PROMOTION",
			fmt.Sprintf("Cannot promote from %s to %s", current.Code, target.Code))
	}

	metric := settings.Metric
	record := CheckpointRecord{
		ID:               uuid.New(),
		TenantID:         s.TenantID,
		UserID:           s.UserID,
		PeriodStart:      s.periodStart(),
		PeriodEnd:        now,
		Metric:           metric,
		MeasuredValue:    s.LifetimeValue(metric),
		PeriodCounters:   s.Lifetime,
		AppliedThreshold: target.Threshold(metric),
		TierBefore:       current.Code,
		TierAfter:        target.Code,
		Status:           CheckpointStatusPromoted,
		Source:           CheckpointSourceRealTime,
		CreatedAt:        now,
	}

	update := s.transition(target, settings, now)
	return update, record, nil
}

func (s *UserTierState) periodStart() time.Time {
	if !s.WindowStartedAt.IsZero() {
		return s.WindowStartedAt
	}
	return s.TierAchievedAt
}

// transition moves the state into tier at now and returns the matching update.
func (s *UserTierState) transition(tier Tier, settings *ProgramSettings, now time.Time) TierUpdate {
	previous := s.CurrentTier
	changed := previous != tier.Code
	expectedVersion := s.Version

	s.CurrentTier = tier.Code
	if changed {
		s.TierAchievedAt = now
	}
	s.NextCheckpointAt = settings.NextCheckpoint(tier, now)
	s.WindowStartedAt = now
	s.Windowed = Counters{Sales: decimal.Zero}
	s.ManualAdjustments = Counters{Sales: decimal.Zero}
	s.CheckpointTarget = tier.Target(settings.Metric)
	s.Version++

	return TierUpdate{
		UserID:           s.UserID,
		PreviousTier:     previous,
		NewTier:          tier.Code,
		TierChanged:      changed,
		TierAchievedAt:   s.TierAchievedAt,
		NextCheckpointAt: s.NextCheckpointAt,
		WindowStartedAt:  now,
		CheckpointTarget: s.CheckpointTarget,
		ExpectedVersion:  expectedVersion,
	}
}

// PromotionCandidate is a user whose lifetime value may qualify for a higher tier
type PromotionCandidate struct {
	State         UserTierState
	LifetimeValue decimal.Decimal
}
