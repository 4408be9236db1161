package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckpointStatus is the outcome of a single tier evaluation
type CheckpointStatus string

const (
	CheckpointStatusPromoted   CheckpointStatus = "promoted"
	CheckpointStatusMaintained CheckpointStatus = "maintained"
	CheckpointStatusDemoted    CheckpointStatus = "demoted"
)

// IsValid checks if the status is a valid CheckpointStatus
func (s CheckpointStatus) IsValid() bool {
	switch s {
	case CheckpointStatusPromoted, CheckpointStatusMaintained, CheckpointStatusDemoted:
		return true
	}
	return false
}

// String returns the string representation of CheckpointStatus
func (s CheckpointStatus) String() string {
	return string(s)
}

// IsTierChange reports whether the status moved the user to a different tier
func (s CheckpointStatus) IsTierChange() bool {
	return s == CheckpointStatusPromoted || s == CheckpointStatusDemoted
}

// DetermineStatus compares tier orders before and after an evaluation
func DetermineStatus(beforeOrder, afterOrder int) CheckpointStatus {
	switch {
	case afterOrder > beforeOrder:
		return CheckpointStatusPromoted
	case afterOrder < beforeOrder:
		return CheckpointStatusDemoted
	default:
		return CheckpointStatusMaintained
	}
}

// CheckpointSource tells which pass produced a checkpoint record
type CheckpointSource string

const (
	// CheckpointSourcePeriodic is the scheduled windowed evaluation
	CheckpointSourcePeriodic CheckpointSource = "checkpoint"
	// CheckpointSourceRealTime is the lifetime-value promotion scan
	CheckpointSourceRealTime CheckpointSource = "realtime"
)

// CheckpointRecord is the append-only audit row for one evaluation of one user.
// It is never updated once written.
type CheckpointRecord struct {
	ID               uuid.UUID        `json:"id"`
	TenantID         uuid.UUID        `json:"tenant_id"`
	UserID           uuid.UUID        `json:"user_id"`
	PeriodStart      time.Time        `json:"period_start"`
	PeriodEnd        time.Time        `json:"period_end"`
	Metric           VIPMetric        `json:"metric"`
	MeasuredValue    decimal.Decimal  `json:"measured_value"`
	PeriodCounters   Counters         `json:"period_counters"`
	AppliedThreshold decimal.Decimal  `json:"applied_threshold"`
	TierBefore       string           `json:"tier_before"`
	TierAfter        string           `json:"tier_after"`
	Status           CheckpointStatus `json:"status"`
	Source           CheckpointSource `json:"source"`
	CreatedAt        time.Time        `json:"created_at"`
}
