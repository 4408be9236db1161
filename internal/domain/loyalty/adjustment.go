package loyalty

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AdjustmentType classifies a manual correction to a creator's counters
type AdjustmentType string

const (
	AdjustmentTypeManualSale AdjustmentType = "manual_sale"
	AdjustmentTypeRefund     AdjustmentType = "refund"
	AdjustmentTypeBonus      AdjustmentType = "bonus"
	AdjustmentTypeCorrection AdjustmentType = "correction"
)

// IsValid checks if the type is a known AdjustmentType
func (t AdjustmentType) IsValid() bool {
	switch t {
	case AdjustmentTypeManualSale, AdjustmentTypeRefund, AdjustmentTypeBonus, AdjustmentTypeCorrection:
		return true
	}
	return false
}

// SalesAdjustment is a queued manual correction. It is applied once, by the
// checkpoint pass, into both the lifetime counters and the manual adjustment totals.
type SalesAdjustment struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	UserID         uuid.UUID       `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	AmountUnits    int64           `json:"amount_units"`
	Reason         string          `json:"reason"`
	AdjustmentType AdjustmentType  `json:"adjustment_type"`
	AdjustedBy     uuid.UUID       `json:"adjusted_by"`
	CreatedAt      time.Time       `json:"created_at"`
	AppliedAt      *time.Time      `json:"applied_at"`
}

// NewSalesAdjustment validates and creates a pending adjustment
func NewSalesAdjustment(
	tenantID, userID uuid.UUID,
	amount decimal.Decimal,
	units int64,
	reason string,
	adjustmentType AdjustmentType,
	adjustedBy uuid.UUID,
	now time.Time,
) (*SalesAdjustment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if amount.IsZero() && units == 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Adjustment must change sales or units")
	}
	if !adjustmentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ADJUSTMENT_TYPE", "Invalid adjustment type")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Adjustment reason is required")
	}
	if len(reason) > 500 {
		return nil, shared.NewDomainError("INVALID_REASON", "Adjustment reason cannot exceed 500 characters")
	}

	return &SalesAdjustment{
		ID:             uuid.New(),
		TenantID:       tenantID,
		UserID:         userID,
		Amount:         amount,
		AmountUnits:    units,
		Reason:         reason,
		AdjustmentType: adjustmentType,
		AdjustedBy:     adjustedBy,
		CreatedAt:      now,
	}, nil
}

// IsApplied reports whether the adjustment has been folded into counters
func (a *SalesAdjustment) IsApplied() bool {
	return a.AppliedAt != nil
}

// Delta returns the adjustment as a counter pair
func (a *SalesAdjustment) Delta() Counters {
	return Counters{Sales: a.Amount, Units: a.AmountUnits}
}

// PerformanceDelta is a staged increment written by the external ingestion
// pipeline and consumed by the daily run.
type PerformanceDelta struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	UserID     uuid.UUID       `json:"user_id"`
	Sales      decimal.Decimal `json:"sales"`
	Units      int64           `json:"units"`
	Source     string          `json:"source"`
	RecordedAt time.Time       `json:"recorded_at"`
	ConsumedAt *time.Time      `json:"consumed_at"`
}

// IngestResult summarises one ingestion stage
type IngestResult struct {
	DeltasConsumed int      `json:"deltas_consumed"`
	UsersUpdated   int      `json:"users_updated"`
	Errors         []string `json:"errors,omitempty"`
}
