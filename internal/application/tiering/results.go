package tiering

import (
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/shopspring/decimal"
)

// UserError is a per-user failure recorded without stopping the batch
type UserError struct {
	UserID uuid.UUID `json:"user_id"`
	Stage  string    `json:"stage"`
	Error  string    `json:"error"`
}

// UserCheckpointResult is the outcome for one evaluated user
type UserCheckpointResult struct {
	UserID           uuid.UUID                `json:"user_id"`
	TierBefore       string                   `json:"tier_before"`
	TierAfter        string                   `json:"tier_after"`
	Status           loyalty.CheckpointStatus `json:"status"`
	CheckpointValue  decimal.Decimal          `json:"checkpoint_value"`
	AppliedThreshold decimal.Decimal          `json:"applied_threshold"`
	NextCheckpointAt *time.Time               `json:"next_checkpoint_at"`
	Record           loyalty.CheckpointRecord `json:"-"`
}

// EvaluationResult summarises one checkpoint pass over a tenant
type EvaluationResult struct {
	TenantID           uuid.UUID              `json:"tenant_id"`
	Success            bool                   `json:"success"`
	AdjustmentsApplied int                    `json:"adjustments_applied"`
	Evaluated          int                    `json:"evaluated"`
	Promoted           int                    `json:"promoted"`
	Maintained         int                    `json:"maintained"`
	Demoted            int                    `json:"demoted"`
	Results            []UserCheckpointResult `json:"results"`
	Errors             []UserError            `json:"errors"`
	DurationMs         int64                  `json:"duration_ms"`
}

func (r *EvaluationResult) count(status loyalty.CheckpointStatus) {
	switch status {
	case loyalty.CheckpointStatusPromoted:
		r.Promoted++
	case loyalty.CheckpointStatusDemoted:
		r.Demoted++
	default:
		r.Maintained++
	}
}

// Promotion is one real-time tier advance
type Promotion struct {
	UserID        uuid.UUID                `json:"user_id"`
	FromTier      string                   `json:"from_tier"`
	ToTier        string                   `json:"to_tier"`
	LifetimeValue decimal.Decimal          `json:"lifetime_value"`
	PromotedAt    time.Time                `json:"promoted_at"`
	Record        loyalty.CheckpointRecord `json:"-"`
}

// ScanResult summarises one real-time promotion scan over a tenant
type ScanResult struct {
	TenantID   uuid.UUID   `json:"tenant_id"`
	Success    bool        `json:"success"`
	Checked    int         `json:"checked"`
	Promoted   int         `json:"promoted"`
	Promotions []Promotion `json:"promotions"`
	Errors     []UserError `json:"errors"`
	DurationMs int64       `json:"duration_ms"`
}

// TierChanges returns the audit records of every promotion or demotion in the
// two passes, in the order they were committed
func TierChanges(scan *ScanResult, eval *EvaluationResult) []loyalty.CheckpointRecord {
	var out []loyalty.CheckpointRecord
	if scan != nil {
		for _, p := range scan.Promotions {
			out = append(out, p.Record)
		}
	}
	if eval != nil {
		for _, r := range eval.Results {
			if r.Status.IsTierChange() {
				out = append(out, r.Record)
			}
		}
	}
	return out
}
