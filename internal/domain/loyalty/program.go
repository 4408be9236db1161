package loyalty

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/shared"
)

// DefaultCheckpointMonths is used when a program does not set its own interval
const DefaultCheckpointMonths = 4

// ProgramStatus represents whether a tenant's loyalty program is running
type ProgramStatus string

const (
	ProgramStatusActive   ProgramStatus = "active"
	ProgramStatusPaused   ProgramStatus = "paused"
	ProgramStatusArchived ProgramStatus = "archived"
)

// ProgramSettings holds per-tenant configuration for tier evaluation
type ProgramSettings struct {
	TenantID         uuid.UUID     `json:"tenant_id"`
	Name             string        `json:"name"`
	Metric           VIPMetric     `json:"vip_metric"`
	CheckpointMonths int           `json:"checkpoint_months"`
	Status           ProgramStatus `json:"status"`
}

// Validate checks that the settings can drive an evaluation
func (p *ProgramSettings) Validate() error {
	if p == nil {
		return shared.NewDomainError(CodeProgramNotConfigured, "Loyalty program is not configured")
	}
	if !p.Metric.IsValid() {
		return shared.NewDomainError(CodeProgramNotConfigured, fmt.Sprintf("Unknown VIP metric %q", p.Metric))
	}
	if p.CheckpointMonths < 1 {
		return shared.NewDomainError(CodeProgramNotConfigured, "Checkpoint interval must be at least one month")
	}
	return nil
}

// NextCheckpoint returns when a user that just transitioned into tier at `at`
// is next due. Checkpoint-exempt tiers have no checkpoint.
func (p *ProgramSettings) NextCheckpoint(tier Tier, at time.Time) *time.Time {
	if tier.CheckpointExempt {
		return nil
	}
	next := at.AddDate(0, p.CheckpointMonths, 0)
	return &next
}
