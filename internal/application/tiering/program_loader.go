package tiering

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
)

// loadProgram reads and validates a tenant's settings and tier table.
// Any error here is a configuration error for the whole tenant.
func loadProgram(ctx context.Context, store loyalty.PerformanceStore, tenantID uuid.UUID) (*loyalty.ProgramSettings, *loyalty.TierTable, error) {
	settings, err := store.GetProgramSettings(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("load program settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, err
	}

	tiers, err := store.GetTierThresholds(ctx, tenantID, settings.Metric)
	if err != nil {
		return nil, nil, fmt.Errorf("load tier thresholds: %w", err)
	}
	table, err := loyalty.NewTierTable(settings.Metric, tiers)
	if err != nil {
		return nil, nil, err
	}
	return settings, table, nil
}
