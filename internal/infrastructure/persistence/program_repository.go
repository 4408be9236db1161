package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/infrastructure/persistence/models"
	"github.com/loyalty/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProgramRepository manages loyalty programs and their tier ladders
type GormProgramRepository struct {
	db *gorm.DB
}

// NewGormProgramRepository creates a new GormProgramRepository
func NewGormProgramRepository(db *gorm.DB) *GormProgramRepository {
	return &GormProgramRepository{db: db}
}

// GetAllActiveTenantIDs returns every tenant whose program is active
func (r *GormProgramRepository) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.LoyaltyProgramModel{}).
		Where("status = ?", string(loyalty.ProgramStatusActive)).
		Order("tenant_id").
		Pluck("tenant_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}
	return ids, nil
}

// SaveProgram creates or replaces the tenant's program settings
func (r *GormProgramRepository) SaveProgram(ctx context.Context, settings *loyalty.ProgramSettings) error {
	if settings.TenantID == uuid.Nil {
		return tenant.ErrTenantIDRequired
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	model := &models.LoyaltyProgramModel{CreatedAt: now, UpdatedAt: now}
	model.FromDomain(settings)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "vip_metric", "checkpoint_months", "status", "updated_at"}),
	}).Create(model).Error
}

// ReplaceTiers swaps the tenant's whole ladder in one transaction. The ladder
// is validated as a TierTable first so a broken ladder is never stored.
func (r *GormProgramRepository) ReplaceTiers(ctx context.Context, tenantID uuid.UUID, metric loyalty.VIPMetric, tiers []loyalty.Tier) error {
	if tenantID == uuid.Nil {
		return tenant.ErrTenantIDRequired
	}
	if _, err := loyalty.NewTierTable(metric, tiers); err != nil {
		return err
	}

	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(tenant.Scope(tenantID)).Delete(&models.TierModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear tiers: %w", err)
		}
		for _, t := range tiers {
			t.TenantID = tenantID
			if err := tx.Create(models.TierModelFromDomain(t, now)).Error; err != nil {
				return fmt.Errorf("failed to create tier %s: %w", t.Code, err)
			}
		}
		return nil
	})
}

// Enroll creates the user's tier state row
func (r *GormProgramRepository) Enroll(ctx context.Context, state *loyalty.UserTierState) error {
	if state.TenantID == uuid.Nil {
		return tenant.ErrTenantIDRequired
	}
	now := time.Now().UTC()
	model := &models.UserTierStateModel{CreatedAt: now, UpdatedAt: now}
	model.FromDomain(state)
	return r.db.WithContext(ctx).Create(model).Error
}

// Ensure GormProgramRepository implements loyalty.ProgramRepository
var _ loyalty.ProgramRepository = (*GormProgramRepository)(nil)
