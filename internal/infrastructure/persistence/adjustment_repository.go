package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/infrastructure/persistence/models"
	"github.com/loyalty/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormAdjustmentRepository implements loyalty.AdjustmentRepository
type GormAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormAdjustmentRepository creates a new GormAdjustmentRepository
func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

// Create queues an adjustment for the next automation run
func (r *GormAdjustmentRepository) Create(ctx context.Context, adjustment *loyalty.SalesAdjustment) error {
	if adjustment.TenantID == uuid.Nil {
		return tenant.ErrTenantIDRequired
	}
	if err := r.db.WithContext(ctx).Create(models.SalesAdjustmentModelFromDomain(adjustment)).Error; err != nil {
		return fmt.Errorf("failed to queue adjustment: %w", err)
	}
	return nil
}

// ListPending returns unapplied adjustments, oldest first
func (r *GormAdjustmentRepository) ListPending(ctx context.Context, tenantID uuid.UUID) ([]loyalty.SalesAdjustment, error) {
	var rows []models.SalesAdjustmentModel
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("applied_at IS NULL").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	adjustments := make([]loyalty.SalesAdjustment, len(rows))
	for i := range rows {
		adjustments[i] = rows[i].ToDomain()
	}
	return adjustments, nil
}

// Ensure GormAdjustmentRepository implements loyalty.AdjustmentRepository
var _ loyalty.AdjustmentRepository = (*GormAdjustmentRepository)(nil)
