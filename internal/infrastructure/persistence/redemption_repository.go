package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/loyalty/backend/internal/infrastructure/persistence/models"
	"github.com/loyalty/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormRedemptionRepository implements reward.RedemptionRepository
type GormRedemptionRepository struct {
	db *gorm.DB
}

// NewGormRedemptionRepository creates a new GormRedemptionRepository
func NewGormRedemptionRepository(db *gorm.DB) *GormRedemptionRepository {
	return &GormRedemptionRepository{db: db}
}

// FindByID returns nil, nil when the redemption does not exist in the tenant
func (r *GormRedemptionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*reward.Redemption, error) {
	var model models.RedemptionModel
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create stores a claimed redemption
func (r *GormRedemptionRepository) Create(ctx context.Context, redemption *reward.Redemption) error {
	if redemption.TenantID == uuid.Nil {
		return tenant.ErrTenantIDRequired
	}
	return r.db.WithContext(ctx).Create(models.RedemptionModelFromDomain(redemption)).Error
}

// Ensure GormRedemptionRepository implements reward.RedemptionRepository
var _ reward.RedemptionRepository = (*GormRedemptionRepository)(nil)
