package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/infrastructure/persistence/models"
	"github.com/loyalty/backend/internal/infrastructure/persistence/tenant"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormBoostStore implements reward.BoostStore
type GormBoostStore struct {
	db *gorm.DB
}

// NewGormBoostStore creates a new GormBoostStore
func NewGormBoostStore(db *gorm.DB) *GormBoostStore {
	return &GormBoostStore{db: db}
}

// boostWithSales is a boost row joined with its owner's lifetime sales
type boostWithSales struct {
	models.CommissionBoostModel
	CurrentSales decimal.NullDecimal
}

// candidates reads boosts joined with the owner's tier state, so the sales
// snapshot comes from the same statement as the boost. Boosts whose owner has
// no tier state are still returned, flagged OwnerMissing.
func (s *GormBoostStore) candidates(ctx context.Context, tenantID uuid.UUID, where string, args ...any) ([]reward.BoostCandidate, error) {
	var rows []boostWithSales
	err := s.db.WithContext(ctx).
		Table("commission_boosts AS b").
		Select("b.*, s.lifetime_sales AS current_sales").
		Joins("LEFT JOIN user_tier_states s ON s.tenant_id = b.tenant_id AND s.user_id = b.user_id").
		Scopes(tenant.Column("b.tenant_id", tenantID)).
		Where(where, args...).
		Order("b.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]reward.BoostCandidate, len(rows))
	for i := range rows {
		out[i] = reward.BoostCandidate{
			Boost:        *rows[i].ToDomain(),
			CurrentSales: rows[i].CurrentSales.Decimal,
			OwnerMissing: !rows[i].CurrentSales.Valid,
		}
	}
	return out, nil
}

// FindScheduledDue returns scheduled boosts whose activation date is on or before today
func (s *GormBoostStore) FindScheduledDue(ctx context.Context, tenantID uuid.UUID, today time.Time) ([]reward.BoostCandidate, error) {
	out, err := s.candidates(ctx, tenantID,
		"b.status = ? AND b.scheduled_activation_date <= ?", string(reward.BoostStatusScheduled), today)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled boosts: %w", err)
	}
	return out, nil
}

// FindActiveExpired returns active boosts whose expires_at is at or before now
func (s *GormBoostStore) FindActiveExpired(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]reward.BoostCandidate, error) {
	out, err := s.candidates(ctx, tenantID,
		"b.status = ? AND b.expires_at <= ?", string(reward.BoostStatusActive), now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring boosts: %w", err)
	}
	return out, nil
}

// FindExpiredPendingTransition returns expired boosts that expired at or before expiredBefore
func (s *GormBoostStore) FindExpiredPendingTransition(ctx context.Context, tenantID uuid.UUID, expiredBefore time.Time) ([]reward.CommissionBoost, error) {
	var rows []models.CommissionBoostModel
	err := s.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("status = ? AND expired_at <= ?", string(reward.BoostStatusExpired), expiredBefore).
		Order("expired_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired boosts: %w", err)
	}

	boosts := make([]reward.CommissionBoost, len(rows))
	for i := range rows {
		boosts[i] = *rows[i].ToDomain()
	}
	return boosts, nil
}

// FindByID returns nil, nil when the boost does not exist in the tenant
func (s *GormBoostStore) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*reward.CommissionBoost, error) {
	return s.findOne(ctx, tenantID, "id = ?", id)
}

// FindByRedemption returns nil, nil when the redemption has no boost
func (s *GormBoostStore) FindByRedemption(ctx context.Context, tenantID, redemptionID uuid.UUID) (*reward.CommissionBoost, error) {
	return s.findOne(ctx, tenantID, "redemption_id = ?", redemptionID)
}

func (s *GormBoostStore) findOne(ctx context.Context, tenantID uuid.UUID, where string, args ...any) (*reward.CommissionBoost, error) {
	var model models.CommissionBoostModel
	err := s.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where(where, args...).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListHistory returns the boost's history oldest first
func (s *GormBoostStore) ListHistory(ctx context.Context, tenantID, boostID uuid.UUID) ([]reward.BoostHistory, error) {
	var rows []models.BoostHistoryModel
	err := s.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("boost_id = ?", boostID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	history := make([]reward.BoostHistory, len(rows))
	for i := range rows {
		history[i] = rows[i].ToDomain()
	}
	return history, nil
}

// Create inserts a new boost with its first history row
func (s *GormBoostStore) Create(ctx context.Context, tenantID uuid.UUID, boost *reward.CommissionBoost, history *reward.BoostHistory) error {
	if tenantID == uuid.Nil {
		return tenant.ErrTenantIDRequired
	}
	if !boost.BelongsTo(tenantID) || history.TenantID != tenantID {
		return shared.NewDomainError("TENANT_MISMATCH", "Boost does not belong to tenant")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.CommissionBoostModelFromDomain(boost)).Error; err != nil {
			return fmt.Errorf("failed to create boost: %w", err)
		}
		if err := tx.Create(models.BoostHistoryModelFromDomain(history)).Error; err != nil {
			return fmt.Errorf("failed to write boost history: %w", err)
		}
		return nil
	})
}

// Transition writes the new boost state only if the row is still in t.From,
// then appends the history row and moves the parent redemption when asked
func (s *GormBoostStore) Transition(ctx context.Context, tenantID uuid.UUID, t reward.BoostTransition) error {
	if tenantID == uuid.Nil {
		return tenant.ErrTenantIDRequired
	}
	if t.Boost == nil || t.History == nil {
		return shared.NewDomainError("INVALID_TRANSITION", "Boost and history are required")
	}
	if !t.Boost.BelongsTo(tenantID) || t.History.TenantID != tenantID {
		return shared.NewDomainError("TENANT_MISMATCH", "Boost does not belong to tenant")
	}

	model := models.CommissionBoostModelFromDomain(t.Boost)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CommissionBoostModel{}).
			Where("tenant_id = ? AND id = ? AND status = ?", tenantID, model.ID, string(t.From)).
			Select("*").
			Omit("id", "tenant_id", "created_at").
			Updates(model)
		if res.Error != nil {
			return fmt.Errorf("failed to update boost: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Create(models.BoostHistoryModelFromDomain(t.History)).Error; err != nil {
			return fmt.Errorf("failed to write boost history: %w", err)
		}

		if t.RedemptionStatus == "" {
			return nil
		}
		return moveRedemption(tx, tenantID, t.Boost.RedemptionID, t.RedemptionStatus, t.History.CreatedAt)
	})
}

// moveRedemption sets the parent redemption status and its matching timestamp
func moveRedemption(tx *gorm.DB, tenantID, redemptionID uuid.UUID, status reward.RedemptionStatus, at time.Time) error {
	updates := map[string]any{
		"status":     string(status),
		"updated_at": at,
	}
	switch status {
	case reward.RedemptionStatusFulfilled:
		updates["fulfilled_at"] = at
	case reward.RedemptionStatusConcluded:
		updates["concluded_at"] = at
	}

	res := tx.Model(&models.RedemptionModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, redemptionID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update redemption: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormBoostStore implements reward.BoostStore
var _ reward.BoostStore = (*GormBoostStore)(nil)
