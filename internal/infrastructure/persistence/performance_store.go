package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/infrastructure/persistence/models"
	"github.com/loyalty/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormPerformanceStore implements loyalty.PerformanceStore and loyalty.TierStateReader
type GormPerformanceStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormPerformanceStore creates a new GormPerformanceStore
func NewGormPerformanceStore(db *gorm.DB) *GormPerformanceStore {
	return &GormPerformanceStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// GetProgramSettings returns nil, nil when the tenant has no program
func (r *GormPerformanceStore) GetProgramSettings(ctx context.Context, tenantID uuid.UUID) (*loyalty.ProgramSettings, error) {
	var model models.LoyaltyProgramModel
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load program settings: %w", err)
	}
	return model.ToDomain(), nil
}

// GetTierThresholds returns the tenant's tiers ordered by tier order. Both
// thresholds are loaded whatever the metric; callers pick the one they need.
func (r *GormPerformanceStore) GetTierThresholds(ctx context.Context, tenantID uuid.UUID, _ loyalty.VIPMetric) ([]loyalty.Tier, error) {
	var rows []models.TierModel
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Order("tier_order ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tiers: %w", err)
	}

	tiers := make([]loyalty.Tier, len(rows))
	for i := range rows {
		tiers[i] = rows[i].ToDomain()
	}
	return tiers, nil
}

// ApplyPendingAdjustments applies each pending adjustment in its own transaction.
// A failed adjustment stays pending and is reported in the joined error.
func (r *GormPerformanceStore) ApplyPendingAdjustments(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var pending []models.SalesAdjustmentModel
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("applied_at IS NULL").
		Order("created_at ASC").
		Find(&pending).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list pending adjustments: %w", err)
	}

	applied := 0
	var errs []error
	for i := range pending {
		ok, err := r.applyAdjustment(ctx, &pending[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("adjustment %s: %w", pending[i].ID, err))
			continue
		}
		if ok {
			applied++
		}
	}
	return applied, errors.Join(errs...)
}

// applyAdjustment returns false when another run already applied the row
func (r *GormPerformanceStore) applyAdjustment(ctx context.Context, adj *models.SalesAdjustmentModel) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now()
		mark := tx.Model(&models.SalesAdjustmentModel{}).
			Where("tenant_id = ? AND id = ? AND applied_at IS NULL", adj.TenantID, adj.ID).
			Update("applied_at", now)
		if mark.Error != nil {
			return mark.Error
		}
		if mark.RowsAffected == 0 {
			return nil
		}

		res := tx.Model(&models.UserTierStateModel{}).
			Where("tenant_id = ? AND user_id = ?", adj.TenantID, adj.UserID).
			Updates(map[string]any{
				"lifetime_sales":          gorm.Expr("lifetime_sales + ?", adj.Amount),
				"lifetime_units":          gorm.Expr("lifetime_units + ?", adj.AmountUnits),
				"manual_adjustment_sales": gorm.Expr("manual_adjustment_sales + ?", adj.Amount),
				"manual_adjustment_units": gorm.Expr("manual_adjustment_units + ?", adj.AmountUnits),
				"version":                 gorm.Expr("version + 1"),
				"updated_at":              now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.NewDomainError("USER_NOT_ENROLLED", "User has no tier state")
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// GetUsersDueForCheckpoint returns users whose next checkpoint is at or before
// now, oldest first. Users on exempt tiers never have a checkpoint and are skipped.
func (r *GormPerformanceStore) GetUsersDueForCheckpoint(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]loyalty.UserTierState, error) {
	var rows []models.UserTierStateModel
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("next_checkpoint_at IS NOT NULL AND next_checkpoint_at <= ?", now).
		Order("next_checkpoint_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users due for checkpoint: %w", err)
	}

	users := make([]loyalty.UserTierState, len(rows))
	for i := range rows {
		users[i] = rows[i].ToDomain()
	}
	return users, nil
}

// GetUsersExceedingTier returns users whose lifetime value qualifies them for
// a tier above their current one. Users on a tier code missing from table are
// returned as well so the caller can report them.
func (r *GormPerformanceStore) GetUsersExceedingTier(ctx context.Context, tenantID uuid.UUID, table *loyalty.TierTable) ([]loyalty.PromotionCandidate, error) {
	if table == nil {
		return nil, shared.NewDomainError("TIERS_NOT_CONFIGURED", "Tier table is required")
	}
	floor, ok := table.PromotionFloor()
	if !ok {
		return []loyalty.PromotionCandidate{}, nil
	}

	column := "lifetime_sales"
	if table.Metric() == loyalty.VIPMetricUnits {
		column = "lifetime_units"
	}

	var rows []models.UserTierStateModel
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where(column+" >= ?", floor).
		Where("current_tier <> ?", table.Highest().Code).
		Order(column + " DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list promotion candidates: %w", err)
	}

	metric := table.Metric()
	candidates := make([]loyalty.PromotionCandidate, 0, len(rows))
	for i := range rows {
		state := rows[i].ToDomain()
		value := state.LifetimeValue(metric)
		if current, known := table.ByCode(state.CurrentTier); known &&
			table.HighestQualifying(value).Order <= current.Order {
			continue
		}
		candidates = append(candidates, loyalty.PromotionCandidate{State: state, LifetimeValue: value})
	}
	return candidates, nil
}

// UpdateUserTier writes the tier transition guarded by the expected version and
// appends the checkpoint record in the same transaction
func (r *GormPerformanceStore) UpdateUserTier(ctx context.Context, tenantID uuid.UUID, update loyalty.TierUpdate, record loyalty.CheckpointRecord) error {
	if tenantID == uuid.Nil {
		return tenant.ErrTenantIDRequired
	}
	if record.TenantID != tenantID || record.UserID != update.UserID {
		return shared.NewDomainError("TENANT_MISMATCH", "Checkpoint record does not match the tier update")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.UserTierStateModel{}).
			Where("tenant_id = ? AND user_id = ? AND version = ?", tenantID, update.UserID, update.ExpectedVersion).
			Updates(map[string]any{
				"current_tier":            update.NewTier,
				"tier_achieved_at":        update.TierAchievedAt,
				"next_checkpoint_at":      update.NextCheckpointAt,
				"window_started_at":       update.WindowStartedAt,
				"windowed_sales":          0,
				"windowed_units":          0,
				"manual_adjustment_sales": 0,
				"manual_adjustment_units": 0,
				"checkpoint_target_sales": update.CheckpointTarget.Sales,
				"checkpoint_target_units": update.CheckpointTarget.Units,
				"version":                 gorm.Expr("version + 1"),
				"updated_at":              r.now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update user tier: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Create(models.CheckpointRecordModelFromDomain(&record)).Error; err != nil {
			return fmt.Errorf("failed to write checkpoint record: %w", err)
		}
		return nil
	})
}

// GetUserTierState returns shared.ErrNotFound when the user is not enrolled
func (r *GormPerformanceStore) GetUserTierState(ctx context.Context, tenantID, userID uuid.UUID) (*loyalty.UserTierState, error) {
	var model models.UserTierStateModel
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("user_id = ?", userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	state := model.ToDomain()
	return &state, nil
}

// ListCheckpointRecords returns one page of a user's checkpoint log, newest first
func (r *GormPerformanceStore) ListCheckpointRecords(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]loyalty.CheckpointRecord, int64, error) {
	filter = filter.Normalize()
	byUser := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.CheckpointRecordModel{}).
			Scopes(tenant.Scope(tenantID)).
			Where("user_id = ?", userID)
	}

	var total int64
	if err := byUser().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CheckpointRecordModel
	err := byUser().Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	records := make([]loyalty.CheckpointRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, total, nil
}

// Ensure GormPerformanceStore implements the loyalty ports
var (
	_ loyalty.PerformanceStore = (*GormPerformanceStore)(nil)
	_ loyalty.TierStateReader  = (*GormPerformanceStore)(nil)
)
