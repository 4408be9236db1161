package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/infrastructure/persistence/models"
	"github.com/loyalty/backend/internal/infrastructure/persistence/tenant"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPerformanceIngestor folds staged performance_deltas rows into user
// counters. Each user's deltas are applied in one transaction.
type GormPerformanceIngestor struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormPerformanceIngestor creates a new GormPerformanceIngestor
func NewGormPerformanceIngestor(db *gorm.DB) *GormPerformanceIngestor {
	return &GormPerformanceIngestor{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

type userDeltas struct {
	userID uuid.UUID
	ids    []uuid.UUID
	totals loyalty.Counters
}

// Ingest consumes every unconsumed delta of tenantID. Per-user failures are
// collected in the result and their deltas stay staged for the next run.
func (g *GormPerformanceIngestor) Ingest(ctx context.Context, tenantID uuid.UUID) (*loyalty.IngestResult, error) {
	var rows []models.PerformanceDeltaModel
	err := g.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("consumed_at IS NULL").
		Order("recorded_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list performance deltas: %w", err)
	}

	result := &loyalty.IngestResult{Errors: make([]string, 0)}
	for _, batch := range groupByUser(rows) {
		consumed, err := g.applyUser(ctx, tenantID, batch)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("user %s: %v", batch.userID, err))
			continue
		}
		if consumed > 0 {
			result.DeltasConsumed += consumed
			result.UsersUpdated++
		}
	}
	return result, nil
}

func (g *GormPerformanceIngestor) applyUser(ctx context.Context, tenantID uuid.UUID, batch *userDeltas) (int, error) {
	consumed := 0
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := g.now()
		mark := tx.Model(&models.PerformanceDeltaModel{}).
			Where("tenant_id = ? AND id IN ? AND consumed_at IS NULL", tenantID, batch.ids).
			Update("consumed_at", now)
		if mark.Error != nil {
			return mark.Error
		}
		if int(mark.RowsAffected) != len(batch.ids) {
			// Another run consumed part of the batch; roll back and retry next time
			return shared.ErrConcurrencyConflict
		}

		res := tx.Model(&models.UserTierStateModel{}).
			Where("tenant_id = ? AND user_id = ?", tenantID, batch.userID).
			Updates(map[string]any{
				"lifetime_sales": gorm.Expr("lifetime_sales + ?", batch.totals.Sales),
				"lifetime_units": gorm.Expr("lifetime_units + ?", batch.totals.Units),
				"windowed_sales": gorm.Expr("windowed_sales + ?", batch.totals.Sales),
				"windowed_units": gorm.Expr("windowed_units + ?", batch.totals.Units),
				"version":        gorm.Expr("version + 1"),
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.NewDomainError("USER_NOT_ENROLLED", "User has no tier state")
		}
		consumed = len(batch.ids)
		return nil
	})
	return consumed, err
}

// groupByUser keeps users in order of their earliest delta
func groupByUser(rows []models.PerformanceDeltaModel) []*userDeltas {
	index := make(map[uuid.UUID]*userDeltas)
	ordered := make([]*userDeltas, 0)
	for i := range rows {
		row := &rows[i]
		batch, ok := index[row.UserID]
		if !ok {
			batch = &userDeltas{userID: row.UserID, totals: loyalty.Counters{Sales: decimal.Zero}}
			index[row.UserID] = batch
			ordered = append(ordered, batch)
		}
		batch.ids = append(batch.ids, row.ID)
		batch.totals = batch.totals.Add(loyalty.Counters{Sales: row.Sales, Units: row.Units})
	}
	return ordered
}

// Stage writes a delta for a later Ingest. The order pipeline and tests use it.
func (g *GormPerformanceIngestor) Stage(ctx context.Context, delta *loyalty.PerformanceDelta) error {
	if delta.TenantID == uuid.Nil {
		return tenant.ErrTenantIDRequired
	}
	if delta.ID == uuid.Nil {
		delta.ID = uuid.New()
	}
	if delta.RecordedAt.IsZero() {
		delta.RecordedAt = g.now()
	}
	return g.db.WithContext(ctx).Create(models.PerformanceDeltaModelFromDomain(delta)).Error
}
