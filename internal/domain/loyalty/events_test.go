package loyalty_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTierChangedEvent(t *testing.T) {
	base := loyalty.CheckpointRecord{
		TenantID:      uuid.New(),
		UserID:        uuid.New(),
		PeriodStart:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		MeasuredValue: decimal.NewFromInt(999),
		TierBefore:    "silver",
		TierAfter:     "bronze",
		CreatedAt:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("maintained produces no event", func(t *testing.T) {
		rec := base
		rec.Status = loyalty.CheckpointStatusMaintained
		e, ok := loyalty.NewTierChangedEvent(rec)
		assert.False(t, ok)
		assert.Nil(t, e)
	})

	t.Run("demotion carries the period", func(t *testing.T) {
		rec := base
		rec.Status = loyalty.CheckpointStatusDemoted
		e, ok := loyalty.NewTierChangedEvent(rec)
		require.True(t, ok)
		assert.Equal(t, loyalty.TierChangeDemotion, e.ChangeType)
		assert.Equal(t, loyalty.EventTypeTierChanged, e.EventType())
		assert.Equal(t, rec.TenantID, e.TenantID())
		require.NotNil(t, e.PeriodStart)
		assert.Equal(t, rec.PeriodStart, *e.PeriodStart)
	})

	t.Run("promotion", func(t *testing.T) {
		rec := base
		rec.Status = loyalty.CheckpointStatusPromoted
		rec.TierBefore, rec.TierAfter = "bronze", "gold"
		e, ok := loyalty.NewTierChangedEvent(rec)
		require.True(t, ok)
		assert.Equal(t, loyalty.TierChangePromotion, e.ChangeType)
		assert.Equal(t, "gold", e.ToTier)
		assert.Nil(t, e.PeriodStart)
	})
}

func TestNewSalesAdjustment(t *testing.T) {
	tenantID, userID, admin := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	adj, err := loyalty.NewSalesAdjustment(tenantID, userID, decimal.NewFromInt(250), 0, " offline sale ", loyalty.AdjustmentTypeManualSale, admin, now)
	require.NoError(t, err)
	assert.Equal(t, "offline sale", adj.Reason)
	assert.False(t, adj.IsApplied())
	assert.True(t, adj.Delta().Sales.Equal(decimal.NewFromInt(250)))

	_, err = loyalty.NewSalesAdjustment(tenantID, userID, decimal.Zero, 0, "nothing", loyalty.AdjustmentTypeBonus, admin, now)
	assert.Error(t, err)

	_, err = loyalty.NewSalesAdjustment(tenantID, userID, decimal.NewFromInt(-10), 0, "refund", loyalty.AdjustmentType("gift"), admin, now)
	assert.Error(t, err)

	_, err = loyalty.NewSalesAdjustment(tenantID, uuid.Nil, decimal.NewFromInt(10), 0, "x", loyalty.AdjustmentTypeBonus, admin, now)
	assert.Error(t, err)

	refund, err := loyalty.NewSalesAdjustment(tenantID, userID, decimal.NewFromInt(-40), -2, "returned", loyalty.AdjustmentTypeRefund, admin, now)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), refund.Delta().Units)
}
