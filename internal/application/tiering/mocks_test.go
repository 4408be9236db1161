package tiering

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockPerformanceStore struct {
	mock.Mock
}

func (m *mockPerformanceStore) GetProgramSettings(ctx context.Context, tenantID uuid.UUID) (*loyalty.ProgramSettings, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.ProgramSettings), args.Error(1)
}

func (m *mockPerformanceStore) GetTierThresholds(ctx context.Context, tenantID uuid.UUID, metric loyalty.VIPMetric) ([]loyalty.Tier, error) {
	args := m.Called(ctx, tenantID, metric)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loyalty.Tier), args.Error(1)
}

func (m *mockPerformanceStore) ApplyPendingAdjustments(ctx context.Context, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *mockPerformanceStore) GetUsersDueForCheckpoint(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]loyalty.UserTierState, error) {
	args := m.Called(ctx, tenantID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loyalty.UserTierState), args.Error(1)
}

func (m *mockPerformanceStore) GetUsersExceedingTier(ctx context.Context, tenantID uuid.UUID, table *loyalty.TierTable) ([]loyalty.PromotionCandidate, error) {
	args := m.Called(ctx, tenantID, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loyalty.PromotionCandidate), args.Error(1)
}

func (m *mockPerformanceStore) UpdateUserTier(ctx context.Context, tenantID uuid.UUID, update loyalty.TierUpdate, record loyalty.CheckpointRecord) error {
	args := m.Called(ctx, tenantID, update, record)
	return args.Error(0)
}

var fixedNow = time.Date(2026, 6, 1, 2, 0, 0, 0, time.UTC)

func testClock() time.Time { return fixedNow }

func testTiers(tenantID uuid.UUID) []loyalty.Tier {
	return []loyalty.Tier{
		{ID: uuid.New(), TenantID: tenantID, Code: "bronze", Name: "Bronze", Order: 1, SalesThreshold: decimal.Zero, CheckpointExempt: true},
		{ID: uuid.New(), TenantID: tenantID, Code: "silver", Name: "Silver", Order: 2, SalesThreshold: decimal.NewFromInt(1000), UnitsThreshold: 10},
		{ID: uuid.New(), TenantID: tenantID, Code: "gold", Name: "Gold", Order: 3, SalesThreshold: decimal.NewFromInt(5000), UnitsThreshold: 50},
		{ID: uuid.New(), TenantID: tenantID, Code: "platinum", Name: "Platinum", Order: 4, SalesThreshold: decimal.NewFromInt(20000), UnitsThreshold: 200},
	}
}

func testSettings(tenantID uuid.UUID) *loyalty.ProgramSettings {
	return &loyalty.ProgramSettings{
		TenantID:         tenantID,
		Name:             "Creator Rewards",
		Metric:           loyalty.VIPMetricSales,
		CheckpointMonths: 4,
		Status:           loyalty.ProgramStatusActive,
	}
}

func dueUser(tenantID uuid.UUID, tier string, windowed, manual int64) loyalty.UserTierState {
	achieved := fixedNow.AddDate(0, -4, 0)
	next := fixedNow.Add(-time.Hour)
	return loyalty.UserTierState{
		UserID:            uuid.New(),
		TenantID:          tenantID,
		Handle:            "@creator",
		CurrentTier:       tier,
		TierAchievedAt:    achieved,
		NextCheckpointAt:  &next,
		WindowStartedAt:   achieved,
		Lifetime:          loyalty.Counters{Sales: decimal.NewFromInt(50000)},
		Windowed:          loyalty.Counters{Sales: decimal.NewFromInt(windowed)},
		ManualAdjustments: loyalty.Counters{Sales: decimal.NewFromInt(manual)},
		Version:           2,
	}
}
