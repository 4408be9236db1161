package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 15, 2, 0, 0, 0, time.UTC)

// setupLoyaltyTestDB opens an in-memory SQLite database with every loyalty table.
// A single connection keeps the in-memory database alive across transactions.
func setupLoyaltyTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.LoyaltyProgramModel{},
		&models.TierModel{},
		&models.UserTierStateModel{},
		&models.CheckpointRecordModel{},
		&models.SalesAdjustmentModel{},
		&models.PerformanceDeltaModel{},
		&models.RedemptionModel{},
		&models.CommissionBoostModel{},
		&models.BoostHistoryModel{},
	)
	require.NoError(t, err)
	return db
}

func testLadder() []loyalty.Tier {
	return []loyalty.Tier{
		{Code: "bronze", Name: "Bronze", Order: 1, SalesThreshold: decimal.Zero},
		{Code: "silver", Name: "Silver", Order: 2, SalesThreshold: decimal.NewFromInt(1000), UnitsThreshold: 50},
		{Code: "gold", Name: "Gold", Order: 3, SalesThreshold: decimal.NewFromInt(5000), UnitsThreshold: 200},
		{Code: "platinum", Name: "Platinum", Order: 4, SalesThreshold: decimal.NewFromInt(20000), UnitsThreshold: 1000, CheckpointExempt: true},
	}
}

// seedProgram stores an active sales program with the test ladder
func seedProgram(t *testing.T, db *gorm.DB, tenantID uuid.UUID) {
	t.Helper()
	repo := NewGormProgramRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.SaveProgram(ctx, &loyalty.ProgramSettings{
		TenantID:         tenantID,
		Name:             "Creator Rewards",
		Metric:           loyalty.VIPMetricSales,
		CheckpointMonths: 4,
		Status:           loyalty.ProgramStatusActive,
	}))
	require.NoError(t, repo.ReplaceTiers(ctx, tenantID, loyalty.VIPMetricSales, testLadder()))
}

// seedUser enrolls a user on tier with the given lifetime sales and checkpoint
func seedUser(t *testing.T, db *gorm.DB, tenantID uuid.UUID, tier string, lifetime int64, next *time.Time) loyalty.UserTierState {
	t.Helper()
	state := loyalty.UserTierState{
		UserID:            uuid.New(),
		TenantID:          tenantID,
		Handle:            "creator-" + tier,
		Email:             tier + "@example.com",
		CurrentTier:       tier,
		TierAchievedAt:    testNow.AddDate(0, -4, 0),
		NextCheckpointAt:  next,
		WindowStartedAt:   testNow.AddDate(0, -4, 0),
		Lifetime:          loyalty.Counters{Sales: decimal.NewFromInt(lifetime)},
		Windowed:          loyalty.Counters{Sales: decimal.Zero},
		ManualAdjustments: loyalty.Counters{Sales: decimal.Zero},
		CheckpointTarget:  loyalty.Counters{Sales: decimal.Zero},
		Version:           1,
	}
	require.NoError(t, NewGormProgramRepository(db).Enroll(context.Background(), &state))
	return state
}

func timePtr(t time.Time) *time.Time {
	return &t
}
