package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/infrastructure/persistence/tenant"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockGormDB opens gorm on the postgres dialector over a sqlmock connection
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gormDB, mock
}

func TestGormPerformanceStore_SQLErrors(t *testing.T) {
	t.Run("program query failure is wrapped", func(t *testing.T) {
		db, mock := newMockGormDB(t)
		store := NewGormPerformanceStore(db)
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "loyalty_programs" WHERE tenant_id = \$1`).
			WithArgs(tenantID, 1).
			WillReturnError(errors.New("connection reset"))

		settings, err := store.GetProgramSettings(context.Background(), tenantID)
		require.Error(t, err)
		assert.Nil(t, settings)
		assert.Contains(t, err.Error(), "failed to load program settings")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("version mismatch rolls back", func(t *testing.T) {
		db, mock := newMockGormDB(t)
		store := NewGormPerformanceStore(db)
		tenantID := uuid.New()
		userID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "user_tier_states" SET .* WHERE tenant_id = \$\d+ AND user_id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := store.UpdateUserTier(context.Background(), tenantID,
			loyalty.TierUpdate{UserID: userID, NewTier: "gold", ExpectedVersion: 3},
			loyalty.CheckpointRecord{ID: uuid.New(), TenantID: tenantID, UserID: userID})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil tenant is rejected before any query", func(t *testing.T) {
		db, mock := newMockGormDB(t)
		store := NewGormPerformanceStore(db)

		_, err := store.GetUsersDueForCheckpoint(context.Background(), uuid.Nil, testNow)
		assert.ErrorIs(t, err, tenant.ErrTenantIDRequired)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProgramRepository_GetAllActiveTenantIDs(t *testing.T) {
	db, mock := newMockGormDB(t)
	repo := NewGormProgramRepository(db)
	first, second := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT "tenant_id" FROM "loyalty_programs" WHERE status = \$1 ORDER BY tenant_id`).
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).
			AddRow(first.String()).
			AddRow(second.String()))

	ids, err := repo.GetAllActiveTenantIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormBoostStore_SQLErrors(t *testing.T) {
	t.Run("status guard miss is a concurrency conflict", func(t *testing.T) {
		db, mock := newMockGormDB(t)
		store := NewGormBoostStore(db)
		tenantID := uuid.New()

		b, _, err := reward.NewCommissionBoost(reward.ScheduleInput{
			TenantID:       tenantID,
			UserID:         uuid.New(),
			RedemptionID:   uuid.New(),
			ActivationDate: reward.DateOf(testNow),
			DurationDays:   7,
			BoostRate:      decimal.NewFromInt(10),
		}, testNow)
		require.NoError(t, err)
		history, err := b.Activate(decimal.NewFromInt(100), testNow)
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "commission_boosts" SET .* WHERE tenant_id = \$\d+ AND id = \$\d+ AND status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = store.Transition(context.Background(), tenantID, reward.BoostTransition{
			Boost:   b,
			From:    reward.BoostStatusScheduled,
			History: history,
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign tenant boost is rejected", func(t *testing.T) {
		db, mock := newMockGormDB(t)
		store := NewGormBoostStore(db)

		b, history, err := reward.NewCommissionBoost(reward.ScheduleInput{
			TenantID:       uuid.New(),
			UserID:         uuid.New(),
			RedemptionID:   uuid.New(),
			ActivationDate: reward.DateOf(testNow),
			DurationDays:   7,
			BoostRate:      decimal.NewFromInt(10),
		}, testNow)
		require.NoError(t, err)

		err = store.Create(context.Background(), uuid.New(), b, history)
		assert.True(t, shared.HasCode(err, "TENANT_MISMATCH"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
