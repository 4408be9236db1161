package program

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockProgramWriter struct {
	mock.Mock
}

func (m *mockProgramWriter) SaveProgram(ctx context.Context, settings *loyalty.ProgramSettings) error {
	return m.Called(ctx, settings).Error(0)
}

func (m *mockProgramWriter) ReplaceTiers(ctx context.Context, tenantID uuid.UUID, metric loyalty.VIPMetric, tiers []loyalty.Tier) error {
	return m.Called(ctx, tenantID, metric, tiers).Error(0)
}

func (m *mockProgramWriter) Enroll(ctx context.Context, state *loyalty.UserTierState) error {
	return m.Called(ctx, state).Error(0)
}

type mockProgramReader struct {
	mock.Mock
}

func (m *mockProgramReader) GetProgramSettings(ctx context.Context, tenantID uuid.UUID) (*loyalty.ProgramSettings, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.ProgramSettings), args.Error(1)
}

func (m *mockProgramReader) GetTierThresholds(ctx context.Context, tenantID uuid.UUID, metric loyalty.VIPMetric) ([]loyalty.Tier, error) {
	args := m.Called(ctx, tenantID, metric)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loyalty.Tier), args.Error(1)
}

type mockTierStateReader struct {
	mock.Mock
}

func (m *mockTierStateReader) GetUserTierState(ctx context.Context, tenantID, userID uuid.UUID) (*loyalty.UserTierState, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.UserTierState), args.Error(1)
}

func (m *mockTierStateReader) ListCheckpointRecords(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]loyalty.CheckpointRecord, int64, error) {
	args := m.Called(ctx, tenantID, userID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]loyalty.CheckpointRecord), args.Get(1).(int64), args.Error(2)
}

type mockAdjustmentRepository struct {
	mock.Mock
}

func (m *mockAdjustmentRepository) Create(ctx context.Context, adjustment *loyalty.SalesAdjustment) error {
	return m.Called(ctx, adjustment).Error(0)
}

func (m *mockAdjustmentRepository) ListPending(ctx context.Context, tenantID uuid.UUID) ([]loyalty.SalesAdjustment, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loyalty.SalesAdjustment), args.Error(1)
}

type mockStager struct {
	mock.Mock
}

func (m *mockStager) Stage(ctx context.Context, delta *loyalty.PerformanceDelta) error {
	return m.Called(ctx, delta).Error(0)
}

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	writer      *mockProgramWriter
	reader      *mockProgramReader
	states      *mockTierStateReader
	adjustments *mockAdjustmentRepository
	stager      *mockStager
	svc         *Service
}

func newFixture() *fixture {
	f := &fixture{
		writer:      new(mockProgramWriter),
		reader:      new(mockProgramReader),
		states:      new(mockTierStateReader),
		adjustments: new(mockAdjustmentRepository),
		stager:      new(mockStager),
	}
	f.svc = NewService(ServiceConfig{
		Programs:    f.writer,
		Reader:      f.reader,
		States:      f.states,
		Adjustments: f.adjustments,
		Stager:      f.stager,
		Logger:      zap.NewNop(),
	}).WithClock(func() time.Time { return fixedNow })
	return f
}

func ladder(tenantID uuid.UUID) []loyalty.Tier {
	return []loyalty.Tier{
		{TenantID: tenantID, Code: "bronze", Name: "Bronze", Order: 1, SalesThreshold: decimal.Zero},
		{TenantID: tenantID, Code: "silver", Name: "Silver", Order: 2, SalesThreshold: decimal.NewFromInt(1000)},
		{TenantID: tenantID, Code: "gold", Name: "Gold", Order: 3, SalesThreshold: decimal.NewFromInt(5000), CheckpointExempt: true},
	}
}

func (f *fixture) withProgram(tenantID uuid.UUID) {
	f.reader.On("GetProgramSettings", mock.Anything, tenantID).Return(&loyalty.ProgramSettings{
		TenantID: tenantID, Name: "Creators", Metric: loyalty.VIPMetricSales,
		CheckpointMonths: 4, Status: loyalty.ProgramStatusActive,
	}, nil)
	f.reader.On("GetTierThresholds", mock.Anything, tenantID, loyalty.VIPMetricSales).Return(ladder(tenantID), nil)
}

func TestService_ConfigureProgram(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("stores settings then ladder", func(t *testing.T) {
		f := newFixture()
		f.writer.On("SaveProgram", mock.Anything, mock.MatchedBy(func(s *loyalty.ProgramSettings) bool {
			return s.TenantID == tenantID && s.CheckpointMonths == loyalty.DefaultCheckpointMonths &&
				s.Status == loyalty.ProgramStatusActive
		})).Return(nil)
		f.writer.On("ReplaceTiers", mock.Anything, tenantID, loyalty.VIPMetricSales,
			mock.MatchedBy(func(tiers []loyalty.Tier) bool { return len(tiers) == 2 && tiers[0].ID != uuid.Nil })).
			Return(nil)

		view, err := f.svc.ConfigureProgram(ctx, tenantID, ConfigureProgramInput{
			Name:   " Creators ",
			Metric: loyalty.VIPMetricSales,
			Tiers: []TierInput{
				{Code: "silver", Name: "Silver", Order: 2, SalesThreshold: decimal.NewFromInt(1000)},
				{Code: "bronze", Name: "Bronze", Order: 1},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Creators", view.Settings.Name)
		require.Len(t, view.Tiers, 2)
		assert.Equal(t, "bronze", view.Tiers[0].Code)
		f.writer.AssertExpectations(t)
	})

	t.Run("rejects a broken ladder before writing", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ConfigureProgram(ctx, tenantID, ConfigureProgramInput{
			Name:   "Creators",
			Metric: loyalty.VIPMetricSales,
			Tiers:  []TierInput{{Code: "bronze", Order: 1, SalesThreshold: decimal.NewFromInt(10)}},
		})
		assert.True(t, shared.HasCode(err, loyalty.CodeInvalidTierTable))
		f.writer.AssertNotCalled(t, "SaveProgram", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown metric", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ConfigureProgram(ctx, tenantID, ConfigureProgramInput{Name: "Creators", Metric: "views"})
		assert.True(t, loyalty.IsConfigurationError(err))
	})
}

func TestService_EnrollCreator(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("starts on the floor tier", func(t *testing.T) {
		f := newFixture()
		f.withProgram(tenantID)
		f.states.On("GetUserTierState", mock.Anything, tenantID, userID).Return(nil, shared.ErrNotFound)
		f.writer.On("Enroll", mock.Anything, mock.AnythingOfType("*loyalty.UserTierState")).Return(nil)

		state, err := f.svc.EnrollCreator(ctx, tenantID, EnrollCreatorInput{UserID: userID, Handle: "@maya", Email: "maya@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "bronze", state.CurrentTier)
		require.NotNil(t, state.NextCheckpointAt)
		assert.True(t, state.NextCheckpointAt.Equal(fixedNow.AddDate(0, 4, 0)))
		assert.True(t, state.WindowStartedAt.Equal(fixedNow))
		assert.Equal(t, 1, state.Version)
	})

	t.Run("already enrolled", func(t *testing.T) {
		f := newFixture()
		f.withProgram(tenantID)
		f.states.On("GetUserTierState", mock.Anything, tenantID, userID).
			Return(&loyalty.UserTierState{UserID: userID, CurrentTier: "silver"}, nil)

		_, err := f.svc.EnrollCreator(ctx, tenantID, EnrollCreatorInput{UserID: userID, Handle: "@maya"})
		assert.True(t, shared.HasCode(err, "ALREADY_EXISTS"))
		f.writer.AssertNotCalled(t, "Enroll", mock.Anything, mock.Anything)
	})

	t.Run("handle required", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.EnrollCreator(ctx, tenantID, EnrollCreatorInput{UserID: userID, Handle: "  "})
		assert.True(t, shared.HasCode(err, "INVALID_HANDLE"))
	})

	t.Run("program missing", func(t *testing.T) {
		f := newFixture()
		f.reader.On("GetProgramSettings", mock.Anything, tenantID).Return(nil, nil)

		_, err := f.svc.EnrollCreator(ctx, tenantID, EnrollCreatorInput{UserID: userID, Handle: "@maya"})
		assert.True(t, shared.HasCode(err, loyalty.CodeProgramNotConfigured))
	})
}

func TestService_QueueAdjustment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()
	admin := uuid.New()

	t.Run("queues for an enrolled creator", func(t *testing.T) {
		f := newFixture()
		f.states.On("GetUserTierState", mock.Anything, tenantID, userID).Return(&loyalty.UserTierState{UserID: userID}, nil)
		f.adjustments.On("Create", mock.Anything, mock.MatchedBy(func(a *loyalty.SalesAdjustment) bool {
			return a.UserID == userID && a.Amount.Equal(decimal.NewFromInt(-120)) && a.AppliedAt == nil
		})).Return(nil)

		adj, err := f.svc.QueueAdjustment(ctx, tenantID, QueueAdjustmentInput{
			UserID: userID, Amount: decimal.NewFromInt(-120), Reason: "Refunded order",
			Type: loyalty.AdjustmentTypeRefund, AdjustedBy: admin,
		})
		require.NoError(t, err)
		assert.Equal(t, admin, adj.AdjustedBy)
		f.adjustments.AssertExpectations(t)
	})

	t.Run("unknown creator", func(t *testing.T) {
		f := newFixture()
		f.states.On("GetUserTierState", mock.Anything, tenantID, userID).Return(nil, shared.ErrNotFound)

		_, err := f.svc.QueueAdjustment(ctx, tenantID, QueueAdjustmentInput{
			UserID: userID, Amount: decimal.NewFromInt(10), Reason: "x", Type: loyalty.AdjustmentTypeBonus, AdjustedBy: admin,
		})
		assert.True(t, shared.HasCode(err, "NOT_FOUND"))
	})

	t.Run("invalid type is rejected without writing", func(t *testing.T) {
		f := newFixture()
		f.states.On("GetUserTierState", mock.Anything, tenantID, userID).Return(&loyalty.UserTierState{UserID: userID}, nil)

		_, err := f.svc.QueueAdjustment(ctx, tenantID, QueueAdjustmentInput{
			UserID: userID, Amount: decimal.NewFromInt(10), Reason: "x", Type: "gift", AdjustedBy: admin,
		})
		assert.True(t, shared.HasCode(err, "INVALID_ADJUSTMENT_TYPE"))
		f.adjustments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestService_RecordPerformance(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()

	f := newFixture()
	f.stager.On("Stage", mock.Anything, mock.MatchedBy(func(d *loyalty.PerformanceDelta) bool {
		return d.TenantID == tenantID && d.RecordedAt.Equal(fixedNow) && d.Units == 3
	})).Return(nil)

	delta, err := f.svc.RecordPerformance(ctx, tenantID, RecordPerformanceInput{
		UserID: userID, Sales: decimal.NewFromFloat(59.97), Units: 3, Source: "shop",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, delta.ID)

	_, err = f.svc.RecordPerformance(ctx, tenantID, RecordPerformanceInput{UserID: userID})
	assert.True(t, shared.HasCode(err, "INVALID_AMOUNT"))
	f.stager.AssertNumberOfCalls(t, "Stage", 1)
}

func TestService_RecordPerformance_StageError(t *testing.T) {
	f := newFixture()
	f.stager.On("Stage", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := f.svc.RecordPerformance(context.Background(), uuid.New(), RecordPerformanceInput{
		UserID: uuid.New(), Units: 1,
	})
	assert.ErrorContains(t, err, "db down")
}

func TestService_GetTierStatus(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("silver creator sees distance to gold", func(t *testing.T) {
		f := newFixture()
		f.withProgram(tenantID)
		f.states.On("GetUserTierState", mock.Anything, tenantID, userID).Return(&loyalty.UserTierState{
			UserID:            userID,
			CurrentTier:       "silver",
			Lifetime:          loyalty.Counters{Sales: decimal.NewFromInt(3200)},
			Windowed:          loyalty.Counters{Sales: decimal.NewFromInt(700)},
			ManualAdjustments: loyalty.Counters{Sales: decimal.NewFromInt(50)},
			CheckpointTarget:  loyalty.Counters{Sales: decimal.NewFromInt(1000)},
		}, nil)

		status, err := f.svc.GetTierStatus(ctx, tenantID, userID)
		require.NoError(t, err)
		assert.Equal(t, "silver", status.Tier.Code)
		require.NotNil(t, status.NextTier)
		assert.Equal(t, "gold", status.NextTier.Code)
		assert.True(t, status.RemainingToNext.Equal(decimal.NewFromInt(1800)))
		assert.True(t, status.CheckpointValue.Equal(decimal.NewFromInt(750)))
		assert.True(t, status.CheckpointGoal.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("top tier has no next tier", func(t *testing.T) {
		f := newFixture()
		f.withProgram(tenantID)
		f.states.On("GetUserTierState", mock.Anything, tenantID, userID).
			Return(&loyalty.UserTierState{UserID: userID, CurrentTier: "gold"}, nil)

		status, err := f.svc.GetTierStatus(ctx, tenantID, userID)
		require.NoError(t, err)
		assert.Nil(t, status.NextTier)
		assert.Nil(t, status.RemainingToNext)
	})

	t.Run("not enrolled", func(t *testing.T) {
		f := newFixture()
		f.states.On("GetUserTierState", mock.Anything, tenantID, userID).Return(nil, shared.ErrNotFound)

		_, err := f.svc.GetTierStatus(ctx, tenantID, userID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_ListCheckpointHistory_NormalizesFilter(t *testing.T) {
	f := newFixture()
	tenantID := uuid.New()
	userID := uuid.New()
	f.states.On("ListCheckpointRecords", mock.Anything, tenantID, userID, shared.Filter{Page: 1, PageSize: 20}).
		Return([]loyalty.CheckpointRecord{{UserID: userID}}, int64(1), nil)

	records, total, err := f.svc.ListCheckpointHistory(context.Background(), tenantID, userID, shared.Filter{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int64(1), total)
}
