package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/application/automation"
	boostapp "github.com/loyalty/backend/internal/application/boost"
	programapp "github.com/loyalty/backend/internal/application/program"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type mockBoostService struct {
	mock.Mock
}

func (m *mockBoostService) ScheduleBoost(ctx context.Context, tenantID uuid.UUID, in boostapp.ScheduleBoostInput) (*reward.CommissionBoost, error) {
	args := m.Called(ctx, tenantID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reward.CommissionBoost), args.Error(1)
}

func (m *mockBoostService) SubmitPaymentInfo(ctx context.Context, tenantID uuid.UUID, in boostapp.SubmitPaymentInfoInput) (*reward.CommissionBoost, error) {
	args := m.Called(ctx, tenantID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reward.CommissionBoost), args.Error(1)
}

func (m *mockBoostService) GetPaymentInfo(ctx context.Context, tenantID, userID, boostID uuid.UUID) (*boostapp.PaymentInfo, error) {
	args := m.Called(ctx, tenantID, userID, boostID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*boostapp.PaymentInfo), args.Error(1)
}

func (m *mockBoostService) GetBoost(ctx context.Context, tenantID, userID, boostID uuid.UUID) (*boostapp.BoostDetail, error) {
	args := m.Called(ctx, tenantID, userID, boostID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*boostapp.BoostDetail), args.Error(1)
}

func (m *mockBoostService) MarkPayoutFulfilled(ctx context.Context, tenantID, boostID, actor uuid.UUID) (*reward.CommissionBoost, error) {
	args := m.Called(ctx, tenantID, boostID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reward.CommissionBoost), args.Error(1)
}

type mockProgramService struct {
	mock.Mock
}

func (m *mockProgramService) ConfigureProgram(ctx context.Context, tenantID uuid.UUID, in programapp.ConfigureProgramInput) (*programapp.ProgramView, error) {
	args := m.Called(ctx, tenantID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*programapp.ProgramView), args.Error(1)
}

func (m *mockProgramService) GetProgram(ctx context.Context, tenantID uuid.UUID) (*programapp.ProgramView, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*programapp.ProgramView), args.Error(1)
}

func (m *mockProgramService) EnrollCreator(ctx context.Context, tenantID uuid.UUID, in programapp.EnrollCreatorInput) (*loyalty.UserTierState, error) {
	args := m.Called(ctx, tenantID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.UserTierState), args.Error(1)
}

func (m *mockProgramService) QueueAdjustment(ctx context.Context, tenantID uuid.UUID, in programapp.QueueAdjustmentInput) (*loyalty.SalesAdjustment, error) {
	args := m.Called(ctx, tenantID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.SalesAdjustment), args.Error(1)
}

func (m *mockProgramService) ListPendingAdjustments(ctx context.Context, tenantID uuid.UUID) ([]loyalty.SalesAdjustment, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loyalty.SalesAdjustment), args.Error(1)
}

func (m *mockProgramService) RecordPerformance(ctx context.Context, tenantID uuid.UUID, in programapp.RecordPerformanceInput) (*loyalty.PerformanceDelta, error) {
	args := m.Called(ctx, tenantID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.PerformanceDelta), args.Error(1)
}

func (m *mockProgramService) GetTierStatus(ctx context.Context, tenantID, userID uuid.UUID) (*programapp.TierStatus, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*programapp.TierStatus), args.Error(1)
}

func (m *mockProgramService) ListCheckpointHistory(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]loyalty.CheckpointRecord, int64, error) {
	args := m.Called(ctx, tenantID, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]loyalty.CheckpointRecord), args.Get(1).(int64), args.Error(2)
}

type mockTrigger struct {
	mock.Mock
}

func (m *mockTrigger) TriggerNow(ctx context.Context) (*automation.AggregateReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*automation.AggregateReport), args.Error(1)
}
