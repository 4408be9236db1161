package boost

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type mockBoostStore struct {
	mock.Mock
}

func (m *mockBoostStore) FindScheduledDue(ctx context.Context, tenantID uuid.UUID, today time.Time) ([]reward.BoostCandidate, error) {
	args := m.Called(ctx, tenantID, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reward.BoostCandidate), args.Error(1)
}

func (m *mockBoostStore) FindActiveExpired(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]reward.BoostCandidate, error) {
	args := m.Called(ctx, tenantID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reward.BoostCandidate), args.Error(1)
}

func (m *mockBoostStore) FindExpiredPendingTransition(ctx context.Context, tenantID uuid.UUID, expiredBefore time.Time) ([]reward.CommissionBoost, error) {
	args := m.Called(ctx, tenantID, expiredBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reward.CommissionBoost), args.Error(1)
}

func (m *mockBoostStore) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*reward.CommissionBoost, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reward.CommissionBoost), args.Error(1)
}

func (m *mockBoostStore) FindByRedemption(ctx context.Context, tenantID, redemptionID uuid.UUID) (*reward.CommissionBoost, error) {
	args := m.Called(ctx, tenantID, redemptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reward.CommissionBoost), args.Error(1)
}

func (m *mockBoostStore) ListHistory(ctx context.Context, tenantID, boostID uuid.UUID) ([]reward.BoostHistory, error) {
	args := m.Called(ctx, tenantID, boostID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reward.BoostHistory), args.Error(1)
}

func (m *mockBoostStore) Create(ctx context.Context, tenantID uuid.UUID, boost *reward.CommissionBoost, history *reward.BoostHistory) error {
	args := m.Called(ctx, tenantID, boost, history)
	return args.Error(0)
}

func (m *mockBoostStore) Transition(ctx context.Context, tenantID uuid.UUID, t reward.BoostTransition) error {
	args := m.Called(ctx, tenantID, t)
	return args.Error(0)
}

type mockRedemptionRepository struct {
	mock.Mock
}

func (m *mockRedemptionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*reward.Redemption, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reward.Redemption), args.Error(1)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// prefixCipher binds ciphertext to a tenant without real cryptography
type prefixCipher struct{}

func (prefixCipher) Encrypt(tenantID uuid.UUID, plaintext string) (string, error) {
	return "enc:" + tenantID.String() + ":" + plaintext, nil
}

func (prefixCipher) Decrypt(tenantID uuid.UUID, ciphertext string) (string, error) {
	prefix := "enc:" + tenantID.String() + ":"
	if !strings.HasPrefix(ciphertext, prefix) {
		return "", errors.New("wrong tenant key")
	}
	return strings.TrimPrefix(ciphertext, prefix), nil
}
