package automation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/application/boost"
	"github.com/loyalty/backend/internal/application/tiering"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/stretchr/testify/mock"
)

// callLog records the order collaborators were invoked in
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

type mockIngestor struct {
	mock.Mock
	log *callLog
}

func (m *mockIngestor) Ingest(ctx context.Context, tenantID uuid.UUID) (*loyalty.IngestResult, error) {
	m.log.add("ingest")
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.IngestResult), args.Error(1)
}

type mockScanner struct {
	mock.Mock
	log *callLog
}

func (m *mockScanner) Scan(ctx context.Context, tenantID uuid.UUID) (*tiering.ScanResult, error) {
	m.log.add("scan")
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tiering.ScanResult), args.Error(1)
}

type mockEvaluator struct {
	mock.Mock
	log *callLog
}

func (m *mockEvaluator) Evaluate(ctx context.Context, tenantID uuid.UUID) (*tiering.EvaluationResult, error) {
	m.log.add("checkpoint")
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tiering.EvaluationResult), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
	log *callLog
}

func (m *mockNotifier) NotifyTierChange(ctx context.Context, event *loyalty.TierChangedEvent) error {
	m.log.add("notify")
	args := m.Called(ctx, event)
	return args.Error(0)
}

type mockBoosts struct {
	mock.Mock
	log *callLog
}

func (m *mockBoosts) result(args mock.Arguments) (*boost.BatchResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*boost.BatchResult), args.Error(1)
}

func (m *mockBoosts) ActivateScheduled(ctx context.Context, tenantID uuid.UUID) (*boost.BatchResult, error) {
	m.log.add("activate")
	return m.result(m.Called(ctx, tenantID))
}

func (m *mockBoosts) ExpireActive(ctx context.Context, tenantID uuid.UUID) (*boost.BatchResult, error) {
	m.log.add("expire")
	return m.result(m.Called(ctx, tenantID))
}

func (m *mockBoosts) TransitionExpiredToPendingInfo(ctx context.Context, tenantID uuid.UUID) (*boost.BatchResult, error) {
	m.log.add("pending_info")
	return m.result(m.Called(ctx, tenantID))
}

type mockTenants struct {
	mock.Mock
}

func (m *mockTenants) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockLock struct {
	mock.Mock
}

func (m *mockLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockLock) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) Archive(ctx context.Context, report *RunReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

type mockAlerts struct {
	mock.Mock
}

func (m *mockAlerts) SendAdminAlert(ctx context.Context, alert Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}
