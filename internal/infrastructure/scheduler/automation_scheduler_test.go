package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/loyalty/backend/internal/application/automation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   chan struct{}
	started chan struct{}
}

func (r *fakeRunner) RunAll(ctx context.Context) (*automation.AggregateReport, error) {
	r.mu.Lock()
	r.calls++
	block, started := r.block, r.started
	r.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	now := time.Now()
	return &automation.AggregateReport{StartedAt: now, FinishedAt: now, Success: true}, nil
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newTestScheduler(t *testing.T, runner DailyRunner, now *time.Time) *AutomationScheduler {
	t.Helper()
	cfg := DefaultAutomationSchedulerConfig()
	s, err := NewAutomationScheduler(cfg, runner, zap.NewNop())
	require.NoError(t, err)
	return s.WithClock(func() time.Time { return *now })
}

func TestAutomationSchedulerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AutomationSchedulerConfig)
		wantErr bool
	}{
		{"default", func(*AutomationSchedulerConfig) {}, false},
		{"hour too high", func(c *AutomationSchedulerConfig) { c.Hour = 24 }, true},
		{"negative minute", func(c *AutomationSchedulerConfig) { c.Minute = -1 }, true},
		{"zero interval", func(c *AutomationSchedulerConfig) { c.CheckInterval = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAutomationSchedulerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAutomationScheduler_RunsOncePerDay(t *testing.T) {
	runner := &fakeRunner{}
	now := time.Date(2026, 3, 15, 1, 59, 0, 0, time.UTC)
	s := newTestScheduler(t, runner, &now)
	ctx := context.Background()

	assert.False(t, s.checkAndTrigger(ctx), "before the slot")

	now = now.Add(time.Minute)
	assert.True(t, s.checkAndTrigger(ctx))
	assert.Equal(t, 1, runner.callCount())

	now = now.Add(5 * time.Minute)
	assert.False(t, s.checkAndTrigger(ctx), "same day")

	now = now.Add(time.Hour)
	assert.False(t, s.checkAndTrigger(ctx), "past the slot hour")

	now = time.Date(2026, 3, 16, 2, 3, 0, 0, time.UTC)
	assert.True(t, s.checkAndTrigger(ctx), "late tick on the next day still runs")
	assert.Equal(t, 2, runner.callCount())
}

func TestAutomationScheduler_UsesUTC(t *testing.T) {
	runner := &fakeRunner{}
	// 19:00 in UTC-7 is 02:00 UTC
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.FixedZone("PDT", -7*3600))
	s := newTestScheduler(t, runner, &now)

	assert.True(t, s.checkAndTrigger(context.Background()))
}

func TestAutomationScheduler_TriggerNow_NoOverlap(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), started: make(chan struct{})}
	now := time.Now()
	s := newTestScheduler(t, runner, &now)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.TriggerNow(context.Background())
		errCh <- err
	}()
	<-runner.started

	_, err := s.TriggerNow(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(runner.block)
	require.NoError(t, <-errCh)
	assert.Equal(t, 1, runner.callCount())
}

func TestAutomationScheduler_TriggerNow_Error(t *testing.T) {
	runner := &fakeRunner{err: errors.New("list tenants: connection refused")}
	now := time.Now()
	s := newTestScheduler(t, runner, &now)

	_, err := s.TriggerNow(context.Background())
	assert.EqualError(t, err, "list tenants: connection refused")

	runner.err = nil
	report, err := s.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Success)
}

func TestAutomationScheduler_StartStop(t *testing.T) {
	cfg := DefaultAutomationSchedulerConfig()
	cfg.CheckInterval = 10 * time.Millisecond
	s, err := NewAutomationScheduler(cfg, &fakeRunner{}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()), "second start is a no-op")
	assert.True(t, s.IsRunning())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(ctx))
}
