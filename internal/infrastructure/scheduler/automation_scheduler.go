package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loyalty/backend/internal/application/automation"
	"go.uber.org/zap"
)

var (
	// ErrRunInProgress is returned by TriggerNow while a run is still going
	ErrRunInProgress = errors.New("automation run already in progress")
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)

// DailyRunner runs the automation for every active tenant
type DailyRunner interface {
	RunAll(ctx context.Context) (*automation.AggregateReport, error)
}

// AutomationSchedulerConfig holds configuration for the daily trigger
type AutomationSchedulerConfig struct {
	// Hour and Minute (UTC) at which the daily run starts
	Hour   int
	Minute int

	// CheckInterval is how often the clock is checked
	CheckInterval time.Duration

	// RunTimeout bounds one run across all tenants
	RunTimeout time.Duration
}

// DefaultAutomationSchedulerConfig runs at 02:00 UTC
func DefaultAutomationSchedulerConfig() AutomationSchedulerConfig {
	return AutomationSchedulerConfig{
		Hour:          2,
		Minute:        0,
		CheckInterval: time.Minute,
		RunTimeout:    2 * time.Hour,
	}
}

// Validate checks the configured time of day
func (c AutomationSchedulerConfig) Validate() error {
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("%w: hour must be 0-23, got %d", ErrInvalidConfig, c.Hour)
	}
	if c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("%w: minute must be 0-59, got %d", ErrInvalidConfig, c.Minute)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// AutomationScheduler fires the daily automation once per UTC day, at or after
// the configured time within that hour. Runs never overlap.
type AutomationScheduler struct {
	config AutomationSchedulerConfig
	runner DailyRunner
	logger *zap.Logger
	now    func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
	inProgress  atomic.Bool
}

// NewAutomationScheduler creates a new scheduler
func NewAutomationScheduler(config AutomationSchedulerConfig, runner DailyRunner, logger *zap.Logger) (*AutomationScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &AutomationScheduler{
		config: config,
		runner: runner,
		logger: logger,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source
func (s *AutomationScheduler) WithClock(now func() time.Time) *AutomationScheduler {
	s.now = now
	return s
}

// Start begins checking the clock
func (s *AutomationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Automation scheduler started",
		zap.Int("hour_utc", s.config.Hour),
		zap.Int("minute", s.config.Minute),
		zap.Duration("check_interval", s.config.CheckInterval),
	)
	return nil
}

// Stop cancels any in-flight run and waits for it to return
func (s *AutomationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Automation scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler loop is active
func (s *AutomationScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *AutomationScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the automation if today's slot has arrived and has not run yet
func (s *AutomationScheduler) checkAndTrigger(ctx context.Context) bool {
	now := s.now().UTC()
	if now.Hour() != s.config.Hour || now.Minute() < s.config.Minute {
		return false
	}

	today := now.Format("2006-01-02")
	s.mu.Lock()
	if s.lastRunDate == today {
		s.mu.Unlock()
		return false
	}
	s.lastRunDate = today
	s.mu.Unlock()

	s.logger.Info("Triggering daily automation", zap.String("date", today))
	if _, err := s.TriggerNow(ctx); err != nil {
		s.logger.Error("Daily automation failed", zap.Error(err))
	}
	return true
}

// TriggerNow runs the automation immediately, outside the daily slot
func (s *AutomationScheduler) TriggerNow(ctx context.Context) (*automation.AggregateReport, error) {
	if !s.inProgress.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.inProgress.Store(false)

	if s.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
	}

	report, err := s.runner.RunAll(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Daily automation finished",
		zap.Bool("success", report.Success),
		zap.Int("tenants", report.TenantsTotal),
		zap.Int("failed", report.TenantsFailed),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}
