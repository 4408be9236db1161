// Package boost runs the commission boost sub-state machine.
package boost

import (
	"context"
	"time"

	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/loyalty/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Config holds boost lifecycle settings
type Config struct {
	// PendingInfoDwell is how long a boost stays expired before payout info is requested
	PendingInfoDwell time.Duration
}

// DefaultConfig returns the default lifecycle configuration
func DefaultConfig() Config {
	return Config{PendingInfoDwell: 0}
}

// LifecycleService drives commission boosts through
// scheduled -> active -> expired -> pending_info -> pending_payout -> fulfilled
type LifecycleService struct {
	store          reward.BoostStore
	redemptions    reward.RedemptionRepository
	cipher         reward.PaymentCipher
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	config         Config
	now            func() time.Time
}

// ServiceConfig wires the LifecycleService collaborators
type ServiceConfig struct {
	Store          reward.BoostStore
	Redemptions    reward.RedemptionRepository
	Cipher         reward.PaymentCipher
	EventPublisher shared.EventPublisher
	Logger         *zap.Logger
	Config         Config
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(cfg ServiceConfig) *LifecycleService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Config.PendingInfoDwell < 0 {
		cfg.Config.PendingInfoDwell = 0
	}
	return &LifecycleService{
		store:          cfg.Store,
		redemptions:    cfg.Redemptions,
		cipher:         cfg.Cipher,
		eventPublisher: cfg.EventPublisher,
		logger:         logger,
		config:         cfg.Config,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the service's time source
func (s *LifecycleService) WithClock(now func() time.Time) *LifecycleService {
	s.now = now
	return s
}

// Dwell returns the configured expired -> pending_info dwell
func (s *LifecycleService) Dwell() time.Duration {
	return s.config.PendingInfoDwell
}

// publish sends the aggregate's events once its transition is committed
func (s *LifecycleService) publish(ctx context.Context, b *reward.CommissionBoost) {
	events := b.GetDomainEvents()
	b.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish boost events",
			zap.String("boost_id", b.ID.String()),
			zap.Error(err))
	}
}
