package boost

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	OperationActivate    = "activate"
	OperationExpire      = "expire"
	OperationPendingInfo = "pending_info"
)

// ActivateScheduled moves every scheduled boost whose activation date has
// arrived to active, snapshotting the owner's lifetime sales
func (s *LifecycleService) ActivateScheduled(ctx context.Context, tenantID uuid.UUID) (*BatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "boost", "activate_scheduled")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	now := s.now()
	candidates, err := s.store.FindScheduledDue(ctx, tenantID, reward.DateOf(now))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("find scheduled boosts: %w", err)
	}

	result := newBatchResult(OperationActivate)
	for i := range candidates {
		b := &candidates[i].Boost
		history, err := activate(&candidates[i], now)
		if err == nil {
			err = s.commit(ctx, tenantID, b, reward.BoostStatusScheduled, history, "")
		}
		if err != nil {
			s.rowFailed(result, b, err)
			continue
		}
		result.succeeded(b, reward.BoostStatusScheduled)
	}

	s.finish(span, tenantID, result, len(candidates))
	return result, nil
}

// ExpireActive closes every active boost whose window has ended and locks its payout
func (s *LifecycleService) ExpireActive(ctx context.Context, tenantID uuid.UUID) (*BatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "boost", "expire_active")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	now := s.now()
	candidates, err := s.store.FindActiveExpired(ctx, tenantID, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("find expired boosts: %w", err)
	}

	result := newBatchResult(OperationExpire)
	for i := range candidates {
		b := &candidates[i].Boost
		// CurrentSales comes from the same read as the boost row and is not re-read
		history, err := expire(&candidates[i], now)
		if err == nil {
			err = s.commit(ctx, tenantID, b, reward.BoostStatusActive, history, "")
		}
		if err != nil {
			s.rowFailed(result, b, err)
			continue
		}
		result.succeeded(b, reward.BoostStatusActive)
	}

	s.finish(span, tenantID, result, len(candidates))
	return result, nil
}

// TransitionExpiredToPendingInfo asks for payout details on every boost that
// has been expired for at least the configured dwell
func (s *LifecycleService) TransitionExpiredToPendingInfo(ctx context.Context, tenantID uuid.UUID) (*BatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "boost", "transition_pending_info")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		"dwell", s.config.PendingInfoDwell.String(),
	)

	now := s.now()
	boosts, err := s.store.FindExpiredPendingTransition(ctx, tenantID, now.Add(-s.config.PendingInfoDwell))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("find boosts pending info request: %w", err)
	}

	result := newBatchResult(OperationPendingInfo)
	for i := range boosts {
		b := &boosts[i]
		history, err := b.MoveToPendingInfo(now)
		if err == nil {
			err = s.commit(ctx, tenantID, b, reward.BoostStatusExpired, history, "")
		}
		if err != nil {
			s.rowFailed(result, b, err)
			continue
		}
		result.succeeded(b, reward.BoostStatusExpired)
	}

	s.finish(span, tenantID, result, len(boosts))
	return result, nil
}

func ownerEnrolled(c *reward.BoostCandidate) error {
	if c.OwnerMissing {
		return shared.NewDomainError("OWNER_NOT_ENROLLED", "Boost owner has no tier state")
	}
	return nil
}

func activate(c *reward.BoostCandidate, now time.Time) (*reward.BoostHistory, error) {
	if err := ownerEnrolled(c); err != nil {
		return nil, err
	}
	return c.Boost.Activate(c.CurrentSales, now)
}

func expire(c *reward.BoostCandidate, now time.Time) (*reward.BoostHistory, error) {
	if err := ownerEnrolled(c); err != nil {
		return nil, err
	}
	return c.Boost.Expire(c.CurrentSales, now)
}

// commit writes one transition and publishes its events
func (s *LifecycleService) commit(
	ctx context.Context,
	tenantID uuid.UUID,
	b *reward.CommissionBoost,
	from reward.BoostStatus,
	history *reward.BoostHistory,
	redemptionStatus reward.RedemptionStatus,
) error {
	if !b.BelongsTo(tenantID) {
		return shared.NewDomainError("TENANT_MISMATCH", "Boost does not belong to tenant")
	}
	err := s.store.Transition(ctx, tenantID, reward.BoostTransition{
		Boost:            b,
		From:             from,
		History:          history,
		RedemptionStatus: redemptionStatus,
	})
	if err != nil {
		b.ClearDomainEvents()
		return err
	}
	s.publish(ctx, b)
	return nil
}

func (s *LifecycleService) rowFailed(result *BatchResult, b *reward.CommissionBoost, err error) {
	result.failed(b, err)
	s.logger.Warn("Boost transition failed",
		zap.String("operation", result.Operation),
		zap.String("tenant_id", b.TenantID.String()),
		zap.String("boost_id", b.ID.String()),
		zap.Error(err))
}

func (s *LifecycleService) finish(span trace.Span, tenantID uuid.UUID, result *BatchResult, candidates int) {
	telemetry.SetAttributes(span,
		"candidates", candidates,
		"transitioned", result.Count,
		"errors", len(result.Errors),
	)
	s.logger.Info("Boost sweep completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("operation", result.Operation),
		zap.Int("candidates", candidates),
		zap.Int("transitioned", result.Count),
		zap.Int("errors", len(result.Errors)))
}
