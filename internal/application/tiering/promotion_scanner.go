package tiering

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PromotionScanner promotes users as soon as their lifetime value reaches a
// higher tier. It never demotes.
type PromotionScanner struct {
	store  loyalty.PerformanceStore
	logger *zap.Logger
	now    func() time.Time
}

// NewPromotionScanner creates a new PromotionScanner
func NewPromotionScanner(store loyalty.PerformanceStore, logger *zap.Logger) *PromotionScanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromotionScanner{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the scanner's time source
func (s *PromotionScanner) WithClock(now func() time.Time) *PromotionScanner {
	s.now = now
	return s
}

// Scan checks every candidate in tenantID and promotes each one to the highest
// tier its lifetime value reaches
func (s *PromotionScanner) Scan(ctx context.Context, tenantID uuid.UUID) (*ScanResult, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "tiering", "scan_promotions")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	start := time.Now()
	now := s.now()
	log := s.logger.With(zap.String("tenant_id", tenantID.String()))

	settings, table, err := loadProgram(ctx, s.store, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Promotion scan aborted", zap.Error(err))
		return nil, err
	}

	candidates, err := s.store.GetUsersExceedingTier(ctx, tenantID, table)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to fetch promotion candidates", zap.Error(err))
		return nil, fmt.Errorf("fetch promotion candidates: %w", err)
	}

	result := &ScanResult{
		TenantID:   tenantID,
		Checked:    len(candidates),
		Promotions: make([]Promotion, 0),
		Errors:     make([]UserError, 0),
	}

	for i := range candidates {
		candidate := candidates[i]
		promotion, err := s.promote(ctx, tenantID, table, settings, &candidate, now)
		if err != nil {
			result.Errors = append(result.Errors, UserError{
				UserID: candidate.State.UserID,
				Stage:  "promote",
				Error:  err.Error(),
			})
			log.Warn("Real-time promotion failed for user",
				zap.String("user_id", candidate.State.UserID.String()),
				zap.Error(err))
			continue
		}
		if promotion == nil {
			continue
		}
		result.Promoted++
		result.Promotions = append(result.Promotions, *promotion)
	}

	result.Success = len(result.Errors) == 0
	result.DurationMs = time.Since(start).Milliseconds()

	telemetry.SetAttributes(span,
		"checked", result.Checked,
		"promoted", result.Promoted,
		"errors", len(result.Errors),
	)
	log.Info("Promotion scan completed",
		zap.Int("checked", result.Checked),
		zap.Int("promoted", result.Promoted),
		zap.Int("errors", len(result.Errors)),
		zap.Int64("duration_ms", result.DurationMs))

	return result, nil
}

// promote returns nil, nil when the candidate does not reach a higher tier
func (s *PromotionScanner) promote(
	ctx context.Context,
	tenantID uuid.UUID,
	table *loyalty.TierTable,
	settings *loyalty.ProgramSettings,
	candidate *loyalty.PromotionCandidate,
	now time.Time,
) (*Promotion, error) {
	user := &candidate.State
	if user.TenantID != uuid.Nil && user.TenantID != tenantID {
		return nil, shared.NewDomainError("TENANT_MISMATCH", "User does not belong to tenant")
	}

	current, ok := table.ByCode(user.CurrentTier)
	if !ok {
		return nil, shared.NewDomainError("UNKNOWN_TIER", fmt.Sprintf("Unknown current tier %q", user.CurrentTier))
	}

	target := table.HighestQualifying(candidate.LifetimeValue)
	if target.Order <= current.Order {
		return nil, nil
	}

	update, record, err := user.PromoteTo(current, target, settings, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateUserTier(ctx, tenantID, update, record); err != nil {
		return nil, fmt.Errorf("update user tier: %w", err)
	}

	return &Promotion{
		UserID:        user.UserID,
		FromTier:      current.Code,
		ToTier:        target.Code,
		LifetimeValue: candidate.LifetimeValue,
		PromotedAt:    now,
		Record:        record,
	}, nil
}
