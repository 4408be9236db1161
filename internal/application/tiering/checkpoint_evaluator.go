// Package tiering evaluates creators against their tenant's tier ladder.
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

// CheckpointEvaluator re-evaluates users whose checkpoint period has elapsed
type CheckpointEvaluator struct {
	store  loyalty.PerformanceStore
	logger *zap.Logger
	now    func() time.Time
}

// NewCheckpointEvaluator creates a new CheckpointEvaluator
func NewCheckpointEvaluator(store loyalty.PerformanceStore, logger *zap.Logger) *CheckpointEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckpointEvaluator{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the evaluator's time source
func (e *CheckpointEvaluator) WithClock(now func() time.Time) *CheckpointEvaluator {
	e.now = now
	return e
}

// Evaluate runs one checkpoint pass for tenantID.
//
// Only configuration and fetch failures are returned as errors. A failure on a
// single user is recorded in the result and the pass continues.
func (e *CheckpointEvaluator) Evaluate(ctx context.Context, tenantID uuid.UUID) (*EvaluationResult, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "tiering", "evaluate_checkpoints")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	start := time.Now()
	now := e.now()
	log := e.logger.With(zap.String("tenant_id", tenantID.String()))

	result := &EvaluationResult{
		TenantID: tenantID,
		Results:  make([]UserCheckpointResult, 0),
		Errors:   make([]UserError, 0),
	}

	settings, table, err := loadProgram(ctx, e.store, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Checkpoint evaluation aborted", zap.Error(err))
		return nil, err
	}

	applied, err := e.store.ApplyPendingAdjustments(ctx, tenantID)
	if err != nil {
		log.Warn("Failed to apply pending sales adjustments", zap.Error(err))
		result.Errors = append(result.Errors, UserError{
			Stage: "apply_adjustments",
			Error: err.Error(),
		})
	}
	result.AdjustmentsApplied = applied

	users, err := e.store.GetUsersDueForCheckpoint(ctx, tenantID, now)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to fetch users due for checkpoint", zap.Error(err))
		return nil, fmt.Errorf("fetch users due for checkpoint: %w", err)
	}

	for i := range users {
		user := users[i]
		res, err := e.evaluateUser(ctx, tenantID, table, settings, &user, now)
		if err != nil {
			result.Errors = append(result.Errors, UserError{
				UserID: user.UserID,
				Stage:  "evaluate",
				Error:  err.Error(),
			})
			log.Warn("Checkpoint evaluation failed for user",
				zap.String("user_id", user.UserID.String()),
				zap.Error(err))
			continue
		}
		if res == nil {
			continue
		}

		result.Evaluated++
		result.count(res.Status)
		result.Results = append(result.Results, *res)
	}

	result.Success = len(result.Errors) == 0
	result.DurationMs = time.Since(start).Milliseconds()

	telemetry.SetAttributes(span,
		"due_users", len(users),
		"promoted", result.Promoted,
		"maintained", result.Maintained,
		"demoted", result.Demoted,
		"errors", len(result.Errors),
	)
	log.Info("Checkpoint evaluation completed",
		zap.Int("due_users", len(users)),
		zap.Int("evaluated", result.Evaluated),
		zap.Int("promoted", result.Promoted),
		zap.Int("maintained", result.Maintained),
		zap.Int("demoted", result.Demoted),
		zap.Int("errors", len(result.Errors)),
		zap.Int64("duration_ms", result.DurationMs))

	return result, nil
}

func (e *CheckpointEvaluator) evaluateUser(
	ctx context.Context,
	tenantID uuid.UUID,
	table *loyalty.TierTable,
	settings *loyalty.ProgramSettings,
	user *loyalty.UserTierState,
	now time.Time,
) (*UserCheckpointResult, error) {
	// nil, nil means the user was skipped
	if user.TenantID != uuid.Nil && user.TenantID != tenantID {
		return nil, shared.NewDomainError("TENANT_MISMATCH", "User does not belong to tenant")
	}

	current, ok := table.ByCode(user.CurrentTier)
	if !ok {
		return nil, shared.NewDomainError("UNKNOWN_TIER", fmt.Sprintf("Unknown current tier %q", user.CurrentTier))
	}
	if current.CheckpointExempt {
		// exempt tiers are never due; a stale next_checkpoint_at is left alone
		return nil, nil
	}

	value := user.CheckpointValue(settings.Metric)
	qualifying := table.HighestQualifying(value)

	update, record := user.ApplyCheckpoint(current, qualifying, settings, now)
	if err := e.store.UpdateUserTier(ctx, tenantID, update, record); err != nil {
		return nil, fmt.Errorf("update user tier: %w", err)
	}

	return &UserCheckpointResult{
		UserID:           user.UserID,
		TierBefore:       record.TierBefore,
		TierAfter:        record.TierAfter,
		Status:           record.Status,
		CheckpointValue:  value,
		AppliedThreshold: record.AppliedThreshold,
		NextCheckpointAt: update.NextCheckpointAt,
		Record:           record,
	}, nil
}
