package boost

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ScheduleBoost creates a scheduled boost for a claimed commission boost redemption
func (s *LifecycleService) ScheduleBoost(ctx context.Context, tenantID uuid.UUID, in ScheduleBoostInput) (*reward.CommissionBoost, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "boost", "schedule")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	redemption, err := s.redemptions.FindByID(ctx, tenantID, in.RedemptionID)
	if err != nil {
		return nil, fmt.Errorf("load redemption: %w", err)
	}
	if redemption == nil {
		return nil, shared.ErrNotFound
	}
	if !redemption.CanScheduleBoost(in.UserID) {
		return nil, shared.NewDomainError("INVALID_REDEMPTION", "Redemption cannot schedule a commission boost")
	}

	existing, err := s.store.FindByRedemption(ctx, tenantID, in.RedemptionID)
	if err != nil {
		return nil, fmt.Errorf("check existing boost: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Redemption already has a commission boost")
	}

	b, history, err := reward.NewCommissionBoost(reward.ScheduleInput{
		TenantID:       tenantID,
		UserID:         in.UserID,
		RedemptionID:   in.RedemptionID,
		ActivationDate: in.ActivationDate,
		DurationDays:   in.DurationDays,
		BoostRate:      in.BoostRate,
		Actor:          in.Actor,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, tenantID, b, history); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("create boost: %w", err)
	}
	s.publish(ctx, b)

	s.logger.Info("Commission boost scheduled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("boost_id", b.ID.String()),
		zap.String("user_id", in.UserID.String()),
		zap.Time("activation_date", b.ScheduledActivationDate),
		zap.Int("duration_days", b.DurationDays))
	return b, nil
}

// SubmitPaymentInfo encrypts the user's payout account, moves the boost to
// pending_payout and marks the parent redemption fulfilled in one commit
func (s *LifecycleService) SubmitPaymentInfo(ctx context.Context, tenantID uuid.UUID, in SubmitPaymentInfoInput) (*reward.CommissionBoost, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "boost", "submit_payment_info")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	b, err := s.ownedBoost(ctx, tenantID, in.UserID, in.BoostID)
	if err != nil {
		return nil, err
	}
	if b.Status != reward.BoostStatusPendingInfo {
		return nil, shared.NewDomainError("INVALID_STATE", "Payment info can only be submitted for boosts awaiting it")
	}
	if !in.Method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be paypal or venmo")
	}

	account, err := in.Method.NormalizeAccount(in.Account)
	if err != nil {
		return nil, err
	}
	encrypted, err := s.cipher.Encrypt(tenantID, account)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("encrypt payment account: %w", err)
	}

	history, err := b.SubmitPaymentInfo(in.Method, encrypted, in.UserID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, tenantID, b, reward.BoostStatusPendingInfo, history, reward.RedemptionStatusFulfilled); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("store payment info: %w", err)
	}

	s.logger.Info("Boost payment info collected",
		zap.String("tenant_id", tenantID.String()),
		zap.String("boost_id", b.ID.String()),
		zap.String("payment_method", string(in.Method)))
	return b, nil
}

// GetPaymentInfo returns the owner's payout destination with the account masked
func (s *LifecycleService) GetPaymentInfo(ctx context.Context, tenantID, userID, boostID uuid.UUID) (*PaymentInfo, error) {
	b, err := s.ownedBoost(ctx, tenantID, userID, boostID)
	if err != nil {
		return nil, err
	}
	if b.PaymentAccount == "" {
		return nil, shared.NewDomainError("NOT_FOUND", "No payment info on file")
	}

	account, err := s.cipher.Decrypt(tenantID, b.PaymentAccount)
	if err != nil {
		return nil, fmt.Errorf("decrypt payment account: %w", err)
	}
	return &PaymentInfo{
		BoostID:       b.ID,
		Method:        b.PaymentMethod,
		MaskedAccount: reward.MaskAccount(account),
		CollectedAt:   b.PaymentInfoCollectedAt,
	}, nil
}

// MarkPayoutFulfilled records an admin payout and concludes the redemption
func (s *LifecycleService) MarkPayoutFulfilled(ctx context.Context, tenantID, boostID, actor uuid.UUID) (*reward.CommissionBoost, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "boost", "mark_payout_fulfilled")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	b, err := s.store.FindByID(ctx, tenantID, boostID)
	if err != nil {
		return nil, fmt.Errorf("load boost: %w", err)
	}
	if b == nil {
		return nil, shared.ErrNotFound
	}

	history, err := b.MarkFulfilled(actor, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, tenantID, b, reward.BoostStatusPendingPayout, history, reward.RedemptionStatusConcluded); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("mark payout fulfilled: %w", err)
	}

	s.logger.Info("Boost payout fulfilled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("boost_id", b.ID.String()),
		zap.String("fulfilled_by", actor.String()))
	return b, nil
}

// GetBoost returns a boost and its history. When userID is not nil the boost
// must belong to that user.
func (s *LifecycleService) GetBoost(ctx context.Context, tenantID, userID, boostID uuid.UUID) (*BoostDetail, error) {
	var (
		b   *reward.CommissionBoost
		err error
	)
	if userID != uuid.Nil {
		b, err = s.ownedBoost(ctx, tenantID, userID, boostID)
	} else {
		b, err = s.store.FindByID(ctx, tenantID, boostID)
		if err == nil && b == nil {
			err = shared.ErrNotFound
		}
	}
	if err != nil {
		return nil, err
	}

	history, err := s.store.ListHistory(ctx, tenantID, boostID)
	if err != nil {
		return nil, fmt.Errorf("load boost history: %w", err)
	}

	detail := &BoostDetail{Boost: b, History: history}
	if b.PaymentAccount != "" {
		if plain, err := s.cipher.Decrypt(tenantID, b.PaymentAccount); err == nil {
			detail.MaskedAccount = reward.MaskAccount(plain)
		} else {
			s.logger.Warn("Failed to decrypt payment account for display",
				zap.String("boost_id", b.ID.String()),
				zap.Error(err))
		}
	}
	return detail, nil
}

func (s *LifecycleService) ownedBoost(ctx context.Context, tenantID, userID, boostID uuid.UUID) (*reward.CommissionBoost, error) {
	b, err := s.store.FindByID(ctx, tenantID, boostID)
	if err != nil {
		return nil, fmt.Errorf("load boost: %w", err)
	}
	// another user's boost is reported as missing
	if b == nil || b.UserID != userID {
		return nil, shared.ErrNotFound
	}
	return b, nil
}
