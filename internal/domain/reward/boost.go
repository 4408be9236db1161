package reward

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	MinBoostDurationDays = 1
	MaxBoostDurationDays = 365
)

var hundred = decimal.NewFromInt(100)

// CommissionBoost is a time-bound commission rate increase claimed as a reward.
// Its payout is computed once, when it expires, and never recomputed.
type CommissionBoost struct {
	shared.TenantAggregateRoot

	RedemptionID uuid.UUID   `json:"redemption_id"`
	UserID       uuid.UUID   `json:"user_id"`
	Status       BoostStatus `json:"status"`

	ScheduledActivationDate time.Time       `json:"scheduled_activation_date"`
	DurationDays            int             `json:"duration_days"`
	BoostRate               decimal.Decimal `json:"boost_rate"` // percent

	ActivatedAt *time.Time `json:"activated_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	ExpiredAt   *time.Time `json:"expired_at"`

	SalesAtActivation *decimal.Decimal `json:"sales_at_activation"`
	SalesAtExpiration *decimal.Decimal `json:"sales_at_expiration"`
	SalesDelta        *decimal.Decimal `json:"sales_delta"`
	FinalPayoutAmount *decimal.Decimal `json:"final_payout_amount"`

	PaymentMethod          PaymentMethod `json:"payment_method,omitempty"`
	PaymentAccount         string        `json:"-"` // ciphertext only
	PaymentInfoCollectedAt *time.Time    `json:"payment_info_collected_at"`

	FulfilledAt *time.Time `json:"fulfilled_at"`
	FulfilledBy *uuid.UUID `json:"fulfilled_by"`
}

// BoostHistory is the append-only audit row for one boost status change
type BoostHistory struct {
	ID             uuid.UUID      `json:"id"`
	TenantID       uuid.UUID      `json:"tenant_id"`
	BoostID        uuid.UUID      `json:"boost_id"`
	FromStatus     *BoostStatus   `json:"from_status"`
	ToStatus       BoostStatus    `json:"to_status"`
	TransitionedBy *uuid.UUID     `json:"transitioned_by"`
	TransitionType TransitionKind `json:"transition_type"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ScheduleInput describes a boost claim
type ScheduleInput struct {
	TenantID       uuid.UUID
	UserID         uuid.UUID
	RedemptionID   uuid.UUID
	ActivationDate time.Time
	DurationDays   int
	BoostRate      decimal.Decimal
	Actor          *uuid.UUID
}

// NewCommissionBoost creates a scheduled boost and its NULL->scheduled history row
func NewCommissionBoost(in ScheduleInput, now time.Time) (*CommissionBoost, *BoostHistory, error) {
	if in.TenantID == uuid.Nil {
		return nil, nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if in.UserID == uuid.Nil {
		return nil, nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if in.RedemptionID == uuid.Nil {
		return nil, nil, shared.NewDomainError("INVALID_REDEMPTION", "Redemption ID cannot be empty")
	}
	if in.DurationDays < MinBoostDurationDays || in.DurationDays > MaxBoostDurationDays {
		return nil, nil, shared.NewDomainError("INVALID_DURATION",
			fmt.Sprintf("Boost duration must be between %d and %d days", MinBoostDurationDays, MaxBoostDurationDays))
	}
	if !in.BoostRate.IsPositive() || in.BoostRate.GreaterThan(hundred) {
		return nil, nil, shared.NewDomainError("INVALID_BOOST_RATE", "Boost rate must be greater than 0 and at most 100")
	}
	activation := DateOf(in.ActivationDate)
	if activation.Before(DateOf(now)) {
		return nil, nil, shared.NewDomainError("INVALID_ACTIVATION_DATE", "Activation date cannot be in the past")
	}

	b := &CommissionBoost{
		TenantAggregateRoot:     shared.NewTenantAggregateRoot(in.TenantID, now),
		RedemptionID:            in.RedemptionID,
		UserID:                  in.UserID,
		Status:                  BoostStatusScheduled,
		ScheduledActivationDate: activation,
		DurationDays:            in.DurationDays,
		BoostRate:               in.BoostRate,
	}

	history := &BoostHistory{
		ID:             uuid.New(),
		TenantID:       b.TenantID,
		BoostID:        b.ID,
		FromStatus:     nil,
		ToStatus:       BoostStatusScheduled,
		TransitionedBy: in.Actor,
		TransitionType: TransitionKindAPI,
		CreatedAt:      now,
	}
	b.AddDomainEvent(NewBoostStatusChangedEvent(b, nil, now))

	return b, history, nil
}

// IsDueForActivation reports whether a scheduled boost's activation date has arrived
func (b *CommissionBoost) IsDueForActivation(now time.Time) bool {
	return b.Status == BoostStatusScheduled && !b.ScheduledActivationDate.After(DateOf(now))
}

// IsDueForExpiration reports whether an active boost has run its full duration
func (b *CommissionBoost) IsDueForExpiration(now time.Time) bool {
	return b.Status == BoostStatusActive && b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}

// Activate starts the boost window and snapshots the user's lifetime sales
func (b *CommissionBoost) Activate(currentSales decimal.Decimal, now time.Time) (*BoostHistory, error) {
	if b.Status != BoostStatusScheduled {
		return nil, invalidTransition(b.Status, BoostStatusActive)
	}
	if !b.IsDueForActivation(now) {
		return nil, shared.NewDomainError("NOT_DUE", "Boost activation date has not been reached")
	}

	activatedAt := now
	expiresAt := now.AddDate(0, 0, b.DurationDays)
	sales := currentSales

	history, err := b.advance(BoostStatusActive, TransitionKindAutomated, nil, now)
	if err != nil {
		return nil, err
	}
	b.ActivatedAt = &activatedAt
	b.ExpiresAt = &expiresAt
	b.SalesAtActivation = &sales
	b.AddDomainEvent(NewBoostStatusChangedEvent(b, history.FromStatus, now))
	return history, nil
}

// Expire closes the boost window and locks the payout:
// sales_delta = sales_at_expiration - sales_at_activation,
// final_payout = sales_delta * boost_rate / 100, rounded to cents.
func (b *CommissionBoost) Expire(currentSales decimal.Decimal, now time.Time) (*BoostHistory, error) {
	if b.Status != BoostStatusActive {
		return nil, invalidTransition(b.Status, BoostStatusExpired)
	}
	if b.FinalPayoutAmount != nil {
		return nil, shared.NewDomainError("PAYOUT_LOCKED", "Boost payout has already been computed")
	}
	if b.SalesAtActivation == nil {
		return nil, shared.NewDomainError("INVALID_STATE", "Active boost has no activation snapshot")
	}
	if !b.IsDueForExpiration(now) {
		return nil, shared.NewDomainError("NOT_DUE", "Boost has not reached its expiration time")
	}

	atExpiration := currentSales
	delta := atExpiration.Sub(*b.SalesAtActivation)
	payout := ComputePayout(delta, b.BoostRate)

	history, err := b.advance(BoostStatusExpired, TransitionKindAutomated, nil, now)
	if err != nil {
		return nil, err
	}
	expiredAt := now
	b.ExpiredAt = &expiredAt
	b.SalesAtExpiration = &atExpiration
	b.SalesDelta = &delta
	b.FinalPayoutAmount = &payout
	b.AddDomainEvent(NewBoostStatusChangedEvent(b, history.FromStatus, now))
	return history, nil
}

// MoveToPendingInfo asks the user for payout details
func (b *CommissionBoost) MoveToPendingInfo(now time.Time) (*BoostHistory, error) {
	history, err := b.advance(BoostStatusPendingInfo, TransitionKindAutomated, nil, now)
	if err != nil {
		return nil, err
	}
	b.AddDomainEvent(NewBoostStatusChangedEvent(b, history.FromStatus, now))
	return history, nil
}

// SubmitPaymentInfo stores the already encrypted payout account
func (b *CommissionBoost) SubmitPaymentInfo(method PaymentMethod, encryptedAccount string, actor uuid.UUID, now time.Time) (*BoostHistory, error) {
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be paypal or venmo")
	}
	if encryptedAccount == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_ACCOUNT", "Payment account is required")
	}

	history, err := b.advance(BoostStatusPendingPayout, TransitionKindAPI, &actor, now)
	if err != nil {
		return nil, err
	}
	collectedAt := now
	b.PaymentMethod = method
	b.PaymentAccount = encryptedAccount
	b.PaymentInfoCollectedAt = &collectedAt
	b.AddDomainEvent(NewBoostStatusChangedEvent(b, history.FromStatus, now))
	return history, nil
}

// MarkFulfilled records that the payout was sent
func (b *CommissionBoost) MarkFulfilled(actor uuid.UUID, now time.Time) (*BoostHistory, error) {
	history, err := b.advance(BoostStatusFulfilled, TransitionKindAPI, &actor, now)
	if err != nil {
		return nil, err
	}
	fulfilledAt := now
	b.FulfilledAt = &fulfilledAt
	b.FulfilledBy = &actor
	b.AddDomainEvent(NewBoostStatusChangedEvent(b, history.FromStatus, now))
	return history, nil
}

func (b *CommissionBoost) advance(to BoostStatus, kind TransitionKind, actor *uuid.UUID, now time.Time) (*BoostHistory, error) {
	if !b.Status.CanTransitionTo(to) {
		return nil, invalidTransition(b.Status, to)
	}

	from := b.Status
	b.Status = to
	b.Touch(now)
	b.IncrementVersion()

	return &BoostHistory{
		ID:             uuid.New(),
		TenantID:       b.TenantID,
		BoostID:        b.ID,
		FromStatus:     &from,
		ToStatus:       to,
		TransitionedBy: actor,
		TransitionType: kind,
		CreatedAt:      now,
	}, nil
}

func invalidTransition(from, to BoostStatus) error {
	return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move boost from %s to %s", from, to))
}

// ComputePayout applies a percentage rate to a sales delta, rounded to cents
func ComputePayout(delta, ratePercent decimal.Decimal) decimal.Decimal {
	return delta.Mul(ratePercent).Div(hundred).Round(2)
}

// DateOf truncates t to midnight UTC of its calendar day
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
