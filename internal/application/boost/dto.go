package boost

import (
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/shopspring/decimal"
)

// RowError is a failure on a single boost during a batch sweep
type RowError struct {
	BoostID uuid.UUID `json:"boost_id"`
	UserID  uuid.UUID `json:"user_id"`
	Error   string    `json:"error"`
}

// TransitionedRow is a boost moved by a batch sweep
type TransitionedRow struct {
	BoostID           uuid.UUID          `json:"boost_id"`
	UserID            uuid.UUID          `json:"user_id"`
	From              reward.BoostStatus `json:"from"`
	To                reward.BoostStatus `json:"to"`
	FinalPayoutAmount *decimal.Decimal   `json:"final_payout_amount,omitempty"`
}

// BatchResult is the outcome of one sweep. Count is the number of boosts moved.
type BatchResult struct {
	Operation string            `json:"operation"`
	Count     int               `json:"count"`
	Rows      []TransitionedRow `json:"rows"`
	Errors    []RowError        `json:"errors"`
}

func newBatchResult(op string) *BatchResult {
	return &BatchResult{
		Operation: op,
		Rows:      make([]TransitionedRow, 0),
		Errors:    make([]RowError, 0),
	}
}

func (r *BatchResult) succeeded(b *reward.CommissionBoost, from reward.BoostStatus) {
	r.Count++
	r.Rows = append(r.Rows, TransitionedRow{
		BoostID:           b.ID,
		UserID:            b.UserID,
		From:              from,
		To:                b.Status,
		FinalPayoutAmount: b.FinalPayoutAmount,
	})
}

func (r *BatchResult) failed(b *reward.CommissionBoost, err error) {
	r.Errors = append(r.Errors, RowError{
		BoostID: b.ID,
		UserID:  b.UserID,
		Error:   err.Error(),
	})
}

// ScheduleBoostInput is a boost claim against a redemption
type ScheduleBoostInput struct {
	UserID         uuid.UUID
	RedemptionID   uuid.UUID
	ActivationDate time.Time
	DurationDays   int
	BoostRate      decimal.Decimal
	Actor          *uuid.UUID
}

// SubmitPaymentInfoInput carries the user's payout details in plaintext
type SubmitPaymentInfoInput struct {
	UserID  uuid.UUID
	BoostID uuid.UUID
	Method  reward.PaymentMethod
	Account string
}

// PaymentInfo is the payout destination on file. The account is masked; the
// plaintext never leaves the service after submission.
type PaymentInfo struct {
	BoostID       uuid.UUID            `json:"boost_id"`
	Method        reward.PaymentMethod `json:"payment_method"`
	MaskedAccount string               `json:"masked_account"`
	CollectedAt   *time.Time           `json:"collected_at"`
}

// BoostDetail is a boost with its audit trail. The payment account is masked.
type BoostDetail struct {
	Boost         *reward.CommissionBoost `json:"boost"`
	MaskedAccount string                  `json:"masked_account,omitempty"`
	History       []reward.BoostHistory   `json:"history"`
}
