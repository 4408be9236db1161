package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/shopspring/decimal"
)

// RedemptionModel is the parent record of a claimed reward
type RedemptionModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	RewardType  string    `gorm:"type:varchar(50);not null"`
	Status      string    `gorm:"type:varchar(20);not null;index"`
	ClaimedAt   time.Time `gorm:"not null"`
	FulfilledAt *time.Time
	ConcludedAt *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RedemptionModel) TableName() string {
	return "redemptions"
}

// ToDomain converts the persistence model to a domain Redemption
func (m *RedemptionModel) ToDomain() *reward.Redemption {
	return &reward.Redemption{
		ID:          m.ID,
		TenantID:    m.TenantID,
		UserID:      m.UserID,
		RewardType:  m.RewardType,
		Status:      reward.RedemptionStatus(m.Status),
		ClaimedAt:   m.ClaimedAt,
		FulfilledAt: m.FulfilledAt,
		ConcludedAt: m.ConcludedAt,
	}
}

// RedemptionModelFromDomain creates a persistence model from a domain Redemption
func RedemptionModelFromDomain(r *reward.Redemption) *RedemptionModel {
	return &RedemptionModel{
		ID:          r.ID,
		TenantID:    r.TenantID,
		UserID:      r.UserID,
		RewardType:  r.RewardType,
		Status:      string(r.Status),
		ClaimedAt:   r.ClaimedAt,
		FulfilledAt: r.FulfilledAt,
		ConcludedAt: r.ConcludedAt,
		CreatedAt:   r.ClaimedAt,
		UpdatedAt:   r.ClaimedAt,
	}
}

// CommissionBoostModel is the persistence model for the CommissionBoost aggregate root.
// Each redemption owns at most one boost.
type CommissionBoostModel struct {
	TenantAggregateModel
	RedemptionID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	UserID                  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status                  string          `gorm:"type:varchar(20);not null;index"`
	ScheduledActivationDate time.Time       `gorm:"type:date;not null;index"`
	DurationDays            int             `gorm:"not null"`
	BoostRate               decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	ActivatedAt             *time.Time
	ExpiresAt               *time.Time          `gorm:"index"`
	ExpiredAt               *time.Time          `gorm:"index"`
	SalesAtActivation       decimal.NullDecimal `gorm:"type:decimal(18,2)"`
	SalesAtExpiration       decimal.NullDecimal `gorm:"type:decimal(18,2)"`
	SalesDelta              decimal.NullDecimal `gorm:"type:decimal(18,2)"`
	FinalPayoutAmount       decimal.NullDecimal `gorm:"type:decimal(18,2)"`
	PaymentMethod           string              `gorm:"type:varchar(20)"`
	PaymentAccount          string              `gorm:"type:text"`
	PaymentInfoCollectedAt  *time.Time
	FulfilledAt             *time.Time
	FulfilledBy             *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CommissionBoostModel) TableName() string {
	return "commission_boosts"
}

// ToDomain converts the persistence model to a domain CommissionBoost
func (m *CommissionBoostModel) ToDomain() *reward.CommissionBoost {
	b := &reward.CommissionBoost{
		RedemptionID:            m.RedemptionID,
		UserID:                  m.UserID,
		Status:                  reward.BoostStatus(m.Status),
		ScheduledActivationDate: m.ScheduledActivationDate,
		DurationDays:            m.DurationDays,
		BoostRate:               m.BoostRate,
		ActivatedAt:             m.ActivatedAt,
		ExpiresAt:               m.ExpiresAt,
		ExpiredAt:               m.ExpiredAt,
		SalesAtActivation:       fromNullDecimal(m.SalesAtActivation),
		SalesAtExpiration:       fromNullDecimal(m.SalesAtExpiration),
		SalesDelta:              fromNullDecimal(m.SalesDelta),
		FinalPayoutAmount:       fromNullDecimal(m.FinalPayoutAmount),
		PaymentMethod:           reward.PaymentMethod(m.PaymentMethod),
		PaymentAccount:          m.PaymentAccount,
		PaymentInfoCollectedAt:  m.PaymentInfoCollectedAt,
		FulfilledAt:             m.FulfilledAt,
		FulfilledBy:             m.FulfilledBy,
	}
	m.PopulateTenantAggregateRoot(&b.TenantAggregateRoot)
	return b
}

// FromDomain populates the model from a domain CommissionBoost
func (m *CommissionBoostModel) FromDomain(b *reward.CommissionBoost) {
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	m.RedemptionID = b.RedemptionID
	m.UserID = b.UserID
	m.Status = string(b.Status)
	m.ScheduledActivationDate = b.ScheduledActivationDate
	m.DurationDays = b.DurationDays
	m.BoostRate = b.BoostRate
	m.ActivatedAt = b.ActivatedAt
	m.ExpiresAt = b.ExpiresAt
	m.ExpiredAt = b.ExpiredAt
	m.SalesAtActivation = toNullDecimal(b.SalesAtActivation)
	m.SalesAtExpiration = toNullDecimal(b.SalesAtExpiration)
	m.SalesDelta = toNullDecimal(b.SalesDelta)
	m.FinalPayoutAmount = toNullDecimal(b.FinalPayoutAmount)
	m.PaymentMethod = string(b.PaymentMethod)
	m.PaymentAccount = b.PaymentAccount
	m.PaymentInfoCollectedAt = b.PaymentInfoCollectedAt
	m.FulfilledAt = b.FulfilledAt
	m.FulfilledBy = b.FulfilledBy
}

// CommissionBoostModelFromDomain creates a persistence model from a domain CommissionBoost
func CommissionBoostModelFromDomain(b *reward.CommissionBoost) *CommissionBoostModel {
	m := &CommissionBoostModel{}
	m.FromDomain(b)
	return m
}

// BoostHistoryModel is the append-only audit row for a boost status change
type BoostHistoryModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	BoostID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	FromStatus     *string    `gorm:"type:varchar(20)"`
	ToStatus       string     `gorm:"type:varchar(20);not null"`
	TransitionedBy *uuid.UUID `gorm:"type:uuid"`
	TransitionType string     `gorm:"type:varchar(20);not null"`
	CreatedAt      time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (BoostHistoryModel) TableName() string {
	return "commission_boost_state_history"
}

// ToDomain converts the persistence model to a domain BoostHistory
func (m *BoostHistoryModel) ToDomain() reward.BoostHistory {
	h := reward.BoostHistory{
		ID:             m.ID,
		TenantID:       m.TenantID,
		BoostID:        m.BoostID,
		ToStatus:       reward.BoostStatus(m.ToStatus),
		TransitionedBy: m.TransitionedBy,
		TransitionType: reward.TransitionKind(m.TransitionType),
		CreatedAt:      m.CreatedAt,
	}
	if m.FromStatus != nil {
		from := reward.BoostStatus(*m.FromStatus)
		h.FromStatus = &from
	}
	return h
}

// BoostHistoryModelFromDomain creates a persistence model from a domain BoostHistory
func BoostHistoryModelFromDomain(h *reward.BoostHistory) *BoostHistoryModel {
	m := &BoostHistoryModel{
		ID:             h.ID,
		TenantID:       h.TenantID,
		BoostID:        h.BoostID,
		ToStatus:       string(h.ToStatus),
		TransitionedBy: h.TransitionedBy,
		TransitionType: string(h.TransitionType),
		CreatedAt:      h.CreatedAt,
	}
	if h.FromStatus != nil {
		from := string(*h.FromStatus)
		m.FromStatus = &from
	}
	return m
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func fromNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
