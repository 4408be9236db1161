package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/shopspring/decimal"
)

// LoyaltyProgramModel holds one tenant's program settings. A tenant has at most one program.
type LoyaltyProgramModel struct {
	TenantID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name             string    `gorm:"type:varchar(200);not null"`
	VIPMetric        string    `gorm:"column:vip_metric;type:varchar(20);not null"`
	CheckpointMonths int       `gorm:"not null"`
	Status           string    `gorm:"type:varchar(20);not null;index"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LoyaltyProgramModel) TableName() string {
	return "loyalty_programs"
}

// ToDomain converts the persistence model to domain ProgramSettings
func (m *LoyaltyProgramModel) ToDomain() *loyalty.ProgramSettings {
	return &loyalty.ProgramSettings{
		TenantID:         m.TenantID,
		Name:             m.Name,
		Metric:           loyalty.VIPMetric(m.VIPMetric),
		CheckpointMonths: m.CheckpointMonths,
		Status:           loyalty.ProgramStatus(m.Status),
	}
}

// FromDomain populates the model from domain ProgramSettings
func (m *LoyaltyProgramModel) FromDomain(p *loyalty.ProgramSettings) {
	m.TenantID = p.TenantID
	m.Name = p.Name
	m.VIPMetric = string(p.Metric)
	m.CheckpointMonths = p.CheckpointMonths
	m.Status = string(p.Status)
}

// TierModel is one rank of a tenant's ladder
type TierModel struct {
	BaseModel
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_tier_tenant_code,priority:1"`
	Code             string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_tier_tenant_code,priority:2"`
	Name             string          `gorm:"type:varchar(100);not null"`
	TierOrder        int             `gorm:"not null"`
	SalesThreshold   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	UnitsThreshold   int64           `gorm:"not null"`
	CheckpointExempt bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TierModel) TableName() string {
	return "loyalty_tiers"
}

// ToDomain converts the persistence model to a domain Tier
func (m *TierModel) ToDomain() loyalty.Tier {
	return loyalty.Tier{
		ID:               m.ID,
		TenantID:         m.TenantID,
		Code:             m.Code,
		Name:             m.Name,
		Order:            m.TierOrder,
		SalesThreshold:   m.SalesThreshold,
		UnitsThreshold:   m.UnitsThreshold,
		CheckpointExempt: m.CheckpointExempt,
	}
}

// TierModelFromDomain creates a persistence model from a domain Tier
func TierModelFromDomain(t loyalty.Tier, now time.Time) *TierModel {
	id := t.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &TierModel{
		BaseModel:        BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		TenantID:         t.TenantID,
		Code:             t.Code,
		Name:             t.Name,
		TierOrder:        t.Order,
		SalesThreshold:   t.SalesThreshold,
		UnitsThreshold:   t.UnitsThreshold,
		CheckpointExempt: t.CheckpointExempt,
	}
}

// UserTierStateModel is the per-user tier row. Counter pairs are flattened
// into sales and units columns.
type UserTierStateModel struct {
	TenantID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Handle                string          `gorm:"type:varchar(100);not null"`
	Email                 string          `gorm:"type:varchar(255)"`
	CurrentTier           string          `gorm:"type:varchar(50);not null;index"`
	TierAchievedAt        time.Time       `gorm:"not null"`
	NextCheckpointAt      *time.Time      `gorm:"index"`
	WindowStartedAt       time.Time       `gorm:"not null"`
	LifetimeSales         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LifetimeUnits         int64           `gorm:"not null"`
	WindowedSales         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	WindowedUnits         int64           `gorm:"not null"`
	ManualAdjustmentSales decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ManualAdjustmentUnits int64           `gorm:"not null"`
	CheckpointTargetSales decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CheckpointTargetUnits int64           `gorm:"not null"`
	Version               int             `gorm:"not null;default:1"`
	CreatedAt             time.Time       `gorm:"not null"`
	UpdatedAt             time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserTierStateModel) TableName() string {
	return "user_tier_states"
}

// ToDomain converts the persistence model to a domain UserTierState
func (m *UserTierStateModel) ToDomain() loyalty.UserTierState {
	return loyalty.UserTierState{
		UserID:            m.UserID,
		TenantID:          m.TenantID,
		Handle:            m.Handle,
		Email:             m.Email,
		CurrentTier:       m.CurrentTier,
		TierAchievedAt:    m.TierAchievedAt,
		NextCheckpointAt:  m.NextCheckpointAt,
		WindowStartedAt:   m.WindowStartedAt,
		Lifetime:          loyalty.Counters{Sales: m.LifetimeSales, Units: m.LifetimeUnits},
		Windowed:          loyalty.Counters{Sales: m.WindowedSales, Units: m.WindowedUnits},
		ManualAdjustments: loyalty.Counters{Sales: m.ManualAdjustmentSales, Units: m.ManualAdjustmentUnits},
		CheckpointTarget:  loyalty.Counters{Sales: m.CheckpointTargetSales, Units: m.CheckpointTargetUnits},
		Version:           m.Version,
	}
}

// FromDomain populates the model from a domain UserTierState
func (m *UserTierStateModel) FromDomain(s *loyalty.UserTierState) {
	m.TenantID = s.TenantID
	m.UserID = s.UserID
	m.Handle = s.Handle
	m.Email = s.Email
	m.CurrentTier = s.CurrentTier
	m.TierAchievedAt = s.TierAchievedAt
	m.NextCheckpointAt = s.NextCheckpointAt
	m.WindowStartedAt = s.WindowStartedAt
	m.LifetimeSales = s.Lifetime.Sales
	m.LifetimeUnits = s.Lifetime.Units
	m.WindowedSales = s.Windowed.Sales
	m.WindowedUnits = s.Windowed.Units
	m.ManualAdjustmentSales = s.ManualAdjustments.Sales
	m.ManualAdjustmentUnits = s.ManualAdjustments.Units
	m.CheckpointTargetSales = s.CheckpointTarget.Sales
	m.CheckpointTargetUnits = s.CheckpointTarget.Units
	m.Version = s.Version
}

// CheckpointRecordModel is an append-only tier evaluation log row
type CheckpointRecordModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_checkpoint_tenant_user,priority:1"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_checkpoint_tenant_user,priority:2"`
	PeriodStart      time.Time       `gorm:"not null"`
	PeriodEnd        time.Time       `gorm:"not null"`
	Metric           string          `gorm:"type:varchar(20);not null"`
	MeasuredValue    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PeriodSales      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PeriodUnits      int64           `gorm:"not null"`
	AppliedThreshold decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TierBefore       string          `gorm:"type:varchar(50);not null"`
	TierAfter        string          `gorm:"type:varchar(50);not null"`
	Status           string          `gorm:"type:varchar(20);not null;index"`
	Source           string          `gorm:"type:varchar(20);not null"`
	CreatedAt        time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (CheckpointRecordModel) TableName() string {
	return "tier_checkpoints"
}

// ToDomain converts the persistence model to a domain CheckpointRecord
func (m *CheckpointRecordModel) ToDomain() loyalty.CheckpointRecord {
	return loyalty.CheckpointRecord{
		ID:               m.ID,
		TenantID:         m.TenantID,
		UserID:           m.UserID,
		PeriodStart:      m.PeriodStart,
		PeriodEnd:        m.PeriodEnd,
		Metric:           loyalty.VIPMetric(m.Metric),
		MeasuredValue:    m.MeasuredValue,
		PeriodCounters:   loyalty.Counters{Sales: m.PeriodSales, Units: m.PeriodUnits},
		AppliedThreshold: m.AppliedThreshold,
		TierBefore:       m.TierBefore,
		TierAfter:        m.TierAfter,
		Status:           loyalty.CheckpointStatus(m.Status),
		Source:           loyalty.CheckpointSource(m.Source),
		CreatedAt:        m.CreatedAt,
	}
}

// CheckpointRecordModelFromDomain creates a persistence model from a domain CheckpointRecord
func CheckpointRecordModelFromDomain(r *loyalty.CheckpointRecord) *CheckpointRecordModel {
	return &CheckpointRecordModel{
		ID:               r.ID,
		TenantID:         r.TenantID,
		UserID:           r.UserID,
		PeriodStart:      r.PeriodStart,
		PeriodEnd:        r.PeriodEnd,
		Metric:           string(r.Metric),
		MeasuredValue:    r.MeasuredValue,
		PeriodSales:      r.PeriodCounters.Sales,
		PeriodUnits:      r.PeriodCounters.Units,
		AppliedThreshold: r.AppliedThreshold,
		TierBefore:       r.TierBefore,
		TierAfter:        r.TierAfter,
		Status:           string(r.Status),
		Source:           string(r.Source),
		CreatedAt:        r.CreatedAt,
	}
}

// SalesAdjustmentModel is a queued manual correction to a user's counters
type SalesAdjustmentModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AmountUnits    int64           `gorm:"not null"`
	Reason         string          `gorm:"type:varchar(500);not null"`
	AdjustmentType string          `gorm:"type:varchar(20);not null"`
	AdjustedBy     uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt      time.Time       `gorm:"not null"`
	AppliedAt      *time.Time      `gorm:"index"`
}

// TableName returns the table name for GORM
func (SalesAdjustmentModel) TableName() string {
	return "sales_adjustments"
}

// ToDomain converts the persistence model to a domain SalesAdjustment
func (m *SalesAdjustmentModel) ToDomain() loyalty.SalesAdjustment {
	return loyalty.SalesAdjustment{
		ID:             m.ID,
		TenantID:       m.TenantID,
		UserID:         m.UserID,
		Amount:         m.Amount,
		AmountUnits:    m.AmountUnits,
		Reason:         m.Reason,
		AdjustmentType: loyalty.AdjustmentType(m.AdjustmentType),
		AdjustedBy:     m.AdjustedBy,
		CreatedAt:      m.CreatedAt,
		AppliedAt:      m.AppliedAt,
	}
}

// SalesAdjustmentModelFromDomain creates a persistence model from a domain SalesAdjustment
func SalesAdjustmentModelFromDomain(a *loyalty.SalesAdjustment) *SalesAdjustmentModel {
	return &SalesAdjustmentModel{
		ID:             a.ID,
		TenantID:       a.TenantID,
		UserID:         a.UserID,
		Amount:         a.Amount,
		AmountUnits:    a.AmountUnits,
		Reason:         a.Reason,
		AdjustmentType: string(a.AdjustmentType),
		AdjustedBy:     a.AdjustedBy,
		CreatedAt:      a.CreatedAt,
		AppliedAt:      a.AppliedAt,
	}
}

// PerformanceDeltaModel is a staged sales/units increment written by the
// order pipeline and consumed by the daily ingest stage
type PerformanceDeltaModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null"`
	Sales      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Units      int64           `gorm:"not null"`
	Source     string          `gorm:"type:varchar(50)"`
	RecordedAt time.Time       `gorm:"not null"`
	ConsumedAt *time.Time      `gorm:"index"`
}

// TableName returns the table name for GORM
func (PerformanceDeltaModel) TableName() string {
	return "performance_deltas"
}

// ToDomain converts the persistence model to a domain PerformanceDelta
func (m *PerformanceDeltaModel) ToDomain() loyalty.PerformanceDelta {
	return loyalty.PerformanceDelta{
		ID:         m.ID,
		TenantID:   m.TenantID,
		UserID:     m.UserID,
		Sales:      m.Sales,
		Units:      m.Units,
		Source:     m.Source,
		RecordedAt: m.RecordedAt,
		ConsumedAt: m.ConsumedAt,
	}
}

// PerformanceDeltaModelFromDomain creates a persistence model from a domain PerformanceDelta
func PerformanceDeltaModelFromDomain(d *loyalty.PerformanceDelta) *PerformanceDeltaModel {
	return &PerformanceDeltaModel{
		ID:         d.ID,
		TenantID:   d.TenantID,
		UserID:     d.UserID,
		Sales:      d.Sales,
		Units:      d.Units,
		Source:     d.Source,
		RecordedAt: d.RecordedAt,
		ConsumedAt: d.ConsumedAt,
	}
}
