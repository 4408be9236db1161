package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/shared"
)

// BaseModel holds the identity and timestamp columns every table has
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TenantAggregateModel adds the tenant and optimistic-lock columns of a
// tenant-owned aggregate. Transition updates guard on Version.
type TenantAggregateModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Version  int       `gorm:"not null;default:1"`
}

// FromDomainTenantAggregateRoot copies the aggregate envelope into the model
func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.ID = t.ID
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
	m.TenantID = t.TenantID
	m.Version = t.Version
}

// PopulateTenantAggregateRoot copies the model's envelope columns onto t
func (m *TenantAggregateModel) PopulateTenantAggregateRoot(t *shared.TenantAggregateRoot) {
	t.ID = m.ID
	t.CreatedAt = m.CreatedAt
	t.UpdatedAt = m.UpdatedAt
	t.TenantID = m.TenantID
	t.Version = m.Version
}
