package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is the identity and timestamps of a stored record
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch moves UpdatedAt forward to at.
func (e *BaseEntity) Touch(at time.Time) {
	e.UpdatedAt = at
}

// TenantAggregateRoot is an aggregate owned by exactly one tenant. Version
// guards concurrent writers; pending events are drained by the service that
// saved the aggregate.
type TenantAggregateRoot struct {
	BaseEntity
	TenantID uuid.UUID
	Version  int

	events []DomainEvent
}

// NewTenantAggregateRoot starts a version 1 aggregate with a fresh ID
func NewTenantAggregateRoot(tenantID uuid.UUID, at time.Time) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: at, UpdatedAt: at},
		TenantID:   tenantID,
		Version:    1,
	}
}

// BelongsTo reports whether the aggregate is owned by tenantID.
func (t *TenantAggregateRoot) BelongsTo(tenantID uuid.UUID) bool {
	return t.TenantID == tenantID
}

func (t *TenantAggregateRoot) IncrementVersion() {
	t.Version++
}

// AddDomainEvent queues event until the aggregate is persisted
func (t *TenantAggregateRoot) AddDomainEvent(event DomainEvent) {
	t.events = append(t.events, event)
}

func (t *TenantAggregateRoot) GetDomainEvents() []DomainEvent {
	return t.events
}

func (t *TenantAggregateRoot) ClearDomainEvents() {
	t.events = nil
}
