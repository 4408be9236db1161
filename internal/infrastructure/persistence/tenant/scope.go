// Package tenant provides tenant scoping for GORM queries.
//
// Every loyalty table carries tenant_id. Repositories receive the tenant
// explicitly and apply Scope, so a query without a tenant never reaches
// the database.
//
//	db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Find(&tiers)
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when a scoped query is built without a tenant
var ErrTenantIDRequired = errors.New("tenant_id is required")

// Scope filters on the unqualified tenant_id column. A nil tenant aborts the query.
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return Column("tenant_id", tenantID)
}

// Column filters on a specific (usually table-qualified) tenant column, for joins
func Column(column string, tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(column+" = ?", tenantID)
	}
}
