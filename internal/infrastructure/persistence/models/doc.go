// Package models contains GORM persistence models that map to database tables.
// Domain types stay free of ORM tags; each model converts with ToDomain and
// FromDomain, and repositories only ever read and write models.
//
// Structure:
//   - base.go: shared identity, version and tenant columns
//   - loyalty.go: programs, tiers, user tier state, checkpoint log, adjustments, performance deltas
//   - reward.go: redemptions, commission boosts and boost state history
package models
