// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags
// 2. Persistence models hold the table mappings and column constraints
// 3. Each model converts to and from its domain entity with ToDomain / FromDomain
// 4. Repositories read and write models only
//
// Structure:
// - base.go: BaseModel and the AutoMigrate model list
// - catalog.go: products and warehouses
// - inventory.go: stock movements, incoming shipments and production orders
//
// The versioned SQL under migrations/ is the schema of record; All() keeps the
// sqlite test databases and development setups in step with it.
package models
