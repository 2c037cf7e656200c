// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns; each model carries a ToDomain method and a FromDomain
// constructor.
//
// Structure:
// - base.go: BaseModel and AggregateModel
// - partner.go: clients, providers and consultants
// - invoicing.go: invoices, imputations and imputation lines
// - banking.go: bank movements, settlements, planned payments and debts
package models
