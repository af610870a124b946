// Package models contains GORM persistence models for the billing ledger.
// Domain entities carry no ORM tags; each model here maps one table and
// converts to and from its domain type with ToDomain / FromDomain.
//
//   - base.go: shared id, timestamp and version columns
//   - billing.go: plans, installments and cash flow entries
package models
