// Package models contains GORM persistence models for the ledger tables.
// Domain entities stay free of GORM tags; each model carries ToDomain and
// a FromDomain constructor, and repositories only ever read and write models.
//
//   - base.go: AggregateModel with id, timestamps and the optimistic-lock version
//   - ledger.go: accounts, invoices, payments and balance_adjustments
package models
