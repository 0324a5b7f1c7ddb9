// Package models contains the GORM persistence models of the receiving service.
// Models stay separate from domain entities so the domain layer carries no ORM
// tags; each model converts to and from its domain counterpart.
//
// Files:
// - base.go: columns shared by every tenant-owned aggregate
// - trade.go: purchase orders, receives and their lines
// - inventory.go: lots, serials and stock levels created by receiving
// - directory.go: vendors, catalog items, locations and the activity log
// - sequence.go: display-ID counters
package models
