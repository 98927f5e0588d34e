// Package sqlite provides a SQLite-backed pirates store.
//
// It persists confrontation and plunder records, consumed offer nonces and
// the audit trail. One transition's change is written in a single SQL
// transaction.
package sqlite
