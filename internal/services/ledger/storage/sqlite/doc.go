// Package sqlite implements the ledger storage contracts on SQLite.
//
// Accounts, the signed notification journal and the relay outbox share one
// database file so a commit can update all three in a single transaction.
package sqlite
