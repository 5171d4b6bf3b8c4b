// Package storage defines the persistence contracts of the ledger: committed
// accounts, the append-only notification journal and the relay outbox.
//
// A commit is all or nothing. Account images and the notifications a
// transition emitted land in one transaction, so a reader never observes a
// state change without its journal entry or the reverse.
package storage
