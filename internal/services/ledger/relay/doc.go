// Package relay delivers committed ledger notifications off-ledger.
//
// A Worker claims due rows from the store's notification outbox, loads the
// journaled event for each and hands it to a Publisher. Delivered rows are
// removed; failed rows are rescheduled with backoff and dead-lettered once
// they exhaust their attempts. The ledger never reads what the relay publishes.
package relay
