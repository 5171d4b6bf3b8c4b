// Package account defines the entity records stored at derived addresses and
// the transaction view every ledger operation runs against.
//
// Records are plain values. They never hold references to each other; every
// cross-entity link is an address that consumers re-derive before trusting.
package account
