// Package event defines the notifications ledger operations emit and the
// canonical envelope used to hash them into the journal chain.
//
// Operations produce Drafts. The host stamps each draft with an id and the
// transition time; storage assigns the sequence number and integrity fields
// when the transition commits.
package event
