// Package engine hosts ledger transitions.
//
// An instruction declares every address it touches and whether it writes
// it. The host locks that set, runs the operation against a buffered view,
// and commits the dirty accounts together with the emitted notifications in
// one storage transaction. Any error discards the whole transition.
//
// Transitions with disjoint account sets run in parallel; overlapping ones
// serialize on striped read/write locks acquired in ascending stripe order.
package engine
