// Package integrity links committed notifications into a tamper-evident
// journal. Each event carries a content hash, the chain hash of its
// predecessor, its own chain hash and an HMAC signature over that chain hash
// made with a key derived for the journal's scope.
package integrity
