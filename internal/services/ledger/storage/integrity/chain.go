package integrity

import (
	"fmt"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
)

// Seal fills the integrity fields of evt, which must already carry its
// sequence number, linking it to the chain hash of the previous entry.
func (k *Keyring) Seal(scope string, evt event.Event, prevChainHash string) (event.Event, error) {
	if evt.Seq == 0 {
		return event.Event{}, fmt.Errorf("event sequence must be greater than zero")
	}
	if evt.Seq == 1 && prevChainHash != "" {
		return event.Event{}, fmt.Errorf("first journal entry cannot have a predecessor")
	}
	hash, err := event.EventHash(evt)
	if err != nil {
		return event.Event{}, fmt.Errorf("compute event hash: %w", err)
	}
	chainHash, err := event.ChainHash(evt, prevChainHash)
	if err != nil {
		return event.Event{}, fmt.Errorf("compute chain hash: %w", err)
	}
	sig, keyID, err := k.Sign(scope, chainHash)
	if err != nil {
		return event.Event{}, fmt.Errorf("sign chain hash: %w", err)
	}
	evt.Hash = hash
	evt.PrevHash = prevChainHash
	evt.ChainHash = chainHash
	evt.Signature = sig
	evt.SignatureKeyID = keyID
	return evt, nil
}

// Verifier walks a journal in sequence order and checks every link.
type Verifier struct {
	keyring  *Keyring
	scope    string
	lastSeq  uint64
	lastHash string
}

// NewVerifier starts a verification pass at the head of the journal.
func NewVerifier(keyring *Keyring, scope string) *Verifier {
	return &Verifier{keyring: keyring, scope: scope}
}

// Next checks evt against the entry verified before it.
func (v *Verifier) Next(evt event.Event) error {
	if evt.Seq != v.lastSeq+1 {
		return fmt.Errorf("journal sequence gap: expected=%d got=%d", v.lastSeq+1, evt.Seq)
	}
	if evt.PrevHash != v.lastHash {
		return fmt.Errorf("journal prev hash mismatch at seq %d", evt.Seq)
	}
	hash, err := event.EventHash(evt)
	if err != nil {
		return fmt.Errorf("compute event hash at seq %d: %w", evt.Seq, err)
	}
	if hash != evt.Hash {
		return fmt.Errorf("journal event hash mismatch at seq %d", evt.Seq)
	}
	chainHash, err := event.ChainHash(evt, v.lastHash)
	if err != nil {
		return fmt.Errorf("compute chain hash at seq %d: %w", evt.Seq, err)
	}
	if chainHash != evt.ChainHash {
		return fmt.Errorf("journal chain hash mismatch at seq %d", evt.Seq)
	}
	if err := v.keyring.Verify(v.scope, evt.ChainHash, evt.Signature, evt.SignatureKeyID); err != nil {
		return fmt.Errorf("journal signature invalid at seq %d: %w", evt.Seq, err)
	}
	v.lastSeq = evt.Seq
	v.lastHash = evt.ChainHash
	return nil
}

// Verified returns the number of entries checked so far.
func (v *Verifier) Verified() uint64 {
	return v.lastSeq
}
