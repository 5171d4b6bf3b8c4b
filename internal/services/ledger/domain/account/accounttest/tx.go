// Package accounttest provides an in-memory account.Tx for domain tests.
package accounttest

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
)

// Program is the program id tests derive addresses under.
var Program = address.MustParse("HEpGLgYsE1kP8aoYKyLFc3JVVrofS7T4zEA6fWBJsZps")

type stored struct {
	kind account.Kind
	data []byte
}

// Tx is a mutable fake transaction. Records pass through the real codec so
// tests observe the same copy semantics as the engine.
type Tx struct {
	Clock    time.Time
	Key      address.Address
	Derivers address.Deriver
	Drafts   []event.Draft

	records  map[address.Address]stored
	balances map[address.Address]uint64
}

// NewTx returns an empty transaction signed by signer at now.
func NewTx(signer address.Address, now time.Time) *Tx {
	return &Tx{
		Clock:    now.UTC(),
		Key:      signer,
		Derivers: address.NewDeriver(Program),
		records:  make(map[address.Address]stored),
		balances: make(map[address.Address]uint64),
	}
}

// As switches the signer, keeping all state.
func (t *Tx) As(signer address.Address) *Tx {
	t.Key = signer
	return t
}

// At moves the clock, keeping all state.
func (t *Tx) At(now time.Time) *Tx {
	t.Clock = now.UTC()
	return t
}

// Fund credits lamports to addr.
func (t *Tx) Fund(addr address.Address, lamports uint64) {
	t.balances[addr] += lamports
}

// Snapshot copies the current state so a test can restore it after a failed
// operation, mirroring the host discarding a transition.
func (t *Tx) Snapshot() func() {
	records := make(map[address.Address]stored, len(t.records))
	for k, v := range t.records {
		records[k] = v
	}
	balances := make(map[address.Address]uint64, len(t.balances))
	for k, v := range t.balances {
		balances[k] = v
	}
	drafts := append([]event.Draft(nil), t.Drafts...)
	return func() {
		t.records = records
		t.balances = balances
		t.Drafts = drafts
	}
}

// LastDraft returns the most recent emitted notification.
func (t *Tx) LastDraft() (event.Draft, bool) {
	if len(t.Drafts) == 0 {
		return event.Draft{}, false
	}
	return t.Drafts[len(t.Drafts)-1], true
}

func (t *Tx) Now() time.Time { return t.Clock }

func (t *Tx) Signer() address.Address { return t.Key }

func (t *Tx) Deriver() address.Deriver { return t.Derivers }

func (t *Tx) Emit(draft event.Draft) error {
	t.Drafts = append(t.Drafts, draft)
	return nil
}

func (t *Tx) Balance(addr address.Address) (uint64, error) {
	return t.balances[addr], nil
}

func (t *Tx) Get(addr address.Address, rec account.Record) (bool, error) {
	entry, ok := t.records[addr]
	if !ok {
		return false, nil
	}
	if entry.kind != rec.Kind() {
		return false, apperrors.New(apperrors.CodeAccountKindMismatch,
			fmt.Sprintf("%s holds %s, not %s", addr, entry.kind, rec.Kind()))
	}
	return true, account.Decode(entry.data, rec)
}

func (t *Tx) Put(addr address.Address, rec account.Record) error {
	if entry, ok := t.records[addr]; ok && entry.kind != rec.Kind() {
		return apperrors.New(apperrors.CodeAccountKindMismatch,
			fmt.Sprintf("%s holds %s, not %s", addr, entry.kind, rec.Kind()))
	}
	data, err := account.Encode(rec)
	if err != nil {
		return err
	}
	t.records[addr] = stored{kind: rec.Kind(), data: data}
	return nil
}

func (t *Tx) Transfer(from, to address.Address, amount uint64) error {
	if t.balances[from] < amount {
		return apperrors.New(apperrors.CodeWalletInsufficient, "insufficient lamports")
	}
	if t.balances[to] > math.MaxUint64-amount {
		return apperrors.New(apperrors.CodeAccountBalanceOverflow, "balance overflow")
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}

var _ account.Tx = (*Tx)(nil)
