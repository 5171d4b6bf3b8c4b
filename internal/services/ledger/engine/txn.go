package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
	"github.com/louisbranch/podcom/internal/services/ledger/storage"
)

type slot struct {
	writable bool
	loaded   bool
	dirty    bool
	acct     storage.Account
}

// txn is the buffered account.Tx a single instruction runs against.
type txn struct {
	ctx     context.Context
	reader  storage.AccountStore
	now     time.Time
	signer  address.Address
	deriver address.Deriver
	slots   map[address.Address]*slot
	order   []address.Address
	drafts  []event.Draft
}

var _ account.Tx = (*txn)(nil)

func newTxn(ctx context.Context, reader storage.AccountStore, deriver address.Deriver, signer address.Address, now time.Time, metas []AccountMeta) *txn {
	t := &txn{
		ctx:     ctx,
		reader:  reader,
		now:     now,
		signer:  signer,
		deriver: deriver,
		slots:   make(map[address.Address]*slot, len(metas)),
	}
	for _, meta := range metas {
		if s, ok := t.slots[meta.Address]; ok {
			s.writable = s.writable || meta.Writable
			continue
		}
		t.slots[meta.Address] = &slot{writable: meta.Writable}
		t.order = append(t.order, meta.Address)
	}
	return t
}

func (t *txn) Now() time.Time           { return t.now }
func (t *txn) Signer() address.Address  { return t.signer }
func (t *txn) Deriver() address.Deriver { return t.deriver }

func (t *txn) slot(addr address.Address, write bool) (*slot, error) {
	s, ok := t.slots[addr]
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeAccountNotDeclared,
			fmt.Sprintf("account %s was not declared", addr),
			map[string]string{"Address": addr.String()})
	}
	if write && !s.writable {
		return nil, apperrors.WithMetadata(apperrors.CodeAccountNotWritable,
			fmt.Sprintf("account %s is read-only", addr),
			map[string]string{"Address": addr.String()})
	}
	if s.loaded {
		return s, nil
	}
	acct, err := t.reader.GetAccount(t.ctx, addr)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		acct = storage.Account{Address: addr}
	case err != nil:
		return nil, fmt.Errorf("load account %s: %w", addr, err)
	}
	s.acct = acct
	s.loaded = true
	return s, nil
}

func kindMismatch(addr address.Address, have, want account.Kind) error {
	return apperrors.WithMetadata(apperrors.CodeAccountKindMismatch,
		fmt.Sprintf("%s holds %s, not %s", addr, have, want),
		map[string]string{"Address": addr.String(), "Kind": have.String()})
}

func (t *txn) Get(addr address.Address, rec account.Record) (bool, error) {
	s, err := t.slot(addr, false)
	if err != nil {
		return false, err
	}
	if s.acct.Kind == account.KindNone {
		return false, nil
	}
	if s.acct.Kind != rec.Kind() {
		return false, kindMismatch(addr, s.acct.Kind, rec.Kind())
	}
	if err := account.Decode(s.acct.Data, rec); err != nil {
		return false, err
	}
	return true, nil
}

func (t *txn) Put(addr address.Address, rec account.Record) error {
	s, err := t.slot(addr, true)
	if err != nil {
		return err
	}
	if s.acct.Kind != account.KindNone && s.acct.Kind != rec.Kind() {
		return kindMismatch(addr, s.acct.Kind, rec.Kind())
	}
	data, err := account.Encode(rec)
	if err != nil {
		return err
	}
	s.acct.Kind = rec.Kind()
	s.acct.Data = data
	s.dirty = true
	return nil
}

func (t *txn) Balance(addr address.Address) (uint64, error) {
	s, err := t.slot(addr, false)
	if err != nil {
		return 0, err
	}
	return s.acct.Lamports, nil
}

// Transfer moves lamports between two writable accounts. Only the signer's
// wallet and record-bearing accounts owned by the ledger can be debited.
func (t *txn) Transfer(from, to address.Address, amount uint64) error {
	src, err := t.slot(from, true)
	if err != nil {
		return err
	}
	dst, err := t.slot(to, true)
	if err != nil {
		return err
	}
	if from != t.signer && src.acct.Kind == account.KindNone {
		return apperrors.WithMetadata(apperrors.CodeAccountDebitUnauthorized,
			fmt.Sprintf("signer cannot debit %s", from),
			map[string]string{"Address": from.String()})
	}
	if amount == 0 || from == to {
		return nil
	}
	if src.acct.Lamports < amount {
		return apperrors.WithMetadata(apperrors.CodeWalletInsufficient,
			fmt.Sprintf("%s holds %d lamports, need %d", from, src.acct.Lamports, amount),
			map[string]string{"Address": from.String()})
	}
	if dst.acct.Lamports > math.MaxUint64-amount {
		return apperrors.WithMetadata(apperrors.CodeAccountBalanceOverflow,
			fmt.Sprintf("%s balance would overflow", to),
			map[string]string{"Address": to.String()})
	}
	src.acct.Lamports -= amount
	dst.acct.Lamports += amount
	src.dirty = true
	dst.dirty = true
	return nil
}

func (t *txn) Emit(draft event.Draft) error {
	if !draft.Type.Known() {
		return apperrors.New(apperrors.CodeInstructionInvalid, fmt.Sprintf("notification type %q is not registered", draft.Type))
	}
	t.drafts = append(t.drafts, draft)
	return nil
}

// writeSet returns the dirty accounts in declaration order.
func (t *txn) writeSet() []storage.Account {
	out := make([]storage.Account, 0, len(t.order))
	for _, addr := range t.order {
		s := t.slots[addr]
		if !s.dirty {
			continue
		}
		acct := s.acct
		acct.Address = addr
		acct.UpdatedAt = t.now
		out = append(out, acct)
	}
	return out
}
