package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/platform/id"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
	"github.com/louisbranch/podcom/internal/services/ledger/storage"
)

const tracerName = "github.com/louisbranch/podcom/internal/services/ledger/engine"

// AccountMeta declares one address an instruction touches.
type AccountMeta struct {
	Address  address.Address
	Writable bool
}

// Writable declares addr for writing.
func Writable(addr address.Address) AccountMeta {
	return AccountMeta{Address: addr, Writable: true}
}

// ReadOnly declares addr for reading.
func ReadOnly(addr address.Address) AccountMeta {
	return AccountMeta{Address: addr}
}

// Instruction is one signed request to run an operation.
type Instruction struct {
	Name     string
	Signer   address.Address
	Accounts []AccountMeta
	Run      func(account.Tx) error
}

func (i Instruction) validate() error {
	switch {
	case strings.TrimSpace(i.Name) == "":
		return apperrors.New(apperrors.CodeInstructionInvalid, "instruction name is required")
	case i.Signer.IsZero():
		return apperrors.New(apperrors.CodeInstructionInvalid, "instruction signer is required")
	case i.Run == nil:
		return apperrors.New(apperrors.CodeInstructionInvalid, "instruction has nothing to run")
	case len(i.Accounts) == 0:
		return apperrors.New(apperrors.CodeInstructionInvalid, "instruction declares no accounts")
	}
	for _, meta := range i.Accounts {
		if meta.Address.IsZero() {
			return apperrors.New(apperrors.CodeInstructionInvalid, "instruction declares the zero address")
		}
	}
	return nil
}

// Receipt describes a committed transition.
type Receipt struct {
	TransitionID string
	Instruction  string
	Signer       address.Address
	At           time.Time
	TraceID      string
	Events       []event.Event
}

// Store is the persistence a host needs.
type Store interface {
	storage.AccountStore
	storage.Committer
}

// Host runs instructions against a store.
type Host struct {
	store   Store
	deriver address.Deriver
	locks   *lockTable
	now     func() time.Time
	newID   func() (string, error)
	tracer  trace.Tracer
}

// Option configures a Host.
type Option func(*Host)

// WithClock overrides the transition clock.
func WithClock(now func() time.Time) Option {
	return func(h *Host) {
		if now != nil {
			h.now = now
		}
	}
}

// WithIDGenerator overrides how transition and notification ids are made.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(h *Host) {
		if newID != nil {
			h.newID = newID
		}
	}
}

// WithStripes sets the number of lock stripes.
func WithStripes(n int) Option {
	return func(h *Host) {
		h.locks = newLockTable(n)
	}
}

// WithTracerProvider traces transitions with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Host) {
		if tp != nil {
			h.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewHost returns a host that derives addresses under program.
func NewHost(store Store, program address.Address, opts ...Option) (*Host, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if program.IsZero() {
		return nil, fmt.Errorf("program id is required")
	}
	h := &Host{
		store:   store,
		deriver: address.NewDeriver(program),
		locks:   newLockTable(DefaultStripes),
		now:     time.Now,
		newID:   id.NewID,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Deriver returns the deriver bound to the host's program id.
func (h *Host) Deriver() address.Deriver {
	return h.deriver
}

func (h *Host) clock() time.Time {
	return h.now().UTC().Truncate(time.Millisecond)
}

// Execute runs ins atomically. On error nothing is committed.
func (h *Host) Execute(ctx context.Context, ins Instruction) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if err := ins.validate(); err != nil {
		return Receipt{}, err
	}
	transitionID, err := h.newID()
	if err != nil {
		return Receipt{}, fmt.Errorf("transition id: %w", err)
	}

	ctx, span := h.tracer.Start(ctx, "ledger."+ins.Name, trace.WithAttributes(
		attribute.String("ledger.instruction", ins.Name),
		attribute.String("ledger.signer", ins.Signer.String()),
		attribute.String("ledger.transition_id", transitionID),
		attribute.Int("ledger.accounts", len(ins.Accounts)),
	))
	defer span.End()

	receipt, err := h.execute(ctx, transitionID, ins)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
		return Receipt{}, err
	}
	span.SetAttributes(attribute.Int("ledger.events", len(receipt.Events)))
	if sc := span.SpanContext(); sc.IsValid() {
		receipt.TraceID = sc.TraceID().String()
	}
	return receipt, nil
}

func (h *Host) execute(ctx context.Context, transitionID string, ins Instruction) (Receipt, error) {
	release := h.locks.acquire(ins.Accounts)
	defer release()

	now := h.clock()
	tx := newTxn(ctx, h.store, h.deriver, ins.Signer, now, ins.Accounts)
	if err := ins.Run(tx); err != nil {
		return Receipt{}, err
	}

	events := make([]event.Event, 0, len(tx.drafts))
	for _, draft := range tx.drafts {
		eventID, err := h.newID()
		if err != nil {
			return Receipt{}, fmt.Errorf("event id: %w", err)
		}
		evt, err := event.New(eventID, ins.Name, now, draft)
		if err != nil {
			return Receipt{}, apperrors.Wrap(apperrors.CodeInstructionInvalid, "stamp notification", err)
		}
		events = append(events, evt)
	}

	sealed, err := h.store.Commit(ctx, storage.Commit{Accounts: tx.writeSet(), Events: events})
	if err != nil {
		return Receipt{}, fmt.Errorf("commit %s: %w", ins.Name, err)
	}
	return Receipt{
		TransitionID: transitionID,
		Instruction:  ins.Name,
		Signer:       ins.Signer,
		At:           now,
		Events:       sealed,
	}, nil
}

// Airdrop mints lamports into a wallet outside any instruction. It is an
// administrative operation for funding keys in tests and local runs.
func (h *Host) Airdrop(ctx context.Context, to address.Address, lamports uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if to.IsZero() {
		return 0, apperrors.New(apperrors.CodeInstructionInvalid, "airdrop target is required")
	}
	release := h.locks.acquire([]AccountMeta{Writable(to)})
	defer release()

	acct, err := h.store.GetAccount(ctx, to)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		acct = storage.Account{Address: to}
	case err != nil:
		return 0, fmt.Errorf("load account %s: %w", to, err)
	}
	if acct.Lamports > math.MaxUint64-lamports {
		return 0, apperrors.New(apperrors.CodeAccountBalanceOverflow, fmt.Sprintf("%s balance would overflow", to))
	}
	acct.Lamports += lamports
	acct.UpdatedAt = h.clock()
	if _, err := h.store.Commit(ctx, storage.Commit{Accounts: []storage.Account{acct}}); err != nil {
		return 0, fmt.Errorf("commit airdrop: %w", err)
	}
	return acct.Lamports, nil
}

// Load decodes the committed record at addr into rec. It reports false when
// the address holds no record.
func (h *Host) Load(ctx context.Context, addr address.Address, rec account.Record) (bool, error) {
	acct, err := h.store.GetAccount(ctx, addr)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load account %s: %w", addr, err)
	}
	if acct.Kind == account.KindNone {
		return false, nil
	}
	if acct.Kind != rec.Kind() {
		return false, kindMismatch(addr, acct.Kind, rec.Kind())
	}
	if err := account.Decode(acct.Data, rec); err != nil {
		return false, err
	}
	return true, nil
}

// Balance returns the committed lamports at addr.
func (h *Host) Balance(ctx context.Context, addr address.Address) (uint64, error) {
	acct, err := h.store.GetAccount(ctx, addr)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load account %s: %w", addr, err)
	}
	return acct.Lamports, nil
}
