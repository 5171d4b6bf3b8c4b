package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
)

// ErrNotFound indicates a requested account, event or outbox row is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// DefaultJournalScope names the journal signing scope when none is set.
const DefaultJournalScope = "ledger"

// Account is the committed image of one address. Wallet-only addresses carry
// lamports and no record (Kind is account.KindNone and Data is empty).
type Account struct {
	Address   address.Address
	Kind      account.Kind
	Lamports  uint64
	Data      []byte
	UpdatedAt time.Time
}

// Empty reports whether the account holds neither a record nor lamports.
func (a Account) Empty() bool {
	return a.Kind == account.KindNone && a.Lamports == 0 && len(a.Data) == 0
}

// Commit is the write set of one transition.
type Commit struct {
	Accounts []Account
	// Events are stamped but unsealed; the store assigns sequence numbers
	// and integrity fields in order.
	Events []event.Event
}

// AccountStore reads committed accounts.
type AccountStore interface {
	GetAccount(ctx context.Context, addr address.Address) (Account, error)
}

// Committer applies a transition's write set atomically and returns the
// sealed journal entries.
type Committer interface {
	Commit(ctx context.Context, c Commit) ([]event.Event, error)
}

// JournalStore reads and audits the notification journal.
type JournalStore interface {
	GetEvent(ctx context.Context, seq uint64) (event.Event, error)
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
	// VerifyJournal re-checks every hash link and signature and returns the
	// number of entries verified.
	VerifyJournal(ctx context.Context) (uint64, error)
}

// OutboxStore tracks journal entries awaiting off-ledger delivery.
type OutboxStore interface {
	ClaimOutbox(ctx context.Context, now time.Time, limit int) ([]OutboxEntry, error)
	CompleteOutbox(ctx context.Context, seq uint64) error
	RetryOutbox(ctx context.Context, entry OutboxEntry, now time.Time, lastError string) error
	OutboxSummary(ctx context.Context) (OutboxSummary, error)
	RequeueDeadOutbox(ctx context.Context, limit int, now time.Time) (int, error)
}

// Store is the full persistence surface used by the host, the relay and the
// maintenance command.
type Store interface {
	AccountStore
	Committer
	JournalStore
	OutboxStore
	Close() error
}
