package account

import (
	"time"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
)

// Tx is the view of ledger state a single operation runs against. Reads see
// the operation's own earlier writes; nothing is visible to other operations
// until the host commits.
type Tx interface {
	// Now is the transition timestamp, fixed for the whole operation.
	Now() time.Time
	// Signer is the owner key that authorised the operation.
	Signer() address.Address
	Deriver() address.Deriver
	// Get loads the record at addr into rec. It reports false when the
	// address holds no record.
	Get(addr address.Address, rec Record) (bool, error)
	Put(addr address.Address, rec Record) error
	Balance(addr address.Address) (uint64, error)
	Transfer(from, to address.Address, amount uint64) error
	Emit(draft event.Draft) error
}
