package engine

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
)

// DefaultStripes is the number of lock stripes a host uses unless configured.
const DefaultStripes = 256

type lockTable struct {
	stripes []sync.RWMutex
}

func newLockTable(n int) *lockTable {
	if n <= 0 {
		n = DefaultStripes
	}
	return &lockTable{stripes: make([]sync.RWMutex, n)}
}

func (t *lockTable) stripe(addr address.Address) int {
	return int(xxhash.Sum64(addr[:]) % uint64(len(t.stripes)))
}

type stripeLock struct {
	index int
	write bool
}

// acquire locks the stripes covering metas and returns the release func.
// A stripe is write-locked when any account mapping to it is writable.
func (t *lockTable) acquire(metas []AccountMeta) func() {
	modes := make(map[int]bool, len(metas))
	for _, meta := range metas {
		idx := t.stripe(meta.Address)
		modes[idx] = modes[idx] || meta.Writable
	}
	held := make([]stripeLock, 0, len(modes))
	for idx, write := range modes {
		held = append(held, stripeLock{index: idx, write: write})
	}
	sort.Slice(held, func(i, j int) bool { return held[i].index < held[j].index })

	for _, l := range held {
		if l.write {
			t.stripes[l.index].Lock()
		} else {
			t.stripes[l.index].RLock()
		}
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			if held[i].write {
				t.stripes[held[i].index].Unlock()
			} else {
				t.stripes[held[i].index].RUnlock()
			}
		}
	}
}
