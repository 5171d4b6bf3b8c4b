// Package memory implements the ledger storage contracts in process memory.
// It backs tests and ephemeral runs and follows the same commit, journal and
// outbox rules as the SQLite store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
	"github.com/louisbranch/podcom/internal/services/ledger/storage"
	"github.com/louisbranch/podcom/internal/services/ledger/storage/integrity"
)

// Store is an in-memory storage.Store.
type Store struct {
	mu       sync.RWMutex
	keyring  *integrity.Keyring
	scope    string
	now      func() time.Time
	accounts map[address.Address]storage.Account
	events   []event.Event
	eventIDs map[string]struct{}
	outbox   map[uint64]storage.OutboxEntry
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store that signs its journal with keyring under scope.
// An empty scope selects storage.DefaultJournalScope.
func New(keyring *integrity.Keyring, scope string) (*Store, error) {
	if keyring == nil {
		return nil, fmt.Errorf("journal keyring is required")
	}
	if scope == "" {
		scope = storage.DefaultJournalScope
	}
	return &Store{
		keyring:  keyring,
		scope:    scope,
		now:      time.Now,
		accounts: make(map[address.Address]storage.Account),
		eventIDs: make(map[string]struct{}),
		outbox:   make(map[uint64]storage.OutboxEntry),
	}, nil
}

// SetClock overrides the clock used for outbox bookkeeping.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// GetAccount returns a copy of the committed image of addr.
func (s *Store) GetAccount(ctx context.Context, addr address.Address) (storage.Account, error) {
	if err := ctx.Err(); err != nil {
		return storage.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[addr]
	if !ok {
		return storage.Account{}, storage.ErrNotFound
	}
	acct.Data = append([]byte(nil), acct.Data...)
	return acct, nil
}

// Commit applies the write set atomically. Events are sealed before any
// state changes so a sealing failure leaves the store untouched.
func (s *Store) Commit(ctx context.Context, c storage.Commit) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		headSeq  uint64
		headHash string
	)
	if n := len(s.events); n > 0 {
		headSeq = s.events[n-1].Seq
		headHash = s.events[n-1].ChainHash
	}

	sealed := make([]event.Event, 0, len(c.Events))
	seen := make(map[string]struct{}, len(c.Events))
	for i, evt := range c.Events {
		if _, dup := s.eventIDs[evt.ID]; dup {
			return nil, fmt.Errorf("event %s already journaled", evt.ID)
		}
		if _, dup := seen[evt.ID]; dup {
			return nil, fmt.Errorf("event %s already journaled", evt.ID)
		}
		seen[evt.ID] = struct{}{}

		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
		evt.Seq = headSeq + uint64(i) + 1
		evt.PayloadJSON = append([]byte(nil), evt.PayloadJSON...)
		stored, err := s.keyring.Seal(s.scope, evt, headHash)
		if err != nil {
			return nil, fmt.Errorf("seal event %s: %w", evt.ID, err)
		}
		headHash = stored.ChainHash
		sealed = append(sealed, stored)
	}

	for _, acct := range c.Accounts {
		if acct.Empty() {
			delete(s.accounts, acct.Address)
			continue
		}
		acct.Data = append([]byte(nil), acct.Data...)
		acct.UpdatedAt = acct.UpdatedAt.UTC().Truncate(time.Millisecond)
		s.accounts[acct.Address] = acct
	}

	enqueuedAt := s.now().UTC().Truncate(time.Millisecond)
	for _, evt := range sealed {
		s.events = append(s.events, evt)
		s.eventIDs[evt.ID] = struct{}{}
		s.outbox[evt.Seq] = storage.OutboxEntry{
			Seq:           evt.Seq,
			EventType:     string(evt.Type),
			Status:        storage.OutboxPending,
			NextAttemptAt: enqueuedAt,
			UpdatedAt:     enqueuedAt,
		}
	}
	return append([]event.Event(nil), sealed...), nil
}

// GetEvent loads one journal entry by sequence number.
func (s *Store) GetEvent(ctx context.Context, seq uint64) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if seq == 0 || seq > uint64(len(s.events)) {
		return event.Event{}, storage.ErrNotFound
	}
	return s.events[seq-1], nil
}

// ListEvents returns up to limit entries after afterSeq in ascending order.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || afterSeq >= uint64(len(s.events)) {
		return []event.Event{}, nil
	}
	end := min(int(afterSeq)+limit, len(s.events))
	return append([]event.Event(nil), s.events[afterSeq:end]...), nil
}

// VerifyJournal re-checks every entry.
func (s *Store) VerifyJournal(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	verifier := integrity.NewVerifier(s.keyring, s.scope)
	for _, evt := range s.events {
		if err := verifier.Next(evt); err != nil {
			return verifier.Verified(), err
		}
	}
	return verifier.Verified(), nil
}

// ClaimOutbox leases up to limit due rows in (next attempt, seq) order.
func (s *Store) ClaimOutbox(ctx context.Context, now time.Time, limit int) ([]storage.OutboxEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.IsZero() {
		now = s.now()
	}
	now = now.UTC()

	due := make([]storage.OutboxEntry, 0)
	for _, entry := range s.outbox {
		if entry.Due(now) {
			due = append(due, entry)
		}
	}
	sortByDue(due)
	if len(due) > limit {
		due = due[:limit]
	}
	for i := range due {
		due[i].Status = storage.OutboxProcessing
		due[i].UpdatedAt = now
		s.outbox[due[i].Seq] = due[i]
	}
	return due, nil
}

// CompleteOutbox removes a delivered row.
func (s *Store) CompleteOutbox(ctx context.Context, seq uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.outbox[seq]
	if !ok || entry.Status != storage.OutboxProcessing {
		return fmt.Errorf("complete outbox row %d: %w", seq, storage.ErrNotFound)
	}
	delete(s.outbox, seq)
	return nil
}

// RetryOutbox records a failed delivery attempt.
func (s *Store) RetryOutbox(ctx context.Context, entry storage.OutboxEntry, now time.Time, lastError string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.outbox[entry.Seq]
	if !ok || current.Status != storage.OutboxProcessing {
		return fmt.Errorf("mark outbox retry for row %d: %w", entry.Seq, storage.ErrNotFound)
	}
	if now.IsZero() {
		now = s.now()
	}
	now = now.UTC()
	attempt := entry.AttemptCount + 1
	current.Status = storage.NextOutboxStatus(attempt)
	current.AttemptCount = attempt
	current.NextAttemptAt = now.Add(storage.OutboxRetryBackoff(attempt))
	current.LastError = lastError
	current.UpdatedAt = now
	s.outbox[entry.Seq] = current
	return nil
}

// OutboxSummary reports queue depth by status.
func (s *Store) OutboxSummary(ctx context.Context) (storage.OutboxSummary, error) {
	if err := ctx.Err(); err != nil {
		return storage.OutboxSummary{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary storage.OutboxSummary
	var oldest *storage.OutboxEntry
	for _, entry := range s.outbox {
		switch entry.Status {
		case storage.OutboxPending:
			summary.PendingCount++
		case storage.OutboxProcessing:
			summary.ProcessingCount++
			continue
		case storage.OutboxFailed:
			summary.FailedCount++
		case storage.OutboxDead:
			summary.DeadCount++
			continue
		}
		if oldest == nil || entry.NextAttemptAt.Before(oldest.NextAttemptAt) ||
			(entry.NextAttemptAt.Equal(oldest.NextAttemptAt) && entry.Seq < oldest.Seq) {
			e := entry
			oldest = &e
		}
	}
	if oldest != nil {
		summary.OldestPendingSeq = oldest.Seq
		summary.OldestPendingAt = oldest.NextAttemptAt
	}
	return summary, nil
}

// RequeueDeadOutbox moves up to limit dead rows back to pending.
func (s *Store) RequeueDeadOutbox(ctx context.Context, limit int, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if limit <= 0 {
		return 0, fmt.Errorf("outbox requeue limit must be greater than zero")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.IsZero() {
		now = s.now()
	}
	now = now.UTC()

	dead := make([]storage.OutboxEntry, 0)
	for _, entry := range s.outbox {
		if entry.Status == storage.OutboxDead {
			dead = append(dead, entry)
		}
	}
	sortByDue(dead)
	if len(dead) > limit {
		dead = dead[:limit]
	}
	for _, entry := range dead {
		entry.Status = storage.OutboxPending
		entry.AttemptCount = 0
		entry.NextAttemptAt = now
		entry.LastError = ""
		entry.UpdatedAt = now
		s.outbox[entry.Seq] = entry
	}
	return len(dead), nil
}

func sortByDue(entries []storage.OutboxEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].NextAttemptAt.Equal(entries[j].NextAttemptAt) {
			return entries[i].NextAttemptAt.Before(entries[j].NextAttemptAt)
		}
		return entries[i].Seq < entries[j].Seq
	})
}
