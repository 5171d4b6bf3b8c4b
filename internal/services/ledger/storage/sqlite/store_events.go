package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
	"github.com/louisbranch/podcom/internal/services/ledger/storage"
	"github.com/louisbranch/podcom/internal/services/ledger/storage/integrity"
)

const (
	maxBusyRetries   = 8
	retryBaseDelay   = 10 * time.Millisecond
	verifyPageSize   = 200
	eventSelectQuery = `SELECT seq, event_id, event_type, instruction, address, timestamp, payload_json,
	        event_hash, prev_hash, chain_hash, signature_key_id, event_signature
	 FROM events`
)

// Commit writes the account images and seals and appends the events of one
// transition in a single transaction. Busy databases are retried with a
// linear backoff.
func (s *Store) Commit(ctx context.Context, c storage.Commit) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if len(c.Accounts) == 0 && len(c.Events) == 0 {
		return nil, nil
	}

	var lastBusyErr error
	for attempt := 0; ; attempt++ {
		sealed, err := s.commitOnce(ctx, c)
		if err == nil {
			return sealed, nil
		}
		if !isSQLiteBusyError(err) {
			return nil, err
		}
		lastBusyErr = err
		if attempt >= maxBusyRetries {
			return nil, fmt.Errorf("commit remained busy: %w", lastBusyErr)
		}
		if err := waitForRetry(ctx, attempt); err != nil {
			return nil, err
		}
	}
}

func waitForRetry(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt+1) * retryBaseDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Store) commitOnce(ctx context.Context, c storage.Commit) ([]event.Event, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin commit tx: %w", err)
	}
	defer tx.Rollback()

	for _, acct := range c.Accounts {
		if err := putAccount(ctx, tx, acct); err != nil {
			return nil, err
		}
	}

	sealed, err := s.appendEvents(ctx, tx, c.Events)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return sealed, nil
}

func (s *Store) appendEvents(ctx context.Context, tx *sql.Tx, events []event.Event) ([]event.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}

	var (
		headSeq  int64
		headHash string
	)
	err := tx.QueryRowContext(ctx, `SELECT seq, chain_hash FROM events ORDER BY seq DESC LIMIT 1`).Scan(&headSeq, &headHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load journal head: %w", err)
	}

	enqueuedAt := s.now().UTC()
	sealed := make([]event.Event, 0, len(events))
	for i, evt := range events {
		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
		evt.Seq = uint64(headSeq) + uint64(i) + 1
		stored, err := s.keyring.Seal(s.scope, evt, headHash)
		if err != nil {
			return nil, fmt.Errorf("seal event %s: %w", evt.ID, err)
		}
		if err := insertEvent(ctx, tx, stored); err != nil {
			return nil, err
		}
		if err := enqueueOutbox(ctx, tx, stored, enqueuedAt); err != nil {
			return nil, err
		}
		headHash = stored.ChainHash
		sealed = append(sealed, stored)
	}
	return sealed, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, evt event.Event) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO events (
		    seq, event_id, event_type, instruction, address, timestamp, payload_json,
		    event_hash, prev_hash, chain_hash, signature_key_id, event_signature
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(evt.Seq),
		evt.ID,
		string(evt.Type),
		evt.Instruction,
		evt.Address.String(),
		toMillis(evt.Timestamp),
		evt.PayloadJSON,
		evt.Hash,
		evt.PrevHash,
		evt.ChainHash,
		evt.SignatureKeyID,
		evt.Signature,
	)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("event %s already journaled: %w", evt.ID, err)
		}
		return fmt.Errorf("append event %s: %w", evt.ID, err)
	}
	return nil
}

// GetEvent loads one journal entry by sequence number.
func (s *Store) GetEvent(ctx context.Context, seq uint64) (event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return event.Event{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, eventSelectQuery+` WHERE seq = ?`, int64(seq))
	evt, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, storage.ErrNotFound
	}
	if err != nil {
		return event.Event{}, fmt.Errorf("get event %d: %w", seq, err)
	}
	return evt, nil
}

// ListEvents returns up to limit entries with a sequence above afterSeq in
// ascending order.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []event.Event{}, nil
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		eventSelectQuery+` WHERE seq > ? ORDER BY seq LIMIT ?`,
		int64(afterSeq),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0, limit)
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// VerifyJournal walks the whole journal and checks every link.
func (s *Store) VerifyJournal(ctx context.Context) (uint64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}

	verifier := integrity.NewVerifier(s.keyring, s.scope)
	var after uint64
	for {
		page, err := s.ListEvents(ctx, after, verifyPageSize)
		if err != nil {
			return verifier.Verified(), err
		}
		for _, evt := range page {
			if err := verifier.Next(evt); err != nil {
				return verifier.Verified(), err
			}
			after = evt.Seq
		}
		if len(page) < verifyPageSize {
			return verifier.Verified(), nil
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		evt       event.Event
		seq       int64
		eventType string
		addr      string
		timestamp int64
	)
	if err := row.Scan(
		&seq,
		&evt.ID,
		&eventType,
		&evt.Instruction,
		&addr,
		&timestamp,
		&evt.PayloadJSON,
		&evt.Hash,
		&evt.PrevHash,
		&evt.ChainHash,
		&evt.SignatureKeyID,
		&evt.Signature,
	); err != nil {
		return event.Event{}, err
	}
	parsed, err := address.Parse(addr)
	if err != nil {
		return event.Event{}, fmt.Errorf("parse event address: %w", err)
	}
	evt.Seq = uint64(seq)
	evt.Type = event.Type(eventType)
	evt.Address = parsed
	evt.Timestamp = fromMillis(timestamp)
	return evt, nil
}
