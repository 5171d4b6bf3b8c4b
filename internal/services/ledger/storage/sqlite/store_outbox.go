package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
	"github.com/louisbranch/podcom/internal/services/ledger/storage"
)

func enqueueOutbox(ctx context.Context, tx *sql.Tx, evt event.Event, at time.Time) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO notification_outbox (
		    seq, event_type, status, attempt_count, next_attempt_at, last_error, updated_at
		 ) VALUES (?, ?, 'pending', 0, ?, '', ?)
		 ON CONFLICT(seq) DO NOTHING`,
		int64(evt.Seq),
		string(evt.Type),
		toMillis(at),
		toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox row %d: %w", evt.Seq, err)
	}
	return nil
}

// ClaimOutbox moves up to limit due rows to processing and returns them.
// Rows whose processing lease expired are reclaimed.
func (s *Store) ClaimOutbox(ctx context.Context, now time.Time, limit int) ([]storage.OutboxEntry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	if now.IsZero() {
		now = s.now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin outbox claim tx: %w", err)
	}
	defer tx.Rollback()

	staleBefore := now.Add(-storage.OutboxProcessingLease)
	rows, err := tx.QueryContext(
		ctx,
		`SELECT seq, event_type, attempt_count, last_error
		 FROM notification_outbox
		 WHERE (status IN ('pending', 'failed') AND next_attempt_at <= ?)
		    OR (status = 'processing' AND updated_at <= ?)
		 ORDER BY next_attempt_at, seq
		 LIMIT ?`,
		toMillis(now),
		toMillis(staleBefore),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list due outbox rows: %w", err)
	}
	candidates := make([]storage.OutboxEntry, 0, limit)
	for rows.Next() {
		var (
			entry storage.OutboxEntry
			seq   int64
		)
		if err := rows.Scan(&seq, &entry.EventType, &entry.AttemptCount, &entry.LastError); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan due outbox row: %w", err)
		}
		entry.Seq = uint64(seq)
		candidates = append(candidates, entry)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate due outbox rows: %w", err)
	}
	rows.Close()

	claimed := make([]storage.OutboxEntry, 0, len(candidates))
	for _, candidate := range candidates {
		result, err := tx.ExecContext(
			ctx,
			`UPDATE notification_outbox
			 SET status = 'processing', updated_at = ?
			 WHERE seq = ?
			   AND ((status IN ('pending', 'failed') AND next_attempt_at <= ?)
			        OR (status = 'processing' AND updated_at <= ?))`,
			toMillis(now),
			int64(candidate.Seq),
			toMillis(now),
			toMillis(staleBefore),
		)
		if err != nil {
			return nil, fmt.Errorf("claim outbox row %d: %w", candidate.Seq, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("claim outbox row %d rows affected: %w", candidate.Seq, err)
		}
		if affected == 1 {
			candidate.Status = storage.OutboxProcessing
			candidate.UpdatedAt = now
			claimed = append(claimed, candidate)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit outbox claim tx: %w", err)
	}
	return claimed, nil
}

// CompleteOutbox removes a delivered row.
func (s *Store) CompleteOutbox(ctx context.Context, seq uint64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM notification_outbox WHERE seq = ? AND status = 'processing'`,
		int64(seq),
	)
	if err != nil {
		return fmt.Errorf("complete outbox row %d: %w", seq, err)
	}
	return ensureSingleRow(result, seq, "complete outbox row", "deleted")
}

// RetryOutbox records a failed delivery attempt. The row is rescheduled with
// backoff, or dead-lettered once it reaches the attempt threshold.
func (s *Store) RetryOutbox(ctx context.Context, entry storage.OutboxEntry, now time.Time, lastError string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if now.IsZero() {
		now = s.now().UTC()
	}
	attempt := entry.AttemptCount + 1
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE notification_outbox
		 SET status = ?,
		     attempt_count = ?,
		     next_attempt_at = ?,
		     last_error = ?,
		     updated_at = ?
		 WHERE seq = ? AND status = 'processing'`,
		string(storage.NextOutboxStatus(attempt)),
		attempt,
		toMillis(now.Add(storage.OutboxRetryBackoff(attempt))),
		lastError,
		toMillis(now),
		int64(entry.Seq),
	)
	if err != nil {
		return fmt.Errorf("mark outbox retry for row %d: %w", entry.Seq, err)
	}
	return ensureSingleRow(result, entry.Seq, "mark outbox retry for row", "updated")
}

func ensureSingleRow(result sql.Result, seq uint64, operation, verb string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d rows affected: %w", operation, seq, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", operation, seq, storage.ErrNotFound)
	}
	if affected != 1 {
		return fmt.Errorf("%s %d: expected 1 row %s, got %d", operation, seq, verb, affected)
	}
	return nil
}

// OutboxSummary reports queue depth by status and the oldest due row.
func (s *Store) OutboxSummary(ctx context.Context) (storage.OutboxSummary, error) {
	if err := s.ready(ctx); err != nil {
		return storage.OutboxSummary{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT status, COUNT(*) FROM notification_outbox GROUP BY status`)
	if err != nil {
		return storage.OutboxSummary{}, fmt.Errorf("query outbox summary counts: %w", err)
	}
	defer rows.Close()

	var summary storage.OutboxSummary
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return storage.OutboxSummary{}, fmt.Errorf("scan outbox summary count: %w", err)
		}
		switch storage.OutboxStatus(status) {
		case storage.OutboxPending:
			summary.PendingCount = count
		case storage.OutboxProcessing:
			summary.ProcessingCount = count
		case storage.OutboxFailed:
			summary.FailedCount = count
		case storage.OutboxDead:
			summary.DeadCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return storage.OutboxSummary{}, fmt.Errorf("iterate outbox summary counts: %w", err)
	}

	var seq, nextAttempt int64
	err = s.sqlDB.QueryRowContext(
		ctx,
		`SELECT seq, next_attempt_at
		 FROM notification_outbox
		 WHERE status IN ('pending', 'failed')
		 ORDER BY next_attempt_at, seq
		 LIMIT 1`,
	).Scan(&seq, &nextAttempt)
	if errors.Is(err, sql.ErrNoRows) {
		return summary, nil
	}
	if err != nil {
		return storage.OutboxSummary{}, fmt.Errorf("query oldest pending outbox row: %w", err)
	}
	summary.OldestPendingSeq = uint64(seq)
	summary.OldestPendingAt = fromMillis(nextAttempt)
	return summary, nil
}

// RequeueDeadOutbox moves up to limit dead rows back to pending.
func (s *Store) RequeueDeadOutbox(ctx context.Context, limit int, now time.Time) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if limit <= 0 {
		return 0, fmt.Errorf("outbox requeue limit must be greater than zero")
	}
	if now.IsZero() {
		now = s.now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE notification_outbox
		 SET status = 'pending',
		     attempt_count = 0,
		     next_attempt_at = ?,
		     last_error = '',
		     updated_at = ?
		 WHERE seq IN (
		     SELECT seq FROM notification_outbox
		     WHERE status = 'dead'
		     ORDER BY next_attempt_at, seq
		     LIMIT ?
		 )`,
		toMillis(now),
		toMillis(now),
		limit,
	)
	if err != nil {
		return 0, fmt.Errorf("requeue dead outbox rows: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("requeue dead outbox rows affected: %w", err)
	}
	return int(affected), nil
}
