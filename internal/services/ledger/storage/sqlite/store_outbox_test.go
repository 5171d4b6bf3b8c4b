package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/podcom/internal/services/ledger/storage"
)

func TestCommitEnqueuesOutbox(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	commitEvents(t, store, "evt-1", "evt-2")

	summary, err := store.OutboxSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.PendingCount != 2 || summary.OldestPendingSeq != 1 || !summary.OldestPendingAt.Equal(testNow) {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestOutboxClaimCompleteAndRetry(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	commitEvents(t, store, "evt-1", "evt-2")

	claimed, err := store.ClaimOutbox(ctx, testNow, 10)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(claimed) != 2 || claimed[0].Seq != 1 || claimed[0].EventType != "identity.registered" {
		t.Fatalf("claimed = %+v", claimed)
	}
	again, err := store.ClaimOutbox(ctx, testNow, 10)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected claimed rows to be leased, got %d", len(again))
	}

	if err := store.CompleteOutbox(ctx, 1); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := store.CompleteOutbox(ctx, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second complete error = %v, want not found", err)
	}
	if err := store.RetryOutbox(ctx, claimed[1], testNow, "redis down"); err != nil {
		t.Fatalf("retry: %v", err)
	}

	early, err := store.ClaimOutbox(ctx, testNow.Add(500*time.Millisecond), 10)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(early) != 0 {
		t.Fatal("expected row to wait for its backoff")
	}
	due, err := store.ClaimOutbox(ctx, testNow.Add(time.Second), 10)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(due) != 1 || due[0].Seq != 2 || due[0].AttemptCount != 1 || due[0].LastError != "redis down" {
		t.Fatalf("due = %+v", due)
	}
}

func TestOutboxReclaimsExpiredLease(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	commitEvents(t, store, "evt-1")

	if _, err := store.ClaimOutbox(ctx, testNow, 10); err != nil {
		t.Fatalf("claim: %v", err)
	}
	reclaimed, err := store.ClaimOutbox(ctx, testNow.Add(storage.OutboxProcessingLease), 10)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(reclaimed) != 1 {
		t.Fatalf("reclaimed = %d, want 1", len(reclaimed))
	}
}

func TestOutboxDeadLetterAndRequeue(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	commitEvents(t, store, "evt-1")

	now := testNow
	for attempt := 0; attempt < storage.OutboxDeadLetterThreshold; attempt++ {
		claimed, err := store.ClaimOutbox(ctx, now, 1)
		if err != nil {
			t.Fatalf("claim attempt %d: %v", attempt, err)
		}
		if len(claimed) != 1 {
			t.Fatalf("attempt %d: claimed %d rows", attempt, len(claimed))
		}
		if err := store.RetryOutbox(ctx, claimed[0], now, "publish failed"); err != nil {
			t.Fatalf("retry attempt %d: %v", attempt, err)
		}
		now = now.Add(time.Hour)
	}

	summary, err := store.OutboxSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.DeadCount != 1 || summary.FailedCount != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if claimed, _ := store.ClaimOutbox(ctx, now.Add(24*time.Hour), 1); len(claimed) != 0 {
		t.Fatal("expected dead rows to stay unclaimed")
	}

	if _, err := store.RequeueDeadOutbox(ctx, 0, now); err == nil {
		t.Fatal("expected error for zero limit")
	}
	n, err := store.RequeueDeadOutbox(ctx, 10, now)
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if n != 1 {
		t.Fatalf("requeued = %d, want 1", n)
	}
	claimed, err := store.ClaimOutbox(ctx, now, 1)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(claimed) != 1 || claimed[0].AttemptCount != 0 {
		t.Fatalf("claimed = %+v", claimed)
	}
}
