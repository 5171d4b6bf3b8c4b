package storage

import "time"

// OutboxStatus is the delivery state of an outbox row.
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxFailed     OutboxStatus = "failed"
	OutboxDead       OutboxStatus = "dead"
)

const (
	// OutboxDeadLetterThreshold is the attempt count at which a row stops
	// being retried.
	OutboxDeadLetterThreshold = 8
	// OutboxProcessingLease is how long a claimed row may stay in processing
	// before another worker can reclaim it.
	OutboxProcessingLease = 2 * time.Minute

	outboxMaxBackoff = 5 * time.Minute
)

// OutboxEntry is one journal entry awaiting delivery.
type OutboxEntry struct {
	Seq           uint64
	EventType     string
	Status        OutboxStatus
	AttemptCount  int
	NextAttemptAt time.Time
	LastError     string
	UpdatedAt     time.Time
}

// OutboxSummary reports queue depth by status and the oldest due row.
type OutboxSummary struct {
	PendingCount     int
	ProcessingCount  int
	FailedCount      int
	DeadCount        int
	OldestPendingSeq uint64
	OldestPendingAt  time.Time
}

// OutboxRetryBackoff returns the delay before attempt is retried.
func OutboxRetryBackoff(attempt int) time.Duration {
	if attempt <= 1 {
		return time.Second
	}
	if attempt > 16 {
		return outboxMaxBackoff
	}
	delay := time.Second << (attempt - 1)
	if delay > outboxMaxBackoff {
		return outboxMaxBackoff
	}
	return delay
}

// NextOutboxStatus returns the status a row takes after a failed attempt.
func NextOutboxStatus(attempt int) OutboxStatus {
	if attempt >= OutboxDeadLetterThreshold {
		return OutboxDead
	}
	return OutboxFailed
}

// Due reports whether the entry can be claimed at now.
func (e OutboxEntry) Due(now time.Time) bool {
	switch e.Status {
	case OutboxPending, OutboxFailed:
		return !e.NextAttemptAt.After(now)
	case OutboxProcessing:
		return !e.UpdatedAt.After(now.Add(-OutboxProcessingLease))
	default:
		return false
	}
}
