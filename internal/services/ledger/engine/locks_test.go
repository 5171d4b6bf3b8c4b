package engine

import (
	"testing"
	"time"
)

func TestLockTableMergesModesPerStripe(t *testing.T) {
	table := newLockTable(1)
	release := table.acquire([]AccountMeta{ReadOnly(key(1)), Writable(key(2))})

	acquired := make(chan struct{})
	go func() {
		r := table.acquire([]AccountMeta{ReadOnly(key(3))})
		close(acquired)
		r()
	}()
	select {
	case <-acquired:
		t.Fatal("expected shared stripe to be write-locked")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("expected reader to proceed after release")
	}
}

func TestLockTableReadersShare(t *testing.T) {
	table := newLockTable(4)
	first := table.acquire([]AccountMeta{ReadOnly(key(1))})
	done := make(chan struct{})
	go func() {
		second := table.acquire([]AccountMeta{ReadOnly(key(1))})
		second()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected concurrent readers to share a stripe")
	}
	first()
}

func TestLockTableDefaultStripes(t *testing.T) {
	if got := len(newLockTable(0).stripes); got != DefaultStripes {
		t.Fatalf("stripes = %d, want %d", got, DefaultStripes)
	}
}
