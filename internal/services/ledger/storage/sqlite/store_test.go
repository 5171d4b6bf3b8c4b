package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
	"github.com/louisbranch/podcom/internal/services/ledger/storage"
	"github.com/louisbranch/podcom/internal/services/ledger/storage/integrity"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testKeyring(t *testing.T) *integrity.Keyring {
	t.Helper()
	keyring, err := integrity.NewKeyring(
		map[string][]byte{"test-key-1": []byte("0123456789abcdef0123456789abcdef")},
		"test-key-1",
	)
	if err != nil {
		t.Fatalf("create test keyring: %v", err)
	}
	return keyring
}

func openTestStoreAt(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(path, testKeyring(t), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	return openTestStoreAt(t, filepath.Join(t.TempDir(), "ledger.db"))
}

func testEvent(t *testing.T, id string, agent address.Address) event.Event {
	t.Helper()
	evt, err := event.New(id, "register_agent", testNow, event.Draft{
		Type:    event.TypeIdentityRegistered,
		Address: agent,
		Payload: event.IdentityRegisteredPayload{Agent: agent, MetadataURI: "https://agent.example", Timestamp: testNow},
	})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	return evt
}

func commitEvents(t *testing.T, store *Store, ids ...string) []event.Event {
	t.Helper()
	events := make([]event.Event, 0, len(ids))
	for _, id := range ids {
		events = append(events, testEvent(t, id, address.Address{1}))
	}
	sealed, err := store.Commit(context.Background(), storage.Commit{Events: events})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return sealed
}

func TestOpenValidation(t *testing.T) {
	if _, err := Open(" ", testKeyring(t)); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "ledger.db"), nil); err == nil {
		t.Fatal("expected error for missing keyring")
	}
}

func TestNilStore(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
	if _, err := store.GetAccount(context.Background(), address.Address{1}); err == nil {
		t.Fatal("expected error from nil store")
	}
}

func TestCommitAndGetAccount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec, err := account.Encode(&account.Escrow{Amount: 42})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	escrowAddr := address.Address{2}
	wallet := address.Address{3}
	if _, err := store.Commit(ctx, storage.Commit{Accounts: []storage.Account{
		{Address: escrowAddr, Kind: account.KindEscrow, Lamports: 42, Data: rec, UpdatedAt: testNow},
		{Address: wallet, Lamports: math.MaxUint64, UpdatedAt: testNow},
	}}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := store.GetAccount(ctx, escrowAddr)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Kind != account.KindEscrow || got.Lamports != 42 || !got.UpdatedAt.Equal(testNow) {
		t.Fatalf("account = %+v", got)
	}
	var decoded account.Escrow
	if err := account.Decode(got.Data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Amount != 42 {
		t.Fatalf("amount = %d, want 42", decoded.Amount)
	}

	w, err := store.GetAccount(ctx, wallet)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.Lamports != math.MaxUint64 || w.Kind != account.KindNone {
		t.Fatalf("wallet = %+v", w)
	}

	if _, err := store.GetAccount(ctx, address.Address{9}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing account error = %v, want not found", err)
	}
	if apperrors.CodeOf(storage.ErrNotFound) != apperrors.CodeNotFound {
		t.Fatal("expected not found code")
	}
}

func TestCommitDeletesEmptiedAccount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	wallet := address.Address{3}

	if _, err := store.Commit(ctx, storage.Commit{Accounts: []storage.Account{{Address: wallet, Lamports: 5, UpdatedAt: testNow}}}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := store.Commit(ctx, storage.Commit{Accounts: []storage.Account{{Address: wallet, UpdatedAt: testNow}}}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := store.GetAccount(ctx, wallet); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestCommitSealsEventsInOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := commitEvents(t, store, "evt-1", "evt-2")
	second := commitEvents(t, store, "evt-3")

	if first[0].Seq != 1 || first[1].Seq != 2 || second[0].Seq != 3 {
		t.Fatalf("seqs = %d %d %d", first[0].Seq, first[1].Seq, second[0].Seq)
	}
	if first[0].PrevHash != "" || first[1].PrevHash != first[0].ChainHash || second[0].PrevHash != first[1].ChainHash {
		t.Fatal("expected entries to be chained across commits")
	}

	got, err := store.GetEvent(ctx, 2)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.ID != "evt-2" || got.ChainHash != first[1].ChainHash || got.Address != (address.Address{1}) {
		t.Fatalf("event = %+v", got)
	}
	if _, err := store.GetEvent(ctx, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}

	page, err := store.ListEvents(ctx, 1, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(page) != 2 || page[0].Seq != 2 || page[1].Seq != 3 {
		t.Fatalf("page = %+v", page)
	}
}

func TestCommitTruncatesTimestampToMillis(t *testing.T) {
	store := openTestStore(t)
	evt := testEvent(t, "evt-ns", address.Address{1})
	evt.Timestamp = testNow.Add(1500 * time.Microsecond)

	sealed, err := store.Commit(context.Background(), storage.Commit{Events: []event.Event{evt}})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !sealed[0].Timestamp.Equal(testNow.Add(time.Millisecond)) {
		t.Fatalf("timestamp = %v", sealed[0].Timestamp)
	}
	if _, err := store.VerifyJournal(context.Background()); err != nil {
		t.Fatalf("verify journal: %v", err)
	}
}

func TestCommitIsAtomic(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	wallet := address.Address{4}

	_, err := store.Commit(ctx, storage.Commit{
		Accounts: []storage.Account{{Address: wallet, Lamports: 10, UpdatedAt: testNow}},
		Events:   []event.Event{testEvent(t, "dup", wallet), testEvent(t, "dup", wallet)},
	})
	if err == nil {
		t.Fatal("expected duplicate event id to fail the commit")
	}
	if _, err := store.GetAccount(ctx, wallet); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("account written despite failed commit: %v", err)
	}
	events, err := store.ListEvents(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("events = %d, want 0", len(events))
	}
}

func TestVerifyJournal(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 205; i++ {
		ids = append(ids, fmt.Sprintf("evt-%03d", i))
	}
	commitEvents(t, store, ids...)

	n, err := store.VerifyJournal(ctx)
	if err != nil {
		t.Fatalf("verify journal: %v", err)
	}
	if n != 205 {
		t.Fatalf("verified = %d, want 205", n)
	}

	if _, err := store.sqlDB.ExecContext(ctx, `UPDATE events SET payload_json = ? WHERE seq = 201`, []byte(`{}`)); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	n, err = store.VerifyJournal(ctx)
	if err == nil || !strings.Contains(err.Error(), "event hash mismatch at seq 201") {
		t.Fatalf("verify error = %v", err)
	}
	if n != 200 {
		t.Fatalf("verified before failure = %d, want 200", n)
	}
}

func TestReopenContinuesJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	first, err := Open(path, testKeyring(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := first.Commit(context.Background(), storage.Commit{Events: []event.Event{testEvent(t, "evt-1", address.Address{1})}}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store := openTestStoreAt(t, path)
	sealed := commitEvents(t, store, "evt-2")
	if sealed[0].Seq != 2 {
		t.Fatalf("seq = %d, want 2", sealed[0].Seq)
	}
	if n, err := store.VerifyJournal(context.Background()); err != nil || n != 2 {
		t.Fatalf("verify = %d, %v", n, err)
	}
}

func TestJournalScopeBindsSignatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := Open(path, testKeyring(t), WithJournalScope("program-a"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.Commit(context.Background(), storage.Commit{Events: []event.Event{testEvent(t, "evt-1", address.Address{1})}}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	other, err := Open(path, testKeyring(t), WithJournalScope("program-b"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer other.Close()
	if _, err := other.VerifyJournal(context.Background()); err == nil {
		t.Fatal("expected a different scope to reject the journal")
	}
}
