package event

import (
	"testing"
	"time"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
)

func testEvent(t *testing.T) Event {
	t.Helper()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	evt, err := New("evt-1", "register_agent", at, Draft{
		Type:    TypeIdentityRegistered,
		Address: address.Address{1},
		Payload: IdentityRegisteredPayload{Agent: address.Address{1}, Capabilities: 5, MetadataURI: "uri://a", Timestamp: at},
	})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	return evt
}

func TestNewRejectsInvalidDrafts(t *testing.T) {
	now := time.Now()
	if _, err := New("", "x", now, Draft{Type: TypeChannelJoined, Payload: struct{}{}}); err == nil {
		t.Fatal("expected error for missing id")
	}
	if _, err := New("id", "x", now, Draft{Type: "channel.exploded", Payload: struct{}{}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
	if _, err := New("id", "x", now, Draft{Type: TypeChannelJoined}); err == nil {
		t.Fatal("expected error for missing payload")
	}
}

func TestDecodePayload(t *testing.T) {
	evt := testEvent(t)
	var payload IdentityRegisteredPayload
	if err := evt.DecodePayload(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.MetadataURI != "uri://a" || payload.Capabilities != 5 {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestEventHashIgnoresIntegrityFields(t *testing.T) {
	evt := testEvent(t)
	first, err := EventHash(evt)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	evt.Seq = 42
	evt.ChainHash = "abc"
	evt.Signature = "sig"
	second, err := EventHash(evt)
	if err != nil {
		t.Fatalf("hash again: %v", err)
	}
	if first != second {
		t.Fatal("expected integrity fields to be excluded from event hash")
	}

	evt.PayloadJSON = []byte(`{"agent":"x"}`)
	third, err := EventHash(evt)
	if err != nil {
		t.Fatalf("hash tampered: %v", err)
	}
	if third == first {
		t.Fatal("expected payload change to alter event hash")
	}
}

func TestChainHashDependsOnPredecessor(t *testing.T) {
	evt := testEvent(t)
	evt.Seq = 1
	a, err := ChainHash(evt, "")
	if err != nil {
		t.Fatalf("chain hash: %v", err)
	}
	b, err := ChainHash(evt, "prev")
	if err != nil {
		t.Fatalf("chain hash with prev: %v", err)
	}
	if a == b {
		t.Fatal("expected prev hash to alter chain hash")
	}
	if len(a) != 64 {
		t.Fatalf("chain hash length = %d, want 64", len(a))
	}
}
