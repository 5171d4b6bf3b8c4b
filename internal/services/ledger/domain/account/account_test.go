package account

import (
	"bytes"
	"testing"
	"time"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
)

func TestCodecRoundTrip(t *testing.T) {
	edited := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)
	reply := address.Address{9}
	in := ChannelMessage{
		Channel:        address.Address{1},
		Sender:         address.Address{2},
		ContentHash:    [32]byte{3},
		ContentPointer: "bafy123",
		Type:           CustomType(7),
		ReplyTo:        &reply,
		Nonce:          11,
		CreatedAt:      time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC),
		EditedAt:       &edited,
		Bump:           254,
	}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out ChannelMessage
	if err := Decode(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Type != in.Type || out.Nonce != in.Nonce || *out.ReplyTo != reply || out.Bump != 254 {
		t.Fatalf("decoded = %+v", out)
	}
	if !out.EditedAt.Equal(edited) || !out.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("decoded times = %v / %v", out.CreatedAt, out.EditedAt)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	rec := Participant{Channel: address.Address{1}, Identity: address.Address{2}, Active: true}
	a, err := Encode(rec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := Encode(rec)
	if err != nil {
		t.Fatalf("encode again: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("expected identical encodings")
	}
}

func TestZeroTimeSurvivesCodec(t *testing.T) {
	data, err := Encode(Participant{Active: true})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out Participant
	if err := Decode(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.LastMessageAt.IsZero() {
		t.Fatalf("LastMessageAt = %v, want zero", out.LastMessageAt)
	}
}

func TestDecodeFailureIsTyped(t *testing.T) {
	var out Identity
	err := Decode([]byte{0xff, 0x00}, &out)
	if !apperrors.HasCode(err, apperrors.CodeAccountDecodeFailed) {
		t.Fatalf("expected decode failure code, got %v", err)
	}
}

func TestMessageTypeSeed(t *testing.T) {
	tests := []struct {
		mt   MessageType
		want []byte
	}{
		{TypeText, []byte{0}},
		{TypeResponse, []byte{3}},
		{CustomType(0), []byte{4, 0}},
		{CustomType(255), []byte{4, 255}},
	}
	for _, tc := range tests {
		if got := tc.mt.Seed(); !bytes.Equal(got, tc.want) {
			t.Fatalf("%s seed = %v, want %v", tc.mt, got, tc.want)
		}
	}
}

func TestMessageTypeValidateAndParse(t *testing.T) {
	if err := (MessageType{Kind: 9}).Validate(); !apperrors.HasCode(err, apperrors.CodeMessageTypeInvalid) {
		t.Fatalf("expected invalid kind, got %v", err)
	}
	if err := (MessageType{Kind: MessageText, Custom: 1}).Validate(); err == nil {
		t.Fatal("expected discriminator on named kind to be invalid")
	}
	for _, mt := range []MessageType{TypeText, TypeData, TypeCommand, TypeResponse, CustomType(42)} {
		parsed, err := ParseMessageType(mt.String())
		if err != nil || parsed != mt {
			t.Fatalf("parse %q = %v, %v", mt, parsed, err)
		}
	}
	if _, err := ParseMessageType("custom:300"); err == nil {
		t.Fatal("expected out-of-range custom type to fail")
	}
}

func TestKindNames(t *testing.T) {
	for kind := KindIdentity; kind <= KindChannelMessage; kind++ {
		parsed, err := ParseKind(kind.String())
		if err != nil || parsed != kind {
			t.Fatalf("ParseKind(%s) = %v, %v", kind, parsed, err)
		}
	}
	if _, err := ParseKind("wallet"); err == nil {
		t.Fatal("expected unknown kind error")
	}
}
