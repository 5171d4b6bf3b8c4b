package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
)

// Draft is a notification produced by an operation before the host stamps it.
type Draft struct {
	Type    Type
	Address address.Address
	Payload any
}

// Event is a committed notification.
type Event struct {
	ID          string
	Seq         uint64
	Type        Type
	Instruction string
	// Address is the primary entity the notification is about.
	Address     address.Address
	Timestamp   time.Time
	PayloadJSON []byte

	Hash           string
	PrevHash       string
	ChainHash      string
	Signature      string
	SignatureKeyID string
}

// New stamps a draft into an event. Seq and integrity fields are left for
// storage to assign.
func New(id, instruction string, at time.Time, d Draft) (Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Event{}, fmt.Errorf("event id is required")
	}
	if !d.Type.Known() {
		return Event{}, fmt.Errorf("event type %q is not registered", d.Type)
	}
	if d.Payload == nil {
		return Event{}, fmt.Errorf("event %s payload is required", d.Type)
	}
	payload, err := json.Marshal(d.Payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", d.Type, err)
	}
	return Event{
		ID:          id,
		Type:        d.Type,
		Instruction: instruction,
		Address:     d.Address,
		Timestamp:   at.UTC(),
		PayloadJSON: payload,
	}, nil
}

// DecodePayload unmarshals the event payload into v.
func (e Event) DecodePayload(v any) error {
	if err := json.Unmarshal(e.PayloadJSON, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

type hashEnvelope struct {
	ID          string          `json:"id"`
	Type        Type            `json:"type"`
	Instruction string          `json:"instruction"`
	Address     address.Address `json:"address"`
	Timestamp   string          `json:"timestamp"`
	Payload     json.RawMessage `json:"payload"`
}

type chainEnvelope struct {
	Seq       uint64 `json:"seq"`
	EventHash string `json:"event_hash"`
	PrevHash  string `json:"prev_hash"`
}

// EventHash returns the hex SHA-256 of the event's canonical content
// envelope. Sequence and integrity fields are excluded.
func EventHash(evt Event) (string, error) {
	payload := evt.PayloadJSON
	if len(payload) == 0 {
		payload = []byte("null")
	}
	data, err := json.Marshal(hashEnvelope{
		ID:          evt.ID,
		Type:        evt.Type,
		Instruction: evt.Instruction,
		Address:     evt.Address,
		Timestamp:   evt.Timestamp.UTC().Format(time.RFC3339Nano),
		Payload:     json.RawMessage(payload),
	})
	if err != nil {
		return "", fmt.Errorf("marshal event envelope: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChainHash links evt to its predecessor's chain hash.
func ChainHash(evt Event, prevHash string) (string, error) {
	eventHash, err := EventHash(evt)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(chainEnvelope{Seq: evt.Seq, EventHash: eventHash, PrevHash: prevHash})
	if err != nil {
		return "", fmt.Errorf("marshal chain envelope: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
