package account

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
)

// MessageKind enumerates the named message types.
type MessageKind uint8

const (
	MessageText MessageKind = iota
	MessageData
	MessageCommand
	MessageResponse
	MessageCustom
)

// MessageType is a closed variant: one of the named kinds, or Custom with an
// application-defined discriminator.
type MessageType struct {
	Kind   MessageKind `cbor:"1,keyasint"`
	Custom uint8       `cbor:"2,keyasint,omitempty"`
}

// Named message types.
var (
	TypeText     = MessageType{Kind: MessageText}
	TypeData     = MessageType{Kind: MessageData}
	TypeCommand  = MessageType{Kind: MessageCommand}
	TypeResponse = MessageType{Kind: MessageResponse}
)

// CustomType returns Custom(x).
func CustomType(x uint8) MessageType {
	return MessageType{Kind: MessageCustom, Custom: x}
}

// Validate rejects unknown kinds and a discriminator on a named kind.
func (m MessageType) Validate() error {
	if m.Kind > MessageCustom || (m.Kind != MessageCustom && m.Custom != 0) {
		return apperrors.New(apperrors.CodeMessageTypeInvalid, fmt.Sprintf("invalid message type %d/%d", m.Kind, m.Custom))
	}
	return nil
}

// Seed encodes the type for address derivation: one byte for named kinds,
// [4, x] for Custom(x).
func (m MessageType) Seed() []byte {
	if m.Kind == MessageCustom {
		return []byte{byte(MessageCustom), m.Custom}
	}
	return []byte{byte(m.Kind)}
}

func (m MessageType) String() string {
	switch m.Kind {
	case MessageText:
		return "text"
	case MessageData:
		return "data"
	case MessageCommand:
		return "command"
	case MessageResponse:
		return "response"
	case MessageCustom:
		return "custom:" + strconv.Itoa(int(m.Custom))
	default:
		return fmt.Sprintf("invalid(%d)", m.Kind)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m MessageType) MarshalText() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MessageType) UnmarshalText(text []byte) error {
	parsed, err := ParseMessageType(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMessageType parses the text form produced by String.
func ParseMessageType(value string) (MessageType, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	switch value {
	case "text":
		return TypeText, nil
	case "data":
		return TypeData, nil
	case "command":
		return TypeCommand, nil
	case "response":
		return TypeResponse, nil
	}
	if raw, ok := strings.CutPrefix(value, "custom:"); ok {
		n, err := strconv.ParseUint(raw, 10, 8)
		if err == nil {
			return CustomType(uint8(n)), nil
		}
	}
	return MessageType{}, apperrors.New(apperrors.CodeMessageTypeInvalid, fmt.Sprintf("unknown message type %q", value))
}

// MessageStatus is the direct message delivery state.
type MessageStatus uint8

const (
	StatusPending MessageStatus = iota
	StatusDelivered
	StatusRead
	StatusFailed
)

// Valid reports whether s is a known status.
func (s MessageStatus) Valid() bool {
	return s <= StatusFailed
}

func (s MessageStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDelivered:
		return "delivered"
	case StatusRead:
		return "read"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s MessageStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Visibility controls who may join a channel.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityPrivate
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v <= VisibilityPrivate
}

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityPrivate:
		return "private"
	default:
		return fmt.Sprintf("visibility(%d)", uint8(v))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
