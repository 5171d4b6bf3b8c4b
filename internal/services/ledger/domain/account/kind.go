package account

import "fmt"

// Kind identifies the record type stored at an address.
type Kind uint8

const (
	KindNone Kind = iota
	KindIdentity
	KindDirectMessage
	KindChannel
	KindParticipant
	KindInvitation
	KindEscrow
	KindChannelMessage
)

var kindNames = map[Kind]string{
	KindNone:           "none",
	KindIdentity:       "identity",
	KindDirectMessage:  "direct_message",
	KindChannel:        "channel",
	KindParticipant:    "participant",
	KindInvitation:     "invitation",
	KindEscrow:         "escrow",
	KindChannelMessage: "channel_message",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a stored kind name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for kind, candidate := range kindNames {
		if candidate == name {
			return kind, nil
		}
	}
	return KindNone, fmt.Errorf("unknown account kind %q", name)
}
