package account

import (
	"time"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
)

// Record is implemented by every entity stored at a derived address.
type Record interface {
	Kind() Kind
}

// Identity is a registered principal, owned by a single key.
type Identity struct {
	Owner        address.Address `cbor:"1,keyasint"`
	Capabilities uint64          `cbor:"2,keyasint"`
	Reputation   uint64          `cbor:"3,keyasint"`
	MetadataURI  string          `cbor:"4,keyasint"`
	LastUpdated  time.Time       `cbor:"5,keyasint"`
	Bump         uint8           `cbor:"6,keyasint"`
}

// DirectMessage records a one-to-one message by payload hash.
type DirectMessage struct {
	Sender      address.Address `cbor:"1,keyasint"`
	Recipient   address.Address `cbor:"2,keyasint"`
	PayloadHash [32]byte        `cbor:"3,keyasint"`
	Type        MessageType     `cbor:"4,keyasint"`
	CreatedAt   time.Time       `cbor:"5,keyasint"`
	ExpiresAt   time.Time       `cbor:"6,keyasint"`
	Status      MessageStatus   `cbor:"7,keyasint"`
	Bump        uint8           `cbor:"8,keyasint"`
}

// Channel is a multi-party conversation space. SeedName is the trimmed name
// the address was derived from and never changes; Name may be edited.
type Channel struct {
	Creator             address.Address `cbor:"1,keyasint"`
	SeedName            string          `cbor:"2,keyasint"`
	Name                string          `cbor:"3,keyasint"`
	Description         string          `cbor:"4,keyasint"`
	Visibility          Visibility      `cbor:"5,keyasint"`
	MaxParticipants     uint32          `cbor:"6,keyasint"`
	CurrentParticipants uint32          `cbor:"7,keyasint"`
	FeePerMessage       uint64          `cbor:"8,keyasint"`
	EscrowBalance       uint64          `cbor:"9,keyasint"`
	CreatedAt           time.Time       `cbor:"10,keyasint"`
	Active              bool            `cbor:"11,keyasint"`
	Bump                uint8           `cbor:"12,keyasint"`
}

// Participant is one identity's membership in one channel.
type Participant struct {
	Channel       address.Address `cbor:"1,keyasint"`
	Identity      address.Address `cbor:"2,keyasint"`
	JoinedAt      time.Time       `cbor:"3,keyasint"`
	Active        bool            `cbor:"4,keyasint"`
	MessagesSent  uint64          `cbor:"5,keyasint"`
	LastMessageAt time.Time       `cbor:"6,keyasint"`
	Bump          uint8           `cbor:"7,keyasint"`
}

// Invitation grants one identity a single entry into a private channel.
type Invitation struct {
	Channel    address.Address `cbor:"1,keyasint"`
	Inviter    address.Address `cbor:"2,keyasint"`
	Invitee    address.Address `cbor:"3,keyasint"`
	Commitment [32]byte        `cbor:"4,keyasint"`
	Nonce      uint64          `cbor:"5,keyasint"`
	CreatedAt  time.Time       `cbor:"6,keyasint"`
	ExpiresAt  time.Time       `cbor:"7,keyasint"`
	Accepted   bool            `cbor:"8,keyasint"`
	Used       bool            `cbor:"9,keyasint"`
	Bump       uint8           `cbor:"10,keyasint"`
}

// Escrow holds one depositor's funds for one channel. Depositor is the owner
// key that funded it.
type Escrow struct {
	Channel   address.Address `cbor:"1,keyasint"`
	Depositor address.Address `cbor:"2,keyasint"`
	Amount    uint64          `cbor:"3,keyasint"`
	CreatedAt time.Time       `cbor:"4,keyasint"`
	Bump      uint8           `cbor:"5,keyasint"`
}

// ChannelMessage is a broadcast. Content is empty for the compressed variant,
// which keeps only ContentHash and ContentPointer.
type ChannelMessage struct {
	Channel        address.Address  `cbor:"1,keyasint"`
	Sender         address.Address  `cbor:"2,keyasint"`
	Content        string           `cbor:"3,keyasint,omitempty"`
	ContentHash    [32]byte         `cbor:"4,keyasint"`
	ContentPointer string           `cbor:"5,keyasint,omitempty"`
	Type           MessageType      `cbor:"6,keyasint"`
	ReplyTo        *address.Address `cbor:"7,keyasint,omitempty"`
	Nonce          uint64           `cbor:"8,keyasint"`
	CreatedAt      time.Time        `cbor:"9,keyasint"`
	EditedAt       *time.Time       `cbor:"10,keyasint,omitempty"`
	Bump           uint8            `cbor:"11,keyasint"`
}

func (Identity) Kind() Kind       { return KindIdentity }
func (DirectMessage) Kind() Kind  { return KindDirectMessage }
func (Channel) Kind() Kind        { return KindChannel }
func (Participant) Kind() Kind    { return KindParticipant }
func (Invitation) Kind() Kind     { return KindInvitation }
func (Escrow) Kind() Kind         { return KindEscrow }
func (ChannelMessage) Kind() Kind { return KindChannelMessage }
