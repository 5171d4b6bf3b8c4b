package event

import (
	"time"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
)

// Type names a notification.
type Type string

const (
	TypeIdentityRegistered   Type = "identity.registered"
	TypeIdentityUpdated      Type = "identity.updated"
	TypeMessageSent          Type = "message.sent"
	TypeMessageStatusUpdated Type = "message.status_updated"
	TypeChannelCreated       Type = "channel.created"
	TypeChannelUpdated       Type = "channel.updated"
	TypeChannelJoined        Type = "channel.joined"
	TypeChannelLeft          Type = "channel.left"
	TypeInvitationCreated    Type = "invitation.created"
	TypeMessageBroadcast     Type = "message.broadcast"
	TypeMessagesBatchSynced  Type = "messages.batch_synced"
	TypeEscrowDeposit        Type = "escrow.deposit"
	TypeEscrowWithdrawal     Type = "escrow.withdrawal"
)

var knownTypes = map[Type]struct{}{
	TypeIdentityRegistered:   {},
	TypeIdentityUpdated:      {},
	TypeMessageSent:          {},
	TypeMessageStatusUpdated: {},
	TypeChannelCreated:       {},
	TypeChannelUpdated:       {},
	TypeChannelJoined:        {},
	TypeChannelLeft:          {},
	TypeInvitationCreated:    {},
	TypeMessageBroadcast:     {},
	TypeMessagesBatchSynced:  {},
	TypeEscrowDeposit:        {},
	TypeEscrowWithdrawal:     {},
}

// Known reports whether t is a registered notification type.
func (t Type) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// IdentityRegisteredPayload is emitted when an identity is created.
type IdentityRegisteredPayload struct {
	Agent        address.Address `json:"agent"`
	Owner        address.Address `json:"owner"`
	Capabilities uint64          `json:"capabilities"`
	MetadataURI  string          `json:"metadata_uri"`
	Timestamp    time.Time       `json:"timestamp"`
}

// IdentityUpdatedPayload is emitted when an owner edits their identity.
type IdentityUpdatedPayload struct {
	Agent        address.Address `json:"agent"`
	Capabilities uint64          `json:"capabilities"`
	MetadataURI  string          `json:"metadata_uri"`
	Timestamp    time.Time       `json:"timestamp"`
}

// MessageSentPayload is emitted when a direct message is recorded.
type MessageSentPayload struct {
	Message     address.Address `json:"message"`
	Sender      address.Address `json:"sender"`
	Recipient   address.Address `json:"recipient"`
	MessageType string          `json:"message_type"`
	Timestamp   time.Time       `json:"timestamp"`
}

// MessageStatusUpdatedPayload is emitted on every direct message transition.
type MessageStatusUpdatedPayload struct {
	Message   address.Address `json:"message"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	UpdatedBy address.Address `json:"updated_by"`
	Timestamp time.Time       `json:"timestamp"`
}

// ChannelCreatedPayload is emitted when a channel is created.
type ChannelCreatedPayload struct {
	Channel    address.Address `json:"channel"`
	Creator    address.Address `json:"creator"`
	Name       string          `json:"name"`
	Visibility string          `json:"visibility"`
	Gated      bool            `json:"gated,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// ChannelUpdatedPayload carries the channel settings after an update.
type ChannelUpdatedPayload struct {
	Channel         address.Address `json:"channel"`
	Name            string          `json:"name"`
	Visibility      string          `json:"visibility"`
	MaxParticipants uint32          `json:"max_participants"`
	FeePerMessage   uint64          `json:"fee_per_message"`
	Active          bool            `json:"active"`
	Timestamp       time.Time       `json:"timestamp"`
}

// ChannelMembershipPayload is emitted on join and leave.
type ChannelMembershipPayload struct {
	Channel     address.Address `json:"channel"`
	Participant address.Address `json:"participant"`
	Timestamp   time.Time       `json:"timestamp"`
}

// InvitationCreatedPayload is emitted when an invitation is issued.
type InvitationCreatedPayload struct {
	Invitation address.Address `json:"invitation"`
	Channel    address.Address `json:"channel"`
	Inviter    address.Address `json:"inviter"`
	Invitee    address.Address `json:"invitee"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Timestamp  time.Time       `json:"timestamp"`
}

// MessageBroadcastPayload is emitted for both inline and compressed broadcasts.
type MessageBroadcastPayload struct {
	Message     address.Address `json:"message"`
	Channel     address.Address `json:"channel"`
	Sender      address.Address `json:"sender"`
	MessageType string          `json:"message_type"`
	MessageHash string          `json:"message_hash"`
	Compressed  bool            `json:"compressed,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// MessagesBatchSyncedPayload hands a batch of message hashes to archival.
type MessagesBatchSyncedPayload struct {
	Channel    address.Address `json:"channel"`
	MerkleRoot string          `json:"merkle_root"`
	Count      int             `json:"count"`
	Timestamp  time.Time       `json:"timestamp"`
}

// EscrowPayload is emitted on deposit and withdrawal.
type EscrowPayload struct {
	Escrow    address.Address `json:"escrow"`
	Channel   address.Address `json:"channel"`
	Depositor address.Address `json:"depositor"`
	Amount    uint64          `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}
