// Package messaging records direct messages and channel broadcasts.
//
// Direct messages store only a payload hash and move through
// Pending -> Delivered | Read -> Failed. Broadcasts are throttled per
// participant by Limiter and store either inline content or an external
// pointer plus content hash.
package messaging

import (
	"encoding/hex"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/channel"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/identity"
)

const (
	// MessageExpiry is the lifetime of a direct message.
	MessageExpiry = 7 * 24 * time.Hour
	// MaxContentLen bounds inline broadcast content.
	MaxContentLen = 1000
	// MaxCompressedContentLen bounds content stored behind a pointer.
	MaxCompressedContentLen = MaxContentLen * 10
	// MaxPointerLen bounds the external content pointer.
	MaxPointerLen = 100
	// MaxBatchSize bounds one archival batch.
	MaxBatchSize = 100
)

// SendInput records a direct message from Sender to Recipient, both identity
// addresses.
type SendInput struct {
	Sender      address.Address
	Recipient   address.Address
	Message     address.Address
	PayloadHash [32]byte
	Type        account.MessageType
}

// StatusInput moves a direct message to Status on behalf of Actor.
type StatusInput struct {
	Message address.Address
	Actor   address.Address
	Status  account.MessageStatus
}

// BroadcastInput posts to a channel. Pointer is set only for the compressed
// variant.
type BroadcastInput struct {
	Channel     address.Address
	Sender      address.Address
	Participant address.Address
	Message     address.Address
	Content     string
	Pointer     string
	Type        account.MessageType
	ReplyTo     *address.Address
	Nonce       uint64
}

// BatchInput hands a batch of message hashes to archival.
type BatchInput struct {
	Channel address.Address
	Creator address.Address
	Hashes  [][32]byte
}

// Send stores a pending direct message that expires after MessageExpiry.
func Send(tx account.Tx, in SendInput) error {
	if err := in.Type.Validate(); err != nil {
		return err
	}
	if _, err := identity.Authenticate(tx, in.Sender); err != nil {
		return err
	}
	if _, found, err := identity.Lookup(tx, in.Recipient); err != nil {
		return err
	} else if !found {
		return apperrors.New(apperrors.CodeMessageRecipientMissing, fmt.Sprintf("no identity at %s", in.Recipient))
	}

	expected, bump, err := account.DirectMessageAddress(tx.Deriver(), in.Sender, in.Recipient, in.PayloadHash, in.Type)
	if err != nil {
		return err
	}
	if expected != in.Message {
		return apperrors.New(apperrors.CodeMessageAddressMismatch, "message address does not derive from its fields")
	}
	var existing account.DirectMessage
	found, err := tx.Get(in.Message, &existing)
	if err != nil {
		return err
	}
	if found {
		return apperrors.New(apperrors.CodeMessageAlreadyExists, "message already recorded")
	}

	now := tx.Now()
	if err := tx.Put(in.Message, account.DirectMessage{
		Sender:      in.Sender,
		Recipient:   in.Recipient,
		PayloadHash: in.PayloadHash,
		Type:        in.Type,
		CreatedAt:   now,
		ExpiresAt:   now.Add(MessageExpiry),
		Status:      account.StatusPending,
		Bump:        bump,
	}); err != nil {
		return err
	}
	return tx.Emit(event.Draft{
		Type:    event.TypeMessageSent,
		Address: in.Message,
		Payload: event.MessageSentPayload{
			Message:     in.Message,
			Sender:      in.Sender,
			Recipient:   in.Recipient,
			MessageType: in.Type.String(),
			Timestamp:   now,
		},
	})
}

// UpdateStatus applies one delivery transition. Expiry is checked before
// anything else.
func UpdateStatus(tx account.Tx, in StatusInput) error {
	if !in.Status.Valid() {
		return apperrors.New(apperrors.CodeMessageStatusInvalid, fmt.Sprintf("unknown status %d", in.Status))
	}
	if _, err := identity.Authenticate(tx, in.Actor); err != nil {
		return err
	}
	var msg account.DirectMessage
	found, err := tx.Get(in.Message, &msg)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.New(apperrors.CodeMessageNotFound, fmt.Sprintf("no message at %s", in.Message))
	}
	expected, _, err := account.DirectMessageAddress(tx.Deriver(), msg.Sender, msg.Recipient, msg.PayloadHash, msg.Type)
	if err != nil {
		return err
	}
	if expected != in.Message {
		return apperrors.New(apperrors.CodeMessageAddressMismatch, "message address does not derive from its fields")
	}
	now := tx.Now()
	if now.After(msg.ExpiresAt) {
		return apperrors.New(apperrors.CodeMessageExpired, "message has expired")
	}

	switch in.Status {
	case account.StatusDelivered, account.StatusRead:
		if in.Actor != msg.Recipient {
			return apperrors.New(apperrors.CodeMessageUnauthorizedParty, "only the recipient can acknowledge")
		}
	default:
		if in.Actor != msg.Recipient && in.Actor != msg.Sender {
			return apperrors.New(apperrors.CodeMessageUnauthorizedParty, "only the sender or recipient can update")
		}
	}
	if !transitionAllowed(msg.Status, in.Status) {
		return apperrors.New(apperrors.CodeMessageInvalidStatusTransition, fmt.Sprintf("%s -> %s", msg.Status, in.Status))
	}

	from := msg.Status
	msg.Status = in.Status
	if err := tx.Put(in.Message, msg); err != nil {
		return err
	}
	return tx.Emit(event.Draft{
		Type:    event.TypeMessageStatusUpdated,
		Address: in.Message,
		Payload: event.MessageStatusUpdatedPayload{
			Message:   in.Message,
			From:      from.String(),
			To:        in.Status.String(),
			UpdatedBy: in.Actor,
			Timestamp: now,
		},
	})
}

func transitionAllowed(from, to account.MessageStatus) bool {
	switch to {
	case account.StatusDelivered:
		return from == account.StatusPending
	case account.StatusRead:
		return from == account.StatusPending || from == account.StatusDelivered
	case account.StatusFailed:
		return from != account.StatusFailed
	default:
		return false
	}
}

// Broadcast posts inline content to a channel.
func Broadcast(tx account.Tx, in BroadcastInput) error {
	if err := in.Type.Validate(); err != nil {
		return err
	}
	if err := validateContent(in.Content, MaxContentLen); err != nil {
		return err
	}
	contentHash, err := ContentHash(in.Content)
	if err != nil {
		return err
	}
	msg := account.ChannelMessage{Content: in.Content, ContentHash: contentHash}
	return broadcast(tx, in, msg, false)
}

// BroadcastCompressed posts a content hash and an external pointer. The
// content itself is hashed and discarded; it may be empty when the pointer
// alone identifies the payload.
func BroadcastCompressed(tx account.Tx, in BroadcastInput) error {
	if err := in.Type.Validate(); err != nil {
		return err
	}
	if len(in.Content) > MaxCompressedContentLen {
		return contentTooLong(len(in.Content), MaxCompressedContentLen)
	}
	if err := validatePointer(in.Pointer); err != nil {
		return err
	}
	contentHash, err := ContentHash(in.Content)
	if err != nil {
		return err
	}
	msg := account.ChannelMessage{ContentHash: contentHash, ContentPointer: in.Pointer}
	return broadcast(tx, in, msg, true)
}

func broadcast(tx account.Tx, in BroadcastInput, msg account.ChannelMessage, compressed bool) error {
	if _, err := identity.Authenticate(tx, in.Sender); err != nil {
		return err
	}
	if _, err := channel.LoadActive(tx, in.Channel); err != nil {
		return err
	}

	participantAddr, _, err := account.ParticipantAddress(tx.Deriver(), in.Channel, in.Sender)
	if err != nil {
		return err
	}
	if participantAddr != in.Participant {
		return apperrors.New(apperrors.CodeParticipantAddressMismatch, "participant address does not derive from channel and sender")
	}
	var p account.Participant
	found, err := tx.Get(in.Participant, &p)
	if err != nil {
		return err
	}
	if !found || !p.Active {
		return apperrors.New(apperrors.CodeChannelNotJoined, "sender is not an active participant")
	}

	now := tx.Now()
	if err := DefaultLimiter.Admit(&p, now); err != nil {
		return err
	}

	bump, err := channelMessageAddress(tx, in.Channel, in.Sender, in.Nonce, in.Message)
	if err != nil {
		return err
	}
	var existing account.ChannelMessage
	found, err = tx.Get(in.Message, &existing)
	if err != nil {
		return err
	}
	if found {
		return apperrors.New(apperrors.CodeMessageAlreadyExists, fmt.Sprintf("nonce %d already used", in.Nonce))
	}

	msg.Channel = in.Channel
	msg.Sender = in.Sender
	msg.Type = in.Type
	msg.ReplyTo = in.ReplyTo
	msg.Nonce = in.Nonce
	msg.CreatedAt = now
	msg.Bump = bump
	messageHash, err := MessageHash(msg)
	if err != nil {
		return err
	}

	if err := tx.Put(in.Participant, p); err != nil {
		return err
	}
	if err := tx.Put(in.Message, msg); err != nil {
		return err
	}
	return tx.Emit(event.Draft{
		Type:    event.TypeMessageBroadcast,
		Address: in.Message,
		Payload: event.MessageBroadcastPayload{
			Message:     in.Message,
			Channel:     in.Channel,
			Sender:      in.Sender,
			MessageType: in.Type.String(),
			MessageHash: hex.EncodeToString(messageHash[:]),
			Compressed:  compressed,
			Timestamp:   now,
		},
	})
}

// BatchSync records the Merkle root of a batch of message hashes so an
// archiver can prove inclusion later. Only the channel creator may sync.
func BatchSync(tx account.Tx, in BatchInput) error {
	if len(in.Hashes) == 0 {
		return apperrors.New(apperrors.CodeBatchEmpty, "batch has no message hashes")
	}
	if len(in.Hashes) > MaxBatchSize {
		return apperrors.WithMetadata(apperrors.CodeBatchTooLarge,
			fmt.Sprintf("batch has %d hashes", len(in.Hashes)),
			map[string]string{"Limit": fmt.Sprint(MaxBatchSize)})
	}
	if _, err := identity.Authenticate(tx, in.Creator); err != nil {
		return err
	}
	ch, err := channel.Load(tx, in.Channel)
	if err != nil {
		return err
	}
	if ch.Creator != in.Creator {
		return apperrors.New(apperrors.CodeChannelCreatorMismatch, "only the creator can sync batches")
	}

	root := MerkleRoot(in.Hashes)
	return tx.Emit(event.Draft{
		Type:    event.TypeMessagesBatchSynced,
		Address: in.Channel,
		Payload: event.MessagesBatchSyncedPayload{
			Channel:    in.Channel,
			MerkleRoot: hex.EncodeToString(root[:]),
			Count:      len(in.Hashes),
			Timestamp:  tx.Now(),
		},
	})
}

func validateContent(content string, limit int) error {
	if len(content) == 0 {
		return apperrors.New(apperrors.CodeMessageContentEmpty, "message content is required")
	}
	if len(content) > limit {
		return contentTooLong(len(content), limit)
	}
	return nil
}

func contentTooLong(size, limit int) error {
	return apperrors.WithMetadata(apperrors.CodeMessageContentTooLong,
		fmt.Sprintf("content is %d bytes", size),
		map[string]string{"Limit": fmt.Sprint(limit)})
}

func validatePointer(pointer string) error {
	if pointer == "" || len(pointer) > MaxPointerLen {
		return apperrors.New(apperrors.CodeMessageContentPointerInvalid, fmt.Sprintf("pointer length %d outside 1..%d", len(pointer), MaxPointerLen))
	}
	for i := 0; i < len(pointer); i++ {
		c := pointer[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return apperrors.New(apperrors.CodeMessageContentPointerInvalid, fmt.Sprintf("pointer has non-alphanumeric byte %q", c))
		}
	}
	return nil
}
