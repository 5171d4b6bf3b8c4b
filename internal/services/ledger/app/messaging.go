package app

import (
	"context"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/messaging"
	"github.com/louisbranch/podcom/internal/services/ledger/engine"
)

// SendMessageInput records a direct message from the signer's identity.
type SendMessageInput struct {
	Signer      address.Address
	Sender      address.Address
	Recipient   address.Address
	Message     address.Address
	PayloadHash [32]byte
	Type        account.MessageType
}

// SendMessage stores a direct message hash and returns the message address.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (address.Address, engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	if err := requireRef(in.Recipient, "recipient"); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	sender, err := s.callerIdentity(in.Signer, in.Sender)
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	msg, err := orDerived(in.Message, func() (address.Address, uint8, error) {
		return account.DirectMessageAddress(s.deriver(), sender, in.Recipient, in.PayloadHash, in.Type)
	})
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	receipt, err := s.run(ctx, "send_message", in.Signer, func(tx account.Tx) error {
		return messaging.Send(tx, messaging.SendInput{
			Sender:      sender,
			Recipient:   in.Recipient,
			Message:     msg,
			PayloadHash: in.PayloadHash,
			Type:        in.Type,
		})
	}, engine.ReadOnly(sender), engine.ReadOnly(in.Recipient), engine.Writable(msg))
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	return msg, receipt, nil
}

// UpdateMessageStatusInput moves a direct message along its status machine.
type UpdateMessageStatusInput struct {
	Signer  address.Address
	Actor   address.Address
	Message address.Address
	Status  account.MessageStatus
}

// UpdateMessageStatus applies one delivery transition.
func (s *Service) UpdateMessageStatus(ctx context.Context, in UpdateMessageStatusInput) (engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return engine.Receipt{}, err
	}
	if err := requireRef(in.Message, "message"); err != nil {
		return engine.Receipt{}, err
	}
	actor, err := s.callerIdentity(in.Signer, in.Actor)
	if err != nil {
		return engine.Receipt{}, err
	}
	return s.run(ctx, "update_message_status", in.Signer, func(tx account.Tx) error {
		return messaging.UpdateStatus(tx, messaging.StatusInput{
			Message: in.Message,
			Actor:   actor,
			Status:  in.Status,
		})
	}, engine.ReadOnly(actor), engine.Writable(in.Message))
}

// BroadcastInput posts to a channel. Pointer is only read by the compressed
// variant.
type BroadcastInput struct {
	Signer      address.Address
	Sender      address.Address
	Channel     address.Address
	Participant address.Address
	Message     address.Address
	Content     string
	Pointer     string
	Type        account.MessageType
	ReplyTo     *address.Address
	Nonce       uint64
}

// BroadcastMessage posts inline content and returns the message address.
func (s *Service) BroadcastMessage(ctx context.Context, in BroadcastInput) (address.Address, engine.Receipt, error) {
	return s.broadcast(ctx, "broadcast_message", in, messaging.Broadcast)
}

// BroadcastCompressedMessage posts a content hash plus an external pointer.
func (s *Service) BroadcastCompressedMessage(ctx context.Context, in BroadcastInput) (address.Address, engine.Receipt, error) {
	return s.broadcast(ctx, "broadcast_message_compressed", in, messaging.BroadcastCompressed)
}

func (s *Service) broadcast(ctx context.Context, name string, in BroadcastInput, post func(account.Tx, messaging.BroadcastInput) error) (address.Address, engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	if err := requireRef(in.Channel, "channel"); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	sender, err := s.callerIdentity(in.Signer, in.Sender)
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	participant, err := orDerived(in.Participant, func() (address.Address, uint8, error) {
		return account.ParticipantAddress(s.deriver(), in.Channel, sender)
	})
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	msg, err := orDerived(in.Message, func() (address.Address, uint8, error) {
		return account.ChannelMessageAddress(s.deriver(), in.Channel, sender, in.Nonce)
	})
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	receipt, err := s.run(ctx, name, in.Signer, func(tx account.Tx) error {
		return post(tx, messaging.BroadcastInput{
			Channel:     in.Channel,
			Sender:      sender,
			Participant: participant,
			Message:     msg,
			Content:     in.Content,
			Pointer:     in.Pointer,
			Type:        in.Type,
			ReplyTo:     in.ReplyTo,
			Nonce:       in.Nonce,
		})
	}, engine.ReadOnly(sender), engine.ReadOnly(in.Channel), engine.Writable(participant), engine.Writable(msg))
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	return msg, receipt, nil
}

// BatchSyncInput anchors a batch of channel message hashes.
type BatchSyncInput struct {
	Signer  address.Address
	Creator address.Address
	Channel address.Address
	Hashes  [][32]byte
}

// BatchSyncMessages records the Merkle root of in.Hashes for the channel.
func (s *Service) BatchSyncMessages(ctx context.Context, in BatchSyncInput) (engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return engine.Receipt{}, err
	}
	if err := requireRef(in.Channel, "channel"); err != nil {
		return engine.Receipt{}, err
	}
	creator, err := s.callerIdentity(in.Signer, in.Creator)
	if err != nil {
		return engine.Receipt{}, err
	}
	return s.run(ctx, "batch_sync_messages", in.Signer, func(tx account.Tx) error {
		return messaging.BatchSync(tx, messaging.BatchInput{
			Channel: in.Channel,
			Creator: creator,
			Hashes:  in.Hashes,
		})
	}, engine.ReadOnly(creator), engine.ReadOnly(in.Channel))
}
