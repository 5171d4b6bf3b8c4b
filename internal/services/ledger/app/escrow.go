package app

import (
	"context"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/escrow"
	"github.com/louisbranch/podcom/internal/services/ledger/engine"
)

// EscrowInput moves Amount between the signer's wallet and its escrow for
// Channel.
type EscrowInput struct {
	Signer  address.Address
	Channel address.Address
	Escrow  address.Address
	Amount  uint64
}

func (s *Service) escrowFor(in EscrowInput) (address.Address, error) {
	return orDerived(in.Escrow, func() (address.Address, uint8, error) {
		return account.EscrowAddress(s.deriver(), in.Channel, in.Signer)
	})
}

// DepositEscrow funds the signer's escrow and returns its address.
func (s *Service) DepositEscrow(ctx context.Context, in EscrowInput) (address.Address, engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	if err := requireRef(in.Channel, "channel"); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	esc, err := s.escrowFor(in)
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	receipt, err := s.run(ctx, "deposit_escrow", in.Signer, func(tx account.Tx) error {
		return escrow.Deposit(tx, escrow.DepositInput{Channel: in.Channel, Escrow: esc, Amount: in.Amount})
	}, engine.Writable(in.Signer), engine.Writable(esc), engine.Writable(in.Channel))
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	return esc, receipt, nil
}

// WithdrawEscrow returns unspent escrow to the signer's wallet.
func (s *Service) WithdrawEscrow(ctx context.Context, in EscrowInput) (engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return engine.Receipt{}, err
	}
	if err := requireRef(in.Channel, "channel"); err != nil {
		return engine.Receipt{}, err
	}
	esc, err := s.escrowFor(in)
	if err != nil {
		return engine.Receipt{}, err
	}
	return s.run(ctx, "withdraw_escrow", in.Signer, func(tx account.Tx) error {
		return escrow.Withdraw(tx, escrow.WithdrawInput{Channel: in.Channel, Escrow: esc, Amount: in.Amount})
	}, engine.Writable(in.Signer), engine.Writable(esc), engine.Writable(in.Channel))
}

// EscrowAddress returns the escrow address of depositor key in channel.
func (s *Service) EscrowAddress(channelAddr, depositor address.Address) (address.Address, error) {
	addr, _, err := account.EscrowAddress(s.deriver(), channelAddr, depositor)
	return addr, err
}
