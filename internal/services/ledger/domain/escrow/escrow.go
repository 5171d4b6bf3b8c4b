// Package escrow holds per-(channel, depositor) balances that pay channel
// fees. Lamports move between the depositor's wallet and the escrow address;
// the record tracks how much of that value is still spendable.
package escrow

import (
	"fmt"
	"math"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
)

// MaxDeposit is the per-deposit ceiling in lamports.
const MaxDeposit uint64 = 10_000_000_000

// DepositInput funds the signer's escrow for Channel.
type DepositInput struct {
	Channel address.Address
	Escrow  address.Address
	Amount  uint64
}

// WithdrawInput returns Amount from the signer's escrow.
type WithdrawInput struct {
	Channel address.Address
	Escrow  address.Address
	Amount  uint64
}

// FeeInput routes one fee from an escrow into its channel's balance. Channel
// is mutated in place; the caller persists it.
type FeeInput struct {
	ChannelAddr address.Address
	Channel     *account.Channel
	EscrowAddr  address.Address
	Escrow      *account.Escrow
	Fee         uint64
}

// Deposit moves Amount from the signer's wallet into the escrow and credits
// the channel's escrow balance.
func Deposit(tx account.Tx, in DepositInput) error {
	if in.Amount == 0 {
		return apperrors.New(apperrors.CodeEscrowAmountZero, "deposit amount must be positive")
	}
	if in.Amount > MaxDeposit {
		return apperrors.New(apperrors.CodeEscrowAmountTooHigh, fmt.Sprintf("deposit %d exceeds %d", in.Amount, MaxDeposit))
	}

	var ch account.Channel
	found, err := tx.Get(in.Channel, &ch)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.New(apperrors.CodeChannelNotFound, fmt.Sprintf("no channel at %s", in.Channel))
	}

	signer := tx.Signer()
	expected, bump, err := account.EscrowAddress(tx.Deriver(), in.Channel, signer)
	if err != nil {
		return err
	}
	if expected != in.Escrow {
		return apperrors.New(apperrors.CodeEscrowAddressMismatch, "escrow address does not derive from channel and signer")
	}

	if err := tx.Transfer(signer, in.Escrow, in.Amount); err != nil {
		return err
	}

	now := tx.Now()
	var rec account.Escrow
	found, err = tx.Get(in.Escrow, &rec)
	if err != nil {
		return err
	}
	if found {
		if rec.Amount > math.MaxUint64-in.Amount {
			return apperrors.New(apperrors.CodeEscrowOverflow, "escrow amount would overflow")
		}
		rec.Amount += in.Amount
	} else {
		rec = account.Escrow{
			Channel:   in.Channel,
			Depositor: signer,
			Amount:    in.Amount,
			CreatedAt: now,
			Bump:      bump,
		}
	}
	if ch.EscrowBalance > math.MaxUint64-in.Amount {
		return apperrors.New(apperrors.CodeEscrowOverflow, "channel escrow balance would overflow")
	}
	ch.EscrowBalance += in.Amount

	if err := tx.Put(in.Escrow, rec); err != nil {
		return err
	}
	if err := tx.Put(in.Channel, ch); err != nil {
		return err
	}
	return tx.Emit(event.Draft{
		Type:    event.TypeEscrowDeposit,
		Address: in.Escrow,
		Payload: event.EscrowPayload{
			Escrow:    in.Escrow,
			Channel:   in.Channel,
			Depositor: signer,
			Amount:    in.Amount,
			Timestamp: now,
		},
	})
}

// Withdraw returns unspent escrow to the depositor.
func Withdraw(tx account.Tx, in WithdrawInput) error {
	var rec account.Escrow
	found, err := tx.Get(in.Escrow, &rec)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.New(apperrors.CodeEscrowNotFound, fmt.Sprintf("no escrow at %s", in.Escrow))
	}
	signer := tx.Signer()
	if rec.Depositor != signer {
		return apperrors.New(apperrors.CodeEscrowDepositorMismatch, "signer is not the depositor")
	}
	expected, _, err := account.EscrowAddress(tx.Deriver(), rec.Channel, signer)
	if err != nil {
		return err
	}
	if expected != in.Escrow {
		return apperrors.New(apperrors.CodeEscrowAddressMismatch, "escrow address does not derive from channel and signer")
	}
	if in.Channel != rec.Channel {
		return apperrors.New(apperrors.CodeEscrowChannelMismatch, "escrow belongs to a different channel")
	}
	if in.Amount == 0 {
		return apperrors.New(apperrors.CodeEscrowAmountZero, "withdraw amount must be positive")
	}
	if in.Amount > rec.Amount {
		return apperrors.New(apperrors.CodeEscrowInsufficientFunds, fmt.Sprintf("escrow holds %d, requested %d", rec.Amount, in.Amount))
	}

	var ch account.Channel
	found, err = tx.Get(in.Channel, &ch)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.New(apperrors.CodeChannelNotFound, fmt.Sprintf("no channel at %s", in.Channel))
	}
	if ch.EscrowBalance < in.Amount {
		return apperrors.New(apperrors.CodeEscrowBalanceUnderflow, "channel escrow balance would go negative")
	}

	if err := tx.Transfer(in.Escrow, signer, in.Amount); err != nil {
		return err
	}
	rec.Amount -= in.Amount
	ch.EscrowBalance -= in.Amount

	if err := tx.Put(in.Escrow, rec); err != nil {
		return err
	}
	if err := tx.Put(in.Channel, ch); err != nil {
		return err
	}
	return tx.Emit(event.Draft{
		Type:    event.TypeEscrowWithdrawal,
		Address: in.Escrow,
		Payload: event.EscrowPayload{
			Escrow:    in.Escrow,
			Channel:   in.Channel,
			Depositor: signer,
			Amount:    in.Amount,
			Timestamp: tx.Now(),
		},
	})
}

// ConsumeFee debits Fee from the escrow and credits the channel balance. The
// escrow must sit at the address derived from the channel and its depositor.
// The lamports themselves stay at the escrow address.
func ConsumeFee(tx account.Tx, in FeeInput) error {
	if in.Channel == nil || in.Escrow == nil {
		return apperrors.New(apperrors.CodeInstructionInvalid, "fee consumption needs channel and escrow records")
	}
	expected, _, err := account.EscrowAddress(tx.Deriver(), in.ChannelAddr, in.Escrow.Depositor)
	if err != nil {
		return err
	}
	if expected != in.EscrowAddr {
		return apperrors.New(apperrors.CodeEscrowAddressMismatch, "escrow address does not derive from channel and depositor")
	}
	if in.Escrow.Channel != in.ChannelAddr {
		return apperrors.New(apperrors.CodeEscrowChannelMismatch, "escrow belongs to a different channel")
	}
	if in.Escrow.Amount < in.Fee {
		return apperrors.New(apperrors.CodeEscrowInsufficientFunds, fmt.Sprintf("escrow holds %d, fee is %d", in.Escrow.Amount, in.Fee))
	}
	if in.Channel.EscrowBalance > math.MaxUint64-in.Fee {
		return apperrors.New(apperrors.CodeEscrowOverflow, "channel escrow balance would overflow")
	}
	in.Escrow.Amount -= in.Fee
	in.Channel.EscrowBalance += in.Fee
	return tx.Put(in.EscrowAddr, *in.Escrow)
}
