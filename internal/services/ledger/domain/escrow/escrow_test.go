package escrow

import (
	"testing"
	"time"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account/accounttest"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
)

var (
	depositor = address.Address{0xd0}
	stranger  = address.Address{0x5e}
	channelAt = address.Address{0xc4}
	epoch     = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
)

func setup(t *testing.T) (*accounttest.Tx, address.Address) {
	t.Helper()
	tx := accounttest.NewTx(depositor, epoch)
	tx.Fund(depositor, 1_000)
	if err := tx.Put(channelAt, account.Channel{Name: "general", Active: true, MaxParticipants: 10}); err != nil {
		t.Fatalf("put channel: %v", err)
	}
	addr, _, err := account.EscrowAddress(tx.Deriver(), channelAt, depositor)
	if err != nil {
		t.Fatalf("derive escrow: %v", err)
	}
	return tx, addr
}

func loadState(t *testing.T, tx *accounttest.Tx, escrowAt address.Address) (account.Escrow, account.Channel) {
	t.Helper()
	var rec account.Escrow
	if _, err := tx.Get(escrowAt, &rec); err != nil {
		t.Fatalf("get escrow: %v", err)
	}
	var ch account.Channel
	if _, err := tx.Get(channelAt, &ch); err != nil {
		t.Fatalf("get channel: %v", err)
	}
	return rec, ch
}

func TestDepositCreatesAndTopsUp(t *testing.T) {
	tx, escrowAt := setup(t)

	if err := Deposit(tx, DepositInput{Channel: channelAt, Escrow: escrowAt, Amount: 10}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := Deposit(tx, DepositInput{Channel: channelAt, Escrow: escrowAt, Amount: 5}); err != nil {
		t.Fatalf("top up: %v", err)
	}

	rec, ch := loadState(t, tx, escrowAt)
	if rec.Amount != 15 || rec.Depositor != depositor || rec.Channel != channelAt {
		t.Fatalf("escrow = %+v", rec)
	}
	if ch.EscrowBalance != 15 {
		t.Fatalf("channel escrow balance = %d, want 15", ch.EscrowBalance)
	}
	wallet, _ := tx.Balance(depositor)
	held, _ := tx.Balance(escrowAt)
	if wallet != 985 || held != 15 {
		t.Fatalf("balances wallet=%d escrow=%d", wallet, held)
	}
	draft, _ := tx.LastDraft()
	if draft.Type != event.TypeEscrowDeposit {
		t.Fatalf("draft type = %s", draft.Type)
	}
}

func TestDepositValidation(t *testing.T) {
	tx, escrowAt := setup(t)
	otherEscrow, _, err := account.EscrowAddress(tx.Deriver(), channelAt, stranger)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	tests := []struct {
		name string
		in   DepositInput
		want apperrors.Code
	}{
		{"zero", DepositInput{Channel: channelAt, Escrow: escrowAt}, apperrors.CodeEscrowAmountZero},
		{"ceiling", DepositInput{Channel: channelAt, Escrow: escrowAt, Amount: MaxDeposit + 1}, apperrors.CodeEscrowAmountTooHigh},
		{"missing channel", DepositInput{Channel: address.Address{0x01}, Escrow: escrowAt, Amount: 1}, apperrors.CodeChannelNotFound},
		{"foreign escrow", DepositInput{Channel: channelAt, Escrow: otherEscrow, Amount: 1}, apperrors.CodeEscrowAddressMismatch},
		{"wallet", DepositInput{Channel: channelAt, Escrow: escrowAt, Amount: 5_000}, apperrors.CodeWalletInsufficient},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := Deposit(tx, tc.in); !apperrors.HasCode(err, tc.want) {
				t.Fatalf("error = %v, want %s", err, tc.want)
			}
		})
	}
}

func TestWithdraw(t *testing.T) {
	tx, escrowAt := setup(t)
	if err := Deposit(tx, DepositInput{Channel: channelAt, Escrow: escrowAt, Amount: 10}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := Withdraw(tx, WithdrawInput{Channel: channelAt, Escrow: escrowAt, Amount: 11}); !apperrors.HasCode(err, apperrors.CodeEscrowInsufficientFunds) {
		t.Fatalf("overdraw error = %v", err)
	}
	if err := Withdraw(tx, WithdrawInput{Channel: channelAt, Escrow: escrowAt}); !apperrors.HasCode(err, apperrors.CodeEscrowAmountZero) {
		t.Fatalf("zero error = %v", err)
	}
	if err := Withdraw(tx, WithdrawInput{Channel: address.Address{0x02}, Escrow: escrowAt, Amount: 1}); !apperrors.HasCode(err, apperrors.CodeEscrowChannelMismatch) {
		t.Fatalf("channel mismatch error = %v", err)
	}
	if err := Withdraw(tx.As(stranger), WithdrawInput{Channel: channelAt, Escrow: escrowAt, Amount: 1}); !apperrors.HasCode(err, apperrors.CodeEscrowDepositorMismatch) {
		t.Fatalf("depositor mismatch error = %v", err)
	}
	tx.As(depositor)

	if err := Withdraw(tx, WithdrawInput{Channel: channelAt, Escrow: escrowAt, Amount: 4}); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	rec, ch := loadState(t, tx, escrowAt)
	if rec.Amount != 6 || ch.EscrowBalance != 6 {
		t.Fatalf("after withdraw escrow=%d channel=%d", rec.Amount, ch.EscrowBalance)
	}
	wallet, _ := tx.Balance(depositor)
	if wallet != 994 {
		t.Fatalf("wallet = %d, want 994", wallet)
	}
	draft, _ := tx.LastDraft()
	if draft.Type != event.TypeEscrowWithdrawal {
		t.Fatalf("draft type = %s", draft.Type)
	}
}

func TestConsumeFee(t *testing.T) {
	tx, escrowAt := setup(t)
	if err := Deposit(tx, DepositInput{Channel: channelAt, Escrow: escrowAt, Amount: 10}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	rec, ch := loadState(t, tx, escrowAt)

	err := ConsumeFee(tx, FeeInput{ChannelAddr: channelAt, Channel: &ch, EscrowAddr: address.Address{0x03}, Escrow: &rec, Fee: 1})
	if !apperrors.HasCode(err, apperrors.CodeEscrowAddressMismatch) {
		t.Fatalf("substituted escrow error = %v", err)
	}
	err = ConsumeFee(tx, FeeInput{ChannelAddr: channelAt, Channel: &ch, EscrowAddr: escrowAt, Escrow: &rec, Fee: 11})
	if !apperrors.HasCode(err, apperrors.CodeEscrowInsufficientFunds) {
		t.Fatalf("insufficient error = %v", err)
	}
	if err := ConsumeFee(tx, FeeInput{ChannelAddr: channelAt, Channel: &ch, EscrowAddr: escrowAt, Escrow: &rec, Fee: 10}); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if rec.Amount != 0 || ch.EscrowBalance != 20 {
		t.Fatalf("after fee escrow=%d channel=%d", rec.Amount, ch.EscrowBalance)
	}
	held, _ := tx.Balance(escrowAt)
	if held != 10 {
		t.Fatalf("escrow lamports = %d, want 10", held)
	}
}

func TestEscrowConservation(t *testing.T) {
	tx, escrowAt := setup(t)
	type step struct {
		op     string
		amount uint64
	}
	steps := []step{
		{"deposit", 50}, {"withdraw", 20}, {"fee", 5}, {"deposit", 7},
		{"fee", 40}, {"withdraw", 1}, {"fee", 2}, {"withdraw", 0},
	}

	var deposits, withdrawals, fees uint64
	for i, s := range steps {
		var err error
		switch s.op {
		case "deposit":
			err = Deposit(tx, DepositInput{Channel: channelAt, Escrow: escrowAt, Amount: s.amount})
			if err == nil {
				deposits += s.amount
			}
		case "withdraw":
			err = Withdraw(tx, WithdrawInput{Channel: channelAt, Escrow: escrowAt, Amount: s.amount})
			if err == nil {
				withdrawals += s.amount
			}
		case "fee":
			rec, ch := loadState(t, tx, escrowAt)
			err = ConsumeFee(tx, FeeInput{ChannelAddr: channelAt, Channel: &ch, EscrowAddr: escrowAt, Escrow: &rec, Fee: s.amount})
			if err == nil {
				fees += s.amount
				if putErr := tx.Put(channelAt, ch); putErr != nil {
					t.Fatalf("put channel: %v", putErr)
				}
			}
		}
		rec, _ := loadState(t, tx, escrowAt)
		if rec.Amount != deposits-withdrawals-fees {
			t.Fatalf("step %d (%s %d): escrow = %d, want %d (err=%v)", i, s.op, s.amount, rec.Amount, deposits-withdrawals-fees, err)
		}
	}
	if fees != 7 {
		t.Fatalf("fees consumed = %d, want 7 (the 40 fee must fail)", fees)
	}
}
