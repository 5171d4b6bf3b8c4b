package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/storage"
)

// GetAccount loads the committed image of addr.
func (s *Store) GetAccount(ctx context.Context, addr address.Address) (storage.Account, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Account{}, err
	}

	var (
		kind      string
		lamports  int64
		data      []byte
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT kind, lamports, data, updated_at FROM accounts WHERE address = ?`,
		addr.String(),
	).Scan(&kind, &lamports, &data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Account{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Account{}, fmt.Errorf("get account %s: %w", addr, err)
	}

	parsed, err := account.ParseKind(kind)
	if err != nil {
		return storage.Account{}, fmt.Errorf("get account %s: %w", addr, err)
	}
	return storage.Account{
		Address: addr,
		Kind:    parsed,
		// Lamports round-trip through the signed column bit for bit.
		Lamports:  uint64(lamports),
		Data:      data,
		UpdatedAt: fromMillis(updatedAt),
	}, nil
}

func putAccount(ctx context.Context, tx *sql.Tx, acct storage.Account) error {
	if acct.Empty() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE address = ?`, acct.Address.String()); err != nil {
			return fmt.Errorf("delete account %s: %w", acct.Address, err)
		}
		return nil
	}
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO accounts (address, kind, lamports, data, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET
		     kind = excluded.kind,
		     lamports = excluded.lamports,
		     data = excluded.data,
		     updated_at = excluded.updated_at`,
		acct.Address.String(),
		acct.Kind.String(),
		int64(acct.Lamports),
		acct.Data,
		toMillis(acct.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put account %s: %w", acct.Address, err)
	}
	return nil
}
