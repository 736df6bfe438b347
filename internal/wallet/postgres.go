package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kivu-mc/kivu_mc/internal/infra"
)

// PostgresStore persists wallets in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed wallet store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a wallet record.
func (s *PostgresStore) Create(ctx context.Context, w Wallet) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	tag, err := s.db.Exec(ctx, `INSERT INTO wallets (id, user_id, client_id, address, balance, kind, created_at)
        VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7)
        ON CONFLICT (address) DO NOTHING`,
		w.ID, w.UserID, w.ClientID, w.Address, w.Balance, string(w.Kind), w.CreatedAt.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateAddress
	}
	return nil
}

// Get fetches a wallet by address.
func (s *PostgresStore) Get(ctx context.Context, address string) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT id, COALESCE(user_id::text, ''), COALESCE(client_id::text, ''), address, balance, kind, created_at
        FROM wallets WHERE address = $1`, address)
	return scanWallet(row)
}

// Balance returns the current balance for the address.
func (s *PostgresStore) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := s.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE address = $1`, address).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}
	return balance, nil
}

// Credit adds funds to the wallet.
func (s *PostgresStore) Credit(ctx context.Context, address string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return infra.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return CreditInTx(ctx, tx, address, amount)
	})
}

// Debit removes funds from the wallet, failing when the balance is short.
func (s *PostgresStore) Debit(ctx context.Context, address string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return infra.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return DebitInTx(ctx, tx, address, amount)
	})
}

// Transfer runs the guarded debit and the credit in a single database
// transaction so either both balances change or neither does.
func (s *PostgresStore) Transfer(ctx context.Context, fromAddress, toAddress string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return infra.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return TransferInTx(ctx, tx, fromAddress, toAddress, amount)
	})
}

// TransferInTx moves funds between two wallets inside an existing
// transaction. Rows are locked in address order to avoid lock cycles when
// transfers run concurrently in both directions.
func TransferInTx(ctx context.Context, tx pgx.Tx, fromAddress, toAddress string, amount decimal.Decimal) error {
	first, second := fromAddress, toAddress
	if second < first {
		first, second = second, first
	}
	if err := lockWallet(ctx, tx, first); err != nil {
		return err
	}
	if first != second {
		if err := lockWallet(ctx, tx, second); err != nil {
			return err
		}
	}
	if err := DebitInTx(ctx, tx, fromAddress, amount); err != nil {
		return err
	}
	return CreditInTx(ctx, tx, toAddress, amount)
}

// CreditInTx adds funds to a wallet inside an existing transaction.
func CreditInTx(ctx context.Context, tx pgx.Tx, address string, amount decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance + $2 WHERE address = $1`, address, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DebitInTx removes funds inside an existing transaction. The balance guard
// in the WHERE clause keeps the debit and its check one atomic statement.
func DebitInTx(ctx context.Context, tx pgx.Tx, address string, amount decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance - $2 WHERE address = $1 AND balance >= $2`, address, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT true FROM wallets WHERE address = $1`, address).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return ErrInsufficientFunds
	}
	return nil
}

func lockWallet(ctx context.Context, tx pgx.Tx, address string) error {
	var id string
	if err := tx.QueryRow(ctx, `SELECT id FROM wallets WHERE address = $1 FOR UPDATE`, address).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWallet(row scanner) (Wallet, error) {
	var (
		w         Wallet
		kind      string
		createdAt time.Time
	)
	if err := row.Scan(&w.ID, &w.UserID, &w.ClientID, &w.Address, &w.Balance, &kind, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.Kind = Kind(kind)
	w.CreatedAt = createdAt.UTC()
	return w, nil
}
