package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound occurs when no wallet carries the requested address.
	ErrNotFound = errors.New("wallet not found")

	// ErrInsufficientFunds occurs when a debit would take a balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount occurs when a mutation is requested with a non-positive amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrDuplicateAddress occurs when creating a wallet whose address is already taken.
	ErrDuplicateAddress = errors.New("wallet address already exists")
)

// Kind distinguishes the house float wallet from staff and client wallets.
type Kind string

const (
	KindMain   Kind = "main"
	KindUser   Kind = "user"
	KindClient Kind = "client"
)

// Wallet is a balance-holding account. Exactly one of UserID or ClientID is
// set for staff and client wallets; both are empty for the house wallet.
type Wallet struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id,omitempty"`
	ClientID  string          `json:"client_id,omitempty"`
	Address   string          `json:"address"`
	Balance   decimal.Decimal `json:"balance"`
	Kind      Kind            `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store owns wallet balances. It is the only mutator of Balance; every
// implementation must keep balances non-negative after any completed
// operation and apply Transfer atomically.
type Store interface {
	Create(ctx context.Context, w Wallet) error
	Get(ctx context.Context, address string) (Wallet, error)
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
	Credit(ctx context.Context, address string, amount decimal.Decimal) error
	Debit(ctx context.Context, address string, amount decimal.Decimal) error
	Transfer(ctx context.Context, fromAddress, toAddress string, amount decimal.Decimal) error
}

// EnsureHouse creates the house wallet with its opening balance when it does
// not exist yet. Called once at bootstrap; a later call is a no-op.
func EnsureHouse(ctx context.Context, store Store, address string, opening decimal.Decimal) error {
	if _, err := store.Get(ctx, address); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return store.Create(ctx, Wallet{
		Address:   address,
		Balance:   opening,
		Kind:      KindMain,
		CreatedAt: time.Now().UTC(),
	})
}
