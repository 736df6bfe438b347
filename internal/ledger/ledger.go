package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound occurs when the requested transaction does not exist.
	ErrNotFound = errors.New("transaction not found")

	// ErrInvalidStateTransition occurs when validating or cancelling a
	// transaction that already left the pending state.
	ErrInvalidStateTransition = errors.New("transaction is not pending")
)

// Kind classifies a movement of value.
type Kind string

const (
	KindTransfert     Kind = "transfert"
	KindPret          Kind = "pret"
	KindRemboursement Kind = "remboursement"
	KindDepot         Kind = "depot"
	KindRetrait       Kind = "retrait"
	KindCredit        Kind = "credit"
)

// ParseKind maps a wire value onto a known transaction kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindTransfert, KindPret, KindRemboursement, KindDepot, KindRetrait, KindCredit:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown transaction kind %q", s)
	}
}

// Status is the lifecycle state of a transaction. Transitions are one-way:
// pending is the only non-terminal state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus maps a wire value onto a known status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown transaction status %q", s)
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Transaction is an append-only audit record of value moving between two
// wallet addresses. The addresses are weak references; they need not
// resolve to wallets that still exist until validation executes the move.
type Transaction struct {
	ID           string          `json:"id"`
	FromWallet   string          `json:"from_wallet"`
	ToWallet     string          `json:"to_wallet"`
	Amount       decimal.Decimal `json:"amount"`
	Kind         Kind            `json:"kind"`
	Status       Status          `json:"status"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Description  string          `json:"description,omitempty"`
	CreatedBy    string          `json:"created_by,omitempty"`
	ValidatedBy  string          `json:"validated_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ValidatedAt  *time.Time      `json:"validated_at,omitempty"`
}

// Filter narrows List results. Zero values match everything. Date filters
// on the creation day in UTC, formatted 2006-01-02.
type Filter struct {
	Status Status
	Kind   Kind
	Date   string
}

// Repository persists transactions and executes settlements. Settle and
// Cancel claim the pending row as part of a single atomic unit, so only one
// of them can ever win for a given transaction id.
type Repository interface {
	Insert(ctx context.Context, t Transaction) error
	Get(ctx context.Context, id string) (Transaction, error)
	List(ctx context.Context, f Filter) ([]Transaction, error)
	ListByWallet(ctx context.Context, address string) ([]Transaction, error)

	// Settle atomically flips pending to completed, checks the source
	// balance, moves the funds, credits the interest skim to the house
	// wallet, and stamps validated_by/validated_at. A failure leaves no
	// partial state behind.
	Settle(ctx context.Context, id, validatorID string) (Transaction, error)

	// Cancel flips pending to cancelled. No wallet is touched.
	Cancel(ctx context.Context, id string) (Transaction, error)
}
