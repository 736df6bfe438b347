package loan

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kivu-mc/kivu_mc/internal/ledger"
)

var (
	// ErrNotFound occurs when the requested loan does not exist.
	ErrNotFound = errors.New("loan not found")

	// ErrOverpayment occurs when a repayment exceeds the remaining balance.
	ErrOverpayment = errors.New("repayment exceeds remaining balance")
)

// Status is the lifecycle state of a loan. defaulted is reserved; no code
// path sets it yet.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDefaulted Status = "defaulted"
)

// Loan is an amortized obligation owed by a client. TotalAmount is frozen
// at origination; RemainingAmount always equals TotalAmount minus
// PaidAmount.
type Loan struct {
	ID              string          `json:"id"`
	ClientID        string          `json:"client_id"`
	Principal       decimal.Decimal `json:"principal"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          Status          `json:"status"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	CreatedBy       string          `json:"created_by,omitempty"`
}

// RepaymentParams carries one repayment through the repository. The wallet
// addresses are resolved by the service before the atomic settle begins.
type RepaymentParams struct {
	LoanID       string
	Amount       decimal.Decimal
	ClientWallet string
	RecordedBy   string
	Description  string
}

// Repository persists loans. Settle applies a repayment and records the
// matching remboursement transaction as one atomic unit: either the loan
// mutation and the ledger record both land, or neither does.
type Repository interface {
	Insert(ctx context.Context, l Loan) error
	Get(ctx context.Context, id string) (Loan, error)
	List(ctx context.Context) ([]Loan, error)
	ListByClient(ctx context.Context, clientID string) ([]Loan, error)
	ListActive(ctx context.Context) ([]Loan, error)
	Settle(ctx context.Context, p RepaymentParams) (Loan, ledger.Transaction, error)
}

// apply folds a repayment into the loan's arithmetic. Callers must have
// verified the amount against RemainingAmount first.
func (l Loan) apply(amount decimal.Decimal) Loan {
	l.PaidAmount = l.PaidAmount.Add(amount)
	l.RemainingAmount = l.TotalAmount.Sub(l.PaidAmount)
	if l.RemainingAmount.Sign() <= 0 {
		l.Status = StatusCompleted
	} else {
		l.Status = StatusActive
	}
	return l
}
