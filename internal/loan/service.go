package loan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kivu-mc/kivu_mc/internal/client"
	"github.com/kivu-mc/kivu_mc/internal/interest"
	"github.com/kivu-mc/kivu_mc/internal/notification"
	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// Service owns loan origination and repayment. Every repayment is settled
// through the transaction ledger, so the audit trail and the house interest
// skim follow the same path as any other movement of value.
type Service struct {
	repo     Repository
	clients  client.Repository
	notifier notification.Notifier
}

// NewService constructs a loan service.
func NewService(repo Repository, clients client.Repository, notifier notification.Notifier) *Service {
	return &Service{repo: repo, clients: clients, notifier: notifier}
}

// CreateInput captures the data required to originate a loan.
type CreateInput struct {
	ClientID       string
	Principal      decimal.Decimal
	InterestRate   decimal.Decimal
	DurationMonths int
	CreatedBy      string
}

// Create originates a loan. The amortized total is computed once here and
// never recomputed afterward.
func (s *Service) Create(ctx context.Context, in CreateInput) (Loan, error) {
	if !in.Principal.IsPositive() {
		return Loan{}, wallet.ErrInvalidAmount
	}
	if err := interest.ValidateLoanRate(in.InterestRate); err != nil {
		return Loan{}, err
	}
	if in.DurationMonths <= 0 {
		return Loan{}, fmt.Errorf("duration must be at least one month")
	}
	if _, err := s.clients.Get(ctx, in.ClientID); err != nil {
		return Loan{}, err
	}

	total := in.Principal.Mul(one.Add(in.InterestRate.Div(hundred))).Round(2)
	start := time.Now().UTC()
	l := Loan{
		ID:              uuid.NewString(),
		ClientID:        in.ClientID,
		Principal:       in.Principal,
		InterestRate:    in.InterestRate,
		TotalAmount:     total,
		PaidAmount:      decimal.Zero,
		RemainingAmount: total,
		Status:          StatusActive,
		StartDate:       start,
		EndDate:         start.AddDate(0, in.DurationMonths, 0),
		CreatedBy:       in.CreatedBy,
	}
	if err := s.repo.Insert(ctx, l); err != nil {
		return Loan{}, err
	}
	return l, nil
}

// Repay applies a partial or full repayment. The loan mutation and the
// remboursement ledger record land atomically; overpayment is rejected
// here for every caller, not just the UI path.
func (s *Service) Repay(ctx context.Context, loanID string, amount decimal.Decimal, recordedBy string) (Loan, error) {
	if !amount.IsPositive() {
		return Loan{}, wallet.ErrInvalidAmount
	}

	l, err := s.repo.Get(ctx, loanID)
	if err != nil {
		return Loan{}, err
	}
	if amount.GreaterThan(l.RemainingAmount) {
		return Loan{}, ErrOverpayment
	}

	c, err := s.clients.Get(ctx, l.ClientID)
	if err != nil {
		return Loan{}, err
	}

	updated, tx, err := s.repo.Settle(ctx, RepaymentParams{
		LoanID:       loanID,
		Amount:       amount,
		ClientWallet: c.WalletAddress,
		RecordedBy:   recordedBy,
		Description:  fmt.Sprintf("Remboursement prêt %s", loanID),
	})
	if err != nil {
		return Loan{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindLoanRepayment,
			Destination: c.WalletAddress,
			Body:        fmt.Sprintf("Repayment of %s applied to loan %s (transaction %s)", amount, loanID, tx.ID),
		})
	}
	return updated, nil
}

// Get returns a loan by id.
func (s *Service) Get(ctx context.Context, id string) (Loan, error) {
	return s.repo.Get(ctx, id)
}

// List returns all loans, most recent first.
func (s *Service) List(ctx context.Context) ([]Loan, error) {
	return s.repo.List(ctx)
}

// ListByClient returns the loans of one client, most recent first.
func (s *Service) ListByClient(ctx context.Context, clientID string) ([]Loan, error) {
	return s.repo.ListByClient(ctx, clientID)
}

// ListActive returns active loans ordered by remaining balance.
func (s *Service) ListActive(ctx context.Context) ([]Loan, error) {
	return s.repo.ListActive(ctx)
}
