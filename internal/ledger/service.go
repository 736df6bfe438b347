package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kivu-mc/kivu_mc/internal/interest"
	"github.com/kivu-mc/kivu_mc/internal/notification"
	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

// Service owns the transaction lifecycle: creation in pending, privileged
// validation that executes the fund movement, and explicit cancellation.
type Service struct {
	repo     Repository
	notifier notification.Notifier
}

// NewService constructs a ledger service.
func NewService(repo Repository, notifier notification.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// CreateInput captures the data required to record a pending transaction.
type CreateInput struct {
	FromWallet   string
	ToWallet     string
	Amount       decimal.Decimal
	Kind         Kind
	InterestRate decimal.Decimal
	Description  string
	CreatedBy    string
}

// Create records a pending transaction. No funds move until validation.
func (s *Service) Create(ctx context.Context, in CreateInput) (Transaction, error) {
	if in.FromWallet == "" || in.ToWallet == "" {
		return Transaction{}, fmt.Errorf("both wallet addresses are required")
	}
	if !in.Amount.IsPositive() {
		return Transaction{}, wallet.ErrInvalidAmount
	}
	if in.Kind == KindPret {
		if err := interest.ValidateLoanRate(in.InterestRate); err != nil {
			return Transaction{}, err
		}
	} else if in.InterestRate.IsNegative() {
		return Transaction{}, interest.ErrNegativeRate
	}

	t := Transaction{
		ID:           uuid.NewString(),
		FromWallet:   in.FromWallet,
		ToWallet:     in.ToWallet,
		Amount:       in.Amount,
		Kind:         in.Kind,
		Status:       StatusPending,
		InterestRate: in.InterestRate,
		Description:  in.Description,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Validate executes a pending transaction: the balance check, the wallet
// moves, the interest skim, and the completed stamp happen as one atomic
// unit inside the repository.
func (s *Service) Validate(ctx context.Context, id, validatorID string) (Transaction, error) {
	t, err := s.repo.Settle(ctx, id, validatorID)
	if err != nil {
		return Transaction{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransactionValidated,
			Destination: t.ToWallet,
			Body:        fmt.Sprintf("Transaction %s of %s validated", t.ID, t.Amount),
		})
	}
	return t, nil
}

// Cancel voids a pending transaction. Terminal transactions stay untouched.
func (s *Service) Cancel(ctx context.Context, id string) (Transaction, error) {
	return s.repo.Cancel(ctx, id)
}

// Get returns a single transaction by id.
func (s *Service) Get(ctx context.Context, id string) (Transaction, error) {
	return s.repo.Get(ctx, id)
}

// List returns transactions matching the filter, most recent first.
func (s *Service) List(ctx context.Context, f Filter) ([]Transaction, error) {
	return s.repo.List(ctx, f)
}

// ListByWallet returns the history involving the given address, most
// recent first.
func (s *Service) ListByWallet(ctx context.Context, address string) ([]Transaction, error) {
	return s.repo.ListByWallet(ctx, address)
}
