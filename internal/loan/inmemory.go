package loan

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kivu-mc/kivu_mc/internal/ledger"
)

type inMemoryRepository struct {
	mu           sync.Mutex
	loans        map[string]Loan
	transactions ledger.Repository
	houseAddress string
}

// NewInMemory creates an in-memory loan repository that records repayments
// through the given ledger repository. The repayment mutex plus the
// settle-before-mutate ordering in Settle stand in for the database
// transaction the Postgres repository uses.
func NewInMemory(transactions ledger.Repository, houseAddress string) Repository {
	return &inMemoryRepository{
		loans:        make(map[string]Loan),
		transactions: transactions,
		houseAddress: houseAddress,
	}
}

func (r *inMemoryRepository) Insert(_ context.Context, l Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans[l.ID] = l
	return nil
}

func (r *inMemoryRepository) Get(_ context.Context, id string) (Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[id]
	if !ok {
		return Loan{}, ErrNotFound
	}
	return l, nil
}

func (r *inMemoryRepository) List(_ context.Context) ([]Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Loan, 0, len(r.loans))
	for _, l := range r.loans {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *inMemoryRepository) ListByClient(_ context.Context, clientID string) ([]Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Loan
	for _, l := range r.loans {
		if l.ClientID == clientID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *inMemoryRepository) ListActive(_ context.Context) ([]Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Loan
	for _, l := range r.loans {
		if l.Status == StatusActive {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RemainingAmount.GreaterThan(out[j].RemainingAmount) })
	return out, nil
}

// Settle records the remboursement through the ledger first and mutates the
// loan last. Every failure happens before the loan changes, and the loan
// arithmetic itself cannot fail once the checks under the mutex passed.
func (r *inMemoryRepository) Settle(ctx context.Context, p RepaymentParams) (Loan, ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.loans[p.LoanID]
	if !ok {
		return Loan{}, ledger.Transaction{}, ErrNotFound
	}
	if p.Amount.GreaterThan(l.RemainingAmount) {
		return Loan{}, ledger.Transaction{}, ErrOverpayment
	}

	t := ledger.Transaction{
		ID:           uuid.NewString(),
		FromWallet:   p.ClientWallet,
		ToWallet:     r.houseAddress,
		Amount:       p.Amount,
		Kind:         ledger.KindRemboursement,
		Status:       ledger.StatusPending,
		InterestRate: l.InterestRate,
		Description:  p.Description,
		CreatedBy:    p.RecordedBy,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.transactions.Insert(ctx, t); err != nil {
		return Loan{}, ledger.Transaction{}, err
	}
	settled, err := r.transactions.Settle(ctx, t.ID, p.RecordedBy)
	if err != nil {
		// Void the pending record so the failed repayment leaves no
		// executable transaction behind.
		_, _ = r.transactions.Cancel(ctx, t.ID)
		return Loan{}, ledger.Transaction{}, err
	}

	l = l.apply(p.Amount)
	r.loans[l.ID] = l
	return l, settled, nil
}
