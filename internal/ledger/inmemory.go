package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kivu-mc/kivu_mc/internal/interest"
	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

type inMemoryRepository struct {
	mu           sync.Mutex
	wallets      wallet.Store
	houseAddress string
	transactions map[string]Transaction
}

// NewInMemory creates an in-memory transaction repository on top of a
// wallet store. It backs the dev mode of the API and the unit tests.
// Settlements are serialized on one mutex, which stands in for the
// database transaction the Postgres repository uses.
func NewInMemory(wallets wallet.Store, houseAddress string) Repository {
	return &inMemoryRepository{
		wallets:      wallets,
		houseAddress: houseAddress,
		transactions: make(map[string]Transaction),
	}
}

func (r *inMemoryRepository) Insert(_ context.Context, t Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions[t.ID] = t
	return nil
}

func (r *inMemoryRepository) Get(_ context.Context, id string) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return t, nil
}

func (r *inMemoryRepository) List(_ context.Context, f Filter) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Transaction
	for _, t := range r.transactions {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Kind != "" && t.Kind != f.Kind {
			continue
		}
		if f.Date != "" && t.CreatedAt.UTC().Format("2006-01-02") != f.Date {
			continue
		}
		out = append(out, t)
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *inMemoryRepository) ListByWallet(_ context.Context, address string) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Transaction
	for _, t := range r.transactions {
		if t.FromWallet == address || t.ToWallet == address {
			out = append(out, t)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *inMemoryRepository) Settle(ctx context.Context, id, validatorID string) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.transactions[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	if t.Status != StatusPending {
		return Transaction{}, ErrInvalidStateTransition
	}

	// Resolve the skim up front so nothing can fail after funds moved.
	skim, err := interest.Skim(t.Amount, t.InterestRate)
	if err != nil {
		return Transaction{}, err
	}
	applySkim := t.Kind == KindRemboursement && skim.IsPositive()
	if applySkim {
		if _, err := r.wallets.Balance(ctx, r.houseAddress); err != nil {
			return Transaction{}, err
		}
	}

	if err := r.wallets.Transfer(ctx, t.FromWallet, t.ToWallet, t.Amount); err != nil {
		return Transaction{}, err
	}
	if applySkim {
		if err := r.wallets.Credit(ctx, r.houseAddress, skim); err != nil {
			return Transaction{}, err
		}
	}

	now := time.Now().UTC()
	t.Status = StatusCompleted
	t.ValidatedBy = validatorID
	t.ValidatedAt = &now
	r.transactions[id] = t
	return t, nil
}

func (r *inMemoryRepository) Cancel(_ context.Context, id string) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.transactions[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	if t.Status != StatusPending {
		return Transaction{}, ErrInvalidStateTransition
	}
	t.Status = StatusCancelled
	r.transactions[id] = t
	return t, nil
}

func sortNewestFirst(ts []Transaction) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].ID > ts[j].ID
		}
		return ts[i].CreatedAt.After(ts[j].CreatedAt)
	})
}
