package wallet

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type inMemoryStore struct {
	mu        sync.RWMutex
	byAddress map[string]Wallet
}

// NewInMemory creates a concurrency-safe in-memory wallet store. It backs
// the dev mode of the API and the unit tests.
func NewInMemory() Store {
	return &inMemoryStore{byAddress: make(map[string]Wallet)}
}

func (s *inMemoryStore) Create(_ context.Context, w Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byAddress[w.Address]; exists {
		return ErrDuplicateAddress
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	s.byAddress[w.Address] = w
	return nil
}

func (s *inMemoryStore) Get(_ context.Context, address string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.byAddress[address]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (s *inMemoryStore) Balance(_ context.Context, address string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.byAddress[address]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	return w.Balance, nil
}

func (s *inMemoryStore) Credit(_ context.Context, address string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creditLocked(address, amount)
}

func (s *inMemoryStore) Debit(_ context.Context, address string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debitLocked(address, amount)
}

// Transfer debits the source and credits the destination under one lock so
// no caller can observe the intermediate state.
func (s *inMemoryStore) Transfer(_ context.Context, fromAddress, toAddress string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byAddress[toAddress]; !ok {
		return ErrNotFound
	}
	if err := s.debitLocked(fromAddress, amount); err != nil {
		return err
	}
	return s.creditLocked(toAddress, amount)
}

func (s *inMemoryStore) creditLocked(address string, amount decimal.Decimal) error {
	w, ok := s.byAddress[address]
	if !ok {
		return ErrNotFound
	}
	w.Balance = w.Balance.Add(amount)
	s.byAddress[address] = w
	return nil
}

func (s *inMemoryStore) debitLocked(address string, amount decimal.Decimal) error {
	w, ok := s.byAddress[address]
	if !ok {
		return ErrNotFound
	}
	if w.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	w.Balance = w.Balance.Sub(amount)
	s.byAddress[address] = w
	return nil
}
