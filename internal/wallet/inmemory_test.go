package wallet

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedStore(t *testing.T, balances map[string]string) Store {
	t.Helper()
	s := NewInMemory()
	for address, balance := range balances {
		err := s.Create(context.Background(), Wallet{Address: address, Balance: amt(balance), Kind: KindClient})
		if err != nil {
			t.Fatalf("create %s: %v", address, err)
		}
	}
	return s
}

func TestInMemoryStore_CreditDebit(t *testing.T) {
	s := seedStore(t, map[string]string{"W1": "1000"})
	ctx := context.Background()

	if err := s.Credit(ctx, "W1", amt("250.50")); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := s.Debit(ctx, "W1", amt("1000")); err != nil {
		t.Fatalf("debit: %v", err)
	}

	balance, err := s.Balance(ctx, "W1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(amt("250.50")) {
		t.Fatalf("expected 250.50, got %s", balance)
	}
}

func TestInMemoryStore_DebitInsufficientFunds(t *testing.T) {
	s := seedStore(t, map[string]string{"W1": "100"})

	if err := s.Debit(context.Background(), "W1", amt("100.01")); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	balance, _ := s.Balance(context.Background(), "W1")
	if !balance.Equal(amt("100")) {
		t.Fatalf("balance changed on failed debit: %s", balance)
	}
}

func TestInMemoryStore_RejectsNonPositiveAmounts(t *testing.T) {
	s := seedStore(t, map[string]string{"W1": "100", "W2": "0"})
	ctx := context.Background()

	for _, amount := range []string{"0", "-5"} {
		if err := s.Credit(ctx, "W1", amt(amount)); err != ErrInvalidAmount {
			t.Fatalf("credit %s: expected ErrInvalidAmount, got %v", amount, err)
		}
		if err := s.Debit(ctx, "W1", amt(amount)); err != ErrInvalidAmount {
			t.Fatalf("debit %s: expected ErrInvalidAmount, got %v", amount, err)
		}
		if err := s.Transfer(ctx, "W1", "W2", amt(amount)); err != ErrInvalidAmount {
			t.Fatalf("transfer %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestInMemoryStore_UnknownAddress(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.Balance(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Credit(ctx, "missing", amt("10")); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryStore_DuplicateAddress(t *testing.T) {
	s := seedStore(t, map[string]string{"W1": "0"})
	err := s.Create(context.Background(), Wallet{Address: "W1", Kind: KindUser})
	if err != ErrDuplicateAddress {
		t.Fatalf("expected ErrDuplicateAddress, got %v", err)
	}
}

func TestInMemoryStore_TransferAtomicity(t *testing.T) {
	s := seedStore(t, map[string]string{"W1": "1000", "W2": "500"})
	ctx := context.Background()

	// Destination does not exist: the source must keep its funds.
	if err := s.Transfer(ctx, "W1", "missing", amt("300")); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	balance, _ := s.Balance(ctx, "W1")
	if !balance.Equal(amt("1000")) {
		t.Fatalf("source debited despite failed transfer: %s", balance)
	}

	// Source too short: neither side changes.
	if err := s.Transfer(ctx, "W1", "W2", amt("1500")); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	to, _ := s.Balance(ctx, "W2")
	if !to.Equal(amt("500")) {
		t.Fatalf("destination credited despite failed transfer: %s", to)
	}
}

func TestInMemoryStore_ConcurrentTransfersConserveValue(t *testing.T) {
	s := seedStore(t, map[string]string{"W1": "100000", "W2": "0"})
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Transfer(ctx, "W1", "W2", amt("500")); err != nil {
				t.Errorf("transfer failed: %v", err)
			}
		}()
	}
	wg.Wait()

	from, _ := s.Balance(ctx, "W1")
	to, _ := s.Balance(ctx, "W2")
	if !from.Add(to).Equal(amt("100000")) {
		t.Fatalf("value not conserved: %s + %s", from, to)
	}
	if !to.Equal(amt("10000")) {
		t.Fatalf("expected destination 10000, got %s", to)
	}
}
