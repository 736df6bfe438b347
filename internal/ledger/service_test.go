package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kivu-mc/kivu_mc/internal/interest"
	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

const houseAddress = "KIVU_MAIN_WALLET"

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(t *testing.T, balances map[string]string) (*Service, wallet.Store) {
	t.Helper()
	wallets := wallet.NewInMemory()
	ctx := context.Background()

	if err := wallets.Create(ctx, wallet.Wallet{Address: houseAddress, Balance: amt("1000000"), Kind: wallet.KindMain}); err != nil {
		t.Fatalf("create house wallet: %v", err)
	}
	for address, balance := range balances {
		if err := wallets.Create(ctx, wallet.Wallet{Address: address, Balance: amt(balance), Kind: wallet.KindClient}); err != nil {
			t.Fatalf("create %s: %v", address, err)
		}
	}
	return NewService(NewInMemory(wallets, houseAddress), nil), wallets
}

func balance(t *testing.T, wallets wallet.Store, address string) decimal.Decimal {
	t.Helper()
	b, err := wallets.Balance(context.Background(), address)
	if err != nil {
		t.Fatalf("balance %s: %v", address, err)
	}
	return b
}

func TestCreateLeavesWalletsUntouched(t *testing.T) {
	svc, wallets := newTestService(t, map[string]string{"W1": "1000", "W2": "0"})
	ctx := context.Background()

	tx, err := svc.Create(ctx, CreateInput{
		FromWallet: "W1", ToWallet: "W2", Amount: amt("400"),
		Kind: KindTransfert, CreatedBy: "u1", Description: "test",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Status != StatusPending {
		t.Fatalf("expected pending, got %s", tx.Status)
	}
	if tx.ValidatedAt != nil || tx.ValidatedBy != "" {
		t.Fatalf("validation fields set on a pending transaction: %+v", tx)
	}
	if !balance(t, wallets, "W1").Equal(amt("1000")) {
		t.Fatal("funds moved before validation")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{"W1": "1000", "W2": "0"})
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{FromWallet: "W1", ToWallet: "W2", Amount: amt("0"), Kind: KindTransfert}); err != wallet.ErrInvalidAmount {
		t.Fatalf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{FromWallet: "W1", ToWallet: "W2", Amount: amt("-10"), Kind: KindTransfert}); err != wallet.ErrInvalidAmount {
		t.Fatalf("negative amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{FromWallet: "W1", ToWallet: "W2", Amount: amt("100"), Kind: KindPret, InterestRate: amt("25")}); err != interest.ErrRateOutOfRange {
		t.Fatalf("pret rate 25: expected ErrRateOutOfRange, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{FromWallet: "W1", ToWallet: "W2", Amount: amt("100"), Kind: KindPret, InterestRate: amt("0.5")}); err != interest.ErrRateOutOfRange {
		t.Fatalf("pret rate 0.5: expected ErrRateOutOfRange, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{FromWallet: "W1", ToWallet: "W2", Amount: amt("100"), Kind: KindTransfert, InterestRate: amt("-1")}); err != interest.ErrNegativeRate {
		t.Fatalf("negative rate: expected ErrNegativeRate, got %v", err)
	}
}

func TestValidateConservesValue(t *testing.T) {
	svc, wallets := newTestService(t, map[string]string{"W1": "1000", "W2": "250"})
	ctx := context.Background()

	tx, err := svc.Create(ctx, CreateInput{FromWallet: "W1", ToWallet: "W2", Amount: amt("600"), Kind: KindTransfert, CreatedBy: "u1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	validated, err := svc.Validate(ctx, tx.ID, "admin")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	if validated.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", validated.Status)
	}
	if validated.ValidatedBy != "admin" || validated.ValidatedAt == nil {
		t.Fatalf("validation stamp missing: %+v", validated)
	}

	from := balance(t, wallets, "W1")
	to := balance(t, wallets, "W2")
	if !from.Equal(amt("400")) || !to.Equal(amt("850")) {
		t.Fatalf("unexpected balances: from=%s to=%s", from, to)
	}
	if !from.Add(to).Equal(amt("1250")) {
		t.Fatalf("value not conserved: %s", from.Add(to))
	}
}

func TestValidateRemboursementCreditsHouseInterest(t *testing.T) {
	svc, wallets := newTestService(t, map[string]string{"C1": "8000"})
	ctx := context.Background()

	houseBefore := balance(t, wallets, houseAddress)

	tx, err := svc.Create(ctx, CreateInput{
		FromWallet: "C1", ToWallet: houseAddress, Amount: amt("5000"),
		Kind: KindRemboursement, InterestRate: amt("10"), CreatedBy: "u1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Validate(ctx, tx.ID, "admin"); err != nil {
		t.Fatalf("validate: %v", err)
	}

	// The house receives the transferred amount plus the skim; the payer
	// is only debited the amount.
	houseAfter := balance(t, wallets, houseAddress)
	if !houseAfter.Sub(houseBefore).Equal(amt("5500")) {
		t.Fatalf("expected house delta 5500, got %s", houseAfter.Sub(houseBefore))
	}
	if !balance(t, wallets, "C1").Equal(amt("3000")) {
		t.Fatalf("payer debited wrong amount: %s", balance(t, wallets, "C1"))
	}
}

func TestValidateInsufficientFunds(t *testing.T) {
	svc, wallets := newTestService(t, map[string]string{"W1": "1000", "W2": "0"})
	ctx := context.Background()

	tx, err := svc.Create(ctx, CreateInput{FromWallet: "W1", ToWallet: "W2", Amount: amt("1500"), Kind: KindTransfert})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Validate(ctx, tx.ID, "admin"); err != wallet.ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if !balance(t, wallets, "W1").Equal(amt("1000")) {
		t.Fatalf("balance changed on failed validation: %s", balance(t, wallets, "W1"))
	}
	// The transaction stays pending after a failed settlement.
	got, err := svc.Get(ctx, tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("expected pending after failed validation, got %s", got.Status)
	}
}

func TestStatusTransitionsAreOneWay(t *testing.T) {
	svc, wallets := newTestService(t, map[string]string{"W1": "1000", "W2": "0"})
	ctx := context.Background()

	// Completed transactions reject any further transition.
	tx, _ := svc.Create(ctx, CreateInput{FromWallet: "W1", ToWallet: "W2", Amount: amt("100"), Kind: KindTransfert})
	if _, err := svc.Validate(ctx, tx.ID, "admin"); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, err := svc.Validate(ctx, tx.ID, "admin"); err != ErrInvalidStateTransition {
		t.Fatalf("revalidate: expected ErrInvalidStateTransition, got %v", err)
	}
	if _, err := svc.Cancel(ctx, tx.ID); err != ErrInvalidStateTransition {
		t.Fatalf("cancel completed: expected ErrInvalidStateTransition, got %v", err)
	}

	// Cancelled transactions cannot be validated and move no funds.
	tx2, _ := svc.Create(ctx, CreateInput{FromWallet: "W1", ToWallet: "W2", Amount: amt("500"), Kind: KindTransfert})
	cancelled, err := svc.Cancel(ctx, tx2.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if _, err := svc.Validate(ctx, tx2.ID, "admin"); err != ErrInvalidStateTransition {
		t.Fatalf("validate cancelled: expected ErrInvalidStateTransition, got %v", err)
	}
	if !balance(t, wallets, "W1").Equal(amt("900")) || !balance(t, wallets, "W2").Equal(amt("100")) {
		t.Fatal("cancelled transaction moved funds")
	}
}

func TestValidateUnknownTransaction(t *testing.T) {
	svc, _ := newTestService(t, nil)
	if _, err := svc.Validate(context.Background(), "missing", "admin"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersAndOrder(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{"W1": "10000", "W2": "0"})
	ctx := context.Background()

	first, _ := svc.Create(ctx, CreateInput{FromWallet: "W1", ToWallet: "W2", Amount: amt("100"), Kind: KindTransfert})
	second, _ := svc.Create(ctx, CreateInput{FromWallet: "W1", ToWallet: "W2", Amount: amt("200"), Kind: KindDepot})
	if _, err := svc.Validate(ctx, first.ID, "admin"); err != nil {
		t.Fatalf("validate: %v", err)
	}

	pending, err := svc.List(ctx, Filter{Status: StatusPending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("unexpected pending set: %+v", pending)
	}

	deposits, err := svc.List(ctx, Filter{Kind: KindDepot})
	if err != nil {
		t.Fatalf("list depot: %v", err)
	}
	if len(deposits) != 1 || deposits[0].ID != second.ID {
		t.Fatalf("unexpected kind filter result: %+v", deposits)
	}

	all, err := svc.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(all))
	}
	if all[0].CreatedAt.Before(all[1].CreatedAt) {
		t.Fatal("list is not most recent first")
	}

	// Listing twice yields the same result: reads do not mutate.
	again, _ := svc.List(ctx, Filter{})
	if len(again) != len(all) {
		t.Fatalf("list mutated state: %d vs %d", len(again), len(all))
	}
}

func TestListByWallet(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{"W1": "10000", "W2": "0", "W3": "0"})
	ctx := context.Background()

	svc.Create(ctx, CreateInput{FromWallet: "W1", ToWallet: "W2", Amount: amt("100"), Kind: KindTransfert})
	svc.Create(ctx, CreateInput{FromWallet: "W3", ToWallet: "W1", Amount: amt("50"), Kind: KindTransfert})
	svc.Create(ctx, CreateInput{FromWallet: "W2", ToWallet: "W3", Amount: amt("25"), Kind: KindTransfert})

	history, err := svc.ListByWallet(ctx, "W1")
	if err != nil {
		t.Fatalf("list by wallet: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 transactions for W1, got %d", len(history))
	}
}
