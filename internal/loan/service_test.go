package loan

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kivu-mc/kivu_mc/internal/client"
	"github.com/kivu-mc/kivu_mc/internal/interest"
	"github.com/kivu-mc/kivu_mc/internal/ledger"
	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

const houseAddress = "KIVU_MAIN_WALLET"

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	loans   *Service
	ledger  ledger.Repository
	wallets wallet.Store
	client  client.Client
}

func newFixture(t *testing.T, clientBalance string) fixture {
	t.Helper()
	ctx := context.Background()

	wallets := wallet.NewInMemory()
	if err := wallet.EnsureHouse(ctx, wallets, houseAddress, amt("1000000")); err != nil {
		t.Fatalf("seed house wallet: %v", err)
	}

	clients := client.NewInMemory()
	clientSvc := client.NewService(clients, wallets, decimal.Zero)
	c, err := clientSvc.Create(ctx, client.CreateInput{
		Name:  "Amina Kabila",
		Email: "amina@example.com",
		CIN:   "CIN-001",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if clientBalance != "0" {
		if err := wallets.Credit(ctx, c.WalletAddress, amt(clientBalance)); err != nil {
			t.Fatalf("fund client wallet: %v", err)
		}
	}

	transactions := ledger.NewInMemory(wallets, houseAddress)
	loans := NewService(NewInMemory(transactions, houseAddress), clients, nil)
	return fixture{loans: loans, ledger: transactions, wallets: wallets, client: c}
}

func TestCreateComputesAmortizedTotal(t *testing.T) {
	f := newFixture(t, "0")

	l, err := f.loans.Create(context.Background(), CreateInput{
		ClientID:       f.client.ID,
		Principal:      amt("10000"),
		InterestRate:   amt("10"),
		DurationMonths: 12,
		CreatedBy:      "agent-1",
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if !l.TotalAmount.Equal(amt("11000")) {
		t.Fatalf("total = %s, want 11000", l.TotalAmount)
	}
	if !l.RemainingAmount.Equal(amt("11000")) {
		t.Fatalf("remaining = %s, want 11000", l.RemainingAmount)
	}
	if !l.PaidAmount.IsZero() {
		t.Fatalf("paid = %s, want 0", l.PaidAmount)
	}
	if l.Status != StatusActive {
		t.Fatalf("status = %s, want %s", l.Status, StatusActive)
	}
	if days := l.EndDate.Sub(l.StartDate).Hours() / 24; days < 360 {
		t.Fatalf("end date only %v days after start", days)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()

	base := CreateInput{
		ClientID:       f.client.ID,
		Principal:      amt("10000"),
		InterestRate:   amt("10"),
		DurationMonths: 12,
	}

	bad := base
	bad.Principal = decimal.Zero
	if _, err := f.loans.Create(ctx, bad); !errors.Is(err, wallet.ErrInvalidAmount) {
		t.Fatalf("zero principal: got %v", err)
	}

	bad = base
	bad.InterestRate = amt("25")
	if _, err := f.loans.Create(ctx, bad); !errors.Is(err, interest.ErrRateOutOfRange) {
		t.Fatalf("rate 25: got %v", err)
	}

	bad = base
	bad.DurationMonths = 0
	if _, err := f.loans.Create(ctx, bad); err == nil {
		t.Fatal("zero duration accepted")
	}

	bad = base
	bad.ClientID = "no-such-client"
	if _, err := f.loans.Create(ctx, bad); !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("unknown client: got %v", err)
	}
}

func TestPartialRepayment(t *testing.T) {
	f := newFixture(t, "20000")
	ctx := context.Background()

	l, err := f.loans.Create(ctx, CreateInput{
		ClientID:       f.client.ID,
		Principal:      amt("10000"),
		InterestRate:   amt("10"),
		DurationMonths: 6,
		CreatedBy:      "agent-1",
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}

	updated, err := f.loans.Repay(ctx, l.ID, amt("5000"), "caissier-1")
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if !updated.PaidAmount.Equal(amt("5000")) {
		t.Fatalf("paid = %s, want 5000", updated.PaidAmount)
	}
	if !updated.RemainingAmount.Equal(amt("6000")) {
		t.Fatalf("remaining = %s, want 6000", updated.RemainingAmount)
	}
	if updated.Status != StatusActive {
		t.Fatalf("status = %s, want %s", updated.Status, StatusActive)
	}
}

func TestFullRepaymentCompletesLoan(t *testing.T) {
	f := newFixture(t, "20000")
	ctx := context.Background()

	l, err := f.loans.Create(ctx, CreateInput{
		ClientID:       f.client.ID,
		Principal:      amt("10000"),
		InterestRate:   amt("10"),
		DurationMonths: 6,
		CreatedBy:      "agent-1",
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}

	if _, err := f.loans.Repay(ctx, l.ID, amt("5000"), "caissier-1"); err != nil {
		t.Fatalf("first repayment: %v", err)
	}
	updated, err := f.loans.Repay(ctx, l.ID, amt("6000"), "caissier-1")
	if err != nil {
		t.Fatalf("second repayment: %v", err)
	}
	if !updated.RemainingAmount.IsZero() {
		t.Fatalf("remaining = %s, want 0", updated.RemainingAmount)
	}
	if updated.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", updated.Status, StatusCompleted)
	}
}

func TestOverpaymentRejected(t *testing.T) {
	f := newFixture(t, "50000")
	ctx := context.Background()

	l, err := f.loans.Create(ctx, CreateInput{
		ClientID:       f.client.ID,
		Principal:      amt("10000"),
		InterestRate:   amt("10"),
		DurationMonths: 6,
		CreatedBy:      "agent-1",
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}

	if _, err := f.loans.Repay(ctx, l.ID, amt("11001"), "caissier-1"); !errors.Is(err, ErrOverpayment) {
		t.Fatalf("overpayment: got %v", err)
	}

	got, err := f.loans.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if !got.RemainingAmount.Equal(amt("11000")) {
		t.Fatalf("remaining changed to %s after rejected repayment", got.RemainingAmount)
	}
}

func TestRepayUnknownLoan(t *testing.T) {
	f := newFixture(t, "0")
	if _, err := f.loans.Repay(context.Background(), "no-such-loan", amt("100"), "caissier-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown loan: got %v", err)
	}
}

func TestRepaymentRecordsLedgerTransaction(t *testing.T) {
	f := newFixture(t, "20000")
	ctx := context.Background()

	houseBefore, err := f.wallets.Balance(ctx, houseAddress)
	if err != nil {
		t.Fatalf("house balance: %v", err)
	}

	l, err := f.loans.Create(ctx, CreateInput{
		ClientID:       f.client.ID,
		Principal:      amt("10000"),
		InterestRate:   amt("10"),
		DurationMonths: 6,
		CreatedBy:      "agent-1",
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if _, err := f.loans.Repay(ctx, l.ID, amt("5000"), "caissier-1"); err != nil {
		t.Fatalf("repay: %v", err)
	}

	records, err := f.ledger.ListByWallet(ctx, f.client.WalletAddress)
	if err != nil {
		t.Fatalf("list by wallet: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d ledger records, want 1", len(records))
	}
	rec := records[0]
	if rec.Kind != ledger.KindRemboursement {
		t.Fatalf("kind = %s, want %s", rec.Kind, ledger.KindRemboursement)
	}
	if rec.Status != ledger.StatusCompleted {
		t.Fatalf("status = %s, want %s", rec.Status, ledger.StatusCompleted)
	}
	if rec.ToWallet != houseAddress {
		t.Fatalf("to = %s, want house", rec.ToWallet)
	}

	// The house receives the repayment plus the 10% interest skim.
	houseAfter, err := f.wallets.Balance(ctx, houseAddress)
	if err != nil {
		t.Fatalf("house balance: %v", err)
	}
	if delta := houseAfter.Sub(houseBefore); !delta.Equal(amt("5500")) {
		t.Fatalf("house delta = %s, want 5500", delta)
	}

	clientBalance, err := f.wallets.Balance(ctx, f.client.WalletAddress)
	if err != nil {
		t.Fatalf("client balance: %v", err)
	}
	if !clientBalance.Equal(amt("15000")) {
		t.Fatalf("client balance = %s, want 15000", clientBalance)
	}
}

func TestFailedSettleLeavesLoanUntouched(t *testing.T) {
	f := newFixture(t, "1000")
	ctx := context.Background()

	l, err := f.loans.Create(ctx, CreateInput{
		ClientID:       f.client.ID,
		Principal:      amt("10000"),
		InterestRate:   amt("10"),
		DurationMonths: 6,
		CreatedBy:      "agent-1",
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}

	if _, err := f.loans.Repay(ctx, l.ID, amt("5000"), "caissier-1"); !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("underfunded repayment: got %v", err)
	}

	got, err := f.loans.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if !got.PaidAmount.IsZero() || !got.RemainingAmount.Equal(amt("11000")) {
		t.Fatalf("loan mutated after failed repayment: paid=%s remaining=%s", got.PaidAmount, got.RemainingAmount)
	}

	balance, err := f.wallets.Balance(ctx, f.client.WalletAddress)
	if err != nil {
		t.Fatalf("client balance: %v", err)
	}
	if !balance.Equal(amt("1000")) {
		t.Fatalf("client balance = %s, want 1000", balance)
	}
}

func TestListByClientAndActive(t *testing.T) {
	f := newFixture(t, "50000")
	ctx := context.Background()

	a, err := f.loans.Create(ctx, CreateInput{ClientID: f.client.ID, Principal: amt("10000"), InterestRate: amt("10"), DurationMonths: 6})
	if err != nil {
		t.Fatalf("create loan a: %v", err)
	}
	b, err := f.loans.Create(ctx, CreateInput{ClientID: f.client.ID, Principal: amt("2000"), InterestRate: amt("5"), DurationMonths: 3})
	if err != nil {
		t.Fatalf("create loan b: %v", err)
	}

	if _, err := f.loans.Repay(ctx, b.ID, amt("2100"), "caissier-1"); err != nil {
		t.Fatalf("pay off loan b: %v", err)
	}

	byClient, err := f.loans.ListByClient(ctx, f.client.ID)
	if err != nil {
		t.Fatalf("list by client: %v", err)
	}
	if len(byClient) != 2 {
		t.Fatalf("got %d loans for client, want 2", len(byClient))
	}

	active, err := f.loans.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != a.ID {
		t.Fatalf("active loans = %+v, want only %s", active, a.ID)
	}
}
