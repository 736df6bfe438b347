package loan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kivu-mc/kivu_mc/internal/infra"
	"github.com/kivu-mc/kivu_mc/internal/ledger"
)

const loanColumns = `id, client_id, principal, interest_rate, total_amount, paid_amount,
        remaining_amount, status, start_date, end_date, COALESCE(created_by::text, '')`

// PostgresRepository persists loans in PostgreSQL. Settle spans the loan
// row, the transactions row, and the wallet balances in one database
// transaction, closing the partial-update gap the two-step flow would have.
type PostgresRepository struct {
	db           *pgxpool.Pool
	houseAddress string
}

// NewPostgresRepository constructs a Postgres-backed loan repository.
func NewPostgresRepository(db *pgxpool.Pool, houseAddress string) *PostgresRepository {
	return &PostgresRepository{db: db, houseAddress: houseAddress}
}

// Insert records a loan row.
func (r *PostgresRepository) Insert(ctx context.Context, l Loan) error {
	_, err := r.db.Exec(ctx, `INSERT INTO loans
        (id, client_id, principal, interest_rate, total_amount, paid_amount, remaining_amount, status, start_date, end_date, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, '')::uuid)`,
		l.ID, l.ClientID, l.Principal, l.InterestRate, l.TotalAmount, l.PaidAmount,
		l.RemainingAmount, string(l.Status), l.StartDate.UTC(), l.EndDate.UTC(), l.CreatedBy)
	return err
}

// Get fetches a loan by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Loan, error) {
	row := r.db.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
	return scanLoan(row)
}

// List returns all loans, most recent first.
func (r *PostgresRepository) List(ctx context.Context) ([]Loan, error) {
	return r.queryMany(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY start_date DESC, id DESC`)
}

// ListByClient returns one client's loans, most recent first.
func (r *PostgresRepository) ListByClient(ctx context.Context, clientID string) ([]Loan, error) {
	return r.queryMany(ctx, `SELECT `+loanColumns+` FROM loans WHERE client_id = $1 ORDER BY start_date DESC, id DESC`, clientID)
}

// ListActive returns active loans ordered by remaining balance.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]Loan, error) {
	return r.queryMany(ctx, `SELECT `+loanColumns+` FROM loans WHERE status = $1 ORDER BY remaining_amount DESC`, string(StatusActive))
}

// Settle applies a repayment atomically: the loan row is locked and
// re-checked, the remboursement is recorded and executed through the
// ledger, and the loan arithmetic is written — all in one transaction.
func (r *PostgresRepository) Settle(ctx context.Context, p RepaymentParams) (Loan, ledger.Transaction, error) {
	type settled struct {
		loan Loan
		tx   ledger.Transaction
	}
	res, err := infra.WithTxResult(ctx, r.db, func(tx pgx.Tx) (settled, error) {
		row := tx.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, p.LoanID)
		l, err := scanLoan(row)
		if err != nil {
			return settled{}, err
		}
		if p.Amount.GreaterThan(l.RemainingAmount) {
			return settled{}, ErrOverpayment
		}

		record := ledger.Transaction{
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
		if err := ledger.InsertInTx(ctx, tx, record); err != nil {
			return settled{}, err
		}
		executed, err := ledger.SettleInTx(ctx, tx, record.ID, p.RecordedBy, r.houseAddress)
		if err != nil {
			return settled{}, err
		}

		l = l.apply(p.Amount)
		if _, err := tx.Exec(ctx, `UPDATE loans SET paid_amount = $2, remaining_amount = $3, status = $4 WHERE id = $1`,
			l.ID, l.PaidAmount, l.RemainingAmount, string(l.Status)); err != nil {
			return settled{}, err
		}
		return settled{loan: l, tx: executed}, nil
	})
	if err != nil {
		return Loan{}, ledger.Transaction{}, err
	}
	return res.loan, res.tx, nil
}

func (r *PostgresRepository) queryMany(ctx context.Context, query string, args ...any) ([]Loan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoan(row scanner) (Loan, error) {
	var (
		l         Loan
		status    string
		startDate time.Time
		endDate   time.Time
	)
	err := row.Scan(&l.ID, &l.ClientID, &l.Principal, &l.InterestRate, &l.TotalAmount,
		&l.PaidAmount, &l.RemainingAmount, &status, &startDate, &endDate, &l.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, ErrNotFound
		}
		return Loan{}, err
	}
	l.Status = Status(status)
	l.StartDate = startDate.UTC()
	l.EndDate = endDate.UTC()
	return l, nil
}
