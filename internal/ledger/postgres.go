package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kivu-mc/kivu_mc/internal/infra"
	"github.com/kivu-mc/kivu_mc/internal/interest"
	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

const transactionColumns = `id, from_wallet, to_wallet, amount, kind, status, interest_rate,
        COALESCE(description, ''), COALESCE(created_by::text, ''), COALESCE(validated_by::text, ''), created_at, validated_at`

// PostgresRepository persists transactions in PostgreSQL. Settlement runs
// inside a single database transaction whose first write is the pending to
// completed compare-and-swap, so concurrent validations of the same id
// serialize on the row and exactly one wins.
type PostgresRepository struct {
	db           *pgxpool.Pool
	houseAddress string
}

// NewPostgresRepository constructs a Postgres-backed transaction repository.
func NewPostgresRepository(db *pgxpool.Pool, houseAddress string) *PostgresRepository {
	return &PostgresRepository{db: db, houseAddress: houseAddress}
}

// Insert records a transaction row.
func (r *PostgresRepository) Insert(ctx context.Context, t Transaction) error {
	return infra.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return InsertInTx(ctx, tx, t)
	})
}

// Get fetches a transaction by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

// List returns transactions matching the filter, most recent first.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		query += ` AND kind = $` + strconv.Itoa(len(args))
	}
	if f.Date != "" {
		args = append(args, f.Date)
		query += ` AND DATE(created_at AT TIME ZONE 'UTC') = $` + strconv.Itoa(len(args)) + `::date`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return r.queryMany(ctx, query, args...)
}

// ListByWallet returns the history involving the address, most recent first.
func (r *PostgresRepository) ListByWallet(ctx context.Context, address string) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
        WHERE from_wallet = $1 OR to_wallet = $1
        ORDER BY created_at DESC, id DESC`
	return r.queryMany(ctx, query, address)
}

// Settle executes a pending transaction atomically.
func (r *PostgresRepository) Settle(ctx context.Context, id, validatorID string) (Transaction, error) {
	return infra.WithTxResult(ctx, r.db, func(tx pgx.Tx) (Transaction, error) {
		return SettleInTx(ctx, tx, id, validatorID, r.houseAddress)
	})
}

// Cancel voids a pending transaction with a status compare-and-swap.
func (r *PostgresRepository) Cancel(ctx context.Context, id string) (Transaction, error) {
	row := r.db.QueryRow(ctx, `UPDATE transactions SET status = $2
        WHERE id = $1 AND status = $3
        RETURNING `+transactionColumns, id, string(StatusCancelled), string(StatusPending))
	t, err := scanTransaction(row)
	if errors.Is(err, ErrNotFound) {
		return Transaction{}, r.classifyMissing(ctx, id)
	}
	return t, err
}

// InsertInTx records a transaction row inside an existing database
// transaction. Exported so the loan repository can couple a repayment's
// ledger record with the loan mutation in one transactional boundary.
func InsertInTx(ctx context.Context, tx pgx.Tx, t Transaction) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := tx.Exec(ctx, `INSERT INTO transactions
        (id, from_wallet, to_wallet, amount, kind, status, interest_rate, description, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, '')::uuid, $10)`,
		t.ID, t.FromWallet, t.ToWallet, t.Amount, string(t.Kind), string(t.Status),
		t.InterestRate, t.Description, t.CreatedBy, t.CreatedAt.UTC())
	return err
}

// SettleInTx runs the settlement sequence inside an existing database
// transaction: claim the pending row, lock and check the source wallet,
// move the funds, credit the interest skim, all or nothing.
func SettleInTx(ctx context.Context, tx pgx.Tx, id, validatorID, houseAddress string) (Transaction, error) {
	row := tx.QueryRow(ctx, `UPDATE transactions
        SET status = $2, validated_by = $3, validated_at = NOW()
        WHERE id = $1 AND status = $4
        RETURNING `+transactionColumns,
		id, string(StatusCompleted), validatorID, string(StatusPending))
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Transaction{}, classifyMissingInTx(ctx, tx, id)
		}
		return Transaction{}, err
	}

	if err := wallet.TransferInTx(ctx, tx, t.FromWallet, t.ToWallet, t.Amount); err != nil {
		return Transaction{}, err
	}

	if t.Kind == KindRemboursement {
		skim, err := interest.Skim(t.Amount, t.InterestRate)
		if err != nil {
			return Transaction{}, err
		}
		if skim.IsPositive() {
			if err := wallet.CreditInTx(ctx, tx, houseAddress, skim); err != nil {
				return Transaction{}, err
			}
		}
	}
	return t, nil
}

func (r *PostgresRepository) classifyMissing(ctx context.Context, id string) error {
	var status string
	if err := r.db.QueryRow(ctx, `SELECT status FROM transactions WHERE id = $1`, id).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return ErrInvalidStateTransition
}

func classifyMissingInTx(ctx context.Context, tx pgx.Tx, id string) error {
	var status string
	if err := tx.QueryRow(ctx, `SELECT status FROM transactions WHERE id = $1`, id).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return ErrInvalidStateTransition
}

func (r *PostgresRepository) queryMany(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (Transaction, error) {
	var (
		t           Transaction
		kind        string
		status      string
		createdAt   time.Time
		validatedAt *time.Time
	)
	err := row.Scan(&t.ID, &t.FromWallet, &t.ToWallet, &t.Amount, &kind, &status,
		&t.InterestRate, &t.Description, &t.CreatedBy, &t.ValidatedBy, &createdAt, &validatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	t.Kind = Kind(kind)
	t.Status = Status(status)
	t.CreatedAt = createdAt.UTC()
	if validatedAt != nil {
		utc := validatedAt.UTC()
		t.ValidatedAt = &utc
	}
	return t, nil
}

