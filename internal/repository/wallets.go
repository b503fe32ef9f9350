package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"festmatch/internal/domain/wallets"
)

type WalletsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewWalletsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *WalletsRepo {
	return &WalletsRepo{db: db, getter: getter}
}

// GetOrCreate returns the user's wallet, creating a zero-balance one on
// first access.
func (r *WalletsRepo) GetOrCreate(ctx context.Context, userID uuid.UUID, currency string) (*wallets.Wallet, error) {
	ex := r.getter.DefaultTrOrDB(ctx, r.db)

	_, err := ex.ExecContext(ctx, `
		INSERT INTO wallets (user_id, currency)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, currency)
	if err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	var w wallets.Wallet
	err = ex.QueryRowxContext(ctx, `
		SELECT user_id, balance, currency, created_at, updated_at
		FROM wallets
		WHERE user_id = $1`, userID).
		Scan(&w.UserId, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("select wallet: %w", err)
	}
	return &w, nil
}

// Balance is always a fresh read; callers must not cache it across
// other wallet operations.
func (r *WalletsRepo) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx,
		`SELECT balance FROM wallets WHERE user_id = $1`, userID).
		Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("select balance: %w", err)
	}
	return balance, nil
}

// Debit decrements the balance only if it covers the amount; the check
// and the decrement are one statement, so a concurrent balance-lowering
// operation cannot slip between them.
func (r *WalletsRepo) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance - $2, updated_at = now()
		WHERE user_id = $1 AND balance >= $2`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("debit wallet: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		balance, berr := r.Balance(ctx, userID)
		if berr != nil {
			balance = decimal.Zero
		}
		return wallets.InsufficientBalanceError{Required: amount, Balance: balance}
	}
	return nil
}

func (r *WalletsRepo) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance + $2, updated_at = now()
		WHERE user_id = $1`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("credit wallet: no wallet for user %s", userID)
	}
	return nil
}

func (r *WalletsRepo) InsertTransaction(ctx context.Context, t wallets.Transaction) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO wallet_transactions (
			user_id, type, status, amount, currency,
			counterpart_id, match_id, provider_reference, description
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING id`,
		t.UserId,
		t.Type,
		t.Status,
		t.Amount,
		t.Currency,
		t.CounterpartId,
		t.MatchId,
		t.ProviderReference,
		t.Description,
	).Scan(&id)

	if err != nil {
		return uuid.Nil, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

const transactionColumns = `
	id, user_id, type, status, amount, currency,
	counterpart_id, match_id, provider_reference, description, created_at`

func (r *WalletsRepo) GetTransactionByReference(ctx context.Context, providerReference string) (*wallets.Transaction, error) {
	row := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx,
		`SELECT`+transactionColumns+` FROM wallet_transactions WHERE provider_reference = $1`,
		providerReference)
	return scanTransaction(row)
}

// FindReusablePendingTopUp returns the newest pending top-up for the
// same user and amount created after the cutoff, if any.
func (r *WalletsRepo) FindReusablePendingTopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, createdAfter time.Time) (*wallets.Transaction, error) {
	row := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx,
		`SELECT`+transactionColumns+`
		FROM wallet_transactions
		WHERE user_id = $1
		  AND type = $2
		  AND status = $3
		  AND amount = $4
		  AND created_at > $5
		ORDER BY created_at DESC
		LIMIT 1`,
		userID, wallets.TypeTopUp, wallets.StatusPending, amount, createdAfter)

	t, err := scanTransaction(row)
	if errors.Is(err, wallets.ErrTransactionNotFound) {
		return nil, nil
	}
	return t, err
}

// CancelStalePendingTopUps marks the user's pending top-ups older than
// the cutoff as cancelled.
func (r *WalletsRepo) CancelStalePendingTopUps(ctx context.Context, userID uuid.UUID, createdBefore time.Time) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE wallet_transactions
		SET status = $4
		WHERE user_id = $1
		  AND type = $2
		  AND status = $3
		  AND created_at <= $5`,
		userID, wallets.TypeTopUp, wallets.StatusPending, wallets.StatusCancelled, createdBefore)
	if err != nil {
		return fmt.Errorf("cancel stale top-ups: %w", err)
	}
	return nil
}

func (r *WalletsRepo) MarkTransactionCompleted(ctx context.Context, id uuid.UUID) error {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx,
		`UPDATE wallet_transactions SET status = $2 WHERE id = $1`,
		id, wallets.StatusCompleted)
	if err != nil {
		return fmt.Errorf("mark transaction completed: %w", err)
	}
	return requireRow(res, wallets.ErrTransactionNotFound)
}

// ListCompleted returns completed transactions newest first. Pending
// and cancelled entries are never shown to the user.
func (r *WalletsRepo) ListCompleted(ctx context.Context, userID uuid.UUID, typeFilter *wallets.TransactionType, limit, offset int) ([]wallets.Transaction, error) {
	query := `SELECT` + transactionColumns + `
		FROM wallet_transactions
		WHERE user_id = $1 AND status = $2`
	args := []interface{}{userID, wallets.StatusCompleted}

	if typeFilter != nil {
		query += ` AND type = $3`
		args = append(args, *typeFilter)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var txs []wallets.Transaction
	for rows.Next() {
		t, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func scanTransaction(row *sqlx.Row) (*wallets.Transaction, error) {
	var t wallets.Transaction
	err := row.Scan(
		&t.Id,
		&t.UserId,
		&t.Type,
		&t.Status,
		&t.Amount,
		&t.Currency,
		&t.CounterpartId,
		&t.MatchId,
		&t.ProviderReference,
		&t.Description,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallets.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("select transaction: %w", err)
	}
	return &t, nil
}

func scanTransactionRow(rows *sqlx.Rows) (*wallets.Transaction, error) {
	var t wallets.Transaction
	err := rows.Scan(
		&t.Id,
		&t.UserId,
		&t.Type,
		&t.Status,
		&t.Amount,
		&t.Currency,
		&t.CounterpartId,
		&t.MatchId,
		&t.ProviderReference,
		&t.Description,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return &t, nil
}
