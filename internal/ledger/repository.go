package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrZeroAmount        = errors.New("amount cannot be zero")
	ErrEmptyDescription  = errors.New("description is required")
	ErrInvalidKind       = errors.New("invalid transaction kind")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrCreateAccount(ctx context.Context, userID int) (*Account, error) {
	a := &Account{}
	err := r.db.GetContext(ctx, a,
		`SELECT id, user_id, balance, created_at, updated_at FROM accounts WHERE user_id = $1`,
		userID,
	)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO accounts (user_id)
		 VALUES ($1)
		 RETURNING id, user_id, balance, created_at, updated_at`,
		userID,
	).StructScan(a)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// Credit adds amount to the user's balance. Kind must be one of the
// credit-direction kinds; spends go through Debit.
func (r *repository) Credit(ctx context.Context, userID int, amount decimal.Decimal, description, kind string) (*CreditTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if description == "" {
		return nil, ErrEmptyDescription
	}
	if kind != KindDeposit && kind != KindRefund && kind != KindAdminAdjustment {
		return nil, ErrInvalidKind
	}

	return r.apply(ctx, userID, amount, kind, description)
}

// Debit deducts amount from the user's balance, recording a spend entry.
// Fails with ErrInsufficientFunds before any write when the balance cannot
// cover the amount.
func (r *repository) Debit(ctx context.Context, userID int, amount decimal.Decimal, description string) (*CreditTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if description == "" {
		return nil, ErrEmptyDescription
	}

	return r.apply(ctx, userID, amount.Neg(), KindSpend, description)
}

// AdminAdjust applies a signed correction. Negative adjustments obey the same
// non-negative balance invariant as spends.
func (r *repository) AdminAdjust(ctx context.Context, userID int, signedAmount decimal.Decimal, description string) (*CreditTransaction, error) {
	if signedAmount.IsZero() {
		return nil, ErrZeroAmount
	}
	if description == "" {
		return nil, ErrEmptyDescription
	}

	return r.apply(ctx, userID, signedAmount, KindAdminAdjustment, description)
}

// apply holds the row lock on the account for the whole read-validate-write
// span, so concurrent mutations of one account serialize.
func (r *repository) apply(ctx context.Context, userID int, amount decimal.Decimal, kind, description string) (*CreditTransaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var a Account
	err = tx.QueryRowxContext(ctx,
		`SELECT id, user_id, balance, created_at, updated_at
		 FROM accounts
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	).StructScan(&a)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRowxContext(ctx,
				`INSERT INTO accounts (user_id)
				 VALUES ($1)
				 RETURNING id, user_id, balance, created_at, updated_at`,
				userID,
			).StructScan(&a)
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	newBalance := a.Balance.Add(amount)
	if newBalance.IsNegative() {
		return nil, ErrInsufficientFunds
	}

	entry := &CreditTransaction{}
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO credit_transactions (account_id, amount, kind, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, account_id, amount, kind, description, created_at`,
		a.ID, amount, kind, description,
	).StructScan(entry)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts
		 SET balance = $1, updated_at = NOW()
		 WHERE id = $2`,
		newBalance, a.ID,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return entry, nil
}

// AvailableFor returns the committed balance for a user, zero when no account
// exists yet. Read-only; the spend gate uses its own locked read when it runs
// inside an activation transaction.
func (r *repository) AvailableFor(ctx context.Context, userID int) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.GetContext(ctx, &balance,
		`SELECT balance FROM accounts WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return balance, nil
}

// ListTransactions returns the user's entries in reverse-chronological order,
// optionally filtered by kind.
func (r *repository) ListTransactions(ctx context.Context, userID int, kind string, limit, offset int) ([]CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if kind != "" && !ValidKind(kind) {
		return nil, ErrInvalidKind
	}

	var accountID int
	err := r.db.GetContext(ctx, &accountID, `SELECT id FROM accounts WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []CreditTransaction{}, nil
		}
		return nil, err
	}

	var txs []CreditTransaction
	if kind != "" {
		err = r.db.SelectContext(ctx, &txs, `
			SELECT id, account_id, amount, kind, description, created_at
			FROM credit_transactions
			WHERE account_id = $1 AND kind = $2
			ORDER BY created_at DESC
			LIMIT $3 OFFSET $4
		`, accountID, kind, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &txs, `
			SELECT id, account_id, amount, kind, description, created_at
			FROM credit_transactions
			WHERE account_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, accountID, limit, offset)
	}
	if err != nil {
		return nil, err
	}

	return txs, nil
}

// ListAccounts returns the most recently created accounts for the admin view.
func (r *repository) ListAccounts(ctx context.Context, limit int) ([]Account, error) {
	if limit <= 0 {
		limit = 100
	}

	var accounts []Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}
