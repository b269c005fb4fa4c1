package ledger

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLedgerMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func accountRows(id, userID int, balance string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "balance", "created_at", "updated_at"}).
		AddRow(id, userID, balance, time.Now(), time.Now())
}

func expectLockedAccount(mock sqlmock.Sqlmock, userID, accountID int, balance string) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, balance, created_at, updated_at FROM accounts WHERE user_id = $1 FOR UPDATE")).
		WithArgs(userID).
		WillReturnRows(accountRows(accountID, userID, balance))
}

func TestGetOrCreateAccount_WhenNotExists(t *testing.T) {
	repo, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, balance, created_at, updated_at FROM accounts WHERE user_id = $1")).
		WithArgs(10).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts (user_id) VALUES ($1) RETURNING id, user_id, balance, created_at, updated_at")).
		WithArgs(10).
		WillReturnRows(accountRows(5, 10, "0.00"))

	a, err := repo.GetOrCreateAccount(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 5, a.ID)
	assert.True(t, a.Balance.IsZero())
}

func TestCredit_Deposit(t *testing.T) {
	repo, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()
	expectLockedAccount(mock, 10, 5, "0.00")

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO credit_transactions (account_id, amount, kind, description) VALUES ($1, $2, $3, $4) RETURNING id, account_id, amount, kind, description, created_at")).
		WithArgs(5, sqlmock.AnyArg(), KindDeposit, "deposit").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "amount", "kind", "description", "created_at"}).
			AddRow(1, 5, "100.00", KindDeposit, "deposit", time.Now()))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	entry, err := repo.Credit(ctx, 10, decimal.RequireFromString("100.00"), "deposit", KindDeposit)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Amount.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, KindDeposit, entry.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredit_RejectsNonPositiveAmount(t *testing.T) {
	repo, _, close := setupLedgerMock(t)
	defer close()

	_, err := repo.Credit(context.Background(), 10, decimal.Zero, "x", KindDeposit)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = repo.Credit(context.Background(), 10, decimal.RequireFromString("-5"), "x", KindDeposit)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCredit_RejectsEmptyDescription(t *testing.T) {
	repo, _, close := setupLedgerMock(t)
	defer close()

	_, err := repo.Credit(context.Background(), 10, decimal.RequireFromString("50"), "", KindDeposit)
	assert.ErrorIs(t, err, ErrEmptyDescription)
}

func TestCredit_RejectsSpendKind(t *testing.T) {
	repo, _, close := setupLedgerMock(t)
	defer close()

	_, err := repo.Credit(context.Background(), 10, decimal.RequireFromString("50"), "x", KindSpend)
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestDebit_Success(t *testing.T) {
	repo, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()
	expectLockedAccount(mock, 20, 7, "100.00")

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO credit_transactions (account_id, amount, kind, description) VALUES ($1, $2, $3, $4) RETURNING id, account_id, amount, kind, description, created_at")).
		WithArgs(7, sqlmock.AnyArg(), KindSpend, "campaign spend").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "amount", "kind", "description", "created_at"}).
			AddRow(2, 7, "-60.00", KindSpend, "campaign spend", time.Now()))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	entry, err := repo.Debit(ctx, 20, decimal.RequireFromString("60.00"), "campaign spend")
	require.NoError(t, err)
	assert.True(t, entry.Amount.Equal(decimal.RequireFromString("-60.00")))
	assert.Equal(t, KindSpend, entry.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebit_InsufficientFunds(t *testing.T) {
	repo, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()
	expectLockedAccount(mock, 20, 7, "100.00")
	mock.ExpectRollback()

	_, err := repo.Debit(ctx, 20, decimal.RequireFromString("150.00"), "campaign spend")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// No entry insert and no balance update were expected; the mock verifies
	// nothing was written.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebit_SecondDebitLosesAfterSerialization(t *testing.T) {
	repo, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()

	// First debit of 60.00 from 100.00 succeeds.
	mock.ExpectBegin()
	expectLockedAccount(mock, 20, 7, "100.00")
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO credit_transactions")).
		WithArgs(7, sqlmock.AnyArg(), KindSpend, "spend a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "amount", "kind", "description", "created_at"}).
			AddRow(3, 7, "-60.00", KindSpend, "spend a", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs(sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// The row lock forces the second debit to observe the post-commit
	// balance of 40.00, so it fails validation under the lock.
	mock.ExpectBegin()
	expectLockedAccount(mock, 20, 7, "40.00")
	mock.ExpectRollback()

	_, err := repo.Debit(ctx, 20, decimal.RequireFromString("60.00"), "spend a")
	require.NoError(t, err)

	_, err = repo.Debit(ctx, 20, decimal.RequireFromString("60.00"), "spend b")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminAdjust_RejectsZero(t *testing.T) {
	repo, _, close := setupLedgerMock(t)
	defer close()

	_, err := repo.AdminAdjust(context.Background(), 10, decimal.Zero, "correction")
	assert.ErrorIs(t, err, ErrZeroAmount)
}

func TestAdminAdjust_NegativeOverdrawRejected(t *testing.T) {
	repo, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()
	expectLockedAccount(mock, 10, 5, "20.00")
	mock.ExpectRollback()

	_, err := repo.AdminAdjust(ctx, 10, decimal.RequireFromString("-30.00"), "correction")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminAdjust_NegativeWithinBalance(t *testing.T) {
	repo, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()
	expectLockedAccount(mock, 10, 5, "50.00")
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO credit_transactions")).
		WithArgs(5, sqlmock.AnyArg(), KindAdminAdjustment, "correction").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "amount", "kind", "description", "created_at"}).
			AddRow(4, 5, "-30.00", KindAdminAdjustment, "correction", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs(sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry, err := repo.AdminAdjust(ctx, 10, decimal.RequireFromString("-30.00"), "correction")
	require.NoError(t, err)
	assert.Equal(t, "-30", entry.SignedAmount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_CreatesAccountUnderTransaction(t *testing.T) {
	repo, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, balance, created_at, updated_at FROM accounts WHERE user_id = $1 FOR UPDATE")).
		WithArgs(33).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts (user_id) VALUES ($1) RETURNING id, user_id, balance, created_at, updated_at")).
		WithArgs(33).
		WillReturnRows(accountRows(9, 33, "0.00"))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO credit_transactions")).
		WithArgs(9, sqlmock.AnyArg(), KindDeposit, "first deposit").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "amount", "kind", "description", "created_at"}).
			AddRow(5, 9, "10.00", KindDeposit, "first deposit", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs(sqlmock.AnyArg(), 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry, err := repo.Credit(ctx, 33, decimal.RequireFromString("10.00"), "first deposit", KindDeposit)
	require.NoError(t, err)
	assert.Equal(t, 9, entry.AccountID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailableFor_NoAccount(t *testing.T) {
	repo, mock, close := setupLedgerMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT balance FROM accounts WHERE user_id = $1")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	balance, err := repo.AvailableFor(context.Background(), 99)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestListTransactions_FilterByKind(t *testing.T) {
	repo, mock, close := setupLedgerMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM accounts WHERE user_id = $1")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE account_id = $1 AND kind = $2")).
		WithArgs(5, KindSpend, 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "amount", "kind", "description", "created_at"}).
			AddRow(2, 5, "-60.00", KindSpend, "campaign spend", time.Now()))

	txs, err := repo.ListTransactions(context.Background(), 10, KindSpend, 50, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, KindSpend, txs[0].Kind)
}

func TestListTransactions_UnknownKind(t *testing.T) {
	repo, _, close := setupLedgerMock(t)
	defer close()

	_, err := repo.ListTransactions(context.Background(), 10, "chargeback", 50, 0)
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestListTransactions_NoAccountReturnsEmpty(t *testing.T) {
	repo, mock, close := setupLedgerMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM accounts WHERE user_id = $1")).
		WithArgs(77).
		WillReturnError(sql.ErrNoRows)

	txs, err := repo.ListTransactions(context.Background(), 77, "", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}
