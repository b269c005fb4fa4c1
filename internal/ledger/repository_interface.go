package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	GetOrCreateAccount(ctx context.Context, userID int) (*Account, error)
	Credit(ctx context.Context, userID int, amount decimal.Decimal, description, kind string) (*CreditTransaction, error)
	Debit(ctx context.Context, userID int, amount decimal.Decimal, description string) (*CreditTransaction, error)
	AdminAdjust(ctx context.Context, userID int, signedAmount decimal.Decimal, description string) (*CreditTransaction, error)
	AvailableFor(ctx context.Context, userID int) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, userID int, kind string, limit, offset int) ([]CreditTransaction, error)
	ListAccounts(ctx context.Context, limit int) ([]Account, error)
}
