package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds. Entries are append-only; the kind plus the sign of the
// amount fully describes the balance effect.
const (
	KindDeposit         = "deposit"
	KindSpend           = "spend"
	KindRefund          = "refund"
	KindAdminAdjustment = "admin_adjustment"
)

var Kinds = []string{KindDeposit, KindSpend, KindRefund, KindAdminAdjustment}

func ValidKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Account holds the denormalized running balance for one user. The balance is
// only ever written together with a credit_transactions insert, inside one
// database transaction.
type Account struct {
	ID        int             `db:"id" json:"id"`
	UserID    int             `db:"user_id" json:"user_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// CreditTransaction is a single immutable ledger entry. Positive amounts add
// credits, negative amounts spend them.
type CreditTransaction struct {
	ID          int             `db:"id" json:"id"`
	AccountID   int             `db:"account_id" json:"account_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Kind        string          `db:"kind" json:"kind"`
	Description string          `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Credit reports whether the entry added credits to the account.
func (t CreditTransaction) Credit() bool {
	switch t.Kind {
	case KindDeposit, KindRefund, KindAdminAdjustment:
		return t.Amount.IsPositive()
	}
	return false
}

// Debit reports whether the entry deducted credits from the account.
func (t CreditTransaction) Debit() bool {
	return t.Kind == KindSpend || (t.Kind == KindAdminAdjustment && t.Amount.IsNegative())
}

// SignedAmount renders the amount with an explicit leading + for credits.
func (t CreditTransaction) SignedAmount() string {
	if t.Credit() {
		return "+" + t.Amount.String()
	}
	return t.Amount.String()
}
