package campaign

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign kinds. Banners and videos share the budget/status lifecycle; the
// kind only matters for creative handling downstream.
const (
	KindBanner = "banner"
	KindVideo  = "video"
	KindNative = "native"
)

const (
	StatusInactive = "inactive"
	StatusActive   = "active"
	StatusPaused   = "paused"
)

func ValidCampaignKind(kind string) bool {
	return kind == KindBanner || kind == KindVideo || kind == KindNative
}

func ValidStatus(status string) bool {
	return status == StatusInactive || status == StatusActive || status == StatusPaused
}

type Campaign struct {
	ID          int                 `db:"id" json:"id"`
	UserID      int                 `db:"user_id" json:"user_id"`
	Name        string              `db:"name" json:"name"`
	Kind        string              `db:"kind" json:"kind"`
	DailyBudget decimal.NullDecimal `db:"daily_budget" json:"daily_budget"`
	Status      string              `db:"status" json:"status"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}

// BudgetOrZero returns the daily budget, or zero when none is set.
func (c *Campaign) BudgetOrZero() decimal.Decimal {
	if c.DailyBudget.Valid {
		return c.DailyBudget.Decimal
	}
	return decimal.Zero
}

// NeedsPause pairs an active campaign with the balance that no longer covers
// the serving floor. Admin reporting only.
type NeedsPause struct {
	Campaign
	Balance decimal.Decimal `db:"balance" json:"balance"`
}
