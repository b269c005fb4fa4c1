package campaign

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InsufficientCreditsError reports a failed activation admission: the funding
// account cannot cover one day of the campaign's budget.
type InsufficientCreditsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf(
		"Insufficient credits. You need $%s but only have $%s. Please add credits to your wallet.",
		e.Required.StringFixed(2), e.Available.StringFixed(2),
	)
}

// BudgetTooLowError reports a daily budget under the configured floor.
type BudgetTooLowError struct {
	Minimum decimal.Decimal
}

func (e *BudgetTooLowError) Error() string {
	return fmt.Sprintf("daily budget must be at least $%s", e.Minimum.StringFixed(2))
}

// Gate decides whether a campaign may enter or remain in an active,
// bid-eligible state. It never mutates anything; callers run its checks
// inside the same database transaction that persists the campaign so the
// balance read cannot go stale between check and commit.
type Gate struct {
	MinDailyBudget decimal.Decimal
}

func NewGate(minDailyBudget decimal.Decimal) *Gate {
	return &Gate{MinDailyBudget: minDailyBudget}
}

// RequiredFor is the minimum available balance to admit the campaign: one
// day's budget, zero when no budget is set.
func (g *Gate) RequiredFor(c *Campaign) decimal.Decimal {
	return c.BudgetOrZero()
}

// CheckBudgetFloor applies regardless of status: a set daily budget may not
// be below the floor.
func (g *Gate) CheckBudgetFloor(c *Campaign) error {
	if !c.DailyBudget.Valid {
		return nil
	}
	if c.DailyBudget.Decimal.LessThan(g.MinDailyBudget) {
		return &BudgetTooLowError{Minimum: g.MinDailyBudget}
	}
	return nil
}

// CheckFunds admits or rejects an activation given the account's available
// balance.
func (g *Gate) CheckFunds(c *Campaign, available decimal.Decimal) error {
	required := g.RequiredFor(c)
	if available.LessThan(required) {
		return &InsufficientCreditsError{Required: required, Available: available}
	}
	return nil
}

// ValidateBeforeSave is the save-time gate: the budget floor always applies,
// the funds check only when the campaign is being persisted as active.
func (g *Gate) ValidateBeforeSave(c *Campaign, available decimal.Decimal) error {
	if err := g.CheckBudgetFloor(c); err != nil {
		return err
	}
	if c.Status == StatusActive {
		return g.CheckFunds(c, available)
	}
	return nil
}

// CanServeAds reports whether the campaign is currently bid-eligible.
func (g *Gate) CanServeAds(c *Campaign, available decimal.Decimal) bool {
	return c.Status == StatusActive && available.GreaterThanOrEqual(g.MinDailyBudget)
}

// ShouldPauseForCredits flags active campaigns whose funding has dropped
// below the serving floor. The pause transition itself is left to an
// operator or external scheduler.
func (g *Gate) ShouldPauseForCredits(c *Campaign, available decimal.Decimal) bool {
	return c.Status == StatusActive && available.LessThan(g.MinDailyBudget)
}
