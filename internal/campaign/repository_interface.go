package campaign

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, c *Campaign) (*Campaign, error)
	Update(ctx context.Context, c *Campaign) (*Campaign, error)
	Activate(ctx context.Context, userID, campaignID int) (*Campaign, error)
	Pause(ctx context.Context, userID, campaignID int) (*Campaign, error)
	GetByID(ctx context.Context, userID, campaignID int) (*Campaign, error)
	ListByUser(ctx context.Context, userID int) ([]Campaign, error)
	Delete(ctx context.Context, userID, campaignID int) error
	ListShouldPause(ctx context.Context) ([]NeedsPause, error)
	AvailableFor(ctx context.Context, userID int) (decimal.Decimal, error)
}
