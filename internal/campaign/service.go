package campaign

import (
	"context"
	"errors"

	"adnexus/internal/bidder"
	"adnexus/internal/logger"
	"adnexus/internal/metrics"
	"adnexus/internal/user"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidKind   = errors.New("invalid campaign kind")
	ErrInvalidStatus = errors.New("invalid campaign status")
)

// BidderClient pushes campaign state to the Crosstalk hosts. Sync failures
// are logged and never fail the operation that triggered them.
type BidderClient interface {
	Upsert(ctx context.Context, state bidder.CampaignState) error
	Remove(ctx context.Context, campaignID int) error
}

// Notifier delivers campaign emails, best effort.
type Notifier interface {
	SendCampaignPaused(ctx context.Context, email, name, campaignName string) error
}

// ServingStatus is the read-only serving view of one campaign.
type ServingStatus struct {
	CampaignID  int             `json:"campaign_id"`
	Status      string          `json:"status"`
	Available   decimal.Decimal `json:"available"`
	Required    decimal.Decimal `json:"required"`
	CanServeAds bool            `json:"can_serve_ads"`
	ShouldPause bool            `json:"should_pause_for_credits"`
}

type Service interface {
	Create(ctx context.Context, c *Campaign) (*Campaign, error)
	Update(ctx context.Context, c *Campaign) (*Campaign, error)
	Activate(ctx context.Context, userID, campaignID int) (*Campaign, error)
	Pause(ctx context.Context, userID, campaignID int) (*Campaign, error)
	Get(ctx context.Context, userID, campaignID int) (*Campaign, error)
	List(ctx context.Context, userID int) ([]Campaign, error)
	Delete(ctx context.Context, userID, campaignID int) error
	Status(ctx context.Context, userID, campaignID int) (*ServingStatus, error)
	ListNeedingPause(ctx context.Context) ([]NeedsPause, error)
}

type service struct {
	repo     Repository
	userRepo user.Repository
	gate     *Gate
	bidder   BidderClient
	notifier Notifier
}

func NewService(repo Repository, userRepo user.Repository, gate *Gate, bidderClient BidderClient, notifier Notifier) Service {
	return &service{
		repo:     repo,
		userRepo: userRepo,
		gate:     gate,
		bidder:   bidderClient,
		notifier: notifier,
	}
}

func (s *service) Create(ctx context.Context, c *Campaign) (*Campaign, error) {
	if c.Status == "" {
		c.Status = StatusInactive
	}
	if err := s.validate(c); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		s.recordGateRejection(err)
		return nil, err
	}

	if created.Status == StatusActive {
		metrics.RecordCampaignActivation(created.Kind)
		s.syncBidder(ctx, created)
	}

	return created, nil
}

func (s *service) Update(ctx context.Context, c *Campaign) (*Campaign, error) {
	if err := s.validate(c); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, c)
	if err != nil {
		s.recordGateRejection(err)
		return nil, err
	}

	if updated.Status == StatusActive {
		s.syncBidder(ctx, updated)
	}

	return updated, nil
}

func (s *service) Activate(ctx context.Context, userID, campaignID int) (*Campaign, error) {
	c, err := s.repo.Activate(ctx, userID, campaignID)
	if err != nil {
		s.recordGateRejection(err)
		return nil, err
	}

	metrics.RecordCampaignActivation(c.Kind)
	logger.Info("campaign activated", "campaign_id", c.ID, "user_id", userID, "kind", c.Kind)
	s.syncBidder(ctx, c)

	return c, nil
}

func (s *service) Pause(ctx context.Context, userID, campaignID int) (*Campaign, error) {
	c, err := s.repo.Pause(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}

	logger.Info("campaign paused", "campaign_id", c.ID, "user_id", userID)
	s.syncBidder(ctx, c)

	if s.notifier != nil {
		if u, err := s.userRepo.FindByID(ctx, userID); err == nil {
			if err := s.notifier.SendCampaignPaused(ctx, u.Email, u.Name, c.Name); err != nil {
				logger.Error("failed to queue pause notice", "campaign_id", c.ID, "error", err)
			}
		}
	}

	return c, nil
}

func (s *service) Get(ctx context.Context, userID, campaignID int) (*Campaign, error) {
	return s.repo.GetByID(ctx, userID, campaignID)
}

func (s *service) List(ctx context.Context, userID int) ([]Campaign, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID, campaignID int) error {
	if err := s.repo.Delete(ctx, userID, campaignID); err != nil {
		return err
	}

	if s.bidder != nil {
		if err := s.bidder.Remove(ctx, campaignID); err != nil {
			logger.Error("bidder delete sync failed", "campaign_id", campaignID, "error", err)
		}
	}

	return nil
}

// Status answers the pure serving queries without mutating anything.
func (s *service) Status(ctx context.Context, userID, campaignID int) (*ServingStatus, error) {
	c, err := s.repo.GetByID(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}

	available, err := s.repo.AvailableFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ServingStatus{
		CampaignID:  c.ID,
		Status:      c.Status,
		Available:   available,
		Required:    s.gate.RequiredFor(c),
		CanServeAds: s.gate.CanServeAds(c, available),
		ShouldPause: s.gate.ShouldPauseForCredits(c, available),
	}, nil
}

func (s *service) ListNeedingPause(ctx context.Context) ([]NeedsPause, error) {
	return s.repo.ListShouldPause(ctx)
}

func (s *service) validate(c *Campaign) error {
	if !ValidCampaignKind(c.Kind) {
		return ErrInvalidKind
	}
	if !ValidStatus(c.Status) {
		return ErrInvalidStatus
	}
	if err := s.gate.CheckBudgetFloor(c); err != nil {
		metrics.RecordGateRejection("budget_too_low")
		return err
	}
	return nil
}

func (s *service) recordGateRejection(err error) {
	var insufficientErr *InsufficientCreditsError
	if errors.As(err, &insufficientErr) {
		metrics.RecordGateRejection("insufficient_credits")
	}
}

func (s *service) syncBidder(ctx context.Context, c *Campaign) {
	if s.bidder == nil {
		return
	}

	state := bidder.CampaignState{
		ID:          c.ID,
		Name:        c.Name,
		Kind:        c.Kind,
		DailyBudget: c.BudgetOrZero().StringFixed(2),
		Status:      c.Status,
	}
	if err := s.bidder.Upsert(ctx, state); err != nil {
		logger.Error("bidder sync failed", "campaign_id", c.ID, "error", err)
	}
}
