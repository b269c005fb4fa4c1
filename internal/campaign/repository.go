package campaign

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrAlreadyActive    = errors.New("campaign is already active")
	ErrNotActive        = errors.New("campaign is not active")
)

type repository struct {
	db   *sqlx.DB
	gate *Gate
}

func NewRepository(db *sqlx.DB, gate *Gate) Repository {
	return &repository{db: db, gate: gate}
}

const campaignColumns = `id, user_id, name, kind, daily_budget, status, created_at, updated_at`

// Create persists a new campaign. Saving straight into active status runs the
// spend gate with the funding account row locked, so the admission check and
// the insert commit together or not at all.
func (r *repository) Create(ctx context.Context, c *Campaign) (*Campaign, error) {
	if c.Status != StatusActive {
		created := &Campaign{}
		err := r.db.QueryRowxContext(ctx,
			`INSERT INTO campaigns (user_id, name, kind, daily_budget, status)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING `+campaignColumns,
			c.UserID, c.Name, c.Kind, c.DailyBudget, c.Status,
		).StructScan(created)
		if err != nil {
			return nil, err
		}
		return created, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	available, err := lockBalance(ctx, tx, c.UserID)
	if err != nil {
		return nil, err
	}
	if err := r.gate.CheckFunds(c, available); err != nil {
		return nil, err
	}

	created := &Campaign{}
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO campaigns (user_id, name, kind, daily_budget, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+campaignColumns,
		c.UserID, c.Name, c.Kind, c.DailyBudget, c.Status,
	).StructScan(created)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return created, nil
}

// Update rewrites name, kind and budget. Updates that keep or make the
// campaign active go through the same locked gate path as Create.
func (r *repository) Update(ctx context.Context, c *Campaign) (*Campaign, error) {
	if c.Status != StatusActive {
		updated := &Campaign{}
		err := r.db.QueryRowxContext(ctx,
			`UPDATE campaigns
			 SET name = $1, kind = $2, daily_budget = $3, status = $4, updated_at = NOW()
			 WHERE id = $5 AND user_id = $6
			 RETURNING `+campaignColumns,
			c.Name, c.Kind, c.DailyBudget, c.Status, c.ID, c.UserID,
		).StructScan(updated)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrCampaignNotFound
			}
			return nil, err
		}
		return updated, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	available, err := lockBalance(ctx, tx, c.UserID)
	if err != nil {
		return nil, err
	}
	if err := r.gate.CheckFunds(c, available); err != nil {
		return nil, err
	}

	updated := &Campaign{}
	err = tx.QueryRowxContext(ctx,
		`UPDATE campaigns
		 SET name = $1, kind = $2, daily_budget = $3, status = $4, updated_at = NOW()
		 WHERE id = $5 AND user_id = $6
		 RETURNING `+campaignColumns,
		c.Name, c.Kind, c.DailyBudget, c.Status, c.ID, c.UserID,
	).StructScan(updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return updated, nil
}

// Activate transitions inactive|paused -> active with the gate checks and
// the status write in one transaction. A rejected transition leaves the
// persisted status untouched.
func (r *repository) Activate(ctx context.Context, userID, campaignID int) (*Campaign, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c := &Campaign{}
	err = tx.QueryRowxContext(ctx,
		`SELECT `+campaignColumns+`
		 FROM campaigns
		 WHERE id = $1 AND user_id = $2
		 FOR UPDATE`,
		campaignID, userID,
	).StructScan(c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	if c.Status == StatusActive {
		return nil, ErrAlreadyActive
	}

	available, err := lockBalance(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := r.gate.CheckBudgetFloor(c); err != nil {
		return nil, err
	}
	if err := r.gate.CheckFunds(c, available); err != nil {
		return nil, err
	}

	err = tx.QueryRowxContext(ctx,
		`UPDATE campaigns
		 SET status = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+campaignColumns,
		StatusActive, c.ID,
	).StructScan(c)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return c, nil
}

// Pause moves an active campaign to paused. No gate involved.
func (r *repository) Pause(ctx context.Context, userID, campaignID int) (*Campaign, error) {
	c := &Campaign{}
	err := r.db.QueryRowxContext(ctx,
		`UPDATE campaigns
		 SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND user_id = $3 AND status = $4
		 RETURNING `+campaignColumns,
		StatusPaused, campaignID, userID, StatusActive,
	).StructScan(c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotActive
		}
		return nil, err
	}

	return c, nil
}

func (r *repository) GetByID(ctx context.Context, userID, campaignID int) (*Campaign, error) {
	c := &Campaign{}
	err := r.db.GetContext(ctx, c,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 AND user_id = $2`,
		campaignID, userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	return c, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Campaign, error) {
	var campaigns []Campaign
	err := r.db.SelectContext(ctx, &campaigns,
		`SELECT `+campaignColumns+`
		 FROM campaigns
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	return campaigns, nil
}

func (r *repository) Delete(ctx context.Context, userID, campaignID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM campaigns WHERE id = $1 AND user_id = $2`,
		campaignID, userID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCampaignNotFound
	}

	return nil
}

// ListShouldPause returns active campaigns whose funding account has dropped
// below the serving floor, for the admin attention view.
func (r *repository) ListShouldPause(ctx context.Context) ([]NeedsPause, error) {
	var rows []NeedsPause
	err := r.db.SelectContext(ctx, &rows, `
		SELECT c.id, c.user_id, c.name, c.kind, c.daily_budget, c.status, c.created_at, c.updated_at,
		       a.balance
		FROM campaigns c
		JOIN accounts a ON a.user_id = c.user_id
		WHERE c.status = $1 AND a.balance < $2
		ORDER BY a.balance ASC, c.created_at DESC
	`, StatusActive, r.gate.MinDailyBudget)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// AvailableFor is the committed balance for the campaign's funding account,
// read outside any transaction. Zero when no account exists yet.
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

// lockBalance takes the same account row lock the ledger takes, so a gated
// campaign save serializes against concurrent balance mutations. Accounts are
// created lazily here as well, with a zero balance.
func lockBalance(ctx context.Context, tx *sqlx.Tx, userID int) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.GetContext(ctx, &balance,
		`SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE`,
		userID,
	)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, err
	}

	err = tx.GetContext(ctx, &balance,
		`INSERT INTO accounts (user_id) VALUES ($1) RETURNING balance`,
		userID,
	)
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
