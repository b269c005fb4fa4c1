package ledger

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"adnexus/internal/api"
	"adnexus/internal/auth"
	"adnexus/internal/config"
	"adnexus/internal/logger"
	"adnexus/internal/metrics"
	"adnexus/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

func respondBindError(c *gin.Context, err error) {
	if details, ok := api.FormatBindingError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": details})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// Notifier delivers account emails. Failures are logged, never surfaced to the
// API caller.
type Notifier interface {
	SendDepositReceipt(ctx context.Context, email, name string, amount decimal.Decimal) error
	SendLowBalanceWarning(ctx context.Context, email, name string, balance decimal.Decimal) error
}

type Handler struct {
	repo       Repository
	userRepo   user.Repository
	notifier   Notifier
	minDeposit decimal.Decimal
	lowWater   decimal.Decimal
}

func NewHandler(db *sqlx.DB, cfg *config.Config, notifier Notifier) *Handler {
	return &Handler{
		repo:       NewRepository(db),
		userRepo:   user.NewRepository(db),
		notifier:   notifier,
		minDeposit: cfg.MinDepositAmount,
		lowWater:   cfg.MinDailyBudget,
	}
}

// warnIfLowBalance queues a low balance email when the account has dropped
// under one minimum daily budget. Best effort.
func (h *Handler) warnIfLowBalance(ctx context.Context, userID int) {
	if h.notifier == nil {
		return
	}

	balance, err := h.repo.AvailableFor(ctx, userID)
	if err != nil || balance.GreaterThanOrEqual(h.lowWater) {
		return
	}

	u, err := h.userRepo.FindByID(ctx, userID)
	if err != nil {
		return
	}
	if err := h.notifier.SendLowBalanceWarning(ctx, u.Email, u.Name, balance); err != nil {
		logger.Error("failed to queue low balance warning", "user_id", userID, "error", err)
	}
}

type DepositRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

type DepositResponse struct {
	Message     string             `json:"message"`
	Account     *Account           `json:"account"`
	Transaction *CreditTransaction `json:"transaction"`
}

// GetBalance godoc
// @Summary      Get credits balance
// @Description  Returns the authenticated advertiser's account and balance.
// @Tags         credits
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Account
// @Failure      500  {object}  gin.H
// @Router       /credits [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	a, err := h.repo.GetOrCreateAccount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return
	}

	c.JSON(http.StatusOK, a)
}

// Deposit godoc
// @Summary      Deposit credits
// @Description  Records a confirmed payment as a deposit on the advertiser's account.
// @Tags         credits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      DepositRequest  true  "Deposit amount"
// @Success      200      {object}  DepositResponse
// @Failure      400      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /credits/deposit [post]
func (h *Handler) Deposit(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.Amount.LessThan(h.minDeposit) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Minimum deposit is $" + h.minDeposit.StringFixed(2)})
		return
	}

	description := req.Description
	if description == "" {
		description = "Credit purchase - $" + req.Amount.StringFixed(2)
	}

	ctx := c.Request.Context()
	entry, err := h.repo.Credit(ctx, userID, req.Amount, description, KindDeposit)
	if err != nil {
		logger.Error("deposit failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add credits"})
		return
	}
	metrics.RecordDeposit()

	a, err := h.repo.GetOrCreateAccount(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account after deposit"})
		return
	}

	if h.notifier != nil {
		if u, err := h.userRepo.FindByID(ctx, userID); err == nil {
			if err := h.notifier.SendDepositReceipt(ctx, u.Email, u.Name, req.Amount); err != nil {
				logger.Error("failed to queue deposit receipt", "user_id", userID, "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, DepositResponse{
		Message:     "credits added",
		Account:     a,
		Transaction: entry,
	})
}

// ListTransactions godoc
// @Summary      List credit transactions
// @Description  Returns the advertiser's ledger entries, newest first. Optional kind filter.
// @Tags         credits
// @Security     BearerAuth
// @Produce      json
// @Param        kind    query     string  false  "Filter by kind (deposit|spend|refund|admin_adjustment)"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Page offset"
// @Success      200     {array}   CreditTransaction
// @Failure      400     {object}  gin.H
// @Failure      500     {object}  gin.H
// @Router       /credits/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	kind := c.Query("kind")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.repo.ListTransactions(c.Request.Context(), userID, kind, limit, offset)
	if err != nil {
		if errors.Is(err, ErrInvalidKind) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown transaction kind"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}
