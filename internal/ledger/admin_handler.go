package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"adnexus/internal/logger"
	"adnexus/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AdminCreditRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Kind        string          `json:"kind" binding:"required"`
	Description string          `json:"description" binding:"required"`
}

// AdminAdjust godoc
// @Summary      Adjust user credits
// @Description  Applies a manual credit, refund, deposit or signed adjustment to a user's account. Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        userID   path      int                 true  "User ID"
// @Param        request  body      AdminCreditRequest  true  "Adjustment"
// @Success      200      {object}  CreditTransaction
// @Failure      400      {object}  gin.H
// @Failure      402      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /admin/users/{userID}/credits [post]
func (h *Handler) AdminAdjust(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	var req AdminCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.Amount.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount cannot be zero"})
		return
	}
	if !ValidKind(req.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown transaction kind"})
		return
	}

	ctx := c.Request.Context()

	var entry *CreditTransaction
	switch {
	case req.Kind == KindAdminAdjustment:
		entry, err = h.repo.AdminAdjust(ctx, userID, req.Amount, req.Description)
	case req.Amount.IsPositive():
		entry, err = h.repo.Credit(ctx, userID, req.Amount, req.Description, req.Kind)
	default:
		entry, err = h.repo.Debit(ctx, userID, req.Amount.Abs(), req.Description)
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientFunds):
			metrics.RecordRejectedDebit()
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient funds"})
		case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrEmptyDescription):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("admin credit adjustment failed", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "transaction failed"})
		}
		return
	}

	logger.Info("admin credit adjustment applied",
		"user_id", userID,
		"kind", entry.Kind,
		"amount", entry.SignedAmount(),
	)

	if entry.Debit() {
		metrics.RecordDebit()
		h.warnIfLowBalance(ctx, userID)
	}

	c.JSON(http.StatusOK, entry)
}

// AdminListTransactions godoc
// @Summary      List a user's credit transactions
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        userID  path      int  true  "User ID"
// @Success      200     {array}   CreditTransaction
// @Failure      400     {object}  gin.H
// @Failure      500     {object}  gin.H
// @Router       /admin/users/{userID}/transactions [get]
func (h *Handler) AdminListTransactions(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	txs, err := h.repo.ListTransactions(c.Request.Context(), userID, c.Query("kind"), 100, 0)
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

// AdminListAccounts godoc
// @Summary      List accounts
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Account
// @Failure      500  {object}  gin.H
// @Router       /admin/accounts [get]
func (h *Handler) AdminListAccounts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	accounts, err := h.repo.ListAccounts(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load accounts"})
		return
	}

	c.JSON(http.StatusOK, accounts)
}
