package campaign

import (
	"errors"
	"net/http"
	"strconv"

	"adnexus/internal/api"
	"adnexus/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func respondBindError(c *gin.Context, err error) {
	if details, ok := api.FormatBindingError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": details})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type CreateCampaignRequest struct {
	Name        string           `json:"name" binding:"required"`
	Kind        string           `json:"kind" binding:"required"`
	DailyBudget *decimal.Decimal `json:"daily_budget"`
	Status      string           `json:"status"`
}

type UpdateCampaignRequest struct {
	Name        string           `json:"name" binding:"required"`
	Kind        string           `json:"kind" binding:"required"`
	DailyBudget *decimal.Decimal `json:"daily_budget"`
	Status      string           `json:"status" binding:"required"`
}

func (req CreateCampaignRequest) toCampaign(userID int) *Campaign {
	c := &Campaign{
		UserID: userID,
		Name:   req.Name,
		Kind:   req.Kind,
		Status: req.Status,
	}
	if req.DailyBudget != nil {
		c.DailyBudget = decimal.NewNullDecimal(*req.DailyBudget)
	}
	return c
}

// Create godoc
// @Summary      Create campaign
// @Description  Creates a campaign. Creating directly in active status runs the spend gate.
// @Tags         campaigns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateCampaignRequest  true  "Campaign data"
// @Success      201      {object}  Campaign
// @Failure      400      {object}  gin.H
// @Failure      402      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /campaigns [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), req.toCampaign(userID))
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Update godoc
// @Summary      Update campaign
// @Tags         campaigns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        campaignID  path      int                    true  "Campaign ID"
// @Param        request     body      UpdateCampaignRequest  true  "Campaign data"
// @Success      200         {object}  Campaign
// @Failure      400         {object}  gin.H
// @Failure      402         {object}  gin.H
// @Failure      404         {object}  gin.H
// @Router       /campaigns/{campaignID} [put]
func (h *Handler) Update(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	campaignID, err := strconv.Atoi(c.Param("campaignID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign ID"})
		return
	}

	var req UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	campaign := &Campaign{
		ID:     campaignID,
		UserID: userID,
		Name:   req.Name,
		Kind:   req.Kind,
		Status: req.Status,
	}
	if req.DailyBudget != nil {
		campaign.DailyBudget = decimal.NewNullDecimal(*req.DailyBudget)
	}

	updated, err := h.service.Update(c.Request.Context(), campaign)
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Activate godoc
// @Summary      Activate campaign
// @Description  Transitions an inactive or paused campaign to active, gated on available credits.
// @Tags         campaigns
// @Security     BearerAuth
// @Produce      json
// @Param        campaignID  path      int  true  "Campaign ID"
// @Success      200         {object}  Campaign
// @Failure      400         {object}  gin.H
// @Failure      402         {object}  gin.H
// @Failure      404         {object}  gin.H
// @Failure      409         {object}  gin.H
// @Router       /campaigns/{campaignID}/activate [post]
func (h *Handler) Activate(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	campaignID, err := strconv.Atoi(c.Param("campaignID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign ID"})
		return
	}

	activated, err := h.service.Activate(c.Request.Context(), userID, campaignID)
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, activated)
}

// Pause godoc
// @Summary      Pause campaign
// @Tags         campaigns
// @Security     BearerAuth
// @Produce      json
// @Param        campaignID  path      int  true  "Campaign ID"
// @Success      200         {object}  Campaign
// @Failure      400         {object}  gin.H
// @Failure      409         {object}  gin.H
// @Router       /campaigns/{campaignID}/pause [post]
func (h *Handler) Pause(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	campaignID, err := strconv.Atoi(c.Param("campaignID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign ID"})
		return
	}

	paused, err := h.service.Pause(c.Request.Context(), userID, campaignID)
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, paused)
}

// List godoc
// @Summary      List my campaigns
// @Tags         campaigns
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Campaign
// @Failure      500  {object}  gin.H
// @Router       /campaigns [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	campaigns, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load campaigns"})
		return
	}

	c.JSON(http.StatusOK, campaigns)
}

// Get godoc
// @Summary      Get campaign
// @Tags         campaigns
// @Security     BearerAuth
// @Produce      json
// @Param        campaignID  path      int  true  "Campaign ID"
// @Success      200         {object}  Campaign
// @Failure      404         {object}  gin.H
// @Router       /campaigns/{campaignID} [get]
func (h *Handler) Get(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	campaignID, err := strconv.Atoi(c.Param("campaignID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign ID"})
		return
	}

	campaign, err := h.service.Get(c.Request.Context(), userID, campaignID)
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// Delete godoc
// @Summary      Delete campaign
// @Tags         campaigns
// @Security     BearerAuth
// @Produce      json
// @Param        campaignID  path      int  true  "Campaign ID"
// @Success      200         {object}  gin.H
// @Failure      404         {object}  gin.H
// @Router       /campaigns/{campaignID} [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	campaignID, err := strconv.Atoi(c.Param("campaignID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, campaignID); err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "campaign deleted"})
}

// ServingStatus godoc
// @Summary      Campaign serving status
// @Description  Read-only serving view: whether the campaign can serve ads or should pause for credits.
// @Tags         campaigns
// @Security     BearerAuth
// @Produce      json
// @Param        campaignID  path      int  true  "Campaign ID"
// @Success      200         {object}  ServingStatus
// @Failure      404         {object}  gin.H
// @Router       /campaigns/{campaignID}/serving [get]
func (h *Handler) ServingStatus(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	campaignID, err := strconv.Atoi(c.Param("campaignID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign ID"})
		return
	}

	status, err := h.service.Status(c.Request.Context(), userID, campaignID)
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// AdminListNeedingPause godoc
// @Summary      Campaigns that should pause for credits
// @Description  Active campaigns whose funding account is below the serving floor. Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   NeedsPause
// @Failure      500  {object}  gin.H
// @Router       /admin/campaigns/needs-pause [get]
func (h *Handler) AdminListNeedingPause(c *gin.Context) {
	rows, err := h.service.ListNeedingPause(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load campaigns"})
		return
	}

	c.JSON(http.StatusOK, rows)
}

func respondCampaignError(c *gin.Context, err error) {
	var insufficientErr *InsufficientCreditsError
	var budgetErr *BudgetTooLowError

	switch {
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":     insufficientErr.Error(),
			"required":  insufficientErr.Required,
			"available": insufficientErr.Available,
		})
	case errors.As(err, &budgetErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": budgetErr.Error()})
	case errors.Is(err, ErrCampaignNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
	case errors.Is(err, ErrAlreadyActive):
		c.JSON(http.StatusConflict, gin.H{"error": "campaign is already active"})
	case errors.Is(err, ErrNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": "campaign is not active"})
	case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
