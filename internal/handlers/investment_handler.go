package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tobiasceruttigothe/MyFinances/internal/pagination"
	"github.com/tobiasceruttigothe/MyFinances/internal/services"
)

// InvestmentHandler handles investment and portfolio requests.
type InvestmentHandler struct {
	investmentService services.InvestmentServicer
	portfolioService  services.PortfolioServicer
	auditService      services.AuditServicer
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentService services.InvestmentServicer, portfolioService services.PortfolioServicer, auditService services.AuditServicer) *InvestmentHandler {
	return &InvestmentHandler{
		investmentService: investmentService,
		portfolioService:  portfolioService,
		auditService:      auditService,
	}
}

// CreateInvestmentRequest represents the request payload for recording an
// investment. create_linked_transaction overrides the user's setting.
type CreateInvestmentRequest struct {
	Type                    string           `json:"type" binding:"required,max=50"`
	Description             string           `json:"description" binding:"max=255"`
	InitialCapital          decimal.Decimal  `json:"initial_capital" binding:"required,gt=0,money"`
	CurrentCapital          *decimal.Decimal `json:"current_capital" binding:"omitempty,gte=0,money"`
	InvestmentDate          *time.Time       `json:"investment_date"`
	Notes                   string           `json:"notes" binding:"max=1000"`
	CreateLinkedTransaction *bool            `json:"create_linked_transaction"`
}

// UpdateInvestmentRequest represents the request payload for updating an
// investment. The initial capital cannot be changed.
type UpdateInvestmentRequest struct {
	CurrentCapital *decimal.Decimal `json:"current_capital" binding:"omitempty,gte=0,money"`
	Type           *string          `json:"type" binding:"omitempty,min=1,max=50"`
	Description    *string          `json:"description" binding:"omitempty,max=255"`
	Notes          *string          `json:"notes" binding:"omitempty,max=1000"`
}

// CreateInvestment handles recording a new investment
// @Summary     Create an investment
// @Description Records an investment and, when enabled, mirrors it as an expense in the account service. Mirror failures never fail the request.
// @Tags        investments
// @Accept      json
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       request body CreateInvestmentRequest true "Investment details"
// @Success     201 {object} services.InvestmentResult "Investment created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /investments [post]
func (h *InvestmentHandler) CreateInvestment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.investmentService.CreateInvestment(c.Request.Context(), userID, services.InvestmentInput{
		Type:                    req.Type,
		Description:             req.Description,
		InitialCapital:          req.InitialCapital,
		CurrentCapital:          req.CurrentCapital,
		InvestmentDate:          req.InvestmentDate,
		Notes:                   req.Notes,
		CreateLinkedTransaction: req.CreateLinkedTransaction,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_INVESTMENT", "investment", result.Investment.ID, c.ClientIP(),
		map[string]interface{}{
			"type":            result.Investment.Type,
			"initial_capital": result.Investment.InitialCapital.String(),
			"mirror":          string(result.Mirror.Status),
		})

	c.JSON(http.StatusCreated, result)
}

// ListInvestments handles listing the user's investments
// @Summary     List investments
// @Tags        investments
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       page query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Investment]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /investments [get]
func (h *InvestmentHandler) ListInvestments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.investmentService.ListInvestments(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetInvestment handles retrieving one investment
// @Summary     Get investment by ID
// @Tags        investments
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       id path string true "Investment ID"
// @Success     200 {object} models.Investment
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Router      /investments/{id} [get]
func (h *InvestmentHandler) GetInvestment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	investmentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	investment, err := h.investmentService.GetInvestmentByID(userID, investmentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"investment": investment})
}

// UpdateInvestment handles updating an investment
// @Summary     Update an investment
// @Tags        investments
// @Accept      json
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       id path string true "Investment ID"
// @Param       request body UpdateInvestmentRequest true "Fields to update"
// @Success     200 {object} models.Investment
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Router      /investments/{id} [put]
func (h *InvestmentHandler) UpdateInvestment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	investmentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	investment, err := h.investmentService.UpdateInvestment(userID, investmentID, services.InvestmentPatch{
		CurrentCapital: req.CurrentCapital,
		Type:           req.Type,
		Description:    req.Description,
		Notes:          req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_INVESTMENT", "investment", investment.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"investment": investment})
}

// DeleteInvestment handles deleting an investment and its mirrored expense
// @Summary     Delete an investment
// @Tags        investments
// @Param       X-User-Id header string true "User ID"
// @Param       id path string true "Investment ID"
// @Success     204 "Deleted"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Router      /investments/{id} [delete]
func (h *InvestmentHandler) DeleteInvestment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	investmentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	outcome, err := h.investmentService.DeleteInvestment(c.Request.Context(), userID, investmentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_INVESTMENT", "investment", investmentID, c.ClientIP(),
		map[string]interface{}{"mirror": string(outcome.Status)})

	c.Status(http.StatusNoContent)
}

// ListByType handles listing investments of one type
// @Summary     List investments by type
// @Tags        investments
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       type path string true "Investment type"
// @Success     200 {array} models.Investment
// @Router      /investments/type/{type} [get]
func (h *InvestmentHandler) ListByType(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	investments, err := h.investmentService.ListInvestmentsByType(userID, c.Param("type"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"investments": investments})
}

// GetPortfolioSummary handles the portfolio summary
// @Summary     Portfolio summary
// @Description Totals, profit and ROI overall and per investment type
// @Tags        investments
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Success     200 {object} services.PortfolioSummary
// @Router      /investments/portfolio/summary [get]
func (h *InvestmentHandler) GetPortfolioSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.portfolioService.GetPortfolioSummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetUserTotal reports a user's total investment value. It serves the
// account service's net worth summary.
// @Summary     Total investment value of a user
// @Tags        investments
// @Produce     json
// @Param       userId path string true "User ID"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} ErrorResponse "Invalid user ID"
// @Router      /investments/user/{userId} [get]
func (h *InvestmentHandler) GetUserTotal(c *gin.Context) {
	userID, err := parsePathID(c, "userId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	total, err := h.portfolioService.GetTotalInvestmentValue(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "total": total})
}
