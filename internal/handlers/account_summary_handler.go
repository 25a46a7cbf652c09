package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tobiasceruttigothe/MyFinances/internal/services"
)

// AccountSummaryHandler serves the combined net worth view.
type AccountSummaryHandler struct {
	summaryService services.AccountSummaryServicer
}

// NewAccountSummaryHandler creates a new AccountSummaryHandler.
func NewAccountSummaryHandler(summaryService services.AccountSummaryServicer) *AccountSummaryHandler {
	return &AccountSummaryHandler{summaryService: summaryService}
}

// GetSummary handles the account summary request
// @Summary     Account summary
// @Description Balance, investments and net worth. Investments fall back to zero with a message when the investment service is unreachable.
// @Tags        accounts
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Success     200 {object} services.AccountSummary
// @Router      /accounts/summary [get]
func (h *AccountSummaryHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.summaryService.Summary(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
