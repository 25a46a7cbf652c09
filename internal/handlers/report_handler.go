package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tobiasceruttigothe/MyFinances/internal/services"
)

// defaultComparisonMonths is used when the months query parameter is absent.
const defaultComparisonMonths = 6

// ReportHandler serves the read-only financial reports.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// MonthlySummary godoc
// @Summary     Monthly summary
// @Description Income, expenses, savings rate and per-category breakdowns for one month
// @Tags        reports
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       year query int false "Year (default current)"
// @Param       month query int false "Month 1-12 (default current)"
// @Success     200 {object} services.MonthlySummary
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /reports/monthly [get]
func (h *ReportHandler) MonthlySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	year, month, err := parseYearMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.reportService.MonthlySummary(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// ExpensesByCategory godoc
// @Summary     Monthly expenses by category
// @Tags        reports
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       year query int false "Year (default current)"
// @Param       month query int false "Month 1-12 (default current)"
// @Success     200 {array} services.CategoryBreakdown
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /reports/expenses/by-category [get]
func (h *ReportHandler) ExpensesByCategory(c *gin.Context) {
	h.monthlyBreakdown(c, h.reportService.ExpensesByCategory)
}

// IncomesByCategory godoc
// @Summary     Monthly incomes by category
// @Tags        reports
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       year query int false "Year (default current)"
// @Param       month query int false "Month 1-12 (default current)"
// @Success     200 {array} services.CategoryBreakdown
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /reports/incomes/by-category [get]
func (h *ReportHandler) IncomesByCategory(c *gin.Context) {
	h.monthlyBreakdown(c, h.reportService.IncomesByCategory)
}

// AllExpensesByCategory godoc
// @Summary     All-time expenses by category
// @Tags        reports
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Success     200 {object} services.CategoryTotals
// @Router      /reports/expenses/all-by-category [get]
func (h *ReportHandler) AllExpensesByCategory(c *gin.Context) {
	h.allTimeBreakdown(c, h.reportService.AllExpensesByCategory)
}

// AllIncomesByCategory godoc
// @Summary     All-time incomes by category
// @Tags        reports
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Success     200 {object} services.CategoryTotals
// @Router      /reports/incomes/all-by-category [get]
func (h *ReportHandler) AllIncomesByCategory(c *gin.Context) {
	h.allTimeBreakdown(c, h.reportService.AllIncomesByCategory)
}

// MonthlyComparison godoc
// @Summary     Month over month comparison
// @Description Summaries for the last N months, most recent first
// @Tags        reports
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       months query int false "Number of months (default 6, max 24)"
// @Success     200 {array} services.MonthlySummary
// @Failure     400 {object} ErrorResponse "Invalid months"
// @Router      /reports/monthly-comparison [get]
func (h *ReportHandler) MonthlyComparison(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	months, err := parseQueryInt(c, "months", defaultComparisonMonths)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summaries, err := h.reportService.MonthlyComparison(userID, months)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"months": summaries})
}

func (h *ReportHandler) monthlyBreakdown(c *gin.Context, fn func(ownerID string, year, month int) ([]services.CategoryBreakdown, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	year, month, err := parseYearMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	breakdown, err := fn(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if breakdown == nil {
		breakdown = []services.CategoryBreakdown{}
	}

	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "categories": breakdown})
}

func (h *ReportHandler) allTimeBreakdown(c *gin.Context, fn func(ownerID string) (*services.CategoryTotals, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := fn(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, totals)
}
