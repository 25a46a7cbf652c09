package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
	"github.com/tobiasceruttigothe/MyFinances/internal/pagination"
	"github.com/tobiasceruttigothe/MyFinances/internal/services"
)

// TransactionHandler handles transaction-related requests
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		auditService:       auditService,
	}
}

// CreateTransactionRequest represents the request payload for creating a
// transaction. Either category_id or category_name must be given.
type CreateTransactionRequest struct {
	Description        string          `json:"description" binding:"required,max=255"`
	Amount             decimal.Decimal `json:"amount" binding:"required,gt=0,money"`
	Type               string          `json:"type" binding:"required,transaction_type"`
	CategoryID         string          `json:"category_id" binding:"omitempty,uuid"`
	CategoryName       string          `json:"category_name" binding:"omitempty,max=100"`
	Date               *time.Time      `json:"date"`
	Notes              string          `json:"notes" binding:"max=1000"`
	LinkedToInvestment bool            `json:"linked_to_investment"`
	InvestmentID       *string         `json:"investment_id" binding:"omitempty,uuid"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction
type UpdateTransactionRequest struct {
	Description *string          `json:"description" binding:"omitempty,max=255"`
	Amount      *decimal.Decimal `json:"amount" binding:"omitempty,gt=0,money"`
	Type        *string          `json:"type" binding:"omitempty,transaction_type"`
	CategoryID  *string          `json:"category_id" binding:"omitempty,uuid"`
	Date        *time.Time       `json:"date"`
	Notes       *string          `json:"notes" binding:"omitempty,max=1000"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record an income or expense. The category may be given by id or by name.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Category belongs to another user"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	txType, _ := models.ParseTransactionType(req.Type)

	transaction, err := h.transactionService.CreateTransaction(userID, services.TransactionInput{
		Description:        req.Description,
		Amount:             req.Amount,
		Type:               txType,
		CategoryID:         req.CategoryID,
		CategoryName:       req.CategoryName,
		Date:               req.Date,
		Notes:              req.Notes,
		LinkedToInvestment: req.LinkedToInvestment,
		InvestmentID:       req.InvestmentID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"type": transaction.Type, "amount": transaction.Amount.String()})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// ListTransactions handles listing the user's transactions
// @Summary     List transactions
// @Description Paginated list ordered by date, newest first
// @Tags        transactions
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       page query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
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

	result, err := h.transactionService.ListTransactions(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles updating a transaction
// @Summary     Update a transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       id path string true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	patch := services.TransactionPatch{
		Description: req.Description,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		Date:        req.Date,
		Notes:       req.Notes,
	}
	if req.Type != nil {
		txType, _ := models.ParseTransactionType(*req.Type)
		patch.Type = &txType
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, transactionID, patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete a transaction
// @Tags        transactions
// @Param       X-User-Id header string true "User ID"
// @Param       id path string true "Transaction ID"
// @Success     204 "Deleted"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// ListByType handles listing transactions of one type
// @Summary     List transactions by type
// @Tags        transactions
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       type path string true "INCOME or EXPENSE"
// @Success     200 {array} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid type"
// @Router      /transactions/type/{type} [get]
func (h *TransactionHandler) ListByType(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	txType, ok := models.ParseTransactionType(c.Param("type"))
	if !ok {
		respondWithError(c, apperrors.ErrInvalidTransactionType)
		return
	}

	transactions, err := h.transactionService.ListByType(userID, txType)
	h.respondList(c, transactions, err)
}

// ListByCategory handles listing transactions in one category
// @Summary     List transactions by category
// @Tags        transactions
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       categoryId path string true "Category ID"
// @Success     200 {array} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Router      /transactions/category/{categoryId} [get]
func (h *TransactionHandler) ListByCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	categoryID, err := parsePathID(c, "categoryId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.ListByCategory(userID, categoryID)
	h.respondList(c, transactions, err)
}

// ListByDateRange handles listing transactions between two dates
// @Summary     List transactions in a date range
// @Description Both bounds are inclusive. A date-only end_date covers the whole day.
// @Tags        transactions
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       start_date query string true "Start (YYYY-MM-DD or RFC 3339)"
// @Param       end_date query string true "End (YYYY-MM-DD or RFC 3339)"
// @Success     200 {array} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid dates"
// @Router      /transactions/date-range [get]
func (h *TransactionHandler) ListByDateRange(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	start, end, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.ListByDateRange(userID, start, end)
	h.respondList(c, transactions, err)
}

// ListByMonth handles listing the transactions of a calendar month
// @Summary     List transactions by month
// @Tags        transactions
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       year query int false "Year (default current)"
// @Param       month query int false "Month 1-12 (default current)"
// @Success     200 {array} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /transactions/month [get]
func (h *TransactionHandler) ListByMonth(c *gin.Context) {
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

	transactions, err := h.transactionService.ListByMonth(userID, year, month)
	h.respondList(c, transactions, err)
}

// ListRecent handles listing the most recent transactions
// @Summary     List recent transactions
// @Tags        transactions
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Success     200 {array} models.Transaction
// @Router      /transactions/recent [get]
func (h *TransactionHandler) ListRecent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.ListRecent(userID)
	h.respondList(c, transactions, err)
}

// Search handles keyword search over descriptions and notes
// @Summary     Search transactions
// @Tags        transactions
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       keyword query string true "Keyword"
// @Success     200 {array} models.Transaction
// @Failure     400 {object} ErrorResponse "Missing keyword"
// @Router      /transactions/search [get]
func (h *TransactionHandler) Search(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	keyword := c.Query("keyword")
	if keyword == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "keyword is required"))
		return
	}

	transactions, err := h.transactionService.Search(userID, keyword)
	h.respondList(c, transactions, err)
}

// GetBalance handles the all-time balance
// @Summary     Get balance
// @Tags        transactions
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Success     200 {object} services.Balance
// @Router      /transactions/balance [get]
func (h *TransactionHandler) GetBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.transactionService.CalculateBalance(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// GetBalanceByDateRange handles the balance over a date range
// @Summary     Get balance in a date range
// @Tags        transactions
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       start_date query string true "Start (YYYY-MM-DD or RFC 3339)"
// @Param       end_date query string true "End (YYYY-MM-DD or RFC 3339)"
// @Success     200 {object} services.Balance
// @Failure     400 {object} ErrorResponse "Invalid dates"
// @Router      /transactions/balance/date-range [get]
func (h *TransactionHandler) GetBalanceByDateRange(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	start, end, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.transactionService.CalculateBalanceByDateRange(userID, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *TransactionHandler) respondList(c *gin.Context, transactions []models.Transaction, err error) {
	if err != nil {
		respondWithError(c, err)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}
