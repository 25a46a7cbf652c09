package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
	"github.com/tobiasceruttigothe/MyFinances/internal/pagination"
)

// recentTransactionsLimit is how many transactions ListRecent returns.
const recentTransactionsLimit = 10

// TransactionInput holds the attributes of a new transaction. Either
// CategoryID or CategoryName must be set; a name is resolved against the
// owner's categories and the system templates.
type TransactionInput struct {
	Description        string
	Amount             decimal.Decimal
	Type               models.TransactionType
	CategoryID         string
	CategoryName       string
	Date               *time.Time
	Notes              string
	LinkedToInvestment bool
	InvestmentID       *string
}

// TransactionPatch holds the mutable fields of a transaction. Nil fields are
// left untouched.
type TransactionPatch struct {
	Description *string
	Amount      *decimal.Decimal
	Type        *models.TransactionType
	CategoryID  *string
	Date        *time.Time
	Notes       *string
}

// Balance is the income/expense position over a period.
type Balance struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
	IncomeCount  int             `json:"income_count"`
	ExpenseCount int             `json:"expense_count"`
	PeriodStart  *time.Time      `json:"period_start,omitempty"`
	PeriodEnd    *time.Time      `json:"period_end,omitempty"`
	CalculatedAt time.Time       `json:"calculated_at"`
}

// transactionService handles transaction-related business logic.
type transactionService struct {
	db         *gorm.DB
	categories CategoryServicer
	now        func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, categories CategoryServicer) TransactionServicer {
	return &transactionService{
		db:         db,
		categories: categories,
		now:        time.Now,
	}
}

// CreateTransaction creates a new transaction for ownerID.
func (s *transactionService) CreateTransaction(ownerID string, input TransactionInput) (*models.Transaction, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}

	var category *models.Category
	var err error
	switch {
	case input.CategoryID != "":
		category, err = s.categories.GetCategoryByID(ownerID, input.CategoryID)
	case strings.TrimSpace(input.CategoryName) != "":
		category, err = s.categories.ResolveCategory(ownerID, input.CategoryName, models.CategoryType(input.Type))
	default:
		err = apperrors.WithMessage(apperrors.ErrInvalidInput, "category_id or category_name is required")
	}
	if err != nil {
		return nil, err
	}

	date := s.now().UTC()
	if input.Date != nil && !input.Date.IsZero() {
		date = input.Date.UTC()
	}

	tx := &models.Transaction{
		OwnerID:            ownerID,
		Description:        description,
		Amount:             input.Amount,
		Type:               input.Type,
		CategoryID:         category.ID,
		Date:               date,
		Notes:              input.Notes,
		LinkedToInvestment: input.LinkedToInvestment,
		InvestmentID:       input.InvestmentID,
	}
	if err := s.db.Create(tx).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	tx.Category = category
	return tx, nil
}

// GetTransactionByID retrieves a transaction owned by ownerID.
func (s *transactionService) GetTransactionByID(ownerID, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.Preload("Category").Where("id = ?", transactionID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if tx.OwnerID != ownerID {
		return nil, apperrors.ErrForbidden
	}
	return &tx, nil
}

// UpdateTransaction applies patch to a transaction owned by ownerID.
func (s *transactionService) UpdateTransaction(ownerID, transactionID string, patch TransactionPatch) (*models.Transaction, error) {
	tx, err := s.GetTransactionByID(ownerID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description cannot be empty")
		}
		updates["description"] = description
	}
	if patch.Amount != nil {
		if err := validateAmount(*patch.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *patch.Amount
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, apperrors.ErrInvalidTransactionType
		}
		updates["type"] = *patch.Type
	}
	if patch.CategoryID != nil && *patch.CategoryID != tx.CategoryID {
		if _, err := s.categories.GetCategoryByID(ownerID, *patch.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *patch.CategoryID
	}
	if patch.Date != nil && !patch.Date.IsZero() {
		updates["date"] = patch.Date.UTC()
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Transaction{}).Where("id = ?", tx.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetTransactionByID(ownerID, transactionID)
}

// DeleteTransaction deletes a transaction owned by ownerID.
func (s *transactionService) DeleteTransaction(ownerID, transactionID string) error {
	tx, err := s.GetTransactionByID(ownerID, transactionID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&models.Transaction{}, "id = ?", tx.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ListTransactions retrieves a page of the owner's transactions, newest first.
func (s *transactionService) ListTransactions(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	result, err := pagination.Fetch[models.Transaction](s.owned(ownerID), page, "date DESC, created_at DESC", "Category")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// ListByType lists the owner's transactions of one type.
func (s *transactionService) ListByType(ownerID string, txType models.TransactionType) ([]models.Transaction, error) {
	if !txType.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	return s.list(s.owned(ownerID).Where("type = ?", txType))
}

// ListByCategory lists the owner's transactions in one category.
func (s *transactionService) ListByCategory(ownerID, categoryID string) ([]models.Transaction, error) {
	if _, err := s.categories.GetCategoryByID(ownerID, categoryID); err != nil {
		return nil, err
	}
	return s.list(s.owned(ownerID).Where("category_id = ?", categoryID))
}

// ListByDateRange lists the owner's transactions dated within [start, end].
func (s *transactionService) ListByDateRange(ownerID string, start, end time.Time) ([]models.Transaction, error) {
	if end.Before(start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not be before start date")
	}
	return s.list(s.owned(ownerID).Where("date >= ? AND date <= ?", start.UTC(), end.UTC()))
}

// ListByMonth lists the owner's transactions in a calendar month.
func (s *transactionService) ListByMonth(ownerID string, year, month int) ([]models.Transaction, error) {
	start, end, err := monthRange(year, month)
	if err != nil {
		return nil, err
	}
	return s.list(s.owned(ownerID).Where("date >= ? AND date < ?", start, end))
}

// ListRecent lists the owner's newest transactions.
func (s *transactionService) ListRecent(ownerID string) ([]models.Transaction, error) {
	return s.list(s.owned(ownerID).Limit(recentTransactionsLimit))
}

// Search lists the owner's transactions whose description contains keyword,
// ignoring case.
func (s *transactionService) Search(ownerID, keyword string) ([]models.Transaction, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "keyword is required")
	}
	return s.list(s.owned(ownerID).Where("LOWER(description) LIKE ?", "%"+strings.ToLower(keyword)+"%"))
}

// CalculateBalance returns the owner's all-time balance.
func (s *transactionService) CalculateBalance(ownerID string) (*Balance, error) {
	return s.balance(s.owned(ownerID), nil, nil)
}

// CalculateBalanceByDateRange returns the owner's balance for [start, end].
func (s *transactionService) CalculateBalanceByDateRange(ownerID string, start, end time.Time) (*Balance, error) {
	if end.Before(start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not be before start date")
	}
	start, end = start.UTC(), end.UTC()
	return s.balance(s.owned(ownerID).Where("date >= ? AND date <= ?", start, end), &start, &end)
}

func (s *transactionService) owned(ownerID string) *gorm.DB {
	return s.db.Model(&models.Transaction{}).Where("owner_id = ?", ownerID)
}

func (s *transactionService) list(query *gorm.DB) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := query.Preload("Category").Order("date DESC, created_at DESC").Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

func (s *transactionService) balance(query *gorm.DB, start, end *time.Time) (*Balance, error) {
	var rows []models.Transaction
	if err := query.Select("amount", "type").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	b := summarize(rows)
	b.PeriodStart = start
	b.PeriodEnd = end
	b.CalculatedAt = s.now().UTC()
	return &b, nil
}

// summarize totals income and expense over rows.
func summarize(rows []models.Transaction) Balance {
	b := Balance{TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
	for _, row := range rows {
		switch row.Type {
		case models.TransactionTypeIncome:
			b.TotalIncome = b.TotalIncome.Add(row.Amount)
			b.IncomeCount++
		case models.TransactionTypeExpense:
			b.TotalExpense = b.TotalExpense.Add(row.Amount)
			b.ExpenseCount++
		}
	}
	b.Balance = b.TotalIncome.Sub(b.TotalExpense)
	return b
}

// validateAmount requires a positive amount with at most two decimals.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return apperrors.ErrInvalidAmount
	}
	return nil
}

// monthRange returns the UTC bounds [start, end) of a calendar month.
func monthRange(year, month int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	if year < 1900 || year > 9999 {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "year is out of range")
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}
