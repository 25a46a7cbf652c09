package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
)

const (
	defaultComparisonMonths = 6
	maxComparisonMonths     = 24
)

var spanishMonthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// CategoryBreakdown is the total of one category within a report.
type CategoryBreakdown struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Total        decimal.Decimal `json:"total"`
	Count        int             `json:"count"`
	Percentage   decimal.Decimal `json:"percentage"`
}

// CategoryTotals is an all-time category breakdown.
type CategoryTotals struct {
	Categories []CategoryBreakdown `json:"categories"`
	GrandTotal decimal.Decimal     `json:"grand_total"`
}

// MonthlySummary reports a single calendar month.
type MonthlySummary struct {
	Year               int                 `json:"year"`
	Month              int                 `json:"month"`
	MonthName          string              `json:"month_name"`
	TotalIncome        decimal.Decimal     `json:"total_income"`
	TotalExpense       decimal.Decimal     `json:"total_expense"`
	Balance            decimal.Decimal     `json:"balance"`
	IncomeCount        int                 `json:"income_count"`
	ExpenseCount       int                 `json:"expense_count"`
	SavingsRate        decimal.Decimal     `json:"savings_rate"`
	ExpensesByCategory []CategoryBreakdown `json:"expenses_by_category"`
	IncomesByCategory  []CategoryBreakdown `json:"incomes_by_category"`
	CalculatedAt       time.Time           `json:"calculated_at"`
}

// reportService builds read-only reports over transactions.
type reportService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db, now: time.Now}
}

// MonthlySummary summarizes the owner's transactions in a calendar month.
func (s *reportService) MonthlySummary(ownerID string, year, month int) (*MonthlySummary, error) {
	start, end, err := monthRange(year, month)
	if err != nil {
		return nil, err
	}

	rows, err := s.load(ownerID, &start, &end, "")
	if err != nil {
		return nil, err
	}
	names, err := s.categoryNames(rows)
	if err != nil {
		return nil, err
	}

	totals := summarize(rows)
	summary := &MonthlySummary{
		Year:               year,
		Month:              month,
		MonthName:          spanishMonthNames[month-1],
		TotalIncome:        totals.TotalIncome,
		TotalExpense:       totals.TotalExpense,
		Balance:            totals.Balance,
		IncomeCount:        totals.IncomeCount,
		ExpenseCount:       totals.ExpenseCount,
		SavingsRate:        models.Percentage(totals.Balance, totals.TotalIncome),
		ExpensesByCategory: breakdown(rows, models.TransactionTypeExpense, names),
		IncomesByCategory:  breakdown(rows, models.TransactionTypeIncome, names),
		CalculatedAt:       s.now().UTC(),
	}
	return summary, nil
}

// ExpensesByCategory breaks down the owner's expenses in a month.
func (s *reportService) ExpensesByCategory(ownerID string, year, month int) ([]CategoryBreakdown, error) {
	return s.monthlyBreakdown(ownerID, year, month, models.TransactionTypeExpense)
}

// IncomesByCategory breaks down the owner's incomes in a month.
func (s *reportService) IncomesByCategory(ownerID string, year, month int) ([]CategoryBreakdown, error) {
	return s.monthlyBreakdown(ownerID, year, month, models.TransactionTypeIncome)
}

// AllExpensesByCategory breaks down all of the owner's expenses.
func (s *reportService) AllExpensesByCategory(ownerID string) (*CategoryTotals, error) {
	return s.allTimeBreakdown(ownerID, models.TransactionTypeExpense)
}

// AllIncomesByCategory breaks down all of the owner's incomes.
func (s *reportService) AllIncomesByCategory(ownerID string) (*CategoryTotals, error) {
	return s.allTimeBreakdown(ownerID, models.TransactionTypeIncome)
}

// MonthlyComparison returns summaries for the last n calendar months,
// current month first. n defaults to six.
func (s *reportService) MonthlyComparison(ownerID string, months int) ([]MonthlySummary, error) {
	if months <= 0 {
		months = defaultComparisonMonths
	}
	if months > maxComparisonMonths {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "months must be at most 24")
	}

	now := s.now().UTC()
	current := now.Year()*12 + int(now.Month()) - 1

	summaries := make([]MonthlySummary, 0, months)
	for i := 0; i < months; i++ {
		index := current - i
		summary, err := s.MonthlySummary(ownerID, index/12, index%12+1)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

func (s *reportService) monthlyBreakdown(ownerID string, year, month int, txType models.TransactionType) ([]CategoryBreakdown, error) {
	start, end, err := monthRange(year, month)
	if err != nil {
		return nil, err
	}
	rows, err := s.load(ownerID, &start, &end, txType)
	if err != nil {
		return nil, err
	}
	names, err := s.categoryNames(rows)
	if err != nil {
		return nil, err
	}
	return breakdown(rows, txType, names), nil
}

func (s *reportService) allTimeBreakdown(ownerID string, txType models.TransactionType) (*CategoryTotals, error) {
	rows, err := s.load(ownerID, nil, nil, txType)
	if err != nil {
		return nil, err
	}
	names, err := s.categoryNames(rows)
	if err != nil {
		return nil, err
	}

	grand := decimal.Zero
	for _, row := range rows {
		grand = grand.Add(row.Amount)
	}
	return &CategoryTotals{
		Categories: breakdown(rows, txType, names),
		GrandTotal: grand,
	}, nil
}

// load fetches the owner's transactions, optionally bounded to [start, end)
// and filtered by type.
func (s *reportService) load(ownerID string, start, end *time.Time, txType models.TransactionType) ([]models.Transaction, error) {
	query := s.db.Model(&models.Transaction{}).
		Select("id", "amount", "type", "category_id").
		Where("owner_id = ?", ownerID)
	if start != nil && end != nil {
		query = query.Where("date >= ? AND date < ?", *start, *end)
	}
	if txType != "" {
		query = query.Where("type = ?", txType)
	}

	var rows []models.Transaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

// categoryNames maps the category ids referenced by rows to names, including
// categories deleted after the transactions were recorded.
func (s *reportService) categoryNames(rows []models.Transaction) (map[string]string, error) {
	ids := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if !seen[row.CategoryID] {
			seen[row.CategoryID] = true
			ids = append(ids, row.CategoryID)
		}
	}
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var categories []models.Category
	if err := s.db.Unscoped().Select("id", "name").Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

// breakdown groups rows of txType by category. Percentages are relative to
// the type's total and entries are sorted by total, largest first.
func breakdown(rows []models.Transaction, txType models.TransactionType, names map[string]string) []CategoryBreakdown {
	index := make(map[string]int)
	result := []CategoryBreakdown{}
	total := decimal.Zero

	for _, row := range rows {
		if row.Type != txType {
			continue
		}
		total = total.Add(row.Amount)
		i, ok := index[row.CategoryID]
		if !ok {
			i = len(result)
			index[row.CategoryID] = i
			result = append(result, CategoryBreakdown{
				CategoryID:   row.CategoryID,
				CategoryName: names[row.CategoryID],
				Total:        decimal.Zero,
			})
		}
		result[i].Total = result[i].Total.Add(row.Amount)
		result[i].Count++
	}

	for i := range result {
		result[i].Percentage = models.Percentage(result[i].Total, total)
	}
	sort.SliceStable(result, func(a, b int) bool {
		if !result[a].Total.Equal(result[b].Total) {
			return result[a].Total.GreaterThan(result[b].Total)
		}
		return result[a].CategoryName < result[b].CategoryName
	})
	return result
}
