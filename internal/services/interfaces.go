package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tobiasceruttigothe/MyFinances/internal/client"
	"github.com/tobiasceruttigothe/MyFinances/internal/identity"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
	"github.com/tobiasceruttigothe/MyFinances/internal/pagination"
)

// CategoryServicer defines the interface for category operations.
type CategoryServicer interface {
	CreateCategory(ownerID string, input CategoryInput) (*models.Category, error)
	GetCategoryByID(ownerID, categoryID string) (*models.Category, error)
	GetCategoryByName(ownerID, name string) (*models.Category, error)
	ListCategories(ownerID string, categoryType *models.CategoryType) ([]models.Category, error)
	ListRootCategories(ownerID string) ([]models.Category, error)
	ListSubcategories(ownerID, parentID string) ([]models.Category, error)
	ListTemplates() ([]models.SystemTemplate, error)
	UpdateCategory(ownerID, categoryID string, patch CategoryPatch) (*models.Category, error)
	DeleteCategory(ownerID, categoryID string) error
	CloneSystemTemplatesForUser(ownerID string) (int, error)
	ResolveCategory(ownerID, name string, categoryType models.CategoryType) (*models.Category, error)
}

// TransactionServicer defines the interface for transaction operations.
type TransactionServicer interface {
	CreateTransaction(ownerID string, input TransactionInput) (*models.Transaction, error)
	GetTransactionByID(ownerID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(ownerID, transactionID string, patch TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ownerID, transactionID string) error
	ListTransactions(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	ListByType(ownerID string, txType models.TransactionType) ([]models.Transaction, error)
	ListByCategory(ownerID, categoryID string) ([]models.Transaction, error)
	ListByDateRange(ownerID string, start, end time.Time) ([]models.Transaction, error)
	ListByMonth(ownerID string, year, month int) ([]models.Transaction, error)
	ListRecent(ownerID string) ([]models.Transaction, error)
	Search(ownerID, keyword string) ([]models.Transaction, error)
	CalculateBalance(ownerID string) (*Balance, error)
	CalculateBalanceByDateRange(ownerID string, start, end time.Time) (*Balance, error)
}

// ReportServicer defines the interface for reporting operations.
type ReportServicer interface {
	MonthlySummary(ownerID string, year, month int) (*MonthlySummary, error)
	ExpensesByCategory(ownerID string, year, month int) ([]CategoryBreakdown, error)
	IncomesByCategory(ownerID string, year, month int) ([]CategoryBreakdown, error)
	AllExpensesByCategory(ownerID string) (*CategoryTotals, error)
	AllIncomesByCategory(ownerID string) (*CategoryTotals, error)
	MonthlyComparison(ownerID string, months int) ([]MonthlySummary, error)
}

// AccountSummaryServicer defines the interface for the net worth summary.
type AccountSummaryServicer interface {
	Summary(ctx context.Context, ownerID string) (*AccountSummary, error)
}

// InvestmentServicer defines the interface for investment operations.
type InvestmentServicer interface {
	CreateInvestment(ctx context.Context, ownerID string, input InvestmentInput) (*InvestmentResult, error)
	GetInvestmentByID(ownerID, investmentID string) (*models.Investment, error)
	ListInvestments(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error)
	ListInvestmentsByType(ownerID, investmentType string) ([]models.Investment, error)
	UpdateInvestment(ownerID, investmentID string, patch InvestmentPatch) (*models.Investment, error)
	DeleteInvestment(ctx context.Context, ownerID, investmentID string) (*MirrorOutcome, error)
}

// PortfolioServicer defines the interface for portfolio aggregation.
type PortfolioServicer interface {
	GetPortfolioSummary(ownerID string) (*PortfolioSummary, error)
	GetTotalInvestmentValue(ownerID string) (decimal.Decimal, error)
}

// UserServicer defines the interface for user profile and session operations.
type UserServicer interface {
	Register(ctx context.Context, input RegisterInput) (*models.UserProfile, error)
	Login(ctx context.Context, login, password string) (*LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*identity.TokenSet, error)
	GetProfile(userID string) (*models.UserProfile, error)
	UpdateProfile(userID string, patch ProfilePatch) (*models.UserProfile, error)
	DeleteUser(ctx context.Context, userID string) error
}

// AuditServicer defines the interface for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}

// TransactionMirror creates and removes the expense that mirrors an
// investment in the account service.
type TransactionMirror interface {
	CreateTransaction(ctx context.Context, userID string, req client.MirrorTransactionRequest) (*client.RemoteTransaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

// SettingsSource reads a user's settings from the user service.
type SettingsSource interface {
	Settings(ctx context.Context, userID string) (*client.RemoteSettings, error)
}

// InvestmentTotaler reads a user's total investment value.
type InvestmentTotaler interface {
	TotalValue(ctx context.Context, userID string) (decimal.Decimal, error)
}

// CategoryInitializer clones the system templates for a new user.
type CategoryInitializer interface {
	InitializeForUser(ctx context.Context, userID string) error
}
