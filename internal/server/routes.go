package server

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tobiasceruttigothe/MyFinances/internal/client"
	"github.com/tobiasceruttigothe/MyFinances/internal/config"
	"github.com/tobiasceruttigothe/MyFinances/internal/handlers"
	"github.com/tobiasceruttigothe/MyFinances/internal/identity"
	"github.com/tobiasceruttigothe/MyFinances/internal/services"
)

// NewAccountEngine wires the account service: categories, transactions,
// reports and the net worth summary.
func NewAccountEngine(cfg *config.Config, db *gorm.DB) *gin.Engine {
	// Remote clients
	investmentClient := client.NewInvestmentClient(cfg.InvestmentServiceURL, cfg.ServiceKey,
		HTTPClient(cfg), Breaker(cfg, "investment-service"))

	// Initialize services
	auditService := services.NewAuditService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db, categoryService)
	reportService := services.NewReportService(db)
	summaryService := services.NewAccountSummaryService(transactionService, investmentClient)

	// Initialize handlers
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	reportHandler := handlers.NewReportHandler(reportService)
	summaryHandler := handlers.NewAccountSummaryHandler(summaryService)

	router := NewEngine("account-service")
	v1 := router.Group("/api/v1")

	// Public and service-to-service routes
	v1.GET("/categories/templates", categoryHandler.ListTemplates)
	peer := v1.Group("", Internal(cfg)...)
	peer.POST("/categories/initialize-for-user/:userId", categoryHandler.InitializeForUser)

	protected := v1.Group("", Authenticated(cfg)...)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/root", categoryHandler.ListRootCategories)
	categories.GET("/name/:name", categoryHandler.GetCategoryByName)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.GET("/:id/subcategories", categoryHandler.ListSubcategories)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/type/:type", transactionHandler.ListByType)
	transactions.GET("/category/:categoryId", transactionHandler.ListByCategory)
	transactions.GET("/date-range", transactionHandler.ListByDateRange)
	transactions.GET("/month", transactionHandler.ListByMonth)
	transactions.GET("/recent", transactionHandler.ListRecent)
	transactions.GET("/search", transactionHandler.Search)
	transactions.GET("/balance", transactionHandler.GetBalance)
	transactions.GET("/balance/date-range", transactionHandler.GetBalanceByDateRange)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Report routes
	reports := protected.Group("/reports")
	reports.GET("/monthly", reportHandler.MonthlySummary)
	reports.GET("/expenses/by-category", reportHandler.ExpensesByCategory)
	reports.GET("/incomes/by-category", reportHandler.IncomesByCategory)
	reports.GET("/expenses/all-by-category", reportHandler.AllExpensesByCategory)
	reports.GET("/incomes/all-by-category", reportHandler.AllIncomesByCategory)
	reports.GET("/monthly-comparison", reportHandler.MonthlyComparison)

	protected.GET("/accounts/summary", summaryHandler.GetSummary)

	return router
}

// NewInvestmentEngine wires the investment service.
func NewInvestmentEngine(cfg *config.Config, db *gorm.DB) *gin.Engine {
	// Remote clients
	httpClient := HTTPClient(cfg)
	transactionClient := client.NewTransactionClient(cfg.AccountServiceURL, cfg.ServiceKey,
		httpClient, Breaker(cfg, "account-service"))
	userClient := client.NewUserClient(cfg.UserServiceURL, cfg.ServiceKey,
		httpClient, Breaker(cfg, "user-service"))
	settings := services.NewCachedSettingsSource(userClient, cfg.SettingsCacheTTL)

	// Initialize services
	auditService := services.NewAuditService(db)
	investmentService := services.NewInvestmentService(db, transactionClient, settings, auditService, cfg.InvestmentCategory)
	portfolioService := services.NewPortfolioService(db)

	investmentHandler := handlers.NewInvestmentHandler(investmentService, portfolioService, auditService)

	router := NewEngine("investment-service")
	v1 := router.Group("/api/v1")

	peer := v1.Group("", Internal(cfg)...)
	peer.GET("/investments/user/:userId", investmentHandler.GetUserTotal)

	investments := v1.Group("/investments", Authenticated(cfg)...)
	investments.POST("", investmentHandler.CreateInvestment)
	investments.GET("", investmentHandler.ListInvestments)
	investments.GET("/type/:type", investmentHandler.ListByType)
	investments.GET("/portfolio/summary", investmentHandler.GetPortfolioSummary)
	investments.GET("/:id", investmentHandler.GetInvestment)
	investments.PUT("/:id", investmentHandler.UpdateInvestment)
	investments.DELETE("/:id", investmentHandler.DeleteInvestment)

	return router
}

// NewUserEngine wires the user service around the given identity provider.
func NewUserEngine(cfg *config.Config, db *gorm.DB, provider identity.Provider) *gin.Engine {
	categoryClient := client.NewCategoryClient(cfg.AccountServiceURL, cfg.ServiceKey,
		HTTPClient(cfg), Breaker(cfg, "account-service"))

	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db, provider, categoryClient)
	userHandler := handlers.NewUserHandler(userService, auditService)

	router := NewEngine("user-service")
	users := router.Group("/api/v1/users")

	// Public routes
	users.POST("/register", userHandler.Register)
	users.POST("/login", userHandler.Login)
	users.POST("/refresh-token", userHandler.RefreshToken)

	// Protected routes
	profile := users.Group("/profile", Authenticated(cfg)...)
	profile.GET("", userHandler.GetProfile)
	profile.PUT("", userHandler.UpdateProfile)
	profile.DELETE("", userHandler.DeleteProfile)

	return router
}
