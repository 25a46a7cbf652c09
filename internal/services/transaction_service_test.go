package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tobiasceruttigothe/MyFinances/internal/models"
	"github.com/tobiasceruttigothe/MyFinances/internal/pagination"
	"github.com/tobiasceruttigothe/MyFinances/internal/testutil"
	"github.com/tobiasceruttigothe/MyFinances/internal/uuid"
)

func setupTransactionService(t *testing.T) (*transactionService, *gorm.DB, string) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	svc := NewTransactionService(db, NewCategoryService(db)).(*transactionService)
	svc.now = fixedClock(testNow)
	return svc, db, testutil.NewOwnerID()
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateTransaction(t *testing.T) {
	t.Run("with_category_id", func(t *testing.T) {
		svc, db, owner := setupTransactionService(t)
		cat := testutil.CreateTestCategory(t, db, &owner, models.CategoryTypeExpense)

		tx, err := svc.CreateTransaction(owner, TransactionInput{
			Description: "Groceries",
			Amount:      dec("42.50"),
			Type:        models.TransactionTypeExpense,
			CategoryID:  cat.ID,
		})
		testutil.AssertNoError(t, err)

		if tx.ID == "" || tx.CategoryID != cat.ID {
			t.Errorf("unexpected transaction: %+v", tx)
		}
		if !tx.Date.Equal(testNow) {
			t.Errorf("expected date to default to now, got %s", tx.Date)
		}
	})

	t.Run("with_template_category", func(t *testing.T) {
		svc, db, owner := setupTransactionService(t)
		tmpl := testutil.CreateTestCategory(t, db, nil, models.CategoryTypeIncome)

		_, err := svc.CreateTransaction(owner, TransactionInput{Description: "Pay", Amount: dec("100"), Type: models.TransactionTypeIncome, CategoryID: tmpl.ID})
		testutil.AssertNoError(t, err)
	})

	t.Run("with_category_name_resolves", func(t *testing.T) {
		svc, db, owner := setupTransactionService(t)
		tmpl := testutil.CreateTestCategoryNamed(t, db, nil, "Inversiones", models.CategoryTypeExpense, nil)
		investmentID := uuid.New()

		tx, err := svc.CreateTransaction(owner, TransactionInput{
			Description:        "Inversión: Plazo fijo",
			Amount:             dec("1000"),
			Type:               models.TransactionTypeExpense,
			CategoryName:       "Inversiones",
			LinkedToInvestment: true,
			InvestmentID:       &investmentID,
		})
		testutil.AssertNoError(t, err)
		if tx.CategoryID != tmpl.ID {
			t.Errorf("expected template category %s, got %s", tmpl.ID, tx.CategoryID)
		}
		if !tx.LinkedToInvestment || tx.InvestmentID == nil || *tx.InvestmentID != investmentID {
			t.Errorf("expected investment linkage, got %+v", tx)
		}
	})

	t.Run("category_of_other_owner", func(t *testing.T) {
		svc, db, owner := setupTransactionService(t)
		other := testutil.NewOwnerID()
		cat := testutil.CreateTestCategory(t, db, &other, models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(owner, TransactionInput{Description: "X", Amount: dec("1"), Type: models.TransactionTypeExpense, CategoryID: cat.ID})
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("missing_category", func(t *testing.T) {
		svc, _, owner := setupTransactionService(t)

		_, err := svc.CreateTransaction(owner, TransactionInput{Description: "X", Amount: dec("1"), Type: models.TransactionTypeExpense})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_amounts", func(t *testing.T) {
		svc, db, owner := setupTransactionService(t)
		cat := testutil.CreateTestCategory(t, db, &owner, models.CategoryTypeExpense)

		for _, amount := range []string{"0", "-5", "1.234"} {
			_, err := svc.CreateTransaction(owner, TransactionInput{Description: "X", Amount: dec(amount), Type: models.TransactionTypeExpense, CategoryID: cat.ID})
			testutil.AssertAppError(t, err, "INVALID_AMOUNT")
		}
	})

	t.Run("invalid_type", func(t *testing.T) {
		svc, db, owner := setupTransactionService(t)
		cat := testutil.CreateTestCategory(t, db, &owner, models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(owner, TransactionInput{Description: "X", Amount: dec("1"), Type: "TRANSFER", CategoryID: cat.ID})
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})
}

func TestGetUpdateDeleteTransaction(t *testing.T) {
	svc, db, owner := setupTransactionService(t)
	cat := testutil.CreateTestCategory(t, db, &owner, models.CategoryTypeExpense)
	other := testutil.CreateTestCategory(t, db, &owner, models.CategoryTypeExpense)
	tx := testutil.CreateTestTransaction(t, db, owner, cat.ID, models.TransactionTypeExpense, "10", testNow)

	t.Run("get_own", func(t *testing.T) {
		got, err := svc.GetTransactionByID(owner, tx.ID)
		testutil.AssertNoError(t, err)
		if got.Category == nil || got.Category.ID != cat.ID {
			t.Errorf("expected preloaded category, got %+v", got.Category)
		}
	})

	t.Run("get_other_owner", func(t *testing.T) {
		_, err := svc.GetTransactionByID(testutil.NewOwnerID(), tx.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("get_not_found", func(t *testing.T) {
		_, err := svc.GetTransactionByID(owner, uuid.New())
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("update", func(t *testing.T) {
		amount := dec("99.99")
		description := "Updated"
		updated, err := svc.UpdateTransaction(owner, tx.ID, TransactionPatch{Amount: &amount, Description: &description, CategoryID: &other.ID})
		testutil.AssertNoError(t, err)
		if !updated.Amount.Equal(amount) || updated.Description != "Updated" || updated.CategoryID != other.ID {
			t.Errorf("unexpected transaction after update: %+v", updated)
		}
	})

	t.Run("update_invalid_amount", func(t *testing.T) {
		amount := dec("-1")
		_, err := svc.UpdateTransaction(owner, tx.ID, TransactionPatch{Amount: &amount})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("delete_other_owner", func(t *testing.T) {
		err := svc.DeleteTransaction(testutil.NewOwnerID(), tx.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("delete", func(t *testing.T) {
		testutil.AssertNoError(t, svc.DeleteTransaction(owner, tx.ID))
		_, err := svc.GetTransactionByID(owner, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestTransactionQueries(t *testing.T) {
	svc, db, owner := setupTransactionService(t)
	food := testutil.CreateTestCategoryNamed(t, db, &owner, "Food", models.CategoryTypeExpense, nil)
	salary := testutil.CreateTestCategoryNamed(t, db, &owner, "Salary", models.CategoryTypeIncome, nil)

	feb := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)
	mar := time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC)
	testutil.CreateTestTransaction(t, db, owner, salary.ID, models.TransactionTypeIncome, "1000", feb)
	testutil.CreateTestTransaction(t, db, owner, food.ID, models.TransactionTypeExpense, "200", feb)
	coffee := testutil.CreateTestTransaction(t, db, owner, food.ID, models.TransactionTypeExpense, "50.25", mar)
	db.Model(coffee).Update("description", "Morning Coffee")
	testutil.CreateTestTransaction(t, db, testutil.NewOwnerID(), food.ID, models.TransactionTypeExpense, "999", mar)

	t.Run("paginated_newest_first", func(t *testing.T) {
		page, err := svc.ListTransactions(owner, pagination.PageRequest{Page: 1, PageSize: 2})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 3 || len(page.Data) != 2 || page.TotalPages != 2 {
			t.Fatalf("unexpected page: total=%d len=%d pages=%d", page.TotalItems, len(page.Data), page.TotalPages)
		}
		if page.Data[0].ID != coffee.ID {
			t.Errorf("expected newest transaction first")
		}
		if page.Data[0].Category == nil {
			t.Error("expected category to be preloaded")
		}
	})

	t.Run("by_type", func(t *testing.T) {
		txs, err := svc.ListByType(owner, models.TransactionTypeExpense)
		testutil.AssertNoError(t, err)
		if len(txs) != 2 {
			t.Errorf("expected 2 expenses, got %d", len(txs))
		}
	})

	t.Run("by_category", func(t *testing.T) {
		txs, err := svc.ListByCategory(owner, salary.ID)
		testutil.AssertNoError(t, err)
		if len(txs) != 1 {
			t.Errorf("expected 1 salary transaction, got %d", len(txs))
		}
	})

	t.Run("by_date_range_inclusive", func(t *testing.T) {
		txs, err := svc.ListByDateRange(owner, feb, feb)
		testutil.AssertNoError(t, err)
		if len(txs) != 2 {
			t.Errorf("expected 2 transactions on Feb 10, got %d", len(txs))
		}
	})

	t.Run("by_date_range_inverted", func(t *testing.T) {
		_, err := svc.ListByDateRange(owner, mar, feb)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("by_month", func(t *testing.T) {
		txs, err := svc.ListByMonth(owner, 2026, 3)
		testutil.AssertNoError(t, err)
		if len(txs) != 1 || txs[0].ID != coffee.ID {
			t.Errorf("expected only the March transaction, got %d", len(txs))
		}

		_, err = svc.ListByMonth(owner, 2026, 13)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("recent", func(t *testing.T) {
		txs, err := svc.ListRecent(owner)
		testutil.AssertNoError(t, err)
		if len(txs) != 3 {
			t.Errorf("expected 3 recent transactions, got %d", len(txs))
		}
	})

	t.Run("search_case_insensitive", func(t *testing.T) {
		txs, err := svc.Search(owner, "coffee")
		testutil.AssertNoError(t, err)
		if len(txs) != 1 || txs[0].ID != coffee.ID {
			t.Errorf("expected coffee transaction, got %d results", len(txs))
		}
	})

	t.Run("balance", func(t *testing.T) {
		b, err := svc.CalculateBalance(owner)
		testutil.AssertNoError(t, err)
		if !b.TotalIncome.Equal(dec("1000")) || !b.TotalExpense.Equal(dec("250.25")) || !b.Balance.Equal(dec("749.75")) {
			t.Errorf("unexpected balance: %+v", b)
		}
		if b.IncomeCount != 1 || b.ExpenseCount != 2 {
			t.Errorf("unexpected counts: income=%d expense=%d", b.IncomeCount, b.ExpenseCount)
		}
		if b.PeriodStart != nil || !b.CalculatedAt.Equal(testNow) {
			t.Errorf("unexpected period metadata: %+v", b)
		}
	})

	t.Run("balance_by_date_range", func(t *testing.T) {
		start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC)
		b, err := svc.CalculateBalanceByDateRange(owner, start, end)
		testutil.AssertNoError(t, err)
		if !b.Balance.Equal(dec("-50.25")) {
			t.Errorf("expected balance -50.25, got %s", b.Balance)
		}
		if b.PeriodStart == nil || !b.PeriodStart.Equal(start) {
			t.Errorf("expected period start %s, got %v", start, b.PeriodStart)
		}
	})
}
