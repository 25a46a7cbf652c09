package services

import (
	"testing"
	"time"

	"github.com/tobiasceruttigothe/MyFinances/internal/models"
	"github.com/tobiasceruttigothe/MyFinances/internal/testutil"
)

func TestMonthlySummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := &reportService{db: db, now: fixedClock(testNow)}
	owner := testutil.NewOwnerID()

	salary := testutil.CreateTestCategoryNamed(t, db, &owner, "Salario", models.CategoryTypeIncome, nil)
	food := testutil.CreateTestCategoryNamed(t, db, &owner, "Supermercado", models.CategoryTypeExpense, nil)
	rent := testutil.CreateTestCategoryNamed(t, db, &owner, "Alquiler", models.CategoryTypeExpense, nil)

	mar := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	testutil.CreateTestTransaction(t, db, owner, salary.ID, models.TransactionTypeIncome, "2000", mar)
	testutil.CreateTestTransaction(t, db, owner, food.ID, models.TransactionTypeExpense, "300", mar)
	testutil.CreateTestTransaction(t, db, owner, food.ID, models.TransactionTypeExpense, "100", mar)
	testutil.CreateTestTransaction(t, db, owner, rent.ID, models.TransactionTypeExpense, "600", mar)
	testutil.CreateTestTransaction(t, db, owner, rent.ID, models.TransactionTypeExpense, "777", time.Date(2026, time.February, 28, 23, 0, 0, 0, time.UTC))

	t.Run("totals", func(t *testing.T) {
		s, err := svc.MonthlySummary(owner, 2026, 3)
		testutil.AssertNoError(t, err)

		if s.MonthName != "Marzo" {
			t.Errorf("expected Marzo, got %s", s.MonthName)
		}
		if !s.TotalIncome.Equal(dec("2000")) || !s.TotalExpense.Equal(dec("1000")) || !s.Balance.Equal(dec("1000")) {
			t.Errorf("unexpected totals: %+v", s)
		}
		if !s.SavingsRate.Equal(dec("50")) {
			t.Errorf("expected savings rate 50, got %s", s.SavingsRate)
		}
		if s.ExpenseCount != 3 || s.IncomeCount != 1 {
			t.Errorf("unexpected counts: %d/%d", s.IncomeCount, s.ExpenseCount)
		}
	})

	t.Run("breakdown_sorted_with_percentages", func(t *testing.T) {
		s, err := svc.MonthlySummary(owner, 2026, 3)
		testutil.AssertNoError(t, err)

		if len(s.ExpensesByCategory) != 2 {
			t.Fatalf("expected 2 expense categories, got %d", len(s.ExpensesByCategory))
		}
		first, second := s.ExpensesByCategory[0], s.ExpensesByCategory[1]
		if first.CategoryName != "Alquiler" || !first.Percentage.Equal(dec("60")) {
			t.Errorf("unexpected first entry: %+v", first)
		}
		if second.CategoryName != "Supermercado" || second.Count != 2 || !second.Percentage.Equal(dec("40")) {
			t.Errorf("unexpected second entry: %+v", second)
		}
	})

	t.Run("empty_month", func(t *testing.T) {
		s, err := svc.MonthlySummary(owner, 2025, 1)
		testutil.AssertNoError(t, err)
		if !s.TotalIncome.IsZero() || !s.SavingsRate.IsZero() || len(s.ExpensesByCategory) != 0 {
			t.Errorf("expected zero summary, got %+v", s)
		}
	})

	t.Run("invalid_month", func(t *testing.T) {
		_, err := svc.MonthlySummary(owner, 2026, 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("expenses_by_category", func(t *testing.T) {
		entries, err := svc.ExpensesByCategory(owner, 2026, 2)
		testutil.AssertNoError(t, err)
		if len(entries) != 1 || !entries[0].Percentage.Equal(dec("100")) {
			t.Errorf("unexpected February expenses: %+v", entries)
		}
	})

	t.Run("incomes_by_category", func(t *testing.T) {
		entries, err := svc.IncomesByCategory(owner, 2026, 3)
		testutil.AssertNoError(t, err)
		if len(entries) != 1 || entries[0].CategoryID != salary.ID {
			t.Errorf("unexpected March incomes: %+v", entries)
		}
	})

	t.Run("all_expenses_by_category", func(t *testing.T) {
		totals, err := svc.AllExpensesByCategory(owner)
		testutil.AssertNoError(t, err)
		if !totals.GrandTotal.Equal(dec("1777")) {
			t.Errorf("expected grand total 1777, got %s", totals.GrandTotal)
		}
		if totals.Categories[0].CategoryName != "Alquiler" {
			t.Errorf("expected Alquiler first, got %s", totals.Categories[0].CategoryName)
		}
	})

	t.Run("all_incomes_by_category", func(t *testing.T) {
		totals, err := svc.AllIncomesByCategory(owner)
		testutil.AssertNoError(t, err)
		if !totals.GrandTotal.Equal(dec("2000")) || len(totals.Categories) != 1 {
			t.Errorf("unexpected income totals: %+v", totals)
		}
	})
}

func TestMonthlyComparison(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	owner := testutil.NewOwnerID()

	t.Run("default_six_months_newest_first", func(t *testing.T) {
		svc := &reportService{db: db, now: fixedClock(testNow)}
		summaries, err := svc.MonthlyComparison(owner, 0)
		testutil.AssertNoError(t, err)
		if len(summaries) != 6 {
			t.Fatalf("expected 6 summaries, got %d", len(summaries))
		}
		if summaries[0].Year != 2026 || summaries[0].Month != 3 {
			t.Errorf("expected March 2026 first, got %d-%d", summaries[0].Year, summaries[0].Month)
		}
		if summaries[5].Year != 2025 || summaries[5].Month != 10 {
			t.Errorf("expected October 2025 last, got %d-%d", summaries[5].Year, summaries[5].Month)
		}
	})

	t.Run("distinct_months_from_month_end", func(t *testing.T) {
		svc := &reportService{db: db, now: fixedClock(time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC))}
		summaries, err := svc.MonthlyComparison(owner, 12)
		testutil.AssertNoError(t, err)

		seen := make(map[[2]int]bool)
		for _, s := range summaries {
			key := [2]int{s.Year, s.Month}
			if seen[key] {
				t.Errorf("month %d-%d appears twice", s.Year, s.Month)
			}
			seen[key] = true
		}
		if len(seen) != 12 {
			t.Errorf("expected 12 distinct months, got %d", len(seen))
		}
		if summaries[1].Month != 2 {
			t.Errorf("expected February after March, got %d", summaries[1].Month)
		}
	})

	t.Run("too_many_months", func(t *testing.T) {
		svc := &reportService{db: db, now: fixedClock(testNow)}
		_, err := svc.MonthlyComparison(owner, 25)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
