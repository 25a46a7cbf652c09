package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tobiasceruttigothe/MyFinances/internal/models"
	"github.com/tobiasceruttigothe/MyFinances/internal/uuid"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewOwnerID returns a fresh user id. Owners are plain ids in the account
// and investment services, so no row is needed.
func NewOwnerID() string {
	return uuid.New()
}

// CreateTestProfile creates a user profile with default settings.
func CreateTestProfile(t *testing.T, db *gorm.DB) *models.UserProfile {
	t.Helper()

	n := nextID()
	profile := &models.UserProfile{
		ID:        uuid.New(),
		Email:     fmt.Sprintf("user%d@test.com", n),
		Username:  fmt.Sprintf("user%d", n),
		FirstName: "Test",
		LastName:  "User",
		Enabled:   true,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	settings := models.NewDefaultSettings(profile.ID)
	if err := db.Create(settings).Error; err != nil {
		t.Fatalf("failed to create test settings: %v", err)
	}
	profile.Settings = settings
	return profile
}

// CreateTestCategory creates a category of the given type. A nil owner
// creates a system template.
func CreateTestCategory(t *testing.T, db *gorm.DB, ownerID *string, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return CreateTestCategoryNamed(t, db, ownerID, fmt.Sprintf("Test Category %d", nextID()), categoryType, nil)
}

// CreateTestCategoryNamed creates a category with the given name and parent.
func CreateTestCategoryNamed(t *testing.T, db *gorm.DB, ownerID *string, name string, categoryType models.CategoryType, parentID *string) *models.Category {
	t.Helper()

	category := &models.Category{
		OwnerID:          ownerID,
		Name:             name,
		Type:             categoryType,
		ParentID:         parentID,
		IsSystemTemplate: ownerID == nil,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction of the given type and amount.
func CreateTestTransaction(t *testing.T, db *gorm.DB, ownerID, categoryID string, txType models.TransactionType, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		OwnerID:     ownerID,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Amount:      decimal.RequireFromString(amount),
		Type:        txType,
		CategoryID:  categoryID,
		Date:        date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestInvestment creates an investment with the given capitals.
func CreateTestInvestment(t *testing.T, db *gorm.DB, ownerID, investmentType, initial, current string) *models.Investment {
	t.Helper()

	inv := &models.Investment{
		OwnerID:        ownerID,
		Type:           investmentType,
		Description:    fmt.Sprintf("Test Investment %d", nextID()),
		InitialCapital: decimal.RequireFromString(initial),
		CurrentCapital: decimal.RequireFromString(current),
		InvestmentDate: time.Now().UTC().Truncate(24 * time.Hour),
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("failed to create test investment: %v", err)
	}
	inv.Derive()
	return inv
}
