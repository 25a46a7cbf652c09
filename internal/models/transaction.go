package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a transaction.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// ParseTransactionType normalizes a user-supplied type label.
func ParseTransactionType(s string) (TransactionType, bool) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Transaction represents a financial transaction owned by a single user.
type Transaction struct {
	Base
	OwnerID            string          `gorm:"type:uuid;not null;index" json:"owner_id"`
	Description        string          `gorm:"not null" json:"description"`
	Amount             decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Type               TransactionType `gorm:"not null;index" json:"type"`
	CategoryID         string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Date               time.Time       `gorm:"not null;index" json:"date"`
	Notes              string          `json:"notes"`
	LinkedToInvestment bool            `gorm:"not null;default:false" json:"linked_to_investment"`
	InvestmentID       *string         `gorm:"type:uuid" json:"investment_id,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
