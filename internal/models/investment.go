package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Investment represents a position held by a user. The initial capital is
// fixed at creation; current capital tracks the position's value.
type Investment struct {
	Base
	OwnerID                  string          `gorm:"type:uuid;not null;index" json:"owner_id"`
	Type                     string          `gorm:"not null;index" json:"type"`
	Description              string          `json:"description"`
	InitialCapital           decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"initial_capital"`
	CurrentCapital           decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"current_capital"`
	InvestmentDate           time.Time       `gorm:"not null" json:"investment_date"`
	Notes                    string          `json:"notes"`
	LinkedTransactionCreated bool            `gorm:"not null;default:false" json:"linked_transaction_created"`
	LinkedTransactionID      *string         `gorm:"type:uuid" json:"linked_transaction_id,omitempty"`

	// Derived at read time
	Profit decimal.Decimal `gorm:"-" json:"profit"`
	ROI    decimal.Decimal `gorm:"-" json:"roi"`
}

// ComputeProfit returns current minus initial capital.
func (i *Investment) ComputeProfit() decimal.Decimal {
	return i.CurrentCapital.Sub(i.InitialCapital)
}

// ComputeROI returns the return on investment as a percentage, or zero when
// the initial capital is zero.
func (i *Investment) ComputeROI() decimal.Decimal {
	return Percentage(i.ComputeProfit(), i.InitialCapital)
}

// AfterFind fills the derived fields after every load.
func (i *Investment) AfterFind(_ *gorm.DB) error {
	i.Derive()
	return nil
}

// Derive fills Profit and ROI from the stored capitals.
func (i *Investment) Derive() {
	i.Profit = i.ComputeProfit()
	i.ROI = i.ComputeROI()
}

// Percentage returns part/whole*100 using a four decimal half-up ratio,
// rendered with two decimals. A zero whole yields zero.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.DivRound(whole, 4).Mul(decimal.NewFromInt(100)).Round(2)
}
