package services

import (
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
)

// TypeBreakdown aggregates the investments of one type.
type TypeBreakdown struct {
	Type          string          `json:"type"`
	Count         int             `json:"count"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	Profit        decimal.Decimal `json:"profit"`
	ROI           decimal.Decimal `json:"roi"`
}

// PortfolioSummary aggregates all of an owner's investments.
type PortfolioSummary struct {
	TotalInvested     decimal.Decimal `json:"total_invested"`
	TotalCurrentValue decimal.Decimal `json:"total_current_value"`
	TotalProfit       decimal.Decimal `json:"total_profit"`
	OverallROI        decimal.Decimal `json:"overall_roi"`
	TotalInvestments  int             `json:"total_investments"`
	ByType            []TypeBreakdown `json:"by_type"`
}

// portfolioService aggregates investments.
type portfolioService struct {
	db *gorm.DB
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB) PortfolioServicer {
	return &portfolioService{db: db}
}

// GetPortfolioSummary totals the owner's investments overall and per type.
func (s *portfolioService) GetPortfolioSummary(ownerID string) (*PortfolioSummary, error) {
	investments, err := s.load(ownerID)
	if err != nil {
		return nil, err
	}

	summary := &PortfolioSummary{
		TotalInvested:     decimal.Zero,
		TotalCurrentValue: decimal.Zero,
		ByType:            []TypeBreakdown{},
	}
	index := make(map[string]int)

	for _, inv := range investments {
		summary.TotalInvested = summary.TotalInvested.Add(inv.InitialCapital)
		summary.TotalCurrentValue = summary.TotalCurrentValue.Add(inv.CurrentCapital)
		summary.TotalInvestments++

		i, ok := index[inv.Type]
		if !ok {
			i = len(summary.ByType)
			index[inv.Type] = i
			summary.ByType = append(summary.ByType, TypeBreakdown{
				Type:          inv.Type,
				TotalInvested: decimal.Zero,
				CurrentValue:  decimal.Zero,
			})
		}
		entry := &summary.ByType[i]
		entry.Count++
		entry.TotalInvested = entry.TotalInvested.Add(inv.InitialCapital)
		entry.CurrentValue = entry.CurrentValue.Add(inv.CurrentCapital)
	}

	summary.TotalProfit = summary.TotalCurrentValue.Sub(summary.TotalInvested)
	summary.OverallROI = models.Percentage(summary.TotalProfit, summary.TotalInvested)

	for i := range summary.ByType {
		entry := &summary.ByType[i]
		entry.Profit = entry.CurrentValue.Sub(entry.TotalInvested)
		entry.ROI = models.Percentage(entry.Profit, entry.TotalInvested)
	}
	sort.SliceStable(summary.ByType, func(a, b int) bool {
		if !summary.ByType[a].CurrentValue.Equal(summary.ByType[b].CurrentValue) {
			return summary.ByType[a].CurrentValue.GreaterThan(summary.ByType[b].CurrentValue)
		}
		return summary.ByType[a].Type < summary.ByType[b].Type
	})

	return summary, nil
}

// GetTotalInvestmentValue sums the current capital of the owner's investments.
func (s *portfolioService) GetTotalInvestmentValue(ownerID string) (decimal.Decimal, error) {
	investments, err := s.load(ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, inv := range investments {
		total = total.Add(inv.CurrentCapital)
	}
	return total, nil
}

func (s *portfolioService) load(ownerID string) ([]models.Investment, error) {
	var investments []models.Investment
	if err := s.db.Select("id", "type", "initial_capital", "current_capital").
		Where("owner_id = ?", ownerID).
		Find(&investments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return investments, nil
}
