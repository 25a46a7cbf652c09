package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
)

// InvestmentsUnavailableMessage is reported when the investment total could
// not be fetched.
const InvestmentsUnavailableMessage = "Investment service is currently unavailable."

// AccountSummary is the owner's net worth position.
type AccountSummary struct {
	UserID         string          `json:"user_id"`
	AccountBalance decimal.Decimal `json:"account_balance"`
	Investments    decimal.Decimal `json:"investments"`
	NetWorth       decimal.Decimal `json:"net_worth"`
	Message        string          `json:"message,omitempty"`
}

// accountSummaryService combines the local balance with the remote
// investment total.
type accountSummaryService struct {
	transactions TransactionServicer
	investments  InvestmentTotaler
}

// NewAccountSummaryService creates a new AccountSummaryServicer.
func NewAccountSummaryService(transactions TransactionServicer, investments InvestmentTotaler) AccountSummaryServicer {
	return &accountSummaryService{transactions: transactions, investments: investments}
}

// Summary returns the owner's balance, investments and net worth. When the
// investment service cannot be reached the investments are reported as zero.
func (s *accountSummaryService) Summary(ctx context.Context, ownerID string) (*AccountSummary, error) {
	balance, err := s.transactions.CalculateBalance(ownerID)
	if err != nil {
		return nil, err
	}

	summary := &AccountSummary{
		UserID:         ownerID,
		AccountBalance: balance.Balance,
		Investments:    decimal.Zero,
		NetWorth:       balance.Balance,
	}

	total, err := s.investments.TotalValue(ctx, ownerID)
	if err != nil {
		logger.Get().Warnw("investment total unavailable, reporting balance only",
			"user_id", ownerID,
			"error", err,
		)
		summary.Message = InvestmentsUnavailableMessage
		return summary, nil
	}

	summary.Investments = total
	summary.NetWorth = balance.Balance.Add(total)
	return summary, nil
}
