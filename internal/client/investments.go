package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

// InvestmentClient talks to the investment service.
type InvestmentClient struct {
	caller
	breaker *Breaker
}

// NewInvestmentClient creates an InvestmentClient.
func NewInvestmentClient(baseURL, serviceKey string, httpClient *http.Client, breaker *Breaker) *InvestmentClient {
	return &InvestmentClient{caller: newCaller(baseURL, serviceKey, httpClient), breaker: breaker}
}

// TotalValue returns the sum of current capital across userID's investments.
func (c *InvestmentClient) TotalValue(ctx context.Context, userID string) (decimal.Decimal, error) {
	return Execute(ctx, c.breaker, func(ctx context.Context) (decimal.Decimal, error) {
		var result struct {
			Total decimal.Decimal `json:"total"`
		}
		path := "/api/v1/investments/user/" + url.PathEscape(userID)
		if err := c.do(ctx, "fetching investment total", http.MethodGet, path, userID, nil, &result); err != nil {
			return decimal.Zero, err
		}
		return result.Total, nil
	})
}
