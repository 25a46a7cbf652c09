package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// MirrorTransactionRequest is the payload for creating a transaction on
// behalf of an investment.
type MirrorTransactionRequest struct {
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount"`
	Type               string          `json:"type"`
	CategoryName       string          `json:"category_name"`
	Date               time.Time       `json:"date"`
	Notes              string          `json:"notes,omitempty"`
	LinkedToInvestment bool            `json:"linked_to_investment"`
	InvestmentID       string          `json:"investment_id"`
}

// RemoteTransaction is the subset of a transaction the callers need.
type RemoteTransaction struct {
	ID           string          `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Type         string          `json:"type"`
	CategoryID   string          `json:"category_id"`
	InvestmentID *string         `json:"investment_id,omitempty"`
}

// TransactionClient talks to the account service's transaction endpoints.
type TransactionClient struct {
	caller
	breaker *Breaker
}

// NewTransactionClient creates a TransactionClient.
func NewTransactionClient(baseURL, serviceKey string, httpClient *http.Client, breaker *Breaker) *TransactionClient {
	return &TransactionClient{caller: newCaller(baseURL, serviceKey, httpClient), breaker: breaker}
}

// CreateTransaction creates a transaction owned by userID.
func (c *TransactionClient) CreateTransaction(ctx context.Context, userID string, req MirrorTransactionRequest) (*RemoteTransaction, error) {
	return Execute(ctx, c.breaker, func(ctx context.Context) (*RemoteTransaction, error) {
		var result struct {
			Transaction RemoteTransaction `json:"transaction"`
		}
		if err := c.do(ctx, "creating transaction", http.MethodPost, "/api/v1/transactions", userID, req, &result, http.StatusCreated); err != nil {
			return nil, err
		}
		return &result.Transaction, nil
	})
}

// DeleteTransaction deletes a transaction owned by userID. A transaction that
// no longer exists counts as deleted.
func (c *TransactionClient) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	_, err := Execute(ctx, c.breaker, func(ctx context.Context) (struct{}, error) {
		path := "/api/v1/transactions/" + url.PathEscape(transactionID)
		err := c.do(ctx, "deleting transaction", http.MethodDelete, path, userID, nil, nil, http.StatusNoContent, http.StatusOK)
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return struct{}{}, nil
		}
		return struct{}{}, err
	})
	return err
}
