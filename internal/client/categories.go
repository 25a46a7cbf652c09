package client

import (
	"context"
	"net/http"
	"net/url"
)

// CategoryClient talks to the account service's category endpoints.
type CategoryClient struct {
	caller
	breaker *Breaker
}

// NewCategoryClient creates a CategoryClient.
func NewCategoryClient(baseURL, serviceKey string, httpClient *http.Client, breaker *Breaker) *CategoryClient {
	return &CategoryClient{caller: newCaller(baseURL, serviceKey, httpClient), breaker: breaker}
}

// InitializeForUser clones the system category templates for userID.
func (c *CategoryClient) InitializeForUser(ctx context.Context, userID string) error {
	_, err := Execute(ctx, c.breaker, func(ctx context.Context) (struct{}, error) {
		path := "/api/v1/categories/initialize-for-user/" + url.PathEscape(userID)
		return struct{}{}, c.do(ctx, "initializing categories", http.MethodPost, path, "", nil, nil)
	})
	return err
}
