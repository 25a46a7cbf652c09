package client

import (
	"context"
	"net/http"
)

// RemoteSettings mirrors the user service's settings representation.
type RemoteSettings struct {
	Currency                      string `json:"currency"`
	Timezone                      string `json:"timezone"`
	Language                      string `json:"language"`
	LinkInvestmentsToTransactions bool   `json:"link_investments_to_transactions"`
	EnableAutoGoalAssignments     bool   `json:"enable_auto_goal_assignments"`
}

// UserClient talks to the user service.
type UserClient struct {
	caller
	breaker *Breaker
}

// NewUserClient creates a UserClient.
func NewUserClient(baseURL, serviceKey string, httpClient *http.Client, breaker *Breaker) *UserClient {
	return &UserClient{caller: newCaller(baseURL, serviceKey, httpClient), breaker: breaker}
}

// Settings fetches userID's settings through the profile endpoint.
func (c *UserClient) Settings(ctx context.Context, userID string) (*RemoteSettings, error) {
	return Execute(ctx, c.breaker, func(ctx context.Context) (*RemoteSettings, error) {
		var result struct {
			User struct {
				Settings RemoteSettings `json:"settings"`
			} `json:"user"`
		}
		if err := c.do(ctx, "fetching user settings", http.MethodGet, "/api/v1/users/profile", userID, nil, &result); err != nil {
			return nil, err
		}
		return &result.User.Settings, nil
	})
}
