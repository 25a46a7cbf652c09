// Package client provides breaker-guarded HTTP clients for calls between
// MyFinances services. Every request forwards the acting user in X-User-Id
// and, when configured, the shared service key.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	userIDHeader     = "X-User-Id"
	serviceKeyHeader = "X-Service-Key"
	maxErrorBody     = 512
)

// StatusError reports a non-success HTTP status from a remote service.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// caller holds the plumbing shared by the typed clients.
type caller struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func newCaller(baseURL, serviceKey string, httpClient *http.Client) caller {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return caller{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: httpClient,
	}
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
// Any status outside wantStatus yields a *StatusError.
func (c caller) do(ctx context.Context, op, method, path, userID string, body, out any, wantStatus ...int) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshaling request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	if c.serviceKey != "" {
		req.Header.Set(serviceKeyHeader, c.serviceKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !statusIn(resp.StatusCode, wantStatus) {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

func statusIn(code int, want []int) bool {
	if len(want) == 0 {
		return code >= 200 && code < 300
	}
	for _, w := range want {
		if code == w {
			return true
		}
	}
	return false
}
