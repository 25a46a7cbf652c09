package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const testUserID = "0190f2a4-7b3c-7d2e-8f00-112233445566"

func TestTransactionClient_CreateTransaction(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if r.URL.Path != "/api/v1/transactions" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Header.Get("X-User-Id") != testUserID {
				t.Errorf("missing user header")
			}
			if r.Header.Get("X-Service-Key") != "svc-key" {
				t.Errorf("missing service key header")
			}

			var body MirrorTransactionRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if !body.LinkedToInvestment || body.InvestmentID != "inv-1" || body.Type != "EXPENSE" {
				t.Errorf("unexpected body: %+v", body)
			}
			if !body.Amount.Equal(decimal.RequireFromString("1000.00")) {
				t.Errorf("unexpected amount %s", body.Amount)
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"transaction": map[string]any{"id": "tx-1", "amount": "1000.00", "type": "EXPENSE", "category_id": "cat-1"},
			})
		}))
		defer server.Close()

		c := NewTransactionClient(server.URL, "svc-key", server.Client(), nil)
		tx, err := c.CreateTransaction(context.Background(), testUserID, MirrorTransactionRequest{
			Description:        "Inversión: ETF",
			Amount:             decimal.RequireFromString("1000.00"),
			Type:               "EXPENSE",
			LinkedToInvestment: true,
			InvestmentID:       "inv-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx.ID != "tx-1" || tx.CategoryID != "cat-1" {
			t.Errorf("unexpected transaction: %+v", tx)
		}
	})

	t.Run("server_error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewTransactionClient(server.URL, "", server.Client(), nil)
		_, err := c.CreateTransaction(context.Background(), testUserID, MirrorTransactionRequest{})
		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
			t.Fatalf("expected StatusError 500, got %v", err)
		}
	})
}

func TestTransactionClient_DeleteTransaction(t *testing.T) {
	t.Run("no_content", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/transactions/tx-1" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		c := NewTransactionClient(server.URL, "", server.Client(), nil)
		if err := c.DeleteTransaction(context.Background(), testUserID, "tx-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("already_gone", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		c := NewTransactionClient(server.URL, "", server.Client(), nil)
		if err := c.DeleteTransaction(context.Background(), testUserID, "tx-1"); err != nil {
			t.Fatalf("expected nil for missing transaction, got %v", err)
		}
	})
}

func TestInvestmentClient_TotalValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/investments/user/"+testUserID {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":"` + testUserID + `","total":"2500.50"}`))
	}))
	defer server.Close()

	c := NewInvestmentClient(server.URL, "", server.Client(), nil)
	total, err := c.TotalValue(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("2500.50")) {
		t.Errorf("expected 2500.50, got %s", total)
	}
}

func TestCategoryClient_InitializeForUser(t *testing.T) {
	var called atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/categories/initialize-for-user/"+testUserID {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewCategoryClient(server.URL, "", server.Client(), nil)
	if err := c.InitializeForUser(context.Background(), testUserID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called.Load() {
		t.Error("expected server to be called")
	}
}

func TestUserClient_Settings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/profile" || r.Header.Get("X-User-Id") != testUserID {
			t.Errorf("unexpected request %s with user %q", r.URL.Path, r.Header.Get("X-User-Id"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":"x","settings":{"currency":"EUR","link_investments_to_transactions":true}}}`))
	}))
	defer server.Close()

	c := NewUserClient(server.URL, "", server.Client(), nil)
	settings, err := c.Settings(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settings.LinkInvestmentsToTransactions || settings.Currency != "EUR" {
		t.Errorf("unexpected settings: %+v", settings)
	}
}

func TestBreaker(t *testing.T) {
	t.Run("opens_after_consecutive_failures", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		b := NewBreaker("transactions", BreakerSettings{MaxFailures: 2, OpenTimeout: time.Minute, CallTimeout: time.Second})
		c := NewTransactionClient(server.URL, "", server.Client(), b)

		for i := 0; i < 2; i++ {
			if _, err := c.CreateTransaction(context.Background(), testUserID, MirrorTransactionRequest{}); err == nil {
				t.Fatal("expected failure")
			}
		}
		if b.State() != "open" {
			t.Fatalf("expected open breaker, got %s", b.State())
		}

		_, err := c.CreateTransaction(context.Background(), testUserID, MirrorTransactionRequest{})
		if !errors.Is(err, ErrBreakerOpen) {
			t.Fatalf("expected ErrBreakerOpen, got %v", err)
		}
		if hits.Load() != 2 {
			t.Errorf("expected 2 remote hits, got %d", hits.Load())
		}
	})

	t.Run("client_errors_do_not_trip", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		b := NewBreaker("transactions", BreakerSettings{MaxFailures: 1, OpenTimeout: time.Minute})
		c := NewTransactionClient(server.URL, "", server.Client(), b)

		for i := 0; i < 3; i++ {
			_, err := c.CreateTransaction(context.Background(), testUserID, MirrorTransactionRequest{})
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected StatusError, got %v", err)
			}
		}
		if b.State() != "closed" {
			t.Errorf("expected closed breaker, got %s", b.State())
		}
	})

	t.Run("call_timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		b := NewBreaker("categories", BreakerSettings{CallTimeout: 50 * time.Millisecond})
		c := NewCategoryClient(server.URL, "", server.Client(), b)

		err := c.InitializeForUser(context.Background(), testUserID)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	})
}
