package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tobiasceruttigothe/MyFinances/internal/client"
	"github.com/tobiasceruttigothe/MyFinances/internal/identity"
	"github.com/tobiasceruttigothe/MyFinances/internal/uuid"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var errRemote = errors.New("remote unavailable")

type fakeMirror struct {
	mu        sync.Mutex
	createErr error
	deleteErr error
	created   []client.MirrorTransactionRequest
	deleted   []string
}

func (f *fakeMirror) CreateTransaction(_ context.Context, _ string, req client.MirrorTransactionRequest) (*client.RemoteTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &client.RemoteTransaction{ID: uuid.New(), Amount: req.Amount, Type: req.Type}, nil
}

func (f *fakeMirror) DeleteTransaction(_ context.Context, _, transactionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, transactionID)
	return nil
}

type fakeSettings struct {
	link  bool
	err   error
	calls int
}

func (f *fakeSettings) Settings(context.Context, string) (*client.RemoteSettings, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &client.RemoteSettings{Currency: "USD", LinkInvestmentsToTransactions: f.link}, nil
}

type fakeTotaler struct {
	total decimal.Decimal
	err   error
}

func (f *fakeTotaler) TotalValue(context.Context, string) (decimal.Decimal, error) {
	return f.total, f.err
}

type fakeInitializer struct {
	err   error
	calls []string
}

func (f *fakeInitializer) InitializeForUser(_ context.Context, userID string) error {
	f.calls = append(f.calls, userID)
	return f.err
}

type auditEntry struct {
	userID, action, resourceType, resourceID string
	changes                                  map[string]interface{}
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (r *recordingAudit) Log(userID, action, resourceType, resourceID, _ string, changes map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, auditEntry{userID, action, resourceType, resourceID, changes})
}

type fakeProvider struct {
	createErr  error
	authErr    error
	refreshErr error
	deleteErr  error
	subject    string
	deleted    []string
}

func (f *fakeProvider) CreateUser(context.Context, identity.NewUser) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.subject == "" {
		f.subject = uuid.New()
	}
	return f.subject, nil
}

func (f *fakeProvider) Authenticate(context.Context, string, string) (*identity.TokenSet, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return &identity.TokenSet{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 900}, nil
}

func (f *fakeProvider) Refresh(context.Context, string) (*identity.TokenSet, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &identity.TokenSet{AccessToken: "access-2", RefreshToken: "refresh-2", TokenType: "Bearer"}, nil
}

func (f *fakeProvider) DeleteUser(_ context.Context, subject string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, subject)
	return nil
}
