package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// KeycloakConfig configures a KeycloakProvider.
type KeycloakConfig struct {
	BaseURL       string
	Realm         string
	ClientID      string
	ClientSecret  string
	AdminUser     string
	AdminPassword string
}

// KeycloakProvider delegates identities to a Keycloak realm. Logins use the
// resource owner password grant; user management uses the admin REST API
// with an admin-cli token from the master realm.
type KeycloakProvider struct {
	cfg        KeycloakConfig
	realmOAuth *oauth2.Config
	adminOAuth *oauth2.Config
	httpClient *http.Client
}

// NewKeycloakProvider creates a KeycloakProvider.
func NewKeycloakProvider(cfg KeycloakConfig, httpClient *http.Client) *KeycloakProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	cfg.BaseURL = base

	return &KeycloakProvider{
		cfg: cfg,
		realmOAuth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  base + "/realms/" + url.PathEscape(cfg.Realm) + "/protocol/openid-connect/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"openid"},
		},
		adminOAuth: &oauth2.Config{
			ClientID: "admin-cli",
			Endpoint: oauth2.Endpoint{
				TokenURL:  base + "/realms/master/protocol/openid-connect/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}
}

func (p *KeycloakProvider) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// CreateUser implements Provider. The new subject id is read from the
// Location header of the admin API response.
func (p *KeycloakProvider) CreateUser(ctx context.Context, user NewUser) (string, error) {
	admin, err := p.adminClient(ctx)
	if err != nil {
		return "", err
	}

	payload := map[string]interface{}{
		"username":      user.Username,
		"email":         user.Email,
		"firstName":     user.FirstName,
		"lastName":      user.LastName,
		"enabled":       true,
		"emailVerified": true,
		"credentials": []map[string]interface{}{
			{"type": "password", "value": user.Password, "temporary": false},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling keycloak user: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.usersURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := admin.Do(req)
	if err != nil {
		return "", fmt.Errorf("creating keycloak user: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusConflict:
		return "", ErrUserExists
	default:
		return "", fmt.Errorf("creating keycloak user: unexpected status %d", resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", errors.New("creating keycloak user: response has no Location header")
	}
	return path.Base(location), nil
}

// Authenticate implements Provider.
func (p *KeycloakProvider) Authenticate(ctx context.Context, login, password string) (*TokenSet, error) {
	tok, err := p.realmOAuth.PasswordCredentialsToken(p.oauthContext(ctx), login, password)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && (rErr.Response.StatusCode == http.StatusUnauthorized || rErr.Response.StatusCode == http.StatusBadRequest) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("keycloak login: %w", err)
	}
	return tokenSetFrom(tok), nil
}

// Refresh implements Provider.
func (p *KeycloakProvider) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	expired := &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Now().Add(-time.Minute)}
	tok, err := p.realmOAuth.TokenSource(p.oauthContext(ctx), expired).Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response.StatusCode < http.StatusInternalServerError {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("keycloak refresh: %w", err)
	}
	return tokenSetFrom(tok), nil
}

// DeleteUser implements Provider. An already deleted user counts as deleted.
func (p *KeycloakProvider) DeleteUser(ctx context.Context, subject string) error {
	admin, err := p.adminClient(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.usersURL()+"/"+url.PathEscape(subject), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := admin.Do(req)
	if err != nil {
		return fmt.Errorf("deleting keycloak user: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("deleting keycloak user: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (p *KeycloakProvider) adminClient(ctx context.Context) (*http.Client, error) {
	octx := p.oauthContext(ctx)
	tok, err := p.adminOAuth.PasswordCredentialsToken(octx, p.cfg.AdminUser, p.cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("obtaining keycloak admin token: %w", err)
	}
	return p.adminOAuth.Client(octx, tok), nil
}

func (p *KeycloakProvider) usersURL() string {
	return p.cfg.BaseURL + "/admin/realms/" + url.PathEscape(p.cfg.Realm) + "/users"
}

func tokenSetFrom(tok *oauth2.Token) *TokenSet {
	set := &TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		ExpiresAt:    tok.Expiry,
	}
	if !tok.Expiry.IsZero() {
		set.ExpiresIn = int64(time.Until(tok.Expiry) / time.Second)
	}
	return set
}
