package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/identity"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
	"github.com/tobiasceruttigothe/MyFinances/internal/services"
)

// --- mock user service ---

type mockUserService struct {
	registerFn      func(ctx context.Context, input services.RegisterInput) (*models.UserProfile, error)
	loginFn         func(ctx context.Context, login, password string) (*services.LoginResult, error)
	refreshTokenFn  func(ctx context.Context, refreshToken string) (*identity.TokenSet, error)
	getProfileFn    func(userID string) (*models.UserProfile, error)
	updateProfileFn func(userID string, patch services.ProfilePatch) (*models.UserProfile, error)
	deleteUserFn    func(ctx context.Context, userID string) error
}

func (m *mockUserService) Register(ctx context.Context, input services.RegisterInput) (*models.UserProfile, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return &models.UserProfile{}, nil
}

func (m *mockUserService) Login(ctx context.Context, login, password string) (*services.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, login, password)
	}
	return &services.LoginResult{User: &models.UserProfile{}}, nil
}

func (m *mockUserService) RefreshToken(ctx context.Context, refreshToken string) (*identity.TokenSet, error) {
	if m.refreshTokenFn != nil {
		return m.refreshTokenFn(ctx, refreshToken)
	}
	return &identity.TokenSet{}, nil
}

func (m *mockUserService) GetProfile(userID string) (*models.UserProfile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(userID)
	}
	return &models.UserProfile{ID: userID}, nil
}

func (m *mockUserService) UpdateProfile(userID string, patch services.ProfilePatch) (*models.UserProfile, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(userID, patch)
	}
	return &models.UserProfile{ID: userID}, nil
}

func (m *mockUserService) DeleteUser(ctx context.Context, userID string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(ctx, userID)
	}
	return nil
}

var _ services.UserServicer = (*mockUserService)(nil)

func setupUserRouter(handler *UserHandler) *gin.Engine {
	r := newTestRouter()
	r.POST("/users/register", handler.Register)
	r.POST("/users/login", handler.Login)
	r.POST("/users/refresh-token", handler.RefreshToken)
	g := r.Group("/users", injectUserID(testUserID))
	g.GET("/profile", handler.GetProfile)
	g.PUT("/profile", handler.UpdateProfile)
	g.DELETE("/profile", handler.DeleteProfile)
	return r
}

func TestUserHandler_Register(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockUserService{
			registerFn: func(_ context.Context, input services.RegisterInput) (*models.UserProfile, error) {
				return &models.UserProfile{
					ID:       testUserID,
					Email:    input.Email,
					Username: input.Username,
					Settings: models.NewDefaultSettings(testUserID),
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupUserRouter(NewUserHandler(svc, audit))

		rec := doRequest(r, http.MethodPost, "/users/register",
			`{"email":"ana@example.com","username":"ana","password":"password123","first_name":"Ana"}`)

		assertStatus(t, rec, http.StatusCreated)
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["id"] != testUserID || user["email"] != "ana@example.com" {
			t.Errorf("unexpected user %v", user)
		}
		settings := user["settings"].(map[string]interface{})
		if settings["currency"] != models.DefaultCurrency {
			t.Errorf("expected default currency, got %v", settings["currency"])
		}
		if !audit.hasAction("REGISTER") {
			t.Error("expected REGISTER audit entry")
		}
	})

	t.Run("returns 400 on invalid email", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/users/register",
			`{"email":"not-an-email","username":"ana","password":"password123"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/users/register",
			`{"email":"ana@example.com","username":"ana","password":"short"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		svc := &mockUserService{
			registerFn: func(context.Context, services.RegisterInput) (*models.UserProfile, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		r := setupUserRouter(NewUserHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/users/register",
			`{"email":"ana@example.com","username":"ana","password":"password123"}`)

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})

	t.Run("returns 502 when the identity provider fails", func(t *testing.T) {
		svc := &mockUserService{
			registerFn: func(context.Context, services.RegisterInput) (*models.UserProfile, error) {
				return nil, apperrors.ErrIdentityProvider
			},
		}
		r := setupUserRouter(NewUserHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/users/register",
			`{"email":"ana@example.com","username":"ana","password":"password123"}`)

		assertStatus(t, rec, http.StatusBadGateway)
	})
}

func TestUserHandler_Login(t *testing.T) {
	t.Run("returns tokens and profile", func(t *testing.T) {
		var gotLogin string
		svc := &mockUserService{
			loginFn: func(_ context.Context, login, _ string) (*services.LoginResult, error) {
				gotLogin = login
				return &services.LoginResult{
					TokenSet: identity.TokenSet{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 900},
					User:     &models.UserProfile{ID: testUserID, Email: login},
				}, nil
			},
		}
		r := setupUserRouter(NewUserHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/users/login", `{"email":"ana@example.com","password":"password123"}`)

		assertStatus(t, rec, http.StatusOK)
		result := parseJSON(t, rec)
		if result["access_token"] != "access" || result["refresh_token"] != "refresh" {
			t.Errorf("unexpected tokens %v", result)
		}
		if result["user"].(map[string]interface{})["id"] != testUserID {
			t.Error("expected user in response")
		}
		if gotLogin != "ana@example.com" {
			t.Errorf("expected email login, got %q", gotLogin)
		}
	})

	t.Run("accepts a username", func(t *testing.T) {
		var gotLogin string
		svc := &mockUserService{
			loginFn: func(_ context.Context, login, _ string) (*services.LoginResult, error) {
				gotLogin = login
				return &services.LoginResult{User: &models.UserProfile{ID: testUserID}}, nil
			},
		}
		r := setupUserRouter(NewUserHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/users/login", `{"username":"ana","password":"password123"}`)

		assertStatus(t, rec, http.StatusOK)
		if gotLogin != "ana" {
			t.Errorf("expected username login, got %q", gotLogin)
		}
	})

	t.Run("returns 400 without email or username", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/users/login", `{"password":"password123"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("returns 401 on invalid credentials", func(t *testing.T) {
		svc := &mockUserService{
			loginFn: func(context.Context, string, string) (*services.LoginResult, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupUserRouter(NewUserHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/users/login", `{"email":"ana@example.com","password":"wrong"}`)

		assertStatus(t, rec, http.StatusUnauthorized)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 423 when locked", func(t *testing.T) {
		svc := &mockUserService{
			loginFn: func(context.Context, string, string) (*services.LoginResult, error) {
				return nil, apperrors.ErrAccountLocked
			},
		}
		r := setupUserRouter(NewUserHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/users/login", `{"email":"ana@example.com","password":"wrong"}`)

		assertStatus(t, rec, http.StatusLocked)
	})
}

func TestUserHandler_RefreshToken(t *testing.T) {
	t.Run("returns a new token set", func(t *testing.T) {
		svc := &mockUserService{
			refreshTokenFn: func(_ context.Context, rt string) (*identity.TokenSet, error) {
				if rt != "old-refresh" {
					t.Errorf("unexpected refresh token %q", rt)
				}
				return &identity.TokenSet{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
			},
		}
		r := setupUserRouter(NewUserHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/users/refresh-token", `{"refresh_token":"old-refresh"}`)

		assertStatus(t, rec, http.StatusOK)
		if parseJSON(t, rec)["access_token"] != "new-access" {
			t.Error("expected new access token")
		}
	})

	t.Run("returns 401 on invalid token", func(t *testing.T) {
		svc := &mockUserService{
			refreshTokenFn: func(context.Context, string) (*identity.TokenSet, error) {
				return nil, apperrors.ErrInvalidToken
			},
		}
		r := setupUserRouter(NewUserHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/users/refresh-token", `{"refresh_token":"bad"}`)

		assertStatus(t, rec, http.StatusUnauthorized)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TOKEN")
	})
}

func TestUserHandler_Profile(t *testing.T) {
	t.Run("get returns the user envelope", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodGet, "/users/profile", "")

		assertStatus(t, rec, http.StatusOK)
		if parseJSON(t, rec)["user"].(map[string]interface{})["id"] != testUserID {
			t.Error("expected profile of the authenticated user")
		}
	})

	t.Run("update passes settings", func(t *testing.T) {
		var got services.ProfilePatch
		svc := &mockUserService{
			updateProfileFn: func(userID string, patch services.ProfilePatch) (*models.UserProfile, error) {
				got = patch
				return &models.UserProfile{ID: userID}, nil
			},
		}
		r := setupUserRouter(NewUserHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPut, "/users/profile",
			`{"currency":"ARS","link_investments_to_transactions":true}`)

		assertStatus(t, rec, http.StatusOK)
		if got.Currency == nil || *got.Currency != "ARS" {
			t.Errorf("expected ARS, got %v", got.Currency)
		}
		if got.LinkInvestmentsToTransactions == nil || !*got.LinkInvestmentsToTransactions {
			t.Error("expected link flag to be set")
		}
		if got.FirstName != nil {
			t.Error("expected untouched fields to stay nil")
		}
	})

	t.Run("update rejects unknown currency", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodPut, "/users/profile", `{"currency":"XYZ"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("delete returns 204", func(t *testing.T) {
		var deleted string
		svc := &mockUserService{
			deleteUserFn: func(_ context.Context, userID string) error {
				deleted = userID
				return nil
			},
		}
		r := setupUserRouter(NewUserHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodDelete, "/users/profile", "")

		assertStatus(t, rec, http.StatusNoContent)
		if deleted != testUserID {
			t.Errorf("expected %s deleted, got %s", testUserID, deleted)
		}
	})
}
