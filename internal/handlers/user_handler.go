package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tobiasceruttigothe/MyFinances/internal/identity"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
	"github.com/tobiasceruttigothe/MyFinances/internal/services"
)

// UserHandler handles registration, sessions and profiles.
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
}

// LoginRequest represents the login request payload. Either email or
// username identifies the user.
type LoginRequest struct {
	Email    string `json:"email" binding:"required_without=Username,max=255"`
	Username string `json:"username" binding:"required_without=Email,max=50"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest represents the refresh request payload
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest represents the profile update payload
type UpdateProfileRequest struct {
	FirstName                     *string `json:"first_name" binding:"omitempty,max=100"`
	LastName                      *string `json:"last_name" binding:"omitempty,max=100"`
	Currency                      *string `json:"currency" binding:"omitempty,iso4217"`
	Timezone                      *string `json:"timezone" binding:"omitempty,max=64"`
	Language                      *string `json:"language" binding:"omitempty,min=2,max=8"`
	LinkInvestmentsToTransactions *bool   `json:"link_investments_to_transactions"`
	EnableAutoGoalAssignments     *bool   `json:"enable_auto_goal_assignments"`
}

// AuthResponse represents a login response
type AuthResponse struct {
	identity.TokenSet
	User *models.UserProfile `json:"user"`
}

// Register handles user registration
// @Summary     Register a new user
// @Description Creates the identity, the local profile with default settings, and the user's categories
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} models.UserProfile "User registered"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email or username taken"
// @Failure     502 {object} ErrorResponse "Identity provider error"
// @Router      /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), services.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "REGISTER", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login handles user login
// @Summary     Login
// @Description Authenticate with email or username and password
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "Credentials"
// @Success     200 {object} AuthResponse "Tokens and profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     423 {object} ErrorResponse "Account locked"
// @Failure     502 {object} ErrorResponse "Identity provider error"
// @Router      /users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	login := req.Email
	if login == "" {
		login = req.Username
	}

	result, err := h.userService.Login(c.Request.Context(), login, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(result.User.ID, "LOGIN", "user", result.User.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, AuthResponse{TokenSet: result.TokenSet, User: result.User})
}

// RefreshToken handles exchanging a refresh token for a new token set
// @Summary     Refresh tokens
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       request body RefreshTokenRequest true "Refresh token"
// @Success     200 {object} identity.TokenSet
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid token"
// @Router      /users/refresh-token [post]
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	tokens, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// GetProfile handles retrieving the current user's profile
// @Summary     Get profile
// @Tags        users
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Success     200 {object} models.UserProfile
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetProfile(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile handles updating the current user's profile and settings
// @Summary     Update profile
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       request body UpdateProfileRequest true "Fields to update"
// @Success     200 {object} models.UserProfile
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.UpdateProfile(userID, services.ProfilePatch{
		FirstName:                     req.FirstName,
		LastName:                      req.LastName,
		Currency:                      req.Currency,
		Timezone:                      req.Timezone,
		Language:                      req.Language,
		LinkInvestmentsToTransactions: req.LinkInvestmentsToTransactions,
		EnableAutoGoalAssignments:     req.EnableAutoGoalAssignments,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PROFILE", "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteProfile handles deleting the current user
// @Summary     Delete account
// @Description Removes the identity, the profile and the settings
// @Tags        users
// @Param       X-User-Id header string true "User ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     502 {object} ErrorResponse "Identity provider error"
// @Router      /users/profile [delete]
func (h *UserHandler) DeleteProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_USER", "user", userID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
