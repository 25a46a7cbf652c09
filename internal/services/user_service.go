package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/identity"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
	"github.com/tobiasceruttigothe/MyFinances/internal/validator"
)

// RegisterInput holds the data needed to register a user.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// LoginResult is a token set together with the user's profile.
type LoginResult struct {
	identity.TokenSet
	User *models.UserProfile `json:"user"`
}

// ProfilePatch holds the mutable profile and settings fields. Nil fields are
// left untouched.
type ProfilePatch struct {
	FirstName                     *string
	LastName                      *string
	Currency                      *string
	Timezone                      *string
	Language                      *string
	LinkInvestmentsToTransactions *bool
	EnableAutoGoalAssignments     *bool
}

// userService coordinates the identity provider with local profiles.
type userService struct {
	db         *gorm.DB
	provider   identity.Provider
	categories CategoryInitializer
}

// NewUserService creates a new UserServicer. categories may be nil, in which
// case new users start without cloned categories.
func NewUserService(db *gorm.DB, provider identity.Provider, categories CategoryInitializer) UserServicer {
	return &userService{db: db, provider: provider, categories: categories}
}

// Register creates the identity, then the local profile with default
// settings, then asks the account service to clone the category templates.
func (s *userService) Register(ctx context.Context, input RegisterInput) (*models.UserProfile, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)
	if email == "" || username == "" || input.Password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email, username and password are required")
	}

	var count int64
	if err := s.db.Model(&models.UserProfile{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}
	if err := s.db.Model(&models.UserProfile{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUsername
	}

	subject, err := s.provider.CreateUser(ctx, identity.NewUser{
		Email:     email,
		Username:  username,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	})
	if err != nil {
		if errors.Is(err, identity.ErrUserExists) {
			return nil, apperrors.WithMessage(apperrors.ErrConflict, "user already exists at the identity provider")
		}
		return nil, apperrors.Wrap(apperrors.ErrIdentityProvider, err)
	}

	profile := &models.UserProfile{
		ID:        subject,
		Email:     email,
		Username:  username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Enabled:   true,
	}
	settings := models.NewDefaultSettings(subject)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		return tx.Create(settings).Error
	})
	if err != nil {
		if delErr := s.provider.DeleteUser(ctx, subject); delErr != nil {
			logger.Get().Errorw("failed to remove identity after profile creation failed",
				"user_id", subject,
				"error", delErr,
			)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	profile.Settings = settings

	if s.categories != nil {
		if err := s.categories.InitializeForUser(ctx, subject); err != nil {
			logger.Get().Warnw("failed to initialize categories for new user",
				"user_id", subject,
				"error", err,
			)
		}
	}

	return profile, nil
}

// Login authenticates against the identity provider and returns the tokens
// with the local profile.
func (s *userService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	tokens, err := s.provider.Authenticate(ctx, login, password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			return nil, apperrors.ErrInvalidCredentials
		case errors.Is(err, identity.ErrAccountLocked):
			return nil, apperrors.ErrAccountLocked
		default:
			return nil, apperrors.Wrap(apperrors.ErrIdentityProvider, err)
		}
	}

	var profile models.UserProfile
	normalized := strings.ToLower(strings.TrimSpace(login))
	if err := s.db.Preload("Settings").
		Where("email = ? OR username = ?", normalized, strings.TrimSpace(login)).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Errorw("identity authenticated without a local profile", "login", normalized)
			return nil, apperrors.ErrProfileMissing
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &LoginResult{TokenSet: *tokens, User: &profile}, nil
}

// RefreshToken exchanges a refresh token for a new token set.
func (s *userService) RefreshToken(ctx context.Context, refreshToken string) (*identity.TokenSet, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "refresh_token is required")
	}
	tokens, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidRefreshToken) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.Wrap(apperrors.ErrIdentityProvider, err)
	}
	return tokens, nil
}

// GetProfile retrieves a profile with its settings.
func (s *userService) GetProfile(userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.Preload("Settings").Where("id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if profile.Settings == nil {
		profile.Settings = models.NewDefaultSettings(profile.ID)
	}
	return &profile, nil
}

// UpdateProfile applies patch to the profile and its settings.
func (s *userService) UpdateProfile(userID string, patch ProfilePatch) (*models.UserProfile, error) {
	profile, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	profileUpdates := make(map[string]interface{})
	if patch.FirstName != nil {
		profileUpdates["first_name"] = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		profileUpdates["last_name"] = strings.TrimSpace(*patch.LastName)
	}

	settings := *profile.Settings
	if patch.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*patch.Currency))
		if !validator.IsISO4217(currency) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency must be an ISO 4217 code")
		}
		settings.Currency = currency
	}
	if patch.Timezone != nil {
		if _, err := time.LoadLocation(*patch.Timezone); err != nil || *patch.Timezone == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "timezone must be an IANA time zone name")
		}
		settings.Timezone = *patch.Timezone
	}
	if patch.Language != nil {
		language := strings.TrimSpace(*patch.Language)
		if len(language) < 2 || len(language) > 8 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "language must be a language tag")
		}
		settings.Language = language
	}
	if patch.LinkInvestmentsToTransactions != nil {
		settings.LinkInvestmentsToTransactions = *patch.LinkInvestmentsToTransactions
	}
	if patch.EnableAutoGoalAssignments != nil {
		settings.EnableAutoGoalAssignments = *patch.EnableAutoGoalAssignments
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(profileUpdates) > 0 {
			if err := tx.Model(&models.UserProfile{}).Where("id = ?", userID).Updates(profileUpdates).Error; err != nil {
				return err
			}
		}
		return tx.Save(&settings).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetProfile(userID)
}

// DeleteUser removes the identity and then the local profile and settings.
// A failure after the identity is gone is not compensated.
func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.GetProfile(userID); err != nil {
		return err
	}

	if err := s.provider.DeleteUser(ctx, userID); err != nil {
		return apperrors.Wrap(apperrors.ErrIdentityProvider, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserSettings{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).Delete(&models.UserProfile{}).Error
	})
	if err != nil {
		logger.Get().Errorw("identity deleted but local profile removal failed",
			"user_id", userID,
			"error", err,
		)
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
