package models

import "time"

// Default settings applied to every new profile.
const (
	DefaultCurrency = "USD"
	DefaultTimezone = "America/Argentina/Buenos_Aires"
	DefaultLanguage = "es"
)

// UserProfile is the local profile of a user. Its ID is the subject issued by
// the identity provider, never generated locally.
type UserProfile struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Enabled   bool      `gorm:"not null;default:true" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Settings *UserSettings `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"settings,omitempty"`
}

// UserSettings holds per-user preferences, 1:1 with UserProfile.
type UserSettings struct {
	UserID                        string    `gorm:"type:uuid;primaryKey" json:"-"`
	Currency                      string    `gorm:"size:3;not null" json:"currency"`
	Timezone                      string    `gorm:"not null" json:"timezone"`
	Language                      string    `gorm:"size:8;not null" json:"language"`
	LinkInvestmentsToTransactions bool      `gorm:"not null;default:false" json:"link_investments_to_transactions"`
	EnableAutoGoalAssignments     bool      `gorm:"not null;default:true" json:"enable_auto_goal_assignments"`
	CreatedAt                     time.Time `json:"created_at"`
	UpdatedAt                     time.Time `json:"updated_at"`
}

// NewDefaultSettings returns the settings every registration starts with.
func NewDefaultSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:                        userID,
		Currency:                      DefaultCurrency,
		Timezone:                      DefaultTimezone,
		Language:                      DefaultLanguage,
		LinkInvestmentsToTransactions: false,
		EnableAutoGoalAssignments:     true,
	}
}

// LocalIdentity is a credential record of the built-in identity provider.
type LocalIdentity struct {
	Base
	Email               string     `gorm:"uniqueIndex;not null"`
	Username            string     `gorm:"uniqueIndex;not null"`
	PasswordHash        string     `gorm:"not null"`
	FailedLoginAttempts int        `gorm:"default:0"`
	LockedUntil         *time.Time
}
