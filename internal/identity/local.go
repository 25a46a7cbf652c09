package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tobiasceruttigothe/MyFinances/internal/models"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

// LocalProvider stores credentials in the user service database and issues
// its own JWTs. It backs development setups and tests where Keycloak is not
// available.
type LocalProvider struct {
	db       *gorm.DB
	issuer   *TokenIssuer
	verifier *TokenVerifier
	cost     int
	now      func() time.Time
}

// NewLocalProvider creates a LocalProvider signing tokens with secret.
func NewLocalProvider(db *gorm.DB, secret []byte, accessTTL, refreshTTL time.Duration) *LocalProvider {
	return &LocalProvider{
		db:       db,
		issuer:   NewTokenIssuer(secret, accessTTL, refreshTTL),
		verifier: NewHMACVerifier(secret),
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func (p *LocalProvider) WithBcryptCost(cost int) *LocalProvider {
	p.cost = cost
	return p
}

// CreateUser implements Provider.
func (p *LocalProvider) CreateUser(ctx context.Context, user NewUser) (string, error) {
	email := strings.ToLower(strings.TrimSpace(user.Email))

	var count int64
	if err := p.db.WithContext(ctx).Model(&models.LocalIdentity{}).
		Where("email = ? OR username = ?", email, user.Username).
		Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "", ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), p.cost)
	if err != nil {
		return "", err
	}

	record := &models.LocalIdentity{
		Email:        email,
		Username:     user.Username,
		PasswordHash: string(hash),
	}
	if err := p.db.WithContext(ctx).Create(record).Error; err != nil {
		return "", err
	}
	return record.ID, nil
}

// Authenticate implements Provider. Repeated failures lock the identity for
// a short period.
func (p *LocalProvider) Authenticate(ctx context.Context, login, password string) (*TokenSet, error) {
	var record models.LocalIdentity
	err := p.db.WithContext(ctx).
		Where("email = ? OR username = ?", strings.ToLower(strings.TrimSpace(login)), login).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := p.now()
	if record.LockedUntil != nil && now.Before(*record.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		updates := map[string]interface{}{"failed_login_attempts": record.FailedLoginAttempts + 1}
		if record.FailedLoginAttempts+1 >= maxFailedLogins {
			lockedUntil := now.Add(lockoutDuration)
			updates["locked_until"] = &lockedUntil
			updates["failed_login_attempts"] = 0
		}
		if err := p.db.WithContext(ctx).Model(&record).Updates(updates).Error; err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	if record.FailedLoginAttempts > 0 || record.LockedUntil != nil {
		if err := p.db.WithContext(ctx).Model(&record).Updates(map[string]interface{}{
			"failed_login_attempts": 0,
			"locked_until":          nil,
		}).Error; err != nil {
			return nil, err
		}
	}

	return p.issuer.Issue(record.ID, record.Email, record.Username)
}

// Refresh implements Provider.
func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	claims, err := p.verifier.Verify(refreshToken)
	if err != nil || claims.Type != TokenTypeRefresh {
		return nil, ErrInvalidRefreshToken
	}

	var record models.LocalIdentity
	if err := p.db.WithContext(ctx).Where("id = ?", claims.Subject).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return p.issuer.Issue(record.ID, record.Email, record.Username)
}

// DeleteUser implements Provider. Deleting an unknown subject is a no-op.
func (p *LocalProvider) DeleteUser(ctx context.Context, subject string) error {
	return p.db.WithContext(ctx).Unscoped().Where("id = ?", subject).Delete(&models.LocalIdentity{}).Error
}
